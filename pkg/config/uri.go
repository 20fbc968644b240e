package config

import (
	"context"
	"fmt"
	"net/url"

	"github.com/blocklake/blocklake/pkg/blockstore"
)

// FromURI constructs a block store from a compact URI instead of a full
// configuration file. Supported schemes:
//
//	mem:///blocks/                  in-memory namespace rooted at /blocks/
//	file:///var/lib/blocklake/      local filesystem, directory as root
//	s3://bucket/blocks/             S3 bucket, key prefix as root
//
// S3 URIs accept query parameters for the knobs a URI cannot carry
// otherwise: region, endpoint, credential_ref, force_path_style. A
// credential_ref is resolved through reg, exactly as in file-based
// configuration. The returned store is unstarted.
func FromURI(ctx context.Context, uri string, reg CredentialRegistry) (blockstore.LifecycleStore, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("parsing store URI %q: %w", uri, err)
	}

	cfg := &Config{}
	ApplyDefaults(cfg)

	switch u.Scheme {
	case "mem":
		cfg.Store.Namespace = NamespaceConfig{Type: "memory"}
		if u.Path != "" {
			cfg.Store.Root = u.Path
		}

	case "file":
		// A host component (file://var/lib/...) is a common slip for the
		// triple-slash form; fold it back into the path.
		dir := u.Path
		if u.Host != "" {
			dir = "/" + u.Host + u.Path
		}
		if dir == "" || dir == "/" {
			return nil, fmt.Errorf("file store URI %q: directory is required", uri)
		}
		cfg.Store.Namespace = NamespaceConfig{
			Type:    "localfs",
			Localfs: map[string]any{"path": dir},
		}
		// The directory itself is the root; blocks land directly in it.
		cfg.Store.Root = "/"

	case "s3":
		if u.Host == "" {
			return nil, fmt.Errorf("s3 store URI %q: bucket is required", uri)
		}
		q := u.Query()
		region := q.Get("region")
		if region == "" {
			region = "us-east-1"
		}
		cfg.Store.Namespace = NamespaceConfig{
			Type: "s3",
			S3: map[string]any{
				"bucket":           u.Host,
				"region":           region,
				"endpoint":         q.Get("endpoint"),
				"credential_ref":   q.Get("credential_ref"),
				"force_path_style": q.Get("force_path_style") == "true",
			},
		}
		if u.Path != "" {
			cfg.Store.Root = u.Path
		}

	default:
		return nil, fmt.Errorf("unsupported store URI scheme %q", u.Scheme)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("store URI %q: %w", uri, err)
	}
	return CreateStore(ctx, cfg, reg)
}
