package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/afero"

	"github.com/blocklake/blocklake/internal/logger"
	"github.com/blocklake/blocklake/pkg/blockstore"
	"github.com/blocklake/blocklake/pkg/blockstore/badgerdb"
	blockMemory "github.com/blocklake/blocklake/pkg/blockstore/memory"
	"github.com/blocklake/blocklake/pkg/blockstore/remotens"
	"github.com/blocklake/blocklake/pkg/namespace"
	"github.com/blocklake/blocklake/pkg/namespace/localfs"
	nsMemory "github.com/blocklake/blocklake/pkg/namespace/memory"
	nsS3 "github.com/blocklake/blocklake/pkg/namespace/s3"
)

// CreateStore creates a block store from configuration.
//
// The registry resolves credential_ref entries in namespace sections; pass
// nil when the configuration carries direct keys or relies on the ambient
// AWS credential chain. The returned store is unstarted.
func CreateStore(ctx context.Context, cfg *Config, reg CredentialRegistry) (blockstore.LifecycleStore, error) {
	switch cfg.Store.Type {
	case "remote":
		return createRemoteStore(ctx, &cfg.Store, reg)
	case "memory":
		return blockMemory.New(blockMemory.Config{ListBuffer: cfg.Store.ListBuffer}), nil
	case "badger":
		return createBadgerStore(&cfg.Store)
	default:
		return nil, fmt.Errorf("unknown block store type: %q", cfg.Store.Type)
	}
}

func createBadgerStore(cfg *StoreConfig) (blockstore.LifecycleStore, error) {
	type badgerOptions struct {
		Path         string `mapstructure:"path"`
		InMemory     bool   `mapstructure:"in_memory"`
		BlockCacheMB int64  `mapstructure:"block_cache_mb"`
	}

	var opts badgerOptions
	if err := mapstructure.Decode(cfg.Badger, &opts); err != nil {
		return nil, fmt.Errorf("failed to decode badger store config: %w", err)
	}
	if opts.Path == "" && !opts.InMemory {
		return nil, fmt.Errorf("badger store: path is required")
	}

	return badgerdb.New(badgerdb.Config{
		Path:         opts.Path,
		InMemory:     opts.InMemory,
		BlockCacheMB: opts.BlockCacheMB,
		ListBuffer:   cfg.ListBuffer,
	}), nil
}

func createRemoteStore(ctx context.Context, cfg *StoreConfig, reg CredentialRegistry) (blockstore.LifecycleStore, error) {
	ns, err := createNamespace(ctx, &cfg.Namespace, reg)
	if err != nil {
		return nil, err
	}
	logger.Debug("remote block store over %s rooted at %s", ns, cfg.Root)

	return remotens.New(ns, remotens.Config{
		Root:          cfg.Root,
		ProbeAttempts: cfg.ProbeAttempts,
		ProbeInterval: cfg.ProbeInterval,
		ListBuffer:    cfg.ListBuffer,
		CheckSummary:  cfg.CheckSummary,
	}), nil
}

// createNamespace creates a namespace backend from configuration.
func createNamespace(ctx context.Context, cfg *NamespaceConfig, reg CredentialRegistry) (namespace.Namespace, error) {
	switch cfg.Type {
	case "s3":
		return createS3Namespace(ctx, cfg.S3, reg)
	case "localfs":
		return createLocalfsNamespace(cfg.Localfs)
	case "memory":
		return nsMemory.New(nsMemory.Config{}), nil
	default:
		return nil, fmt.Errorf("unknown namespace type: %q", cfg.Type)
	}
}

func createLocalfsNamespace(options map[string]any) (namespace.Namespace, error) {
	type localfsOptions struct {
		Path string `mapstructure:"path"`
	}

	var opts localfsOptions
	if err := mapstructure.Decode(options, &opts); err != nil {
		return nil, fmt.Errorf("failed to decode localfs namespace config: %w", err)
	}
	if opts.Path == "" {
		return nil, fmt.Errorf("localfs namespace: path is required")
	}

	return localfs.New(afero.NewBasePathFs(afero.NewOsFs(), opts.Path)), nil
}

func createS3Namespace(ctx context.Context, options map[string]any, reg CredentialRegistry) (namespace.Namespace, error) {
	type s3Options struct {
		Region          string `mapstructure:"region"`
		Bucket          string `mapstructure:"bucket"`
		KeyPrefix       string `mapstructure:"key_prefix"`
		Endpoint        string `mapstructure:"endpoint"`
		AccessKeyID     string `mapstructure:"access_key_id"`
		SecretAccessKey string `mapstructure:"secret_access_key"`
		CredentialRef   string `mapstructure:"credential_ref"`
		ForcePathStyle  bool   `mapstructure:"force_path_style"`
		MaxRetries      int    `mapstructure:"max_retries"`
	}

	var opts s3Options
	if err := mapstructure.Decode(options, &opts); err != nil {
		return nil, fmt.Errorf("failed to decode S3 namespace config: %w", err)
	}
	if opts.Bucket == "" {
		return nil, fmt.Errorf("S3 namespace: bucket is required")
	}
	if opts.Region == "" {
		return nil, fmt.Errorf("S3 namespace: region is required")
	}

	var configOptions []func(*awsConfig.LoadOptions) error
	configOptions = append(configOptions, awsConfig.WithRegion(opts.Region))

	// Direct keys win over a credential_ref; neither means the default
	// credential chain (environment, shared config, instance metadata).
	token := TokenSource{
		AccessKeyID:     opts.AccessKeyID,
		SecretAccessKey: opts.SecretAccessKey,
	}
	if token.AccessKeyID == "" && opts.CredentialRef != "" {
		resolved, err := reg.Lookup(opts.CredentialRef)
		if err != nil {
			return nil, fmt.Errorf("S3 namespace: %w", err)
		}
		token = resolved
	}
	if token.AccessKeyID != "" && token.SecretAccessKey != "" {
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				token.AccessKeyID,
				token.SecretAccessKey,
				token.SessionToken,
			)))
	}

	maxRetries := opts.MaxRetries
	if maxRetries == 0 {
		maxRetries = 10
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries
		})
	}))

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		if opts.ForcePathStyle {
			o.UsePathStyle = true
		}
	})

	return nsS3.New(ctx, nsS3.Config{
		Client:    client,
		Bucket:    opts.Bucket,
		KeyPrefix: opts.KeyPrefix,
	})
}
