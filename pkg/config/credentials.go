package config

import "fmt"

// TokenSource holds one set of static credentials for a remote namespace.
type TokenSource struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// CredentialRegistry maps credential names to token sources. Config sections
// reference entries by name through credential_ref, which keeps secrets out
// of config files: the registry is populated by the embedding program (from
// its own vault, environment, instance metadata).
type CredentialRegistry map[string]TokenSource

// Lookup resolves a credential reference.
func (r CredentialRegistry) Lookup(name string) (TokenSource, error) {
	if r == nil {
		return TokenSource{}, fmt.Errorf("credential %q referenced but no registry provided", name)
	}
	ts, ok := r[name]
	if !ok {
		return TokenSource{}, fmt.Errorf("credential %q not found in registry", name)
	}
	return ts, nil
}
