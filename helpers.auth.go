package main

// DefaultAPIKey is used when no api key is configured. It is public and
// therefore only suitable for local development.
const DefaultAPIKey = "fake-key"

// Authenticator checks the key presented by a caller.
type Authenticator interface {
	Authenticate(presented string) bool
}

var _ Authenticator = (*APIKeyAuthenticator)(nil)

// APIKeyAuthenticator compares presented keys against a single static secret.
type APIKeyAuthenticator struct {
	secret string
}

// NewAPIKeyAuthenticator returns an authenticator bound to the configured secret.
func NewAPIKeyAuthenticator(config *Config) *APIKeyAuthenticator {
	secret := DefaultAPIKey
	if config != nil && config.APIKey != "" {
		secret = config.APIKey
	}
	return &APIKeyAuthenticator{secret: secret}
}

// Authenticate returns true only for a non-empty key equal to the secret.
// The comparison is a plain string equality, not a constant-time one.
func (a *APIKeyAuthenticator) Authenticate(presented string) bool {
	return presented != "" && presented == a.secret
}
