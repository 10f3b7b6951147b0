package driven

import (
	"context"
	"errors"

	"github.com/efisher/tiktrends/internal/domain/model"
)

// ErrEncryptionKeyNotSet is returned by CredentialStore implementations when
// credential encryption is not configured. Callers fall back to
// environment-provided credentials.
var ErrEncryptionKeyNotSet = errors.New("credential encryption key not set")

// CredentialStore defines the driven port for encrypted credential storage.
// Stored credentials take priority over environment variables at startup.
type CredentialStore interface {
	Set(ctx context.Context, service, key, value string) error
	// Get returns ("", nil) when no credential exists for service/key.
	Get(ctx context.Context, service, key string) (string, error)
	List(ctx context.Context) ([]model.Credential, error)
	Delete(ctx context.Context, service, key string) error
}
