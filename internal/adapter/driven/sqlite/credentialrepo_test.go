package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efisher/tiktrends/internal/domain/port/driven"
)

func TestCredentialRepoSetGetRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testEncryptionKey())
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "tikapi", "key", "super-secret-api-key"))

	got, err := repo.Get(ctx, "tikapi", "key")
	require.NoError(t, err)
	assert.Equal(t, "super-secret-api-key", got)

	// Values are not stored as plaintext.
	var stored string
	err = db.Reader.QueryRow(`SELECT value FROM credentials WHERE service = 'tikapi'`).Scan(&stored)
	require.NoError(t, err)
	assert.NotEqual(t, "super-secret-api-key", stored)
	assert.NotContains(t, stored, "super-secret")
}

func TestCredentialRepoGetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testEncryptionKey())

	got, err := repo.Get(context.Background(), "tikapi", "key")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCredentialRepoSetReplaces(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testEncryptionKey())
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "bigquery", "service_account", "old"))
	require.NoError(t, repo.Set(ctx, "bigquery", "service_account", "new"))

	got, err := repo.Get(ctx, "bigquery", "service_account")
	require.NoError(t, err)
	assert.Equal(t, "new", got)

	creds, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, creds, 1)
}

func TestCredentialRepoListOrdered(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testEncryptionKey())
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "tikapi", "key", "a"))
	require.NoError(t, repo.Set(ctx, "bigquery", "service_account", "b"))

	creds, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, creds, 2)
	assert.Equal(t, "bigquery", creds[0].Service)
	assert.Equal(t, "tikapi", creds[1].Service)
	assert.Equal(t, "a", creds[1].Value)
	assert.False(t, creds[0].UpdatedAt.IsZero())
}

func TestCredentialRepoDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testEncryptionKey())
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "tikapi", "key", "value"))
	require.NoError(t, repo.Delete(ctx, "tikapi", "key"))

	got, err := repo.Get(ctx, "tikapi", "key")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCredentialRepoWithoutKey(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, nil)
	ctx := context.Background()

	err := repo.Set(ctx, "tikapi", "key", "value")
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)

	_, err = repo.Get(ctx, "tikapi", "key")
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)

	_, err = repo.List(ctx)
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)
}
