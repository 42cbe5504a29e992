package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inErrors "github.com/evermart/storefront/internal/errors"
	"github.com/evermart/storefront/internal/storage"
)

func mintToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestNewSessionIsAnonymous(t *testing.T) {
	sess := New(storage.NewMemoryStore())
	assert.Equal(t, StateAnonymous, sess.State())
	assert.Empty(t, sess.AccessToken())
	assert.Nil(t, sess.User())
	assert.ErrorIs(t, sess.Valid(), inErrors.ErrSessionExpired)
}

func TestLoginPersistsTokensAndUser(t *testing.T) {
	c := context.Background()
	mem := storage.NewMemoryStore()
	sess := New(mem)
	user := User{ID: uuid.New(), Name: "Test User", Email: "test@example.com", Role: "customer"}

	require.NoError(t, sess.Login(c, "access-1", "refresh-1", user))

	assert.Equal(t, StateAuthenticated, sess.State())
	assert.Equal(t, "access-1", sess.AccessToken())
	assert.Equal(t, "refresh-1", sess.RefreshToken())
	require.NotNil(t, sess.User())
	assert.Equal(t, user.Email, sess.User().Email)
	assert.NoError(t, sess.Valid())

	access, err := mem.Get(c, storage.KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "access-1", string(access))
	refresh, err := mem.Get(c, storage.KeyRefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", string(refresh))
}

func TestLoadRestoresPersistedSession(t *testing.T) {
	c := context.Background()
	mem := storage.NewMemoryStore()
	user := User{ID: uuid.New(), Name: "Test User", Email: "test@example.com", Role: "customer"}
	require.NoError(t, New(mem).Login(c, "access-1", "refresh-1", user))

	restored := New(mem)
	require.NoError(t, restored.Load(c))
	assert.Equal(t, StateAuthenticated, restored.State())
	assert.Equal(t, "access-1", restored.AccessToken())
	assert.Equal(t, "refresh-1", restored.RefreshToken())
	require.NotNil(t, restored.User())
	assert.Equal(t, user.ID, restored.User().ID)
}

func TestLoadWithEmptyStorageStaysAnonymous(t *testing.T) {
	sess := New(storage.NewMemoryStore())
	require.NoError(t, sess.Load(context.Background()))
	assert.Equal(t, StateAnonymous, sess.State())
	assert.Empty(t, sess.AccessToken())
}

func TestTokensRefreshedRotatesPair(t *testing.T) {
	c := context.Background()
	mem := storage.NewMemoryStore()
	sess := New(mem)
	require.NoError(t, sess.Login(c, "access-1", "refresh-1", User{ID: uuid.New()}))

	sess.BeginRefresh()
	assert.Equal(t, StateRefreshing, sess.State())

	require.NoError(t, sess.TokensRefreshed(c, "access-2", "refresh-2"))
	assert.Equal(t, StateAuthenticated, sess.State())
	assert.Equal(t, "access-2", sess.AccessToken())
	assert.Equal(t, "refresh-2", sess.RefreshToken())

	access, err := mem.Get(c, storage.KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "access-2", string(access))
}

func TestTokensRefreshedKeepsOldRefreshTokenWhenNotRotated(t *testing.T) {
	c := context.Background()
	sess := New(storage.NewMemoryStore())
	require.NoError(t, sess.Login(c, "access-1", "refresh-1", User{ID: uuid.New()}))

	require.NoError(t, sess.TokensRefreshed(c, "access-2", ""))
	assert.Equal(t, "access-2", sess.AccessToken())
	assert.Equal(t, "refresh-1", sess.RefreshToken())
}

func TestClearDropsSessionButNotCart(t *testing.T) {
	c := context.Background()
	mem := storage.NewMemoryStore()
	require.NoError(t, mem.Set(c, storage.KeyCart, []byte(`[]`)))
	sess := New(mem)
	require.NoError(t, sess.Login(c, "access-1", "refresh-1", User{ID: uuid.New()}))

	require.NoError(t, sess.Clear(c))

	assert.Equal(t, StateAnonymous, sess.State())
	assert.Empty(t, sess.AccessToken())
	assert.Empty(t, sess.RefreshToken())
	assert.Nil(t, sess.User())
	_, err := mem.Get(c, storage.KeyAccessToken)
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)
	_, err = mem.Get(c, storage.KeyRefreshToken)
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)
	_, err = mem.Get(c, storage.KeyUser)
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)

	// The cart belongs to the device, not the account.
	cart, err := mem.Get(c, storage.KeyCart)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(cart))
}

func TestExpiresSoon(t *testing.T) {
	c := context.Background()

	sess := New(storage.NewMemoryStore())
	assert.False(t, sess.ExpiresSoon(30*time.Second), "anonymous session never expires soon")

	require.NoError(t, sess.Login(c, mintToken(t, time.Now().Add(10*time.Second)), "refresh-1", User{ID: uuid.New()}))
	assert.True(t, sess.ExpiresSoon(30*time.Second))

	require.NoError(t, sess.Login(c, mintToken(t, time.Now().Add(time.Hour)), "refresh-1", User{ID: uuid.New()}))
	assert.False(t, sess.ExpiresSoon(30*time.Second))

	// Opaque tokens are left for the 401 path.
	require.NoError(t, sess.Login(c, "not-a-jwt", "refresh-1", User{ID: uuid.New()}))
	assert.False(t, sess.ExpiresSoon(30*time.Second))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "anonymous", StateAnonymous.String())
	assert.Equal(t, "authenticated", StateAuthenticated.String())
	assert.Equal(t, "refreshing", StateRefreshing.String())
}
