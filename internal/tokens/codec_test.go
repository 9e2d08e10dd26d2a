package tokens

import (
	"testing"
	"time"

	"auth-service/internal/config"
	"auth-service/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func testCodec() *Codec {
	return New(config.AuthConfig{
		AccessSecret:  "unit-access-secret",
		RefreshSecret: "unit-refresh-secret",
		Issuer:        "auth-service",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
	})
}

func TestMintVerify_RoundTrip(t *testing.T) {
	t.Parallel()

	c := testCodec()
	userID := uuid.New()
	now := time.Now().UTC()

	for _, kind := range []models.TokenKind{models.KindAccess, models.KindRefresh} {
		raw, err := c.Mint(userID, []string{models.RoleUser}, kind, now)
		require.NoError(t, err)

		payload, err := c.Verify(raw, kind)
		require.NoError(t, err)
		require.Equal(t, userID, payload.UserID)
		require.Equal(t, []string{models.RoleUser}, payload.Roles)
		require.Equal(t, kind, payload.Kind)
		require.WithinDuration(t, now.Add(c.TTL(kind)), payload.ExpiresAt, time.Second)
	}
}

func TestMint_UniquePerCall(t *testing.T) {
	t.Parallel()

	c := testCodec()
	userID := uuid.New()
	now := time.Now().UTC()

	// Благодаря jti два токена, выпущенные в одну секунду, различаются.
	a, err := c.Mint(userID, nil, models.KindRefresh, now)
	require.NoError(t, err)
	b, err := c.Mint(userID, nil, models.KindRefresh, now)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestVerify_CrossKind_DifferentSecrets(t *testing.T) {
	t.Parallel()

	c := testCodec()
	userID := uuid.New()
	now := time.Now().UTC()

	// При разных секретах перекрёстное предъявление падает уже на подписи.
	access, err := c.Mint(userID, nil, models.KindAccess, now)
	require.NoError(t, err)
	_, err = c.Verify(access, models.KindRefresh)
	require.ErrorIs(t, err, ErrInvalidToken)

	refresh, err := c.Mint(userID, nil, models.KindRefresh, now)
	require.NoError(t, err)
	_, err = c.Verify(refresh, models.KindAccess)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_CrossKind_SharedSecret_KindDiscriminator(t *testing.T) {
	t.Parallel()

	// Даже при общем секрете дискриминатор "type" отклоняет чужой вид.
	c := New(config.AuthConfig{
		AccessSecret:  "shared-secret",
		RefreshSecret: "shared-secret",
		Issuer:        "auth-service",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
	})

	access, err := c.Mint(uuid.New(), nil, models.KindAccess, time.Now().UTC())
	require.NoError(t, err)

	_, err = c.Verify(access, models.KindRefresh)
	require.ErrorIs(t, err, ErrKindMismatch)
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	c := testCodec()

	raw, err := c.Mint(uuid.New(), nil, models.KindAccess, time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)

	_, err = c.Verify(raw, models.KindAccess)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerify_GarbageAndWrongIssuer(t *testing.T) {
	t.Parallel()

	c := testCodec()

	_, err := c.Verify("not-a-jwt", models.KindAccess)
	require.ErrorIs(t, err, ErrInvalidToken)

	other := New(config.AuthConfig{
		AccessSecret:  "unit-access-secret",
		RefreshSecret: "unit-refresh-secret",
		Issuer:        "someone-else",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
	})

	raw, err := other.Mint(uuid.New(), nil, models.KindAccess, time.Now().UTC())
	require.NoError(t, err)

	_, err = c.Verify(raw, models.KindAccess)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestMintVerify_UnknownKind(t *testing.T) {
	t.Parallel()

	c := testCodec()

	_, err := c.Mint(uuid.New(), nil, models.TokenKind("session"), time.Now().UTC())
	require.Error(t, err)

	_, err = c.Verify("whatever", models.TokenKind("session"))
	require.Error(t, err)
}
