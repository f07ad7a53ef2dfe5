package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/galeriaarte/galeria-server/internal/errors"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestNewVerifier_RejectsShortSecret(t *testing.T) {
	_, err := NewVerifier("short", "")
	assert.Error(t, err)
}

func TestVerifier_RoundTrip(t *testing.T) {
	v, err := NewVerifier(testSecret, "")
	require.NoError(t, err)
	user := User{ID: uuid.New(), Email: "artista@galeria.test", Role: "authenticated"}

	token, err := v.Issue(user, time.Hour)
	require.NoError(t, err)

	got, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user, *got)
}

func TestVerifier_Rejects(t *testing.T) {
	v, err := NewVerifier(testSecret, "")
	require.NoError(t, err)
	other, err := NewVerifier("ffffffffffffffffffffffffffffffff", "")
	require.NoError(t, err)
	wrongAudience, err := NewVerifier(testSecret, "anon")
	require.NoError(t, err)
	user := User{ID: uuid.New()}

	sign := func(claims jwt.Claims, method jwt.SigningMethod, key any) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	expired, err := v.Issue(user, -time.Minute)
	require.NoError(t, err)
	foreign, err := other.Issue(user, time.Hour)
	require.NoError(t, err)
	anon, err := wrongAudience.Issue(user, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not.a.token"},
		{name: "expired", token: expired},
		{name: "other secret", token: foreign},
		{name: "wrong audience", token: anon},
		{name: "no expiry", token: sign(Claims{RegisteredClaims: jwt.RegisteredClaims{
			Subject: user.ID.String(), Audience: jwt.ClaimStrings{DefaultAudience},
		}}, jwt.SigningMethodHS256, []byte(testSecret))},
		{name: "subject not a uuid", token: sign(Claims{RegisteredClaims: jwt.RegisteredClaims{
			Subject: "someone", Audience: jwt.ClaimStrings{DefaultAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}, jwt.SigningMethodHS256, []byte(testSecret))},
		{name: "unsigned", token: sign(Claims{RegisteredClaims: jwt.RegisteredClaims{
			Subject: user.ID.String(), Audience: jwt.ClaimStrings{DefaultAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.token)
			require.Error(t, err)
			assert.Equal(t, domainerrors.CodeUnauthorized, domainerrors.CodeOf(err))
		})
	}
}

func TestUserContext(t *testing.T) {
	ctx := context.Background()
	_, ok := UserFromContext(ctx)
	assert.False(t, ok)

	user := &User{ID: uuid.New()}
	got, ok := UserFromContext(WithUser(ctx, user))
	assert.True(t, ok)
	assert.Same(t, user, got)

	_, ok = UserFromContext(WithUser(ctx, nil))
	assert.False(t, ok)
}
