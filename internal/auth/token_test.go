package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/projectdesk/internal/domain"
)

func newTestIssuer(secret string, now time.Time) *Issuer {
	iss := NewIssuer(secret, time.Hour)
	iss.now = func() time.Time { return now }
	return iss
}

func TestIssuer_RoundTrip(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	iss := newTestIssuer("secret", now)

	cases := []Claims{
		{UserID: uuid.NewString(), Email: "a@x.com", Role: domain.RoleUser},
		{UserID: uuid.NewString(), Email: "admin@x.com", Role: domain.RoleAdmin, IssuedAt: now.Add(-time.Minute), ExpiresAt: now.Add(time.Minute)},
	}

	for _, in := range cases {
		token, err := iss.Sign(in)
		require.NoError(t, err)

		got, err := iss.Verify(token)
		require.NoError(t, err)

		want := in
		if want.IssuedAt.IsZero() {
			want.IssuedAt = now
			want.ExpiresAt = now.Add(time.Hour)
		}
		assert.Equal(t, want, *got)
	}
}

func TestIssuer_ClaimsFor(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 500, time.UTC)
	iss := newTestIssuer("secret", now)
	user := &domain.User{ID: uuid.New(), Email: "a@x.com", Role: domain.RoleUser}

	c := iss.ClaimsFor(user)
	assert.Equal(t, user.ID.String(), c.UserID)
	assert.Equal(t, "a@x.com", c.Email)
	assert.Equal(t, domain.RoleUser, c.Role)
	assert.Equal(t, now.Truncate(time.Second), c.IssuedAt)
	assert.Equal(t, time.Hour, c.ExpiresAt.Sub(c.IssuedAt))
}

func TestIssuer_Verify_Expired(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	iss := newTestIssuer("secret", now)

	token, err := iss.Sign(Claims{UserID: "u1", Email: "a@x.com", Role: domain.RoleUser})
	require.NoError(t, err)

	iss.now = func() time.Time { return now.Add(2 * time.Hour) }
	_, err = iss.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestIssuer_Verify_WrongKey(t *testing.T) {
	now := time.Now()
	token, err := newTestIssuer("one", now).Sign(Claims{UserID: "u1", Role: domain.RoleUser})
	require.NoError(t, err)

	_, err = newTestIssuer("two", now).Verify(token)
	assert.ErrorIs(t, err, ErrTokenSignature)
}

func TestIssuer_Verify_Malformed(t *testing.T) {
	iss := newTestIssuer("secret", time.Now())

	for _, token := range []string{"", "abc", "a.b.c", strings.Repeat("x", 40)} {
		_, err := iss.Verify(token)
		assert.ErrorIs(t, err, ErrTokenMalformed, "token %q", token)
	}
}

func TestIssuer_Verify_RejectsOtherAlgorithms(t *testing.T) {
	iss := newTestIssuer("secret", time.Now())

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"userId": "u1",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = iss.Verify(token)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrTokenExpired)
}

func TestIssuer_Verify_MissingUserID(t *testing.T) {
	now := time.Now()
	iss := newTestIssuer("secret", now)

	token, err := iss.Sign(Claims{Email: "a@x.com"})
	require.NoError(t, err)

	_, err = iss.Verify(token)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}
