package jwt

import (
	"errors"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	svc, err := NewTokenService("secret", time.Hour)
	require.NoError(t, err)

	token, expiresAt, err := svc.Issue("0xabc", "player", "")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := svc.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "0xabc", claims.Subject)
	assert.Equal(t, "player", claims.Role)
}

func TestParse_RejectsOtherSecret(t *testing.T) {
	a, _ := NewTokenService("a", time.Hour)
	b, _ := NewTokenService("b", time.Hour)
	token, _, err := a.Issue("0xabc", "owner", "o@example.com")
	require.NoError(t, err)

	_, err = b.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_Expired(t *testing.T) {
	svc, _ := NewTokenService("secret", time.Minute)
	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, _, err := svc.Issue("0xabc", "player", "")
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Parse(token)
	assert.True(t, errors.Is(err, gojwt.ErrTokenExpired))
}

func TestNewTokenService_RequiresSecret(t *testing.T) {
	_, err := NewTokenService("", time.Hour)
	assert.Error(t, err)
}
