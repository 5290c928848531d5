// internal/auth/session_test.go
package auth

import (
	"crypto/ed25519"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	s, err := NewSessions(time.Hour)
	require.NoError(t, err)

	id := Identity{UserID: uuid.New(), Name: "vega"}
	token, err := s.CreateJWT(id)
	require.NoError(t, err)

	got, err := s.AuthenticateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestExpiredToken(t *testing.T) {
	s, err := NewSessions(time.Minute)
	require.NoError(t, err)
	token, err := s.CreateJWT(Identity{UserID: uuid.New()})
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = s.AuthenticateJWT(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNeverExpires(t *testing.T) {
	s, err := NewSessions(0)
	require.NoError(t, err)
	token, err := s.CreateJWT(Identity{UserID: uuid.New()})
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(24 * 365 * time.Hour) }
	_, err = s.AuthenticateJWT(token)
	assert.NoError(t, err)
}

func TestForeignKeyRejected(t *testing.T) {
	a, err := NewSessions(time.Hour)
	require.NoError(t, err)
	b, err := NewSessions(time.Hour)
	require.NoError(t, err)

	token, err := a.CreateJWT(Identity{UserID: uuid.New()})
	require.NoError(t, err)
	_, err = b.AuthenticateJWT(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = a.AuthenticateJWT("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionsFromPath(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	dir := t.TempDir()
	privPath, pubPath := filepath.Join(dir, "key"), filepath.Join(dir, "key.pub")
	require.NoError(t, os.WriteFile(privPath, priv, 0o600))
	require.NoError(t, os.WriteFile(pubPath, pub, 0o600))

	s, err := NewSessionsFromPath(privPath, pubPath, time.Hour)
	require.NoError(t, err)
	token, err := s.CreateJWT(Identity{UserID: uuid.New()})
	require.NoError(t, err)
	_, err = s.AuthenticateJWT(token)
	assert.NoError(t, err)

	_, err = NewSessionsFromPath(filepath.Join(dir, "missing"), pubPath, time.Hour)
	assert.Error(t, err)
}
