// internal/auth/session.go

// Package auth issues and verifies the signed identity tokens players present to
// the HTTP and websocket endpoints.
package auth

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims carry the player id in "sub" and a display name.
type Claims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// Identity is an authenticated player.
type Identity struct {
	UserID uuid.UUID
	Name   string
}

// Sessions signs tokens with an ed25519 key pair.
type Sessions struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
	expire     time.Duration // zero means tokens never expire
	now        func() time.Time
}

// NewSessions generates a fresh key pair. Tokens do not survive a restart.
func NewSessions(expire time.Duration) (*Sessions, error) {
	publicKey, privateKey, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}
	return &Sessions{privateKey: privateKey, publicKey: publicKey, expire: expire, now: time.Now}, nil
}

// NewSessionsFromPath reads raw ed25519 keys from files.
func NewSessionsFromPath(privatePath, publicPath string, expire time.Duration) (*Sessions, error) {
	privateKeyData, err := os.ReadFile(privatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key file: %w", err)
	}
	publicKeyData, err := os.ReadFile(publicPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read public key file: %w", err)
	}
	if len(privateKeyData) != ed25519.PrivateKeySize || len(publicKeyData) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("key files are not raw ed25519 keys")
	}
	return &Sessions{
		privateKey: ed25519.PrivateKey(privateKeyData),
		publicKey:  ed25519.PublicKey(publicKeyData),
		expire:     expire,
		now:        time.Now,
	}, nil
}

// CreateJWT signs a token for the given identity.
func (s *Sessions) CreateJWT(id Identity) (string, error) {
	now := s.now()
	claims := Claims{
		Name: id.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  id.UserID.String(),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if s.expire > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.expire))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(s.privateKey)
}

// AuthenticateJWT verifies a token and returns the identity it names.
func (s *Sessions) AuthenticateJWT(tokenString string) (Identity, error) {
	var claims Claims
	t, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.publicKey, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !t.Valid {
		return Identity{}, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: bad subject: %w", ErrInvalidToken, err)
	}
	return Identity{UserID: userID, Name: claims.Name}, nil
}
