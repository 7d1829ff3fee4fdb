// Package auth verifies bearer tokens issued by an identity provider.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthorized is returned for any token that does not verify.
var ErrUnauthorized = errors.New("unauthorized")

// Principal is the verified caller.
type Principal struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

type Verifier interface {
	Verify(ctx context.Context, token string) (*Principal, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header value.
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// FirebaseVerifier checks Firebase ID tokens.
type FirebaseVerifier struct {
	client *fbauth.Client
}

func NewFirebaseVerifier(client *fbauth.Client) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (*Principal, error) {
	tok, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	email, _ := tok.Claims["email"].(string)
	return &Principal{UID: tok.UID, Email: email}, nil
}

// Claims carried by locally issued tokens.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWTVerifier checks HS256 tokens signed with a shared secret.
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) (*JWTVerifier, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	return &JWTVerifier{secret: []byte(secret)}, nil
}

func (v *JWTVerifier) Verify(_ context.Context, token string) (*Principal, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrUnauthorized)
	}
	return &Principal{UID: claims.Subject, Email: claims.Email}, nil
}

// Sign issues a token for p; used by tooling and tests.
func (v *JWTVerifier) Sign(p Principal, claims jwt.RegisteredClaims) (string, error) {
	claims.Subject = p.UID
	return jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Email: p.Email, RegisteredClaims: claims}).SignedString(v.secret)
}
