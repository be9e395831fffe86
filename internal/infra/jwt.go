// README: HS256 token verifier for development, tests and the bench runner.
package infra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	Role  string `json:"role,omitempty"`
	Admin bool   `json:"admin,omitempty"`
	jwt.RegisteredClaims
}

type jwtVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret []byte) TokenVerifier {
	return &jwtVerifier{secret: secret}
}

func (v *jwtVerifier) VerifyIDToken(_ context.Context, idToken string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(idToken, &Claims{}, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("unexpected claims type")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	out := map[string]interface{}{}
	if claims.Role != "" {
		out["role"] = claims.Role
	}
	if claims.Admin {
		out["admin"] = true
	}
	return &Identity{UID: claims.Subject, Claims: out}, nil
}

// MintToken signs an HS256 token for uid valid for ttl.
func MintToken(secret []byte, uid, role string, admin bool, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Role:  role,
		Admin: admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
