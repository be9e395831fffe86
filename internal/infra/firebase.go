// README: Bearer token verification, with Firebase ID tokens as the production issuer.
package infra

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// Identity is a verified caller. Claims carries the custom claims set on the
// account: a "role" string (customer, driver or vendor) and an "admin" bool.
type Identity struct {
	UID    string
	Claims map[string]interface{}
}

// TokenVerifier is implemented by the Firebase and HS256 JWT verifiers.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*Identity, error)
}

type firebaseVerifier struct {
	client *auth.Client
}

// NewFirebaseVerifier verifies ID tokens issued for projectID. An empty
// credentialsFile falls back to application-default credentials.
func NewFirebaseVerifier(ctx context.Context, projectID, credentialsFile string) (TokenVerifier, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}
	return &firebaseVerifier{client: client}, nil
}

// VerifyIDToken checks signature, audience and expiry. Role claims are passed
// through untouched; middleware.Auth decides what an unknown role means.
func (v *firebaseVerifier) VerifyIDToken(ctx context.Context, idToken string) (*Identity, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}
	return &Identity{UID: token.UID, Claims: token.Claims}, nil
}
