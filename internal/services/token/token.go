package token

import (
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/dsemenov/remindd/internal/models"
)

const issuer = "remindd-gateway"

// Verifier validates service tokens minted by the chat gateway with the
// shared HS256 secret.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a verifier for the given shared secret
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify verifies a service token and extracts its claims
func (v *Verifier) Verify(tokenString string) (*models.ServiceClaims, error) {
	token, err := jwt.Parse([]byte(tokenString),
		jwt.WithKey(jwa.HS256, v.secret),
		jwt.WithValidate(true),
		jwt.WithIssuer(issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse/verify token: %w", err)
	}

	claims := &models.ServiceClaims{
		Subject: token.Subject(),
	}

	raw, ok := token.Get("owner_id")
	if !ok {
		return nil, fmt.Errorf("token missing owner_id claim")
	}
	switch id := raw.(type) {
	case float64:
		claims.OwnerID = int64(id)
	case int64:
		claims.OwnerID = id
	default:
		return nil, fmt.Errorf("token owner_id claim has unexpected type %T", raw)
	}
	if claims.OwnerID <= 0 {
		return nil, fmt.Errorf("token owner_id claim must be positive, got %d", claims.OwnerID)
	}

	return claims, nil
}

// Mint signs a service token for the given owner. Used by the CLI and by
// gateways that share the secret.
func Mint(secret, subject string, ownerID int64, ttl time.Duration) (string, error) {
	now := time.Now()
	tok, err := jwt.NewBuilder().
		Issuer(issuer).
		Subject(subject).
		IssuedAt(now).
		Expiration(now.Add(ttl)).
		Claim("owner_id", ownerID).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build token: %w", err)
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, []byte(secret)))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return string(signed), nil
}
