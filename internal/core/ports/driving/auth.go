package driving

import (
	"context"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
)

// AuthService validates API callers. Users are managed by the surrounding
// application, which issues bearer tokens signed with the shared secret.
type AuthService interface {
	// ValidateToken validates a JWT token and returns the auth context
	ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error)

	// IssueToken signs a token for a user (development and service-to-service use).
	IssueToken(ctx context.Context, userID, email, name string) (string, error)
}
