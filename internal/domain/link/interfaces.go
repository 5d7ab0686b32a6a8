package link

import (
	"context"

	"github.com/rpggio/gitlink/internal/deviceauth"
	"github.com/rpggio/gitlink/internal/domain/project"
)

// Authorizer performs the two device flow round trips.
type Authorizer interface {
	InitDeviceOAuth(ctx context.Context) (deviceauth.Verification, error)
	CheckAuthStatus(ctx context.Context, deviceCode string) (deviceauth.Grant, error)
}

// Projects resolves the project a flow links.
type Projects interface {
	Get(ctx context.Context, id string) (*project.Project, error)
}

// TokenStore keeps granted tokens. Load returns credentials.ErrNotFound when
// no token is stored.
type TokenStore interface {
	Save(projectID, token string) error
	Load(projectID string) (string, error)
	Delete(projectID string) error
}

// IdentityLookup resolves the account a token belongs to.
type IdentityLookup interface {
	Login(ctx context.Context, token string) (string, error)
}
