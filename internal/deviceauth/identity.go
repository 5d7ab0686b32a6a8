package deviceauth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/github"
	"golang.org/x/oauth2"
)

// DefaultAPIURL is the GitHub REST API root.
const DefaultAPIURL = "https://api.github.com/"

// Identity resolves which account an access token belongs to.
type Identity struct {
	apiURL *url.URL
	base   *http.Client
}

// NewIdentity creates a lookup against apiURL (DefaultAPIURL when empty).
// base, when set, is the transport the token source wraps.
func NewIdentity(apiURL string, base *http.Client) (*Identity, error) {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if !strings.HasSuffix(apiURL, "/") {
		apiURL += "/"
	}
	parsed, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid GitHub API url %q: %w", apiURL, err)
	}
	return &Identity{apiURL: parsed, base: base}, nil
}

// Login returns the login of the user token was issued to.
func (i *Identity) Login(ctx context.Context, token string) (string, error) {
	if i.base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, i.base)
	}
	tc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))

	client := github.NewClient(tc)
	client.BaseURL = i.apiURL

	user, _, err := client.Users.Get(ctx, "")
	if err != nil {
		return "", fmt.Errorf("looking up token owner: %w", err)
	}
	return user.GetLogin(), nil
}
