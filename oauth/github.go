package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	goAccount "github.com/MrEthical07/goAccount"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// ProviderGitHub is stored as User.Provider for GitHub accounts.
const ProviderGitHub = "github"

const defaultGitHubAPI = "https://api.github.com"

var (
	ErrExchange = errors.New("oauth: code exchange failed")
	ErrProfile  = errors.New("oauth: profile request failed")
)

// Provider is one external identity source.
type Provider interface {
	Name() string
	AuthCodeURL(state string) string
	Identify(ctx context.Context, code string) (goAccount.ExternalIdentity, error)
}

// GitHubConfig holds the OAuth app credentials. The endpoint fields override
// github.com and are only set in tests or for GitHub Enterprise.
type GitHubConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string

	AuthURL  string
	TokenURL string
	APIURL   string

	// HTTPClient is used for the token exchange and the profile request.
	HTTPClient *http.Client
}

// GitHub is the Provider for GitHub OAuth apps. Exchange resolves the user's
// numeric id and login through the REST API.
type GitHub struct {
	config *oauth2.Config
	apiURL string
	client *http.Client
}

// NewGitHub requires the client credentials. Endpoint and API URLs default to
// github.com and the scope to read:user.
func NewGitHub(cfg GitHubConfig) (*GitHub, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("github client id and secret required")
	}

	endpoint := github.Endpoint
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	apiURL := strings.TrimRight(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = defaultGitHubAPI
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"read:user"}
	}

	return &GitHub{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     endpoint,
		},
		apiURL: apiURL,
		client: cfg.HTTPClient,
	}, nil
}

func (g *GitHub) Name() string {
	return ProviderGitHub
}

// AuthCodeURL is where the browser is sent to start the login.
func (g *GitHub) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state)
}

type githubUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Identify exchanges code and returns the GitHub account behind it. The
// numeric user id is the subject; logins can be renamed, ids cannot.
func (g *GitHub) Identify(ctx context.Context, code string) (goAccount.ExternalIdentity, error) {
	if code == "" {
		return goAccount.ExternalIdentity{}, fmt.Errorf("%w: empty code", ErrExchange)
	}
	if g.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, g.client)
	}

	tok, err := g.config.Exchange(ctx, code)
	if err != nil {
		return goAccount.ExternalIdentity{}, fmt.Errorf("%w: %v", ErrExchange, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.apiURL+"/user", nil)
	if err != nil {
		return goAccount.ExternalIdentity{}, fmt.Errorf("%w: %v", ErrProfile, err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := g.config.Client(ctx, tok).Do(req)
	if err != nil {
		return goAccount.ExternalIdentity{}, fmt.Errorf("%w: %v", ErrProfile, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return goAccount.ExternalIdentity{}, fmt.Errorf("%w: status %s", ErrProfile, resp.Status)
	}

	var u githubUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return goAccount.ExternalIdentity{}, fmt.Errorf("%w: decode: %v", ErrProfile, err)
	}
	if u.ID == 0 {
		return goAccount.ExternalIdentity{}, fmt.Errorf("%w: missing user id", ErrProfile)
	}

	return goAccount.ExternalIdentity{
		Provider:    ProviderGitHub,
		SubjectID:   strconv.FormatInt(u.ID, 10),
		Username:    u.Login,
		DisplayName: u.Name,
		Email:       u.Email,
	}, nil
}
