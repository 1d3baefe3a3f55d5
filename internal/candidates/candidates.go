// Package candidates loads candidate records from the candidate backend.
//
// The backend sits behind a session endpoint: the session is read first, and
// its access token is sent as a bearer token to the candidate list endpoint.
// A session without a token yields an empty list, not an error.
package candidates

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonathan/form-filler/internal/fetch"
	"github.com/jonathan/form-filler/internal/types"
	"go.uber.org/zap"
)

// Default endpoints of a local development backend.
const (
	DefaultSessionURL    = "http://localhost:3000/api/auth/session"
	DefaultCandidatesURL = "http://127.0.0.1:8000/api/candidates/candidates/"
)

// Source lists candidates.
type Source interface {
	List(ctx context.Context) ([]types.Candidate, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]types.Candidate, error)

// List calls f.
func (f SourceFunc) List(ctx context.Context) ([]types.Candidate, error) {
	return f(ctx)
}

// Find returns the candidate with the given id from src.
func Find(ctx context.Context, src Source, id string) (types.Candidate, bool, error) {
	list, err := src.List(ctx)
	if err != nil {
		return types.Candidate{}, false, err
	}
	for _, c := range list {
		if c.ID() == id {
			return c, true, nil
		}
	}
	return types.Candidate{}, false, nil
}

// ClientConfig configures a backend Client.
type ClientConfig struct {
	SessionURL    string
	CandidatesURL string
	// Cookie is forwarded to the session endpoint.
	Cookie  string
	Timeout time.Duration
}

// Client reads candidates from the backend.
type Client struct {
	sessionURL    string
	candidatesURL string
	cookie        string
	timeout       time.Duration
	logger        *zap.Logger
}

// NewClient creates a Client. Empty URLs fall back to the defaults.
func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		sessionURL:    cfg.SessionURL,
		candidatesURL: cfg.CandidatesURL,
		cookie:        cfg.Cookie,
		timeout:       cfg.Timeout,
		logger:        logger.Named("candidates"),
	}
	if c.sessionURL == "" {
		c.sessionURL = DefaultSessionURL
	}
	if c.candidatesURL == "" {
		c.candidatesURL = DefaultCandidatesURL
	}
	return c
}

type session struct {
	User *struct {
		AccessToken string `json:"accessToken"`
	} `json:"user"`
}

type listResponse struct {
	Results []types.Candidate `json:"results"`
}

func (c *Client) options(headers map[string]string) *fetch.Options {
	opts := fetch.DefaultOptions()
	if c.timeout > 0 {
		opts.Timeout = c.timeout
	}
	opts.Headers = headers
	return opts
}

// Token reads the access token from the session endpoint. An empty token
// with a nil error means there is no signed-in user.
func (c *Client) Token(ctx context.Context) (string, error) {
	headers := map[string]string{}
	if c.cookie != "" {
		headers["Cookie"] = c.cookie
	}

	var s session
	if err := fetch.JSON(ctx, c.sessionURL, c.options(headers), &s); err != nil {
		return "", &Error{Source: "session", Message: "failed to read session", Cause: err}
	}
	if s.User == nil {
		return "", nil
	}
	return s.User.AccessToken, nil
}

// List implements Source.
func (c *Client) List(ctx context.Context) ([]types.Candidate, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}
	if token == "" {
		c.logger.Info("no access token in session, returning no candidates")
		return []types.Candidate{}, nil
	}

	if exp, ok := TokenExpiry(token); ok && time.Now().After(exp) {
		c.logger.Warn("access token has expired", zap.Time("expired_at", exp))
	}

	var resp listResponse
	headers := map[string]string{"Authorization": "Bearer " + token}
	if err := fetch.JSON(ctx, c.candidatesURL, c.options(headers), &resp); err != nil {
		return nil, &Error{Source: "backend", Message: "failed to list candidates", Cause: err}
	}
	if resp.Results == nil {
		resp.Results = []types.Candidate{}
	}

	c.logger.Debug("candidates loaded", zap.Int("count", len(resp.Results)))
	return resp.Results, nil
}

// TokenExpiry reads the exp claim of a JWT without verifying its signature.
// The backend is the authority on validity; this is only used for diagnostics.
func TokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// FileSource reads candidates from a JSON file holding either a list of
// records or a {"results": [...]} page as returned by the backend.
type FileSource struct {
	Path string
}

// List implements Source.
func (f FileSource) List(_ context.Context) ([]types.Candidate, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, &Error{Source: f.Path, Message: "failed to read file", Cause: err}
	}

	var list []types.Candidate
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var page listResponse
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, &Error{Source: f.Path, Message: "file is neither a candidate list nor a results page", Cause: err}
	}
	if page.Results == nil {
		page.Results = []types.Candidate{}
	}
	return page.Results, nil
}
