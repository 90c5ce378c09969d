package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"AppMovin/models"
	"AppMovin/utils"

	"github.com/pkg/browser"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

const (
	callbackPath     = "/callback"
	defaultRevokeURL = "https://oauth2.googleapis.com/revoke"
)

// State of one authorization attempt.
type State int

const (
	Idle State = iota
	AwaitingRedirect
	Authorized
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingRedirect:
		return "awaiting_redirect"
	case Authorized:
		return "authorized"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Authenticator runs a single loopback authorization-code flow. Create a
// new one per attempt.
type Authenticator struct {
	config *oauth2.Config

	// OpenURL shows the authorization URL to the user.
	OpenURL func(url string) error
	// Listen opens the loopback listener for the redirect.
	Listen func() (net.Listener, error)
	// RevokeURL is the provider's token revocation endpoint.
	RevokeURL  string
	HTTPClient *http.Client

	mu    sync.Mutex
	state State
	token *oauth2.Token
}

type Option func(*Authenticator)

// WithEndpoint points the flow at a different identity provider.
func WithEndpoint(ep oauth2.Endpoint) Option {
	return func(a *Authenticator) { a.config.Endpoint = ep }
}

func WithOpenURL(fn func(string) error) Option {
	return func(a *Authenticator) { a.OpenURL = fn }
}

func WithRevokeURL(u string) Option {
	return func(a *Authenticator) { a.RevokeURL = u }
}

func NewAuthenticator(clientID, clientSecret string, opts ...Option) (*Authenticator, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("%w: client ID and client secret are required", models.ErrConfiguration)
	}

	a := &Authenticator{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			Scopes: []string{
				drive.DriveFileScope,
				oauth2api.UserinfoEmailScope,
			},
		},
		OpenURL: browser.OpenURL,
		Listen: func() (net.Listener, error) {
			return net.Listen("tcp", "127.0.0.1:0")
		},
		RevokeURL:  defaultRevokeURL,
		HTTPClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func (a *Authenticator) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Authenticator) setState(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

type callbackResult struct {
	token *oauth2.Token
	err   error
}

// Authenticate opens the authorization URL and blocks until the redirect
// arrives and its code is exchanged, or ctx ends. The listener is closed
// before returning in every case. There is no built-in timeout.
func (a *Authenticator) Authenticate(ctx context.Context) (oauth2.TokenSource, error) {
	a.mu.Lock()
	if a.state != Idle {
		a.mu.Unlock()
		return nil, fmt.Errorf("%w: authenticator already used", models.ErrAuthFailure)
	}
	a.state = AwaitingRedirect
	a.mu.Unlock()

	token, err := a.run(ctx)
	if err != nil {
		a.setState(Failed)
		logrus.WithError(err).Error("Google authorization failed")
		return nil, err
	}

	a.mu.Lock()
	a.token = token
	a.state = Authorized
	a.mu.Unlock()

	logrus.Info("Google authorization completed")
	return a.config.TokenSource(context.Background(), token), nil
}

func (a *Authenticator) run(ctx context.Context) (*oauth2.Token, error) {
	ln, err := a.Listen()
	if err != nil {
		return nil, fmt.Errorf("%w: open loopback listener: %w", models.ErrAuthFailure, err)
	}

	port := ln.Addr().(*net.TCPAddr).Port
	cfg := *a.config
	cfg.RedirectURL = fmt.Sprintf("http://127.0.0.1:%d%s", port, callbackPath)

	state, err := utils.GenerateStateToken()
	if err != nil {
		ln.Close()
		return nil, fmt.Errorf("%w: %w", models.ErrAuthFailure, err)
	}

	results := make(chan callbackResult, 1)
	var once sync.Once

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() {
			res := a.handleCallback(ctx, &cfg, state, r.URL.Query())
			if res.err != nil {
				http.Error(w, "Authentication failed.", http.StatusBadRequest)
			} else {
				fmt.Fprint(w, "Authentication successful! You can close this window.")
			}
			results <- res
		})
	})
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Warn("OAuth callback listener stopped")
		}
	}()
	defer shutdown(srv)

	authURL := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
	logrus.WithField("redirect", cfg.RedirectURL).Info("Waiting for Google authorization")
	if err := a.OpenURL(authURL); err != nil {
		return nil, fmt.Errorf("%w: open browser: %w", models.ErrAuthFailure, err)
	}

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", models.ErrAuthFailure, ctx.Err())
	case res := <-results:
		return res.token, res.err
	}
}

func (a *Authenticator) handleCallback(ctx context.Context, cfg *oauth2.Config, state string, q url.Values) callbackResult {
	if errParam := q.Get("error"); errParam != "" {
		return callbackResult{err: fmt.Errorf("%w: provider returned %s", models.ErrAuthFailure, errParam)}
	}
	if q.Get("state") != state {
		return callbackResult{err: fmt.Errorf("%w: state mismatch", models.ErrAuthFailure)}
	}
	code := q.Get("code")
	if code == "" {
		return callbackResult{err: fmt.Errorf("%w: no code received", models.ErrAuthFailure)}
	}

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return callbackResult{err: fmt.Errorf("%w: token exchange: %w", models.ErrAuthFailure, err)}
	}
	return callbackResult{token: token}
}

func shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		srv.Close()
	}
}

// Revoke invalidates the held credential at the provider. It is a no-op
// before authorization.
func (a *Authenticator) Revoke(ctx context.Context) error {
	a.mu.Lock()
	token := a.token
	a.token = nil
	a.mu.Unlock()

	if token == nil {
		return nil
	}
	value := token.RefreshToken
	if value == "" {
		value = token.AccessToken
	}
	return RevokeToken(ctx, a.HTTPClient, a.RevokeURL, value)
}

func RevokeToken(ctx context.Context, client *http.Client, revokeURL, token string) error {
	logrus.Info("Revoking Google OAuth token")
	form := url.Values{"token": {token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create revoke request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute revoke request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to revoke token: status %d", resp.StatusCode)
	}
	return nil
}

// AccountEmail returns the e-mail of the account ts is authorized for.
func AccountEmail(ctx context.Context, ts oauth2.TokenSource, opts ...option.ClientOption) (string, error) {
	opts = append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)
	svc, err := oauth2api.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create OAuth2 service: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to fetch user info: %w", err)
	}
	return info.Email, nil
}
