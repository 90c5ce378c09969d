package auth

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"AppMovin/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
)

type providerStub struct {
	server  *httptest.Server
	codes   []string
	revoked []string
	fail    bool
}

func newProviderStub(t *testing.T) *providerStub {
	p := &providerStub{}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		p.codes = append(p.codes, r.PostForm.Get("code"))
		if p.fail {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "access-123",
			"refresh_token": "refresh-456",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	})
	mux.HandleFunc("/revoke", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		p.revoked = append(p.revoked, r.PostForm.Get("token"))
	})
	mux.HandleFunc("/oauth2/v2/userinfo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"email":"someone@example.com"}`))
	})
	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)
	return p
}

func (p *providerStub) endpoint() oauth2.Endpoint {
	return oauth2.Endpoint{
		AuthURL:   p.server.URL + "/auth",
		TokenURL:  p.server.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
}

// browserFollowing simulates the user approving access: it calls the
// redirect URI with the given query, keeping the state unless overridden.
func browserFollowing(t *testing.T, query url.Values, redirects chan<- string) func(string) error {
	return func(authURL string) error {
		u, err := url.Parse(authURL)
		require.NoError(t, err)
		params := u.Query()
		assert.Equal(t, "offline", params.Get("access_type"))

		redirect := params.Get("redirect_uri")
		redirects <- redirect

		q := url.Values{}
		q.Set("state", params.Get("state"))
		for k, v := range query {
			q[k] = v
		}
		go func() {
			resp, err := http.Get(redirect + "?" + q.Encode())
			if err == nil {
				resp.Body.Close()
			}
		}()
		return nil
	}
}

func TestNewAuthenticator_RequiresCredentials(t *testing.T) {
	_, err := NewAuthenticator("", "secret")
	assert.ErrorIs(t, err, models.ErrConfiguration)

	_, err = NewAuthenticator("id", "")
	assert.ErrorIs(t, err, models.ErrConfiguration)
}

func TestAuthenticate_ExchangesCodeAndClosesListener(t *testing.T) {
	p := newProviderStub(t)
	redirects := make(chan string, 1)

	a, err := NewAuthenticator("client", "secret",
		WithEndpoint(p.endpoint()),
		WithOpenURL(browserFollowing(t, url.Values{"code": {"the-code"}}, redirects)),
	)
	require.NoError(t, err)
	assert.Equal(t, Idle, a.State())

	ts, err := a.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Authorized, a.State())

	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "access-123", tok.AccessToken)
	assert.Equal(t, []string{"the-code"}, p.codes)

	redirect := <-redirects
	u, err := url.Parse(redirect)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", u.Hostname())
	assert.Equal(t, "/callback", u.Path)

	_, err = net.DialTimeout("tcp", u.Host, 200*time.Millisecond)
	assert.Error(t, err, "listener must be gone after the flow")
}

func TestAuthenticate_MissingCodeFails(t *testing.T) {
	p := newProviderStub(t)
	a, err := NewAuthenticator("client", "secret",
		WithEndpoint(p.endpoint()),
		WithOpenURL(browserFollowing(t, url.Values{}, make(chan string, 1))),
	)
	require.NoError(t, err)

	_, err = a.Authenticate(context.Background())
	assert.ErrorIs(t, err, models.ErrAuthFailure)
	assert.Equal(t, Failed, a.State())
	assert.Empty(t, p.codes)
}

func TestAuthenticate_StateMismatchFails(t *testing.T) {
	p := newProviderStub(t)
	a, err := NewAuthenticator("client", "secret",
		WithEndpoint(p.endpoint()),
		WithOpenURL(browserFollowing(t, url.Values{"code": {"c"}, "state": {"forged"}}, make(chan string, 1))),
	)
	require.NoError(t, err)

	_, err = a.Authenticate(context.Background())
	assert.ErrorIs(t, err, models.ErrAuthFailure)
	assert.Empty(t, p.codes)
}

func TestAuthenticate_ExchangeRejected(t *testing.T) {
	p := newProviderStub(t)
	p.fail = true
	a, err := NewAuthenticator("client", "secret",
		WithEndpoint(p.endpoint()),
		WithOpenURL(browserFollowing(t, url.Values{"code": {"bad"}}, make(chan string, 1))),
	)
	require.NoError(t, err)

	_, err = a.Authenticate(context.Background())
	assert.ErrorIs(t, err, models.ErrAuthFailure)
	assert.Equal(t, Failed, a.State())
}

func TestAuthenticate_CancelledContext(t *testing.T) {
	p := newProviderStub(t)
	var redirect string
	a, err := NewAuthenticator("client", "secret",
		WithEndpoint(p.endpoint()),
		WithOpenURL(func(authURL string) error {
			u, _ := url.Parse(authURL)
			redirect = u.Query().Get("redirect_uri")
			return nil
		}),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = a.Authenticate(ctx)
	assert.ErrorIs(t, err, models.ErrAuthFailure)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, Failed, a.State())

	u, err := url.Parse(redirect)
	require.NoError(t, err)
	_, err = net.DialTimeout("tcp", u.Host, 200*time.Millisecond)
	assert.Error(t, err)
}

func TestAuthenticate_SingleUse(t *testing.T) {
	p := newProviderStub(t)
	a, err := NewAuthenticator("client", "secret",
		WithEndpoint(p.endpoint()),
		WithOpenURL(browserFollowing(t, url.Values{"code": {"c"}}, make(chan string, 1))),
	)
	require.NoError(t, err)

	_, err = a.Authenticate(context.Background())
	require.NoError(t, err)

	_, err = a.Authenticate(context.Background())
	assert.ErrorIs(t, err, models.ErrAuthFailure)
}

func TestRevoke(t *testing.T) {
	p := newProviderStub(t)
	a, err := NewAuthenticator("client", "secret",
		WithEndpoint(p.endpoint()),
		WithRevokeURL(p.server.URL+"/revoke"),
		WithOpenURL(browserFollowing(t, url.Values{"code": {"c"}}, make(chan string, 1))),
	)
	require.NoError(t, err)

	require.NoError(t, a.Revoke(context.Background()), "revoking before authorization is a no-op")
	assert.Empty(t, p.revoked)

	_, err = a.Authenticate(context.Background())
	require.NoError(t, err)
	require.NoError(t, a.Revoke(context.Background()))
	assert.Equal(t, []string{"refresh-456"}, p.revoked)
}

func TestAccountEmail(t *testing.T) {
	p := newProviderStub(t)
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "x"})

	email, err := AccountEmail(context.Background(), ts,
		option.WithEndpoint(p.server.URL+"/"),
		option.WithHTTPClient(p.server.Client()),
	)
	require.NoError(t, err)
	assert.Equal(t, "someone@example.com", email)
}
