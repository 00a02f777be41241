package auth

import (
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/jarcoal/httpmock"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPoller(t *testing.T, attempts int) (*DevicePoller, *[]time.Duration) {
	t.Helper()
	p := NewDevicePoller("http://auth.local", attempts, time.Second)
	httpmock.ActivateNonDefault(p.client.GetClient())
	t.Cleanup(httpmock.DeactivateAndReset)
	var slept []time.Duration
	p.sleep = func(d time.Duration) { slept = append(slept, d) }
	return p, &slept
}

func registerLogin(t *testing.T) {
	t.Helper()
	res, err := httpmock.NewJsonResponder(200, map[string]string{
		"loginUrl":   "https://auth.local/activate?code=XYZ",
		"sessionKey": "sess",
	})
	require.NoError(t, err)
	httpmock.RegisterResponder("POST", "http://auth.local/device/login", res)
}

func TestDeviceAuthFlowPollsUntilToken(t *testing.T) {
	p, slept := newTestPoller(t, 5)
	registerLogin(t)

	calls := 0
	httpmock.RegisterResponder("GET", "http://auth.local/token", func(req *http.Request) (*http.Response, error) {
		calls++
		assert.Equal(t, "Bearer sess", req.Header.Get("Authorization"))
		assert.NotEmpty(t, req.Header.Get("x-device-id"))
		if calls < 3 {
			return httpmock.NewStringResponse(http.StatusAccepted, ""), nil
		}
		return httpmock.NewJsonResponse(200, map[string]string{"token": "tok"})
	})

	var opened string
	token, err := p.DoDeviceAuthFlow(func(url string) { opened = url })
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
	assert.Equal(t, "https://auth.local/activate?code=XYZ", opened)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *slept)
}

func TestDeviceAuthFlowGivesUp(t *testing.T) {
	p, slept := newTestPoller(t, 3)
	registerLogin(t)
	httpmock.RegisterResponder("GET", "http://auth.local/token", httpmock.NewStringResponder(http.StatusNotFound, ""))

	_, err := p.DoDeviceAuthFlow(func(string) {})
	assert.ErrorIs(t, err, ErrLoginTimedOut)
	assert.Len(t, *slept, 2)
	assert.Equal(t, 3, httpmock.GetCallCountInfo()["GET http://auth.local/token"])
}

func TestDeviceAuthFlowStopsOnServerError(t *testing.T) {
	p, _ := newTestPoller(t, 5)
	registerLogin(t)
	httpmock.RegisterResponder("GET", "http://auth.local/token", httpmock.NewStringResponder(403, "denied"))

	_, err := p.DoDeviceAuthFlow(func(string) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestLoginCallRejectsIncompleteResponse(t *testing.T) {
	p, _ := newTestPoller(t, 1)
	httpmock.RegisterResponder("POST", "http://auth.local/device/login", httpmock.NewStringResponder(200, `{"loginUrl":"x"}`))

	_, err := p.MakeLoginCall("dev")
	assert.Error(t, err)
}

type fakeOAuth struct {
	token string
	calls int
}

func (f *fakeOAuth) DoDeviceAuthFlow(onLoginURL func(string)) (string, error) {
	f.calls++
	onLoginURL("https://login")
	return f.token, nil
}

func TestGetFreshTokenOrLogin(t *testing.T) {
	store := NewFileStore(afero.NewMemMapFs(), "/home/u/.aurora")
	oauth := &fakeOAuth{token: "fresh"}
	a := NewAuth(store, oauth).WithAccessTokenValidator(func(tok string) (bool, error) {
		return tok == "fresh", nil
	})

	token, err := a.GetFreshTokenOrLogin(func(string) {})
	require.NoError(t, err)
	assert.Equal(t, "fresh", token)
	assert.Equal(t, 1, oauth.calls)

	stored, err := store.GetToken()
	require.NoError(t, err)
	assert.Equal(t, "fresh", stored)

	token, err = a.GetFreshTokenOrLogin(func(string) {})
	require.NoError(t, err)
	assert.Equal(t, "fresh", token)
	assert.Equal(t, 1, oauth.calls)

	require.NoError(t, store.SaveToken("stale"))
	_, err = a.GetFreshTokenOrLogin(func(string) {})
	require.NoError(t, err)
	assert.Equal(t, 2, oauth.calls)

	require.NoError(t, a.Logout())
	stored, err = store.GetToken()
	require.NoError(t, err)
	assert.Empty(t, stored)
	assert.NoError(t, a.Logout())
}

func TestIsAccessTokenValid(t *testing.T) {
	sign := func(exp time.Time) string {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()})
		s, err := tok.SignedString([]byte("k"))
		require.NoError(t, err)
		return s
	}

	valid, err := isAccessTokenValid(sign(time.Now().Add(time.Hour)))
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = isAccessTokenValid(sign(time.Now().Add(-time.Hour)))
	require.NoError(t, err)
	assert.False(t, valid)

	valid, err = isAccessTokenValid("garbage")
	require.NoError(t, err)
	assert.False(t, valid)
}
