package auth

import (
	"fmt"
	"net/http"
	"time"

	breverrors "github.com/auroradev/aurora-cli/pkg/errors"
	resty "github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// ErrLoginTimedOut is returned once every poll attempt has been used.
var ErrLoginTimedOut = breverrors.New("timed out waiting for login")

type LoginCallResponse struct {
	LoginURL   string `json:"loginUrl"`
	SessionKey string `json:"sessionKey"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// DevicePoller implements the device login flow against the auth backend:
// request a login URL, let the user open it, then poll for the token.
type DevicePoller struct {
	client   *resty.Client
	attempts int
	step     time.Duration
	sleep    func(time.Duration)
}

// NewDevicePoller polls at most attempts times, waiting i*step before the i-th retry.
func NewDevicePoller(baseURL string, attempts int, step time.Duration) *DevicePoller {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetHeader("Content-Type", "application/json")
	return &DevicePoller{client: client, attempts: attempts, step: step, sleep: time.Sleep}
}

func (p *DevicePoller) MakeLoginCall(deviceID string) (LoginCallResponse, error) {
	var out LoginCallResponse
	res, err := p.client.R().
		SetBody(map[string]string{"deviceId": deviceID}).
		SetResult(&out).
		Post("/device/login")
	if err != nil {
		return LoginCallResponse{}, breverrors.WrapAndTrace(err, breverrors.NetworkErrorMessage)
	}
	if res.IsError() {
		return LoginCallResponse{}, breverrors.Errorf("login call failed, status code: %d, body: %s", res.StatusCode(), res.String())
	}
	if out.LoginURL == "" || out.SessionKey == "" {
		return LoginCallResponse{}, &breverrors.ProtocolError{Command: "POST /device/login", Reason: "loginUrl or sessionKey missing"}
	}
	return out, nil
}

// DoDeviceAuthFlow calls onLoginURL with the URL the user has to open and
// blocks until a token is issued or the attempts run out.
func (p *DevicePoller) DoDeviceAuthFlow(onLoginURL func(url string)) (string, error) {
	id := uuid.NewString()
	login, err := p.MakeLoginCall(id)
	if err != nil {
		return "", breverrors.WrapAndTrace(err)
	}
	onLoginURL(login.LoginURL)
	return p.pollForToken(login.SessionKey, id)
}

func (p *DevicePoller) pollForToken(sessionKey, deviceID string) (string, error) {
	for i := 0; i < p.attempts; i++ {
		if i > 0 {
			p.sleep(time.Duration(i) * p.step)
		}
		token, err := p.retrieveToken(sessionKey, deviceID)
		if err != nil {
			return "", breverrors.WrapAndTrace(err)
		}
		if token != "" {
			return token, nil
		}
	}
	return "", breverrors.WrapAndTrace(ErrLoginTimedOut)
}

// retrieveToken returns "" while the login is still pending.
func (p *DevicePoller) retrieveToken(sessionKey, deviceID string) (string, error) {
	var out tokenResponse
	res, err := p.client.R().
		SetAuthToken(sessionKey).
		SetHeader("x-device-id", deviceID).
		SetResult(&out).
		Get("/token")
	if err != nil {
		return "", breverrors.WrapAndTrace(err, breverrors.NetworkErrorMessage)
	}
	switch {
	case res.StatusCode() == http.StatusAccepted, res.StatusCode() == http.StatusNotFound:
		return "", nil
	case res.IsError():
		return "", fmt.Errorf("error retrieving token, status code: %d, body: %s", res.StatusCode(), res.String()) //nolint:goerr113 // one-off
	}
	return out.Token, nil
}
