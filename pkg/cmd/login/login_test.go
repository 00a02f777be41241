package login

import (
	"bytes"
	"errors"
	"testing"

	"github.com/auroradev/aurora-cli/pkg/terminal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInteractiveOpensBrowser(t *testing.T) {
	old := openURL
	t.Cleanup(func() { openURL = old })
	var opened string
	openURL = func(url string) error {
		opened = url
		return nil
	}

	var out bytes.Buffer
	term := terminal.NewWithWriters(&out, &out)
	token, err := Interactive(term, func(onLoginURL func(string)) (string, error) {
		onLoginURL("https://auth.local/activate")
		return "tok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
	assert.Equal(t, "https://auth.local/activate", opened)
}

func TestInteractivePrintsURLWhenBrowserFails(t *testing.T) {
	old := openURL
	t.Cleanup(func() { openURL = old })
	openURL = func(string) error { return errors.New("no display") }

	var out bytes.Buffer
	term := terminal.NewWithWriters(&out, &out)
	_, err := Interactive(term, func(onLoginURL func(string)) (string, error) {
		onLoginURL("https://auth.local/activate")
		return "", errors.New("timed out")
	})
	assert.Error(t, err)
	assert.Contains(t, out.String(), "https://auth.local/activate")
}

func TestNewAuthNeedsURL(t *testing.T) {
	t.Setenv("AURORA_AUTH_URL", "")
	_, err := NewAuth(nil)
	assert.Error(t, err)
}
