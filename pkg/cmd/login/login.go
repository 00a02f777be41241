// Package login signs the WebSocket client in to the auth backend
package login

import (
	"github.com/auroradev/aurora-cli/pkg/auth"
	"github.com/auroradev/aurora-cli/pkg/config"
	breverrors "github.com/auroradev/aurora-cli/pkg/errors"
	"github.com/auroradev/aurora-cli/pkg/files"
	"github.com/auroradev/aurora-cli/pkg/terminal"
	"github.com/pkg/browser"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var openURL = browser.OpenURL

// NewAuth builds the token source from AURORA_AUTH_URL and the token stored
// under ~/.aurora.
func NewAuth(fs afero.Fs) (*auth.Auth, error) {
	cfg := config.GlobalConfig
	if cfg.GetAuthURL() == "" {
		return nil, &breverrors.ConfigurationError{Setting: "AURORA_AUTH_URL"}
	}
	home, err := files.GetAuroraHome()
	if err != nil {
		return nil, breverrors.WrapAndTrace(err)
	}
	poller := auth.NewDevicePoller(cfg.GetAuthURL(), cfg.GetAuthPollAttempts(), cfg.GetAuthPollStep())
	return auth.NewAuth(auth.NewFileStore(fs, home), poller), nil
}

// Interactive runs flow, opening the login URL in a browser and spinning
// until the backend hands out a token.
func Interactive(t *terminal.Terminal, flow func(onLoginURL func(string)) (string, error)) (string, error) {
	s := t.NewSpinner("Waiting for login to complete in browser...")
	token, err := flow(func(url string) {
		if err := openURL(url); err != nil {
			t.Eprint("Error opening browser. Please copy " + t.Blue(url) + " and paste it in your browser.")
		}
		s.Start()
	})
	s.Stop()
	if err != nil {
		return "", breverrors.WrapAndTrace(err)
	}
	return token, nil
}

func NewCmdLogin(t *terminal.Terminal, fs afero.Fs) *cobra.Command {
	cmd := &cobra.Command{
		Annotations:           map[string]string{"housekeeping": ""},
		Use:                   "login",
		DisableFlagsInUseLine: true,
		Short:                 "Log in to the WebSocket backend",
		Long:                  "Log in through the browser and store the token the WebSocket client presents",
		Example:               "aurora-cli login",
		Args:                  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := NewAuth(fs)
			if err != nil {
				return breverrors.WrapAndTrace(err)
			}
			if _, err := Interactive(t, a.Login); err != nil {
				return breverrors.WrapAndTrace(err)
			}
			t.Vprint(t.Green("Successfully logged in."))
			return nil
		},
	}
	return cmd
}

func NewCmdLogout(t *terminal.Terminal, fs afero.Fs) *cobra.Command {
	cmd := &cobra.Command{
		Annotations:           map[string]string{"housekeeping": ""},
		Use:                   "logout",
		DisableFlagsInUseLine: true,
		Short:                 "Log out of the WebSocket backend",
		Long:                  "Log out by deleting the stored token",
		Example:               "aurora-cli logout",
		Args:                  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			home, err := files.GetAuroraHome()
			if err != nil {
				return breverrors.WrapAndTrace(err)
			}
			if err := auth.NewFileStore(fs, home).DeleteToken(); err != nil {
				return breverrors.WrapAndTrace(err)
			}
			t.Vprint("Logged out.")
			return nil
		},
	}
	return cmd
}
