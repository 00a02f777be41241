// Package ws runs the WebSocket front-end, either dialing the backend or
// accepting it on a local port.
package ws

import (
	"github.com/auroradev/aurora-cli/pkg/cmd/login"
	"github.com/auroradev/aurora-cli/pkg/cmd/util"
	breverrors "github.com/auroradev/aurora-cli/pkg/errors"
	"github.com/auroradev/aurora-cli/pkg/server"
	"github.com/auroradev/aurora-cli/pkg/tasks"
	"github.com/auroradev/aurora-cli/pkg/terminal"
	"github.com/spf13/cobra"
)

func NewCmdWS(t *terminal.Terminal, rt *util.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Annotations: map[string]string{"service": ""},
		Use:         "ws",
		Short:       "WebSocket front-end",
		Args:        cobra.NoArgs,
	}

	var url string
	var detach bool
	connect := &cobra.Command{
		Use:   "connect",
		Short: "Dial the backend and serve its requests",
		Long:  "Dial AURORA_WEBSOCKET_URL with a bearer token and serve requests until interrupted. The connection is redialed when it drops.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := rt.App()
			if url == "" {
				url = app.Config.GetWebSocketURL()
			}
			if url == "" {
				return &breverrors.ConfigurationError{Setting: "AURORA_WEBSOCKET_URL"}
			}
			token, err := tokenFunc(t, rt, detach)
			if err != nil {
				return breverrors.WrapAndTrace(err)
			}
			app.Router.AttachWebSocket(rt.Socket)
			client := server.NewWSClient(url, token, rt.Socket, rt.Dispatcher())
			return util.RunService(t, []tasks.Task{
				server.ServeTask{Serve: client.Run},
				server.KeepaliveTask{Socket: rt.Socket},
			}, detach)
		},
	}
	connect.Flags().StringVar(&url, "url", "", "backend URL, defaults to AURORA_WEBSOCKET_URL")
	connect.Flags().BoolVarP(&detach, "detach", "d", false, "run in the background")

	var addr string
	var detachListen bool
	listen := &cobra.Command{
		Use:   "listen",
		Short: "Accept the backend on /ws",
		Long:  "Serve /ws on a local address. Only the newest connection receives envelopes.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := rt.App()
			if addr == "" {
				addr = app.Config.GetWebSocketListenAddr()
			}
			app.Router.AttachWebSocket(rt.Socket)
			l := server.NewListener(addr, rt.Socket, rt.Dispatcher())
			return util.RunService(t, []tasks.Task{
				server.ServeTask{Serve: l.Serve},
				server.KeepaliveTask{Socket: rt.Socket},
			}, detachListen)
		},
	}
	listen.Flags().StringVar(&addr, "addr", "", "listen address, defaults to AURORA_WEBSOCKET_LISTEN")
	listen.Flags().BoolVarP(&detachListen, "detach", "d", false, "run in the background")

	cmd.AddCommand(connect, listen)
	return cmd
}

// tokenFunc prefers AURORA_WEBSOCKET_TOKEN. Otherwise the stored token is
// used, logging in first when it is missing or expired. A detached service
// cannot open a browser, so the login happens before detaching.
func tokenFunc(t *terminal.Terminal, rt *util.Runtime, detach bool) (server.TokenFunc, error) {
	app := rt.App()
	if static := app.Config.GetWebSocketToken(); static != "" {
		return server.StaticToken(static), nil
	}
	a, err := login.NewAuth(app.Fs)
	if err != nil {
		return nil, breverrors.WrapAndTrace(err)
	}
	interactive := func() (string, error) {
		return login.Interactive(t, a.GetFreshTokenOrLogin)
	}
	if detach {
		if _, err := interactive(); err != nil {
			return nil, breverrors.WrapAndTrace(err)
		}
	}
	return interactive, nil
}
