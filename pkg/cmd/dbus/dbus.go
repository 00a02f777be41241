// Package dbus is `aurora-cli dbus serve`.
package dbus

import (
	"github.com/auroradev/aurora-cli/pkg/cmd/util"
	"github.com/auroradev/aurora-cli/pkg/server"
	"github.com/auroradev/aurora-cli/pkg/tasks"
	"github.com/auroradev/aurora-cli/pkg/terminal"
	"github.com/spf13/cobra"
)

var serveLong = `Own the bus name and accept requests through the Call(json) method.
Every envelope is emitted as a Listen(json) signal on the same object.`

func NewCmdDBus(t *terminal.Terminal, rt *util.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Annotations: map[string]string{"service": ""},
		Use:         "dbus",
		Short:       "D-Bus front-end",
		Args:        cobra.NoArgs,
	}

	var system, detach bool
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve requests over D-Bus",
		Long:  serveLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := rt.App()
			svc := server.NewDBusService(server.DBusConfig{
				BusName:    app.Config.GetDBusBusName(),
				ObjectPath: app.Config.GetDBusObjectPath(),
				Interface:  app.Config.GetDBusInterface(),
				SystemBus:  system,
			}, rt.Dispatcher(), app.Router, app.Log)
			return util.RunService(t, []tasks.Task{server.ServeTask{Serve: svc.Serve}}, detach)
		},
	}
	serve.Flags().BoolVar(&system, "system", false, "use the system bus instead of the session bus")
	serve.Flags().BoolVarP(&detach, "detach", "d", false, "run in the background")
	cmd.AddCommand(serve)
	return cmd
}
