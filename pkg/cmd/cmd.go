// Package cmd is the entrypoint to cli
package cmd

import (
	"io"
	"os"

	"github.com/auroradev/aurora-cli/pkg/cmd/call"
	"github.com/auroradev/aurora-cli/pkg/cmd/cmderrors"
	"github.com/auroradev/aurora-cli/pkg/cmd/dbus"
	"github.com/auroradev/aurora-cli/pkg/cmd/device"
	"github.com/auroradev/aurora-cli/pkg/cmd/emulator"
	"github.com/auroradev/aurora-cli/pkg/cmd/login"
	"github.com/auroradev/aurora-cli/pkg/cmd/util"
	"github.com/auroradev/aurora-cli/pkg/cmd/version"
	"github.com/auroradev/aurora-cli/pkg/cmd/ws"
	"github.com/auroradev/aurora-cli/pkg/terminal"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func NewDefaultAuroraCommand() *cobra.Command {
	cmd := NewAuroraCommand(os.Stdin, os.Stdout, os.Stderr)
	return cmd
}

func NewAuroraCommand(in io.Reader, out io.Writer, errOut io.Writer) *cobra.Command {
	t := terminal.NewWithWriters(out, errOut)
	return NewAuroraCommandWithRuntime(in, t, util.NewRuntime(t))
}

// NewAuroraCommandWithRuntime builds the command tree around rt.
func NewAuroraCommandWithRuntime(in io.Reader, t *terminal.Terminal, rt *util.Runtime) *cobra.Command {
	cmds := &cobra.Command{
		Use:   "aurora-cli",
		Short: "Operate Aurora OS devices and emulators",
		Long: `
      Operate Aurora OS devices and emulators: run commands, move files,
      install, start and remove applications.

      The same requests are served over D-Bus (aurora-cli dbus serve)
      and WebSocket (aurora-cli ws connect | listen).`,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, args []string) {
			terminal.DisplayAuroraLogo(t)
			runHelp(cmd, args)
		},
	}
	cmds.SetIn(in)
	cmds.SetOut(t.Out())

	fs := afero.NewOsFs()
	cmds.AddCommand(device.NewCmdDevice(t, rt))
	cmds.AddCommand(emulator.NewCmdEmulator(t, rt))
	cmds.AddCommand(call.NewCmdCall(t, rt))
	cmds.AddCommand(dbus.NewCmdDBus(t, rt))
	cmds.AddCommand(ws.NewCmdWS(t, rt))
	cmds.AddCommand(login.NewCmdLogin(t, fs))
	cmds.AddCommand(login.NewCmdLogout(t, fs))
	cmds.AddCommand(version.NewCmdVersion(t))

	reportErrors(cmds)
	return cmds
}

// reportErrors routes every RunE through the crash reporter, tagged with
// the command path.
func reportErrors(c *cobra.Command) {
	for _, sub := range c.Commands() {
		reportErrors(sub)
	}
	if c.RunE == nil {
		return
	}
	run := c.RunE
	c.RunE = func(cmd *cobra.Command, args []string) error {
		return cmderrors.DisplayAndHandleCmdError(cmd.CommandPath(), func() error { return run(cmd, args) })
	}
}

func runHelp(cmd *cobra.Command, _ []string) {
	_ = cmd.Help()
}
