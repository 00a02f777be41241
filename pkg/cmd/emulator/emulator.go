// Package emulator is the `aurora-cli emulator` command tree.
package emulator

import (
	"github.com/auroradev/aurora-cli/pkg/cmd/device"
	"github.com/auroradev/aurora-cli/pkg/cmd/util"
	"github.com/auroradev/aurora-cli/pkg/entity"
	"github.com/auroradev/aurora-cli/pkg/features"
	"github.com/auroradev/aurora-cli/pkg/terminal"
	"github.com/spf13/cobra"
)

func NewCmdEmulator(_ *terminal.Terminal, rt *util.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Annotations: map[string]string{"target": ""},
		Use:         "emulator",
		Short:       "Start and work with VirtualBox emulators",
		Long:        "Emulators are the VirtualBox machines with \"aurora\" in their name. Everything except start acts on running ones.",
		Example:     "  aurora-cli emulator start\n  aurora-cli emulator command uname -a",
		Args:        cobra.NoArgs,
	}

	start := &cobra.Command{
		Use:   "start",
		Short: "Start an emulator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.RunRequest(cmd.Context(), features.KeyEmulatorStart, nil)
		},
	}
	cmd.AddCommand(start)
	cmd.AddCommand(device.TargetCommands(rt, entity.TargetEmulator)...)
	return cmd
}
