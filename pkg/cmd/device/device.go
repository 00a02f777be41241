// Package device is the `aurora-cli device` command tree.
package device

import (
	"strings"

	"github.com/auroradev/aurora-cli/pkg/cmd/util"
	"github.com/auroradev/aurora-cli/pkg/entity"
	"github.com/auroradev/aurora-cli/pkg/features"
	"github.com/auroradev/aurora-cli/pkg/terminal"
	"github.com/spf13/cobra"
)

var (
	deviceLong    = "Work with the Aurora OS devices listed under `devices:` in ~/.aurora/config.yaml"
	deviceExample = `  aurora-cli device info
  aurora-cli device command --root "id -u"
  aurora-cli device install ./ru.auroraos.demo-0.1-1.armv7hl.rpm`
)

func NewCmdDevice(_ *terminal.Terminal, rt *util.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Annotations: map[string]string{"target": ""},
		Use:         "device",
		Short:       "Run operations on physical devices",
		Long:        deviceLong,
		Example:     deviceExample,
		Args:        cobra.NoArgs,
	}
	cmd.AddCommand(TargetCommands(rt, entity.TargetDevice)...)
	return cmd
}

// TargetCommands are the subcommands shared by devices and emulators. Each
// one sends a single request; when several targets match, the operator is
// asked to pick one.
func TargetCommands(rt *util.Runtime, kind entity.TargetKind) []*cobra.Command {
	var id string
	withID := func(body map[string]any) map[string]any {
		if id != "" {
			body["id"] = id
		}
		return body
	}
	addIDFlag := func(cmd *cobra.Command) *cobra.Command {
		cmd.Flags().StringVar(&id, "id", "", "target id to skip the selection prompt")
		return cmd
	}

	info := &cobra.Command{
		Use:   "info",
		Short: "Show the OS name, version and architecture",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.RunRequest(cmd.Context(), features.KeyFor(kind, features.SuffixInfo), withID(map[string]any{}))
		},
	}

	var root bool
	command := &cobra.Command{
		Use:   "command <shell command>",
		Short: "Run a shell command and print its output",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.RunRequest(cmd.Context(), features.KeyFor(kind, features.SuffixCommand), withID(map[string]any{
				"command": strings.Join(args, " "),
				"root":    root,
			}))
		},
	}
	command.Flags().BoolVar(&root, "root", false, "run as root")
	// flags after the first argument belong to the remote command
	command.Flags().SetInterspersed(false)

	upload := &cobra.Command{
		Use:   "upload <local path>",
		Short: "Copy a file to ~/Downloads on the target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.RunRequest(cmd.Context(), features.KeyFor(kind, features.SuffixUpload), withID(map[string]any{"path": args[0]}))
		},
	}

	download := &cobra.Command{
		Use:   "download <remote path> <local path>",
		Short: "Copy a file from the target",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.RunRequest(cmd.Context(), features.KeyFor(kind, features.SuffixDownload), withID(map[string]any{
				"remote": args[0],
				"local":  args[1],
			}))
		},
	}

	var replace string
	install := &cobra.Command{
		Use:   "install <rpm path>",
		Short: "Upload and install an RPM package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{"path": args[0]}
			if replace != "" {
				body["replace"] = replace
			}
			return rt.RunRequest(cmd.Context(), features.KeyFor(kind, features.SuffixPackageInstall), withID(body))
		},
	}
	install.Flags().StringVar(&replace, "replace", "", "package to remove before installing")

	run := &cobra.Command{
		Use:   "run",
		Short: "Start an installed application",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.RunRequest(cmd.Context(), features.KeyFor(kind, features.SuffixPackageRun), withID(map[string]any{}))
		},
	}

	var keepUserData bool
	remove := &cobra.Command{
		Use:   "remove",
		Short: "Remove an installed application",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.RunRequest(cmd.Context(), features.KeyFor(kind, features.SuffixPackageRemove), withID(map[string]any{
				"keep_user_data": keepUserData,
			}))
		},
	}
	remove.Flags().BoolVar(&keepUserData, "keep-user-data", false, "keep the application's data")

	list := &cobra.Command{
		Use:   "packages",
		Short: "List installed applications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.RunRequest(cmd.Context(), features.KeyFor(kind, features.SuffixPackageList), withID(map[string]any{}))
		},
	}

	cmds := []*cobra.Command{info, command, upload, download, install, run, remove, list}
	for _, c := range cmds {
		addIDFlag(c)
	}
	return cmds
}
