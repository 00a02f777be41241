// Package call sends a raw JSON request, the same one the D-Bus and
// WebSocket front-ends accept.
package call

import (
	"io"
	"strings"

	"github.com/auroradev/aurora-cli/pkg/cmd/util"
	breverrors "github.com/auroradev/aurora-cli/pkg/errors"
	"github.com/auroradev/aurora-cli/pkg/terminal"
	"github.com/spf13/cobra"
)

var callExample = `  aurora-cli call '{"key":"device_info"}'
  echo '{"key":"app_info"}' | aurora-cli call -`

func NewCmdCall(_ *terminal.Terminal, rt *util.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "call <json|->",
		Short:   "Dispatch a raw JSON request",
		Example: callExample,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := []byte(args[0])
			if args[0] == "-" {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return breverrors.WrapAndTrace(err)
				}
				raw = b
			}
			if strings.TrimSpace(string(raw)) == "" {
				return breverrors.NewValidationError("empty request")
			}
			return rt.Run(cmd.Context(), raw)
		},
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return rt.Dispatcher().Registry().Keys(), cobra.ShellCompDirectiveNoFileComp
		},
	}
	return cmd
}
