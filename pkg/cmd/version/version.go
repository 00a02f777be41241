package version

import (
	"github.com/spf13/cobra"
)

// Version is stamped at build time with -ldflags.
var Version = ""

type printer interface {
	Vprintf(format string, a ...interface{})
}

func NewCmdVersion(t printer) *cobra.Command {
	cmd := &cobra.Command{
		Annotations: map[string]string{"housekeeping": ""},
		Use:         "version",
		Short:       "Print the aurora-cli version",
		Args:        cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			t.Vprintf("aurora-cli %s\n", String())
		},
	}
	return cmd
}

func String() string {
	if Version == "" {
		return "dev"
	}
	return Version
}
