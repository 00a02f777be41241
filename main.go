package main

import (
	"os"

	"github.com/auroradev/aurora-cli/pkg/cmd"
	"github.com/auroradev/aurora-cli/pkg/cmd/cmderrors"
	breverrors "github.com/auroradev/aurora-cli/pkg/errors"
	"github.com/auroradev/aurora-cli/pkg/featureflag"
	"github.com/auroradev/aurora-cli/pkg/files"
)

func main() {
	if home, err := files.GetAuroraHome(); err == nil {
		_ = featureflag.LoadFeatureFlags(home)
	}
	done := breverrors.GetDefaultErrorReporter().Setup()

	command := cmd.NewDefaultAuroraCommand()
	err := command.Execute()
	done()
	if err != nil {
		cmderrors.DisplayAndHandleError(os.Stderr, err)
		os.Exit(1)
	}
}
