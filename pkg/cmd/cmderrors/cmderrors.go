package cmderrors

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/auroradev/aurora-cli/pkg/cmd/util"
	"github.com/auroradev/aurora-cli/pkg/featureflag"
	"github.com/auroradev/aurora-cli/pkg/terminal"

	breverrors "github.com/auroradev/aurora-cli/pkg/errors"
)

// DisplayAndHandleCmdError tags the crash monitor with the command name and
// reports whatever cmdFunc returns.
func DisplayAndHandleCmdError(name string, cmdFunc func() error) error {
	er := breverrors.GetDefaultErrorReporter()
	er.AddTag("command", name)
	err := cmdFunc()
	if err != nil && !errors.Is(err, util.ErrRequestFailed) {
		er.ReportMessage(err.Error())
		er.ReportError(err)
		if featureflag.IsDev() {
			return err
		}
		return errors.Cause(err) //nolint:wrapcheck //no check
	}
	return err
}

func DisplayAndHandleError(out io.Writer, err error) {
	if err == nil || errors.Is(err, util.ErrRequestFailed) {
		return
	}
	t := terminal.New()
	prettyErr := ""
	switch errors.Cause(err).(type) {
	case breverrors.ValidationError:
		// do not report error
		prettyErr = t.Yellow(errors.Cause(err).Error())
	default:
		prettyErr = t.Red(errors.Cause(err).Error())
	}
	if featureflag.IsDev() {
		fmt.Fprintln(out, err)
	} else {
		fmt.Fprintln(out, prettyErr)
	}
	var userErr breverrors.UserError
	if breverrors.As(err, &userErr) && userErr.Directive() != "" {
		fmt.Fprintln(out, t.Yellow(userErr.Directive()))
	}
}
