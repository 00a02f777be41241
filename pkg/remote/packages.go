package remote

import (
	"fmt"
	"regexp"

	"github.com/alessio/shellescape"
	breverrors "github.com/auroradev/aurora-cli/pkg/errors"
	"github.com/hashicorp/go-version"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// apmSince is the first OS release that installs through the APM service.
var apmSince = version.Must(version.NewVersion("4.0.2"))

// dotted package ids, e.g. ru.auroraos.calculator
var packageNamePattern = regexp.MustCompile(`^[a-z0-9]+(\.[a-zA-Z0-9_]+){2,}$`)

const apmCall = "gdbus call --system --dest ru.omp.APM --object-path /ru/omp/APM --method"

func (s *Session) usesAPM() bool {
	v, err := version.NewVersion(s.identity.Version)
	if err != nil {
		// unknown version strings come from newer releases
		return true
	}
	return v.Core().GreaterThanOrEqual(apmSince)
}

// InstallPackage installs an rpm already uploaded to remotePath. When oldName
// is set that package is removed first and a failure to do so is ignored.
func (s *Session) InstallPackage(remotePath, oldName string) error {
	if oldName != "" {
		if err := s.RemovePackage(oldName, false); err != nil {
			s.log.Debug("remove before install failed", zap.String("package", oldName), zap.Error(err))
		}
	}

	var command, tool string
	if s.usesAPM() {
		tool = "apm"
		command = fmt.Sprintf("%s ru.omp.APM.Install %s \"{}\"", apmCall, shellescape.Quote(remotePath))
	} else {
		tool = "pkcon"
		command = "pkcon -y install-local " + shellescape.Quote(remotePath)
	}
	if _, err := s.runChecked(tool, command); err != nil {
		return breverrors.WrapAndTrace(err)
	}
	return nil
}

func (s *Session) RemovePackage(name string, keepUserData bool) error {
	var command, tool string
	if s.usesAPM() {
		tool = "apm"
		command = fmt.Sprintf("%s ru.omp.APM.Remove %s \"{'KeepUserData': <%t>}\"", apmCall, shellescape.Quote(name), keepUserData)
	} else {
		tool = "pkcon"
		command = "pkcon -y remove " + shellescape.Quote(name)
	}
	if _, err := s.runChecked(tool, command); err != nil {
		return breverrors.WrapAndTrace(err)
	}
	return nil
}

// ListInstalledPackages returns the dotted package ids found in /usr/bin.
func (s *Session) ListInstalledPackages() ([]string, error) {
	lines, err := s.Call("ls /usr/bin")
	if err != nil {
		return nil, breverrors.WrapAndTrace(err)
	}
	return lo.Filter(lines, func(name string, _ int) bool {
		return packageNamePattern.MatchString(name)
	}), nil
}
