// Package features holds the request kinds the front-ends understand. Device
// and emulator variants share one implementation parameterised by the pool
// they pick their target from.
package features

import (
	"context"
	"regexp"
	"sort"

	"github.com/auroradev/aurora-cli/pkg/dispatch"
	"github.com/auroradev/aurora-cli/pkg/entity"
	breverrors "github.com/auroradev/aurora-cli/pkg/errors"
	"github.com/auroradev/aurora-cli/pkg/l10n"
	"github.com/auroradev/aurora-cli/pkg/protocol"
	"github.com/auroradev/aurora-cli/pkg/selector"
	"github.com/hashicorp/go-version"
	"github.com/samber/lo"
)

const (
	KeyAppInfo = "app_info"

	SuffixInfo           = "info"
	SuffixCommand        = "command"
	SuffixUpload         = "upload"
	SuffixDownload       = "download"
	SuffixPackageInstall = "package_install"
	SuffixPackageRun     = "package_run"
	SuffixPackageRemove  = "package_remove"
	SuffixPackageList    = "package_list"

	KeyEmulatorStart = "emulator_start"
)

// KeyFor is the request key of suffix for kind, e.g. "device_info".
func KeyFor(kind entity.TargetKind, suffix string) string {
	return string(kind) + "_" + suffix
}

type EmulatorSource interface {
	Emulators(ctx context.Context) ([]entity.Emulator, error)
	Running(ctx context.Context) ([]entity.Emulator, error)
	Start(e entity.Emulator) error
}

// Sources are the candidate pools requests search.
type Sources struct {
	Devices      func(ctx context.Context) ([]entity.Device, error)
	Emulators    EmulatorSource
	EmulatorPort int
}

// remoteTarget is a device or a running emulator as a selector candidate.
type remoteTarget struct {
	id     selector.ID
	name   string
	target entity.Target
}

func (r remoteTarget) ID() selector.ID     { return r.id }
func (r remoteTarget) DisplayName() string { return r.name }

func (s *Sources) targets(ctx context.Context, kind entity.TargetKind) ([]remoteTarget, error) {
	if kind == entity.TargetEmulator {
		running, err := s.Emulators.Running(ctx)
		if err != nil {
			return nil, breverrors.WrapAndTrace(err)
		}
		return lo.Map(sortEmulators(running), func(e entity.Emulator, _ int) remoteTarget {
			return remoteTarget{id: e.ID(), name: e.DisplayName(), target: e.Target(s.EmulatorPort)}
		}), nil
	}
	devices, err := s.Devices(ctx)
	if err != nil {
		return nil, breverrors.WrapAndTrace(err)
	}
	return lo.Map(devices, func(d entity.Device, _ int) remoteTarget {
		return remoteTarget{id: d.ID(), name: d.DisplayName(), target: d.Target()}
	}), nil
}

func (s *Sources) resolveTarget(
	ctx context.Context,
	env *dispatch.Env,
	kind entity.TargetKind,
	key string,
	id *selector.ID,
	resume func(selector.ID) dispatch.Request,
	exec func(remoteTarget) protocol.Outgoing,
) protocol.Outgoing {
	text := l10n.SearchingDevices
	if kind == entity.TargetEmulator {
		text = l10n.SearchingEmulators
	}
	return dispatch.Resolve(ctx, env, dispatch.Lookup[remoteTarget]{
		Key:        key,
		ID:         selector.Optional(id),
		StatusText: env.T(text),
		Fetch:      func(ctx context.Context) ([]remoteTarget, error) { return s.targets(ctx, kind) },
		Resume:     resume,
	}, exec)
}

var emulatorVersion = regexp.MustCompile(`\d+(\.\d+)+`)

// sortEmulators puts the newest OS release first; names without a version
// keep their relative order at the end.
func sortEmulators(emulators []entity.Emulator) []entity.Emulator {
	out := append([]entity.Emulator(nil), emulators...)
	versionOf := func(e entity.Emulator) *version.Version {
		v, err := version.NewVersion(emulatorVersion.FindString(e.Name))
		if err != nil {
			return nil
		}
		return v
	}
	sort.SliceStable(out, func(i, j int) bool {
		vi, vj := versionOf(out[i]), versionOf(out[j])
		switch {
		case vi == nil:
			return false
		case vj == nil:
			return true
		default:
			return vi.GreaterThan(vj)
		}
	})
	return out
}

// Register adds every request kind to reg.
func Register(reg *dispatch.Registry, src *Sources) {
	reg.Register(KeyAppInfo, func() dispatch.Request { return &AppInfo{} })
	reg.Register(KeyEmulatorStart, func() dispatch.Request { return &EmulatorStart{src: src} })

	for _, kind := range []entity.TargetKind{entity.TargetDevice, entity.TargetEmulator} {
		base := targetRequest{kind: kind, src: src}
		reg.Register(KeyFor(kind, SuffixInfo), func() dispatch.Request { return &Info{targetRequest: base} })
		reg.Register(KeyFor(kind, SuffixCommand), func() dispatch.Request { return &Command{targetRequest: base} })
		reg.Register(KeyFor(kind, SuffixUpload), func() dispatch.Request { return &Upload{targetRequest: base} })
		reg.Register(KeyFor(kind, SuffixDownload), func() dispatch.Request { return &Download{targetRequest: base} })
		reg.Register(KeyFor(kind, SuffixPackageInstall), func() dispatch.Request { return &PackageInstall{targetRequest: base} })
		reg.Register(KeyFor(kind, SuffixPackageRun), func() dispatch.Request { return &PackageRun{packageRequest: packageRequest{targetRequest: base}} })
		reg.Register(KeyFor(kind, SuffixPackageRemove), func() dispatch.Request { return &PackageRemove{packageRequest: packageRequest{targetRequest: base}} })
		reg.Register(KeyFor(kind, SuffixPackageList), func() dispatch.Request { return &PackageList{targetRequest: base} })
	}
}

// targetRequest is embedded by every request that acts on one device or
// emulator.
type targetRequest struct {
	ID *selector.ID `json:"id,omitempty"`

	kind entity.TargetKind
	src  *Sources
}
