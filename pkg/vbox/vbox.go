// Package vbox discovers and starts Aurora OS emulators through vboxmanage.
package vbox

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/auroradev/aurora-cli/pkg/entity"
	breverrors "github.com/auroradev/aurora-cli/pkg/errors"
	"github.com/auroradev/aurora-cli/pkg/executor"
	"github.com/auroradev/aurora-cli/pkg/files"
	"github.com/samber/lo"
)

// `"AuroraOS-5.0.0.60-base" {6b4b9f5e-...}`
var vmLine = regexp.MustCompile(`^"(.*)" \{([0-9a-fA-F-]+)\}$`)

const startGrace = 3 * time.Second

type Manager struct {
	exec executor.Runner
	bin  string
}

func New(exec executor.Runner, bin string) *Manager {
	if bin == "" {
		bin = "vboxmanage"
	}
	return &Manager{exec: exec, bin: bin}
}

func (m *Manager) run(ctx context.Context, args ...string) ([]string, error) {
	out, err := m.exec.RunWithArgs(ctx, m.bin, args...)
	if err != nil {
		return nil, breverrors.WrapAndTrace(err)
	}
	if err := out.AsError(m.bin); err != nil {
		return nil, breverrors.WrapAndTrace(err)
	}
	return out.Stdout, nil
}

// Emulators lists every Aurora OS virtual machine, running or not.
func (m *Manager) Emulators(ctx context.Context) ([]entity.Emulator, error) {
	all, err := m.run(ctx, "list", "vms")
	if err != nil {
		return nil, breverrors.WrapAndTrace(err)
	}
	running, err := m.run(ctx, "list", "runningvms")
	if err != nil {
		return nil, breverrors.WrapAndTrace(err)
	}
	runningIDs := lo.SliceToMap(parseVMs(running), func(e entity.Emulator) (string, bool) { return e.UUID, true })

	emulators := lo.Filter(parseVMs(all), func(e entity.Emulator, _ int) bool {
		return strings.Contains(strings.ToLower(e.Name), "aurora")
	})
	for i := range emulators {
		emulators[i].Running = runningIDs[emulators[i].UUID]
		info, err := m.run(ctx, "showvminfo", emulators[i].UUID, "--machinereadable")
		if err != nil {
			return nil, breverrors.WrapAndTrace(err)
		}
		emulators[i].SharedFolder = sharedFolder(info)
		if emulators[i].SharedFolder != "" {
			emulators[i].KeyPath = files.GetEmulatorKeyPath(emulators[i].SharedFolder)
		}
	}
	return emulators, nil
}

// Running is Emulators restricted to machines that are up.
func (m *Manager) Running(ctx context.Context) ([]entity.Emulator, error) {
	all, err := m.Emulators(ctx)
	if err != nil {
		return nil, breverrors.WrapAndTrace(err)
	}
	return lo.Filter(all, func(e entity.Emulator, _ int) bool { return e.Running }), nil
}

// Start boots the machine detached from this process.
func (m *Manager) Start(e entity.Emulator) error {
	if err := m.exec.SpawnDetached(m.bin, []string{"startvm", e.UUID}, startGrace); err != nil {
		return breverrors.WrapAndTrace(err)
	}
	return nil
}

func parseVMs(lines []string) []entity.Emulator {
	var out []entity.Emulator
	for _, line := range lines {
		m := vmLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		out = append(out, entity.Emulator{Name: m[1], UUID: m[2]})
	}
	return out
}

// sharedFolder picks the "config" mapping when present, else the first one.
func sharedFolder(info []string) string {
	names := map[string]string{}
	paths := map[string]string{}
	var order []string
	for _, line := range info {
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.Trim(value, `"`)
		switch {
		case strings.HasPrefix(key, "SharedFolderNameMachineMapping"):
			names[strings.TrimPrefix(key, "SharedFolderNameMachineMapping")] = value
		case strings.HasPrefix(key, "SharedFolderPathMachineMapping"):
			idx := strings.TrimPrefix(key, "SharedFolderPathMachineMapping")
			paths[idx] = value
			order = append(order, idx)
		}
	}
	for _, idx := range order {
		if names[idx] == "config" {
			return paths[idx]
		}
	}
	if len(order) > 0 {
		return paths[order[0]]
	}
	return ""
}
