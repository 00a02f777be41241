// Package appctx holds everything a running aurora-cli process shares: the
// logger, the transport router, the worker pool and the per-target leases.
// One App is built at start-up and handed to every front-end.
package appctx

import (
	"context"
	"io"
	"time"

	"github.com/auroradev/aurora-cli/pkg/config"
	"github.com/auroradev/aurora-cli/pkg/entity"
	breverrors "github.com/auroradev/aurora-cli/pkg/errors"
	"github.com/auroradev/aurora-cli/pkg/executor"
	"github.com/auroradev/aurora-cli/pkg/featureflag"
	"github.com/auroradev/aurora-cli/pkg/l10n"
	"github.com/auroradev/aurora-cli/pkg/progress"
	"github.com/auroradev/aurora-cli/pkg/remote"
	"github.com/auroradev/aurora-cli/pkg/transport"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Connector opens a session to a target.
type Connector func(ctx context.Context, t entity.Target, role remote.Role) (remote.Conn, error)

type App struct {
	Log      *zap.Logger
	Router   *transport.Router
	Exec     executor.Runner
	Connect  Connector
	Pool     *Pool
	Leases   *Leases
	Fs       afero.Fs
	Text     *l10n.Localizer
	Reporter breverrors.ErrorReporter
	Config   *config.ConstantsConfig
}

// New wires the production App printing console output to out.
func New(out io.Writer) *App {
	cfg := config.GlobalConfig
	log := NewLogger(cfg.GetLogLevel())
	text := l10n.New(cfg.GetLanguage())

	router := transport.NewRouter(transport.NewConsole(out), log)
	router.SetPhaseText(progress.PhaseFetching, text.T(l10n.Fetching))
	router.SetPhaseText(progress.PhasePreparing, text.T(l10n.Preparing))
	router.SetPhaseText(progress.PhaseStarting, text.T(l10n.Starting))

	app := &App{
		Log:      log,
		Router:   router,
		Exec:     executor.New(log.Named("executor")),
		Pool:     NewPool(cfg.GetWorkerCount()),
		Leases:   NewLeases(featureflag.TargetLease()),
		Fs:       afero.NewOsFs(),
		Text:     text,
		Reporter: breverrors.GetDefaultErrorReporter(),
		Config:   cfg,
	}
	app.Connect = SSHConnector(cfg.GetStatusTimeout(), log, app.Fs)
	return app
}

// SSHConnector connects over SSH with the given status timeout.
func SSHConnector(statusTimeout time.Duration, log *zap.Logger, fs afero.Fs) Connector {
	return func(ctx context.Context, t entity.Target, role remote.Role) (remote.Conn, error) {
		timeout := statusTimeout
		opts, err := remote.OptionsFor(t, role, &timeout, log)
		if err != nil {
			return nil, breverrors.WrapAndTrace(err)
		}
		opts.Fs = fs
		s, err := remote.Connect(ctx, opts)
		if err != nil {
			return nil, breverrors.WrapAndTrace(err)
		}
		return s, nil
	}
}

// NewLogger writes JSON to stderr at level (warn when empty or invalid).
func NewLogger(level string) *zap.Logger {
	lvl := zapcore.WarnLevel
	if level != "" {
		if parsed, err := zapcore.ParseLevel(level); err == nil {
			lvl = parsed
		}
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Sampling = nil
	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}
