package bootstrap

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	blocklistinadapter "hostblock/internal/modules/blocklist/adapter/in"
	blocklistoutadapter "hostblock/internal/modules/blocklist/adapter/out"
	blocklistservice "hostblock/internal/modules/blocklist/service"
	blocklistusecase "hostblock/internal/modules/blocklist/usecase"
	enforceinadapter "hostblock/internal/modules/enforce/adapter/in"
	enforceoutadapter "hostblock/internal/modules/enforce/adapter/out"
	enforceservice "hostblock/internal/modules/enforce/service"
	enforceusecase "hostblock/internal/modules/enforce/usecase"
	sessioninadapter "hostblock/internal/modules/session/adapter/in"
	sessionoutadapter "hostblock/internal/modules/session/adapter/out"
	sessionservice "hostblock/internal/modules/session/service"
	sessionusecase "hostblock/internal/modules/session/usecase"
	"hostblock/internal/platform/clock"
	"hostblock/internal/platform/config"
	uiapp "hostblock/internal/ui/app"
)

type App struct {
	BlocklistCLI blocklistinadapter.CLIHandler
	SessionCLI   sessioninadapter.CLIHandler
	EnforceCLI   enforceinadapter.CLIHandler
}

// Options tunes wiring that only some commands care about. Zero values pick
// the defaults.
type Options struct {
	DaemonInterval time.Duration
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	clk := clock.SystemClock{}

	blocklistStore := blocklistoutadapter.NewYAMLConfigStore(cfg.ConfigPath)
	resolverSvc, err := blocklistservice.NewResolverService(ctx, blocklistStore)
	if err != nil {
		return nil, fmt.Errorf("load blocklist config: %w", err)
	}
	blocklistUC := blocklistusecase.NewInteractor(resolverSvc)

	db, err := sessionoutadapter.OpenDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	sessionSvc := sessionservice.NewSchedulerService(
		clk,
		sessionoutadapter.NewSQLiteSessionStore(db),
		sessionoutadapter.NewSQLiteCooldownStore(db),
		sessionoutadapter.NewBlocklistPolicy(blocklistUC),
		sessionoutadapter.NewTxManager(db),
	)
	sessionUC := sessionusecase.NewInteractor(sessionSvc, clk)

	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	manifests := enforceoutadapter.NewYAMLManifestStore(cfg.PluginDir)
	daemonSvc := enforceservice.NewDaemonService(
		enforceoutadapter.NewSessionScheduler(sessionUC, blocklistUC),
		enforceoutadapter.NewHostsSink(cfg.HostsPath),
		manifests,
		enforceoutadapter.NewGRPCSinkHost(),
		logger,
		opts.DaemonInterval,
	)
	enforceUC := enforceusecase.NewInteractor(daemonSvc, manifests)

	return &App{
		BlocklistCLI: blocklistinadapter.NewCLIHandler(blocklistUC),
		SessionCLI:   sessioninadapter.NewCLIHandler(sessionUC),
		EnforceCLI:   enforceinadapter.NewCLIHandler(enforceUC),
	}, nil
}

func RunTUI(app *App) error {
	model := uiapp.NewModel(app.SessionCLI)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}
