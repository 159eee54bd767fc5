// File: cmd/replisync/app.go
package main

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"replisync/internal/algolia"
	"replisync/internal/area"
	"replisync/internal/catalog"
	"replisync/internal/catalog/source/factory"
	"replisync/internal/config"
	"replisync/internal/console"
	"replisync/internal/replica"
	"replisync/internal/service"
	"replisync/internal/ui/prompt"
	"replisync/pkg/formatter"
)

type appOptions struct {
	configPath string
	catalog    string
	styled     bool
	in         io.Reader
	out        io.Writer
	logger     *slog.Logger
}

// appContainer holds all the shared dependencies for the application.
// Config, catalog and the Algolia client are built on first use so that
// 'config' subcommands work even when the current configuration is incomplete.
type appContainer struct {
	ConfigManager *config.ConfigManager
	Console       *console.Writer
	Prompter      prompt.Prompter
	Formatter     *formatter.ReplicaFormatter
	Area          *area.State
	Logger        *slog.Logger

	catalogOverride string

	mu      sync.Mutex
	cfg     *config.Config
	catalog *catalog.Catalog
	manager *replica.Manager
}

// Creates and initializes a new application container
func newApp(opts appOptions) (*appContainer, error) {
	cfgManager, err := config.NewConfigManager(opts.configPath)
	if err != nil {
		return nil, err
	}

	return &appContainer{
		ConfigManager:   cfgManager,
		Console:         console.NewWriter(opts.out, opts.styled),
		Prompter:        prompt.NewStandardPrompter(opts.in, opts.out),
		Formatter:       formatter.NewReplicaFormatter(opts.styled),
		Area:            area.NewState(opts.logger),
		Logger:          opts.logger,
		catalogOverride: opts.catalog,
	}, nil
}

func (a *appContainer) Config() (*config.Config, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.config()
}

func (a *appContainer) config() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}

	cfg, err := a.ConfigManager.LoadConfig()
	if err != nil {
		return nil, err
	}
	if a.catalogOverride != "" {
		cfg.Catalog.Location = a.catalogOverride
	}
	a.cfg = cfg
	return cfg, nil
}

// Catalog loads the catalog document once per process
func (a *appContainer) Catalog(ctx context.Context) (*catalog.Catalog, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.catalog != nil {
		return a.catalog, nil
	}

	cfg, err := a.config()
	if err != nil {
		return nil, err
	}

	c, err := catalog.Load(ctx, factory.NewFactory(cfg, a.Logger), cfg.Catalog.Location)
	if err != nil {
		return nil, err
	}
	a.catalog = c
	return c, nil
}

// ReplicaManager builds the Algolia client and the replica manager on top of it
func (a *appContainer) ReplicaManager() (*replica.Manager, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.manager != nil {
		return a.manager, nil
	}

	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateAlgolia(); err != nil {
		return nil, err
	}

	client := algolia.NewClient(cfg.Algolia.ApplicationID, cfg.Algolia.APIKey,
		algolia.WithHosts(cfg.Algolia.Hosts...),
		algolia.WithTimeout(cfg.Algolia.Timeout),
		algolia.WithMaxRetries(cfg.Algolia.MaxRetries),
		algolia.WithRequestsPerSecond(cfg.Algolia.RequestsPerSecond),
		algolia.WithLogger(a.Logger),
	)

	a.manager = replica.NewManager(client, cfg.Replicas.MaxVirtual, a.Logger)
	return a.manager, nil
}

func (a *appContainer) ReplicaSyncService(ctx context.Context) (*service.ReplicaSyncService, error) {
	c, err := a.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	manager, err := a.ReplicaManager()
	if err != nil {
		return nil, err
	}

	return service.NewReplicaSyncService(service.Dependencies{
		Stores:    c,
		Settings:  c,
		Replicas:  manager,
		Rebuilder: manager,
		Area:      a.Area,
		Out:       a.Console,
		Logger:    a.Logger,
	}), nil
}

func (a *appContainer) ReplicaStatusService(ctx context.Context) (*service.ReplicaStatusService, error) {
	c, err := a.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	manager, err := a.ReplicaManager()
	if err != nil {
		return nil, err
	}
	return service.NewReplicaStatusService(c, c, manager, a.Logger), nil
}
