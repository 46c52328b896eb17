package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	msql "tickspot-scraper/internal/adapter/mysql"
	ts "tickspot-scraper/internal/adapter/tickspot"
	"tickspot-scraper/internal/config"
	"tickspot-scraper/internal/metrics"
	"tickspot-scraper/internal/migrate"
	"tickspot-scraper/internal/usecase"
)

// App wires adapters and use cases.
type App struct {
	log      *slog.Logger
	uc       *usecase.SyncUseCase
	registry *prometheus.Registry
	closers  []func() error
}

func New(log *slog.Logger, cfg config.Config) (*App, error) {
	reg := prometheus.NewRegistry()
	m, err := metrics.NewSync(reg)
	if err != nil {
		return nil, err
	}
	client := NewTickspotClient(log, cfg, m)

	// Run migrations before opening the sink for use
	if err := migrate.Run(context.Background(), cfg.MySQL.DSN, log); err != nil {
		return nil, errors.Wrap(err, "running migrations")
	}
	sink, err := msql.NewClient(context.Background(), cfg.MySQL.DSN, log)
	if err != nil {
		return nil, errors.Wrap(err, "opening mysql sink")
	}

	uc := &usecase.SyncUseCase{
		Log:      log,
		Tickspot: client,
		Sink:     sink,
		Metrics:  m,
	}

	return &App{log: log, uc: uc, registry: reg, closers: []func() error{sink.Close}}, nil
}

// NewTickspotClient builds an API client from cfg. Calls are recorded in m
// when it is non-nil.
func NewTickspotClient(log *slog.Logger, cfg config.Config, m *metrics.Sync) *ts.Client {
	creds := ts.Credentials{
		Subdomain: cfg.Tickspot.Subdomain,
		Email:     cfg.Tickspot.Email,
		Password:  cfg.Tickspot.Password,
	}
	return ts.NewClient(creds, log,
		ts.WithBaseURL(cfg.Tickspot.BaseURL),
		ts.WithTransport(observedTransport{next: ts.NewHTTPTransport(30 * time.Second), metrics: m}),
	)
}

func (a *App) RunOnce(ctx context.Context, from, to time.Time) error {
	return a.uc.Run(ctx, from, to)
}

// Close releases the sink connection.
func (a *App) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
