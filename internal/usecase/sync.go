package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"tickspot-scraper/internal/domain"
	"tickspot-scraper/internal/metrics"
	"tickspot-scraper/internal/ports"
)

// ErrSyncRunning is returned when Run is called while another run is active.
var ErrSyncRunning = errors.New("sync already running")

// SyncUseCase coordinates fetching from Tickspot and syncing to a Sink.
type SyncUseCase struct {
	Log      *slog.Logger
	Tickspot ports.TickspotClient
	Sink     ports.Sink
	Metrics  *metrics.Sync // optional

	running atomic.Bool
}

func (uc *SyncUseCase) Run(ctx context.Context, from, to time.Time) (err error) {
	if uc.Tickspot == nil || uc.Sink == nil {
		return errors.New("usecase not initialized: missing dependencies")
	}
	if !uc.running.CompareAndSwap(false, true) {
		return ErrSyncRunning
	}
	defer uc.running.Store(false)

	start := time.Now()
	defer func() { uc.Metrics.ObserveRun(time.Since(start), err) }()

	if err := uc.syncCatalogue(ctx); err != nil {
		return err
	}

	uc.Log.Info("fetching entries", slog.Time("from", from), slog.Time("to", to))
	entries, err := uc.Tickspot.ListEntries(ctx, from, to)
	if err != nil {
		return err
	}
	uc.Log.Info("fetched entries", slog.Int("count", len(entries)))

	if len(entries) == 0 {
		uc.Log.Info("no entries to sync")
		return nil
	}

	if err := uc.Sink.SyncEntries(ctx, entries); err != nil {
		return err
	}
	uc.Metrics.AddSynced("entry", len(entries))
	uc.Log.Info("sync completed", slog.Int("count", len(entries)))
	return nil
}

// syncCatalogue upserts clients, projects, tasks and users so entries can
// reference them.
func (uc *SyncUseCase) syncCatalogue(ctx context.Context) error {
	clients, err := uc.Tickspot.ListClientsProjectsTasks(ctx)
	if err != nil {
		return err
	}
	projects, tasks := Flatten(clients)
	uc.Log.Info("fetched catalogue",
		slog.Int("clients", len(clients)),
		slog.Int("projects", len(projects)),
		slog.Int("tasks", len(tasks)),
	)

	users, err := uc.Tickspot.ListUsers(ctx)
	if err != nil {
		return err
	}

	if err := uc.Sink.SyncClients(ctx, clients); err != nil {
		return err
	}
	if err := uc.Sink.SyncProjects(ctx, projects); err != nil {
		return err
	}
	if err := uc.Sink.SyncTasks(ctx, tasks); err != nil {
		return err
	}
	if err := uc.Sink.SyncUsers(ctx, users); err != nil {
		return err
	}
	uc.Metrics.AddSynced("client", len(clients))
	uc.Metrics.AddSynced("project", len(projects))
	uc.Metrics.AddSynced("task", len(tasks))
	uc.Metrics.AddSynced("user", len(users))
	return nil
}

// Flatten lifts the projects and tasks out of a clients_projects_tasks tree,
// filling in the parent ids the nested form leaves implicit.
func Flatten(clients []domain.Client) ([]domain.Project, []domain.Task) {
	var (
		projects []domain.Project
		tasks    []domain.Task
	)
	for _, c := range clients {
		for _, p := range c.Projects {
			if p.ClientID == 0 {
				p.ClientID = c.ID
			}
			if p.ClientName == "" {
				p.ClientName = c.Name
			}
			for _, t := range p.Tasks {
				if t.ProjectID == 0 {
					t.ProjectID = p.ID
				}
				tasks = append(tasks, t)
			}
			p.Tasks = nil
			projects = append(projects, p)
		}
	}
	return projects, tasks
}
