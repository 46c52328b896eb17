package ports

import (
	"context"
	"time"

	"tickspot-scraper/internal/domain"
)

// TickspotClient defines the reads the sync needs from Tickspot.
type TickspotClient interface {
	ListEntries(ctx context.Context, from, to time.Time) ([]domain.Entry, error)
	ListClientsProjectsTasks(ctx context.Context) ([]domain.Client, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
}

// Sink receives Tickspot records and persists them to a target system.
type Sink interface {
	SyncClients(ctx context.Context, clients []domain.Client) error
	SyncProjects(ctx context.Context, projects []domain.Project) error
	SyncTasks(ctx context.Context, tasks []domain.Task) error
	SyncUsers(ctx context.Context, users []domain.User) error
	SyncEntries(ctx context.Context, entries []domain.Entry) error
}
