package mysql

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"
	pkgerrors "github.com/pkg/errors"

	"tickspot-scraper/internal/domain"
)

// Client implements ports.Sink by writing to MySQL tables.
type Client struct {
	db  *sql.DB
	log *slog.Logger
}

// NewClient opens a MySQL connection using the provided DSN.
// Example DSN: user:pass@tcp(host:3306)/dbname?parseTime=true&multiStatements=true
func NewClient(ctx context.Context, dsn string, log *slog.Logger) (*Client, error) {
	if dsn == "" {
		return nil, errors.New("mysql: DSN is required")
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	c, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(c); err != nil {
		db.Close()
		return nil, err
	}
	return &Client{db: db, log: log}, nil
}

const upsertClient = `
INSERT INTO tickspot_clients (id, name, last_modified_on)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE
  name=VALUES(name),
  last_modified_on=VALUES(last_modified_on);
`

const upsertProject = `
INSERT INTO tickspot_projects
  (id, client_id, name, owner_id, budget, opened_on, closed_on, last_modified_on)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  client_id=VALUES(client_id),
  name=VALUES(name),
  owner_id=VALUES(owner_id),
  budget=VALUES(budget),
  opened_on=VALUES(opened_on),
  closed_on=VALUES(closed_on),
  last_modified_on=VALUES(last_modified_on);
`

const upsertTask = `
INSERT INTO tickspot_tasks
  (id, project_id, name, position, billable, budget, opened_on, closed_on)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  project_id=VALUES(project_id),
  name=VALUES(name),
  position=VALUES(position),
  billable=VALUES(billable),
  budget=VALUES(budget),
  opened_on=VALUES(opened_on),
  closed_on=VALUES(closed_on);
`

const upsertUser = `
INSERT INTO tickspot_users (id, first_name, last_name, email, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  first_name=VALUES(first_name),
  last_name=VALUES(last_name),
  email=VALUES(email),
  created_at=VALUES(created_at),
  updated_at=VALUES(updated_at);
`

const upsertEntry = `
INSERT INTO tickspot_entries
  (id, task_id, user_id, date, hours, notes, billable, billed, created_at, updated_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  task_id=VALUES(task_id),
  user_id=VALUES(user_id),
  date=VALUES(date),
  hours=VALUES(hours),
  notes=VALUES(notes),
  billable=VALUES(billable),
  billed=VALUES(billed),
  created_at=VALUES(created_at),
  updated_at=VALUES(updated_at);
`

// SyncClients upserts clients. Nested projects are ignored; see SyncProjects.
func (c *Client) SyncClients(ctx context.Context, clients []domain.Client) error {
	return c.upsert(ctx, "clients", upsertClient, len(clients), func(i int) []any {
		cl := clients[i]
		return []any{cl.ID, cl.Name, nullTime(cl.LastModifiedOn)}
	})
}

// SyncProjects upserts projects.
func (c *Client) SyncProjects(ctx context.Context, projects []domain.Project) error {
	return c.upsert(ctx, "projects", upsertProject, len(projects), func(i int) []any {
		p := projects[i]
		return []any{p.ID, nullID(p.ClientID), p.Name, nullID(p.OwnerID), p.Budget,
			nullTime(p.OpenedOn), nullTime(p.ClosedOn), nullTime(p.LastModifiedOn)}
	})
}

// SyncTasks upserts tasks.
func (c *Client) SyncTasks(ctx context.Context, tasks []domain.Task) error {
	return c.upsert(ctx, "tasks", upsertTask, len(tasks), func(i int) []any {
		t := tasks[i]
		return []any{t.ID, t.ProjectID, t.Name, t.Position, t.Billable, t.Budget,
			nullTime(t.OpenedOn), nullTime(t.ClosedOn)}
	})
}

// SyncUsers upserts users.
func (c *Client) SyncUsers(ctx context.Context, users []domain.User) error {
	return c.upsert(ctx, "users", upsertUser, len(users), func(i int) []any {
		u := users[i]
		return []any{u.ID, u.FirstName, u.LastName, u.Email, nullTime(u.CreatedAt), nullTime(u.UpdatedAt)}
	})
}

// SyncEntries upserts time entries.
func (c *Client) SyncEntries(ctx context.Context, entries []domain.Entry) error {
	return c.upsert(ctx, "entries", upsertEntry, len(entries), func(i int) []any {
		e := entries[i]
		return []any{e.ID, e.TaskID, e.UserID, e.Date.Format("2006-01-02"), e.Hours, e.Notes,
			e.Billable, e.Billed, nullTime(e.CreatedAt), nullTime(e.UpdatedAt)}
	})
}

// upsert runs q once per row inside a single transaction.
func (c *Client) upsert(ctx context.Context, kind, q string, n int, row func(i int) []any) error {
	if n == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		tx.Rollback()
		return pkgerrors.Wrapf(err, "preparing %s upsert", kind)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, row(i)...); err != nil {
			tx.Rollback()
			return pkgerrors.Wrapf(err, "upserting %s row %d", kind, i)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	c.log.Info("mysql sink upserted "+kind, slog.Int("count", n))
	return nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

func nullID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

// Close closes the underlying DB. Not wired via interface to keep ports minimal.
func (c *Client) Close() error { return c.db.Close() }
