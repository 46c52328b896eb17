package domain

import "time"

// Client is a Tickspot client (customer). Projects is only populated by the
// clients_projects_tasks call.
type Client struct {
	ID             int64
	Name           string
	LastModifiedOn time.Time
	Projects       []Project
}
