package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Project represents a Tickspot project in the domain layer.
type Project struct {
	ID             int64
	ClientID       int64
	Name           string
	ClientName     string
	OwnerID        int64
	Budget         decimal.Decimal
	SumHours       decimal.Decimal
	UserCount      int
	OpenedOn       time.Time
	ClosedOn       time.Time // zero while the project is open
	LastModifiedOn time.Time
	Tasks          []Task
}

// Task is a billable unit of work under a project.
type Task struct {
	ID        int64
	ProjectID int64
	Name      string
	Position  int
	Billable  bool
	Budget    decimal.Decimal
	SumHours  decimal.Decimal
	UserCount int
	OpenedOn  time.Time
	ClosedOn  time.Time
}
