package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entry represents a Tickspot time entry in the domain.
type Entry struct {
	ID          int64
	TaskID      int64
	UserID      int64
	Date        time.Time
	Hours       decimal.Decimal
	Notes       string
	Billable    bool
	Billed      bool
	UserEmail   string
	TaskName    string
	ProjectName string
	ClientName  string
	SumHours    decimal.Decimal
	Budget      decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
