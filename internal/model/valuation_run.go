package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Run status constants
const (
	RunStatusSucceeded = "SUCCEEDED"
	RunStatusRejected  = "REJECTED"
)

// ValuationRun records the scalar outcome of one engine call.
// The prescription itself is not stored.
type ValuationRun struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	RotationLength    int             `gorm:"not null" json:"rotation_length"`
	InterestRate      decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"interest_rate"` // percent
	FlatYearlyCost    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"flat_yearly_cost"`
	FlatYearlyRevenue decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"flat_yearly_revenue"`
	RowCount          int             `gorm:"not null" json:"row_count"`

	Status       string              `gorm:"type:varchar(20);not null;index" json:"status"` // SUCCEEDED, REJECTED
	ErrorKind    string              `gorm:"type:varchar(50)" json:"error_kind,omitempty"`
	ErrorMessage string              `gorm:"type:text" json:"error_message,omitempty"`
	TerminalYear *int                `json:"terminal_year"`
	NPV          decimal.NullDecimal `gorm:"column:npv;type:decimal(18,4)" json:"npv"`
	FPV          decimal.NullDecimal `gorm:"column:fpv;type:decimal(18,4)" json:"fpv"`
	LEV          decimal.NullDecimal `gorm:"column:lev;type:decimal(18,4)" json:"lev"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// BeforeCreate assigns the primary key client-side so that Postgres and
// SQLite behave the same.
func (r *ValuationRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
