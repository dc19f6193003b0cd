package profitsharing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/finance"
)

type Status string

const (
	StatusUnpaid Status = "unpaid"
	StatusPaid   Status = "paid"
)

// Record is the profit-sharing agreement for one month. Reconciliation
// fields are derived and may be recomputed at any time.
type Record struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	Year             int             `gorm:"not null;uniqueIndex:idx_profit_sharing_period" json:"year"`
	Month            int             `gorm:"not null;uniqueIndex:idx_profit_sharing_period" json:"month"`
	Mode             Mode            `gorm:"not null" json:"mode"`
	TotalSales       decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"total_sales"`
	PctFoundation    decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"pct_foundation"`
	PctCooperative   decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"pct_cooperative"`
	FoundationShare  decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"foundation_share"`
	CooperativeShare decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"cooperative_share"`

	ActualTransfer decimal.NullDecimal `gorm:"type:numeric(20,4)" json:"actual_transfer"`
	Variance       decimal.NullDecimal `gorm:"type:numeric(20,4)" json:"variance"`
	ReconciledAt   *time.Time          `json:"reconciled_at,omitempty"`

	Status    Status     `gorm:"not null;default:'unpaid'" json:"status"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
	PaidNote  string     `json:"paid_note,omitempty"`
	PaidBy    string     `json:"paid_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (Record) TableName() string {
	return "finance.profit_sharing_records"
}

func (r Record) Period() finance.Period {
	p, _ := finance.NewPeriod(r.Year, r.Month)
	return p
}

// Reconciliation is the derived part of a record.
type Reconciliation struct {
	ActualTransfer decimal.Decimal
	Variance       decimal.Decimal
	At             time.Time
}

// Payment is the staff-controlled paid state of a record.
type Payment struct {
	Status Status
	At     *time.Time
	Note   string
	By     string
}
