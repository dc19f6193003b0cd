package finance

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/apperr"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/money"
)

// Ledger is a logical partition of transactions owned by one subsystem.
type Ledger string

const (
	LedgerGeneral     Ledger = "GENERAL"
	LedgerCooperative Ledger = "COOPERATIVE"
	LedgerSavings     Ledger = "SAVINGS"
)

func (l Ledger) Valid() bool {
	switch l {
	case LedgerGeneral, LedgerCooperative, LedgerSavings:
		return true
	}
	return false
}

// ParseLedger accepts the canonical names in any case.
func ParseLedger(s string) (Ledger, error) {
	l := Ledger(strings.ToUpper(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", apperr.Validation("ledger", "unknown ledger %q", s)
	}
	return l, nil
}

type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

type Status string

const (
	StatusDraft  Status = "draft"
	StatusPosted Status = "posted"
)

// AllocationSource tells whether a student share was assigned directly or
// spread from an operating expense.
type AllocationSource string

const (
	SourceDirect   AllocationSource = "direct"
	SourceOverhead AllocationSource = "overhead"
)

// AllocationDetail is one student's share of an expense. Once persisted on a
// posted transaction it is history and is never rewritten.
type AllocationDetail struct {
	StudentID string           `json:"student_id"`
	Amount    decimal.Decimal  `json:"amount"`
	Period    string           `json:"period"`
	Note      string           `json:"note,omitempty"`
	Source    AllocationSource `json:"source"`
}

// Transaction is written by the upstream modules; this service only reads it.
type Transaction struct {
	ID               uuid.UUID                            `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	Date             time.Time                            `gorm:"type:date;not null;index:idx_txn_date_ledger" json:"date"`
	Kind             Kind                                 `gorm:"not null" json:"kind"`
	Amount           money.Amount                         `gorm:"not null" json:"amount"`
	Category         string                               `gorm:"index" json:"category"`
	Subcategory      string                               `json:"subcategory"`
	AccountID        *uuid.UUID                           `gorm:"type:uuid;index" json:"account_id,omitempty"`
	Ledger           Ledger                               `gorm:"not null;default:'GENERAL';index:idx_txn_date_ledger" json:"ledger"`
	Status           Status                               `gorm:"not null;default:'draft'" json:"status"`
	SourceModule     string                               `json:"source_module,omitempty"`
	SourceID         string                               `json:"source_id,omitempty"`
	AllocationDetail datatypes.JSONSlice[AllocationDetail] `gorm:"type:jsonb" json:"allocation_detail,omitempty"`
	CreatedAt        time.Time                            `json:"created_at"`
	UpdatedAt        time.Time                            `json:"updated_at"`
}

func (Transaction) TableName() string {
	return "finance.transactions"
}

// Account is a cash or bank account. ManagedBy is the module tag of the
// subsystem that owns it and may be unknown.
type Account struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	ManagedBy *string   `json:"managed_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Account) TableName() string {
	return "finance.accounts"
}
