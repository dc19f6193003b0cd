// Package ledger decides which logical ledger owns each transaction.
//
// A transaction carries its own ledger tag, but transfers between
// subsystems are often booked on an account declared by another subsystem.
// The account's managed_by tag wins when it is known. When ownership cannot
// be determined the transaction stays in the ledger it declares (fail open).
package ledger

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/apperr"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/finance"
)

var moduleLedgers = map[string]finance.Ledger{
	"keuangan":        finance.LedgerGeneral,
	"umum":            finance.LedgerGeneral,
	"yayasan":         finance.LedgerGeneral,
	"general":         finance.LedgerGeneral,
	"koperasi":        finance.LedgerCooperative,
	"cooperative":     finance.LedgerCooperative,
	"tabungan":        finance.LedgerSavings,
	"tabungan_santri": finance.LedgerSavings,
	"savings":         finance.LedgerSavings,
}

// ForModule maps an account's managed_by tag to its ledger.
func ForModule(tag string) (finance.Ledger, bool) {
	l, ok := moduleLedgers[strings.ToLower(strings.TrimSpace(tag))]
	return l, ok
}

// Reason records how a classification was reached.
type Reason string

const (
	ReasonAccount        Reason = "account"
	ReasonNoAccount      Reason = "no_account"
	ReasonMissingAccount Reason = "missing_account"
	ReasonUnmanaged      Reason = "unmanaged_account"
	ReasonUnknownTag     Reason = "unknown_module_tag"
)

type Classification struct {
	Ledger finance.Ledger
	Reason Reason
}

// Classify returns the effective ledger of t. account is nil when t has no
// account or the account is unknown to the directory.
func Classify(t finance.Transaction, account *finance.Account) finance.Ledger {
	return ClassifyWithReason(t, account).Ledger
}

func ClassifyWithReason(t finance.Transaction, account *finance.Account) Classification {
	own := t.Ledger
	if !own.Valid() {
		own = finance.LedgerGeneral
	}

	switch {
	case account == nil && t.AccountID == nil:
		return Classification{Ledger: own, Reason: ReasonNoAccount}
	case account == nil:
		return Classification{Ledger: own, Reason: ReasonMissingAccount}
	case account.ManagedBy == nil || strings.TrimSpace(*account.ManagedBy) == "":
		return Classification{Ledger: own, Reason: ReasonUnmanaged}
	}

	if l, ok := ForModule(*account.ManagedBy); ok {
		return Classification{Ledger: l, Reason: ReasonAccount}
	}
	return Classification{Ledger: own, Reason: ReasonUnknownTag}
}

// Partition is a point-in-time snapshot of account ownership.
type Partition struct {
	accounts map[uuid.UUID]finance.Account
}

func NewPartition(accounts []finance.Account) *Partition {
	m := make(map[uuid.UUID]finance.Account, len(accounts))
	for _, a := range accounts {
		m[a.ID] = a
	}
	return &Partition{accounts: m}
}

func (p *Partition) account(t finance.Transaction) *finance.Account {
	if t.AccountID == nil {
		return nil
	}
	if a, ok := p.accounts[*t.AccountID]; ok {
		return &a
	}
	return nil
}

func (p *Partition) Classify(t finance.Transaction) Classification {
	return ClassifyWithReason(t, p.account(t))
}

// OwnedAccountIDs lists accounts whose managed_by maps to l, sorted.
func (p *Partition) OwnedAccountIDs(l finance.Ledger) []uuid.UUID {
	var out []uuid.UUID
	for id, a := range p.accounts {
		if a.ManagedBy == nil {
			continue
		}
		if owner, ok := ForModule(*a.ManagedBy); ok && owner == l {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Filter keeps the transactions whose effective ledger is target.
// Missing accounts and unknown module tags are reported as warnings.
func (p *Partition) Filter(txns []finance.Transaction, target finance.Ledger) ([]finance.Transaction, apperr.Warnings) {
	var warns apperr.Warnings
	out := make([]finance.Transaction, 0, len(txns))
	for _, t := range txns {
		c := p.Classify(t)
		switch c.Reason {
		case ReasonMissingAccount:
			warns.Add(apperr.MissingAccount, t.ID.String(), "account %s not found, using ledger tag %s", t.AccountID, c.Ledger)
		case ReasonUnknownTag:
			a := p.account(t)
			warns.Add(apperr.UnknownModuleTag, t.ID.String(), "account %s has unknown managed_by %q, using ledger tag %s", a.ID, *a.ManagedBy, c.Ledger)
		}
		if c.Ledger == target {
			out = append(out, t)
		}
	}
	return out, warns
}

// FilterByLedger classifies every transaction against accounts and keeps
// those owned by target.
func FilterByLedger(txns []finance.Transaction, accounts []finance.Account, target finance.Ledger) ([]finance.Transaction, apperr.Warnings) {
	return NewPartition(accounts).Filter(txns, target)
}
