package allocation

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/apperr"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/config"
)

type Mode string

const (
	ModeNone        Mode = "NONE"
	ModeAllResident Mode = "ALL_RESIDENT_STUDENTS"
	ModeManualList  Mode = "MANUAL_LIST"
)

// legacyModes are the tags used by the older master-data screens.
var legacyModes = map[string]Mode{
	"tidak_dialokasikan":   ModeNone,
	"seluruh_binaan_mukim": ModeAllResident,
	"pilih_santri":         ModeManualList,
}

func ParseMode(s string) (Mode, error) {
	raw := strings.TrimSpace(s)
	switch m := Mode(strings.ToUpper(raw)); m {
	case ModeNone, ModeAllResident, ModeManualList:
		return m, nil
	}
	if m, ok := legacyModes[strings.ToLower(raw)]; ok {
		return m, nil
	}
	return "", apperr.Validation("mode", "unknown allocation mode %q", s)
}

type Scope string

const (
	ScopeCategory    Scope = "category"
	ScopeSubcategory Scope = "subcategory"
)

// ScopeKey identifies the slot a mapping occupies. At most one active
// mapping exists per key.
func ScopeKey(scope Scope, category, subcategory string) string {
	if scope == ScopeCategory {
		return string(scope) + ":" + config.Key(category)
	}
	return string(scope) + ":" + config.Key(category) + "/" + config.Key(subcategory)
}

// Mapping says which students an expense category or subcategory is
// allocated to. Saving a new mapping deactivates the previous one for the
// same slot; old rows are kept for audit.
type Mapping struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	Scope       Scope          `gorm:"not null" json:"scope"`
	Category    string         `gorm:"not null" json:"category"`
	Subcategory string         `json:"subcategory,omitempty"`
	ScopeKey    string         `gorm:"not null;index" json:"-"`
	Mode        Mode           `gorm:"not null" json:"mode"`
	StudentIDs  pq.StringArray `gorm:"type:text[]" json:"student_ids"`
	Description string         `json:"description,omitempty"`
	Active      bool           `gorm:"not null;default:true" json:"active"`
	CreatedBy   string         `json:"created_by,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (Mapping) TableName() string {
	return "finance.allocation_mappings"
}

// Membership converts the persisted row into its resolution variant.
func (m Mapping) Membership() (Membership, error) {
	switch m.Mode {
	case ModeNone:
		return NoRecipients{}, nil
	case ModeAllResident:
		return AllResidentStudents{}, nil
	case ModeManualList:
		return ManualList{StudentIDs: append([]string(nil), m.StudentIDs...)}, nil
	}
	return nil, apperr.Invariant("mapping %s has unknown mode %q", m.ID, m.Mode)
}

var studentIDRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)

// MappingInput is the staff-edited form of a mapping.
type MappingInput struct {
	Scope       Scope    `json:"scope" validate:"required,oneof=category subcategory"`
	Category    string   `json:"category" validate:"required,max=120"`
	Subcategory string   `json:"subcategory" validate:"max=120"`
	Mode        string   `json:"mode" validate:"required"`
	StudentIDs  []string `json:"student_ids" validate:"omitempty,dive,required"`
	Description string   `json:"description" validate:"max=500"`
	CreatedBy   string   `json:"-"`
}

// Normalize validates the input and returns the mapping to persist.
// Duplicate student ids are collapsed, keeping first occurrence order.
func (in MappingInput) Normalize() (Mapping, error) {
	category := strings.Join(strings.Fields(in.Category), " ")
	subcategory := strings.Join(strings.Fields(in.Subcategory), " ")
	if category == "" {
		return Mapping{}, apperr.Validation("category", "category is required")
	}

	switch in.Scope {
	case ScopeCategory:
		if subcategory != "" {
			return Mapping{}, apperr.Validation("subcategory", "category-scoped mapping must not name a subcategory")
		}
	case ScopeSubcategory:
		if subcategory == "" {
			return Mapping{}, apperr.Validation("subcategory", "subcategory-scoped mapping needs a subcategory")
		}
	default:
		return Mapping{}, apperr.Validation("scope", "unknown scope %q", in.Scope)
	}

	mode, err := ParseMode(in.Mode)
	if err != nil {
		return Mapping{}, err
	}
	if mode != ModeManualList && len(in.StudentIDs) > 0 {
		return Mapping{}, apperr.Validation("student_ids", "student_ids are only allowed for %s", ModeManualList)
	}

	ids := pq.StringArray{}
	seen := map[string]bool{}
	for _, id := range in.StudentIDs {
		id = strings.TrimSpace(id)
		if !studentIDRe.MatchString(id) {
			return Mapping{}, apperr.Validation("student_ids", "malformed student id %q", id)
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	return Mapping{
		Scope:       in.Scope,
		Category:    category,
		Subcategory: subcategory,
		ScopeKey:    ScopeKey(in.Scope, category, subcategory),
		Mode:        mode,
		StudentIDs:  ids,
		Description: strings.TrimSpace(in.Description),
		Active:      true,
		CreatedBy:   in.CreatedBy,
	}, nil
}

// Accumulation is the cached per-student aid total for one month. It is
// derived from allocation details and can be rebuilt at any time.
type Accumulation struct {
	StudentID        string          `gorm:"primaryKey" json:"student_id"`
	Period           string          `gorm:"primaryKey;size:7" json:"period"`
	DirectTotal      decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"direct_total"`
	OverheadTotal    decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"overhead_total"`
	TransactionCount int             `gorm:"not null" json:"transaction_count"`
	RefreshedAt      time.Time       `json:"refreshed_at"`
}

func (Accumulation) TableName() string {
	return "finance.student_aid_accumulations"
}

// Total is direct plus overhead aid.
func (a Accumulation) Total() decimal.Decimal {
	return a.DirectTotal.Add(a.OverheadTotal)
}
