// Package allocation resolves which students an expense is allocated to
// and splits the amount between them.
package allocation

import (
	"context"
	"fmt"
	"time"

	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/apperr"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/config"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/students"
)

// Membership is the closed set of recipient rules. Only the three types in
// this file implement it.
type Membership interface {
	Mode() Mode
	membership()
}

type NoRecipients struct{}

func (NoRecipients) Mode() Mode  { return ModeNone }
func (NoRecipients) membership() {}

// AllResidentStudents is resolved against the directory at call time.
type AllResidentStudents struct{}

func (AllResidentStudents) Mode() Mode  { return ModeAllResident }
func (AllResidentStudents) membership() {}

type ManualList struct {
	StudentIDs []string
}

func (ManualList) Mode() Mode  { return ModeManualList }
func (ManualList) membership() {}

// Resolution is the set of students a membership named at AsOf.
type Resolution struct {
	Mode     Mode               `json:"mode"`
	AsOf     time.Time          `json:"as_of"`
	Students []students.Student `json:"students"`
	apperr.Audit
}

// IDs returns the resolved student ids in resolution order.
func (r Resolution) IDs() []string {
	ids := make([]string, len(r.Students))
	for i, s := range r.Students {
		ids[i] = s.ID
	}
	return ids
}

type Resolver struct {
	dir students.Directory
	cfg config.Finance
}

func NewResolver(dir students.Directory, cfg config.Finance) *Resolver {
	return &Resolver{dir: dir, cfg: cfg}
}

// Resolve is the single entry point for turning a membership into students.
// The directory has no history, so asOf is recorded but results always
// reflect the directory at the moment of the call.
func (r *Resolver) Resolve(ctx context.Context, m Membership, asOf time.Time) (Resolution, error) {
	res := Resolution{AsOf: asOf, Students: []students.Student{}}
	if m == nil {
		m = NoRecipients{}
	}
	res.Mode = m.Mode()

	var warns apperr.Warnings
	switch v := m.(type) {
	case NoRecipients:

	case AllResidentStudents:
		list, err := r.dir.List(ctx, students.Filter{
			Status:   r.cfg.ActiveStatus,
			Category: r.cfg.ResidentCategory,
		})
		if err != nil {
			return Resolution{}, fmt.Errorf("resolve resident students: %w", err)
		}
		res.Students = append(res.Students, list...)

	case ManualList:
		if len(v.StudentIDs) == 0 {
			break
		}
		found, err := r.dir.FindByIDs(ctx, v.StudentIDs)
		if err != nil {
			return Resolution{}, fmt.Errorf("resolve manual list: %w", err)
		}
		byID := make(map[string]students.Student, len(found))
		for _, s := range found {
			byID[s.ID] = s
		}
		for _, id := range v.StudentIDs {
			s, ok := byID[id]
			if !ok {
				warns.Add(apperr.OrphanStudent, id, "student %s is no longer in the directory", id)
				continue
			}
			res.Students = append(res.Students, s)
		}

	default:
		return Resolution{}, apperr.Invariant("unhandled membership %T", m)
	}

	res.Audit = warns.Audit()
	return res, nil
}
