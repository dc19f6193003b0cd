package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/students"
)

// Directory is an in-memory students.Directory. It is safe for concurrent use.
type Directory struct {
	mu   sync.RWMutex
	byID map[string]students.Student
}

func NewDirectory(list ...students.Student) *Directory {
	d := &Directory{byID: make(map[string]students.Student, len(list))}
	for _, s := range list {
		d.byID[s.ID] = s
	}
	return d
}

func (d *Directory) Put(s students.Student) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byID[s.ID] = s
}

// SetStatus changes a student's status, as the academic module would.
func (d *Directory) SetStatus(id, status string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.byID[id]; ok {
		s.Status = status
		d.byID[id] = s
	}
}

func (d *Directory) Remove(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.byID, id)
}

func (d *Directory) List(ctx context.Context, f students.Filter) ([]students.Student, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []students.Student
	for _, s := range d.byID {
		if f.Match(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (d *Directory) FindByIDs(ctx context.Context, ids []string) ([]students.Student, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []students.Student
	for _, id := range ids {
		if s, ok := d.byID[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}
