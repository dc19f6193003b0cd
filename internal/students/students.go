// Package students reads the student directory owned by the academic module.
package students

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Student is a row of the directory. Only the fields allocation needs are mapped.
type Student struct {
	ID       string `gorm:"column:id;primaryKey" json:"id"`
	Code     string `gorm:"column:id_santri" json:"code,omitempty"`
	Name     string `gorm:"column:nama_lengkap" json:"name"`
	Category string `gorm:"column:kategori" json:"category"`
	Status   string `gorm:"column:status_santri" json:"status"`
}

func (Student) TableName() string {
	return "public.santri"
}

// Filter narrows List. Empty fields match everything.
type Filter struct {
	Status   string
	Category string
}

func (f Filter) Match(s Student) bool {
	return (f.Status == "" || s.Status == f.Status) && (f.Category == "" || s.Category == f.Category)
}

// Directory is the live student directory. It has no history: results
// reflect the moment of the call.
type Directory interface {
	List(ctx context.Context, f Filter) ([]Student, error)
	FindByIDs(ctx context.Context, ids []string) ([]Student, error)
}

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) List(ctx context.Context, f Filter) ([]Student, error) {
	q := s.db.WithContext(ctx).Model(&Student{})
	if f.Status != "" {
		q = q.Where("status_santri = ?", f.Status)
	}
	if f.Category != "" {
		q = q.Where("kategori = ?", f.Category)
	}

	var out []Student
	if err := q.Order("id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return out, nil
}

func (s *Store) FindByIDs(ctx context.Context, ids []string) ([]Student, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []Student
	if err := s.db.WithContext(ctx).Where("id::text IN ?", ids).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("find students: %w", err)
	}
	return out, nil
}
