package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Beat is a catalog entry of a playable beat file.
type Beat struct {
	ID        string `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Name     string `gorm:"uniqueIndex;not null"`
	Path     string
	Format   string
	Size     int64
	ModTime  time.Time
	Duration float64
}

func (s *Store) GetBeat(ctx context.Context, id string) (*Beat, error) {
	var v Beat
	if err := s.db.WithContext(ctx).First(&v, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("storage: failed to get beat %s: %w", id, err)
	}
	return &v, nil
}

func (s *Store) GetBeatByName(ctx context.Context, name string) (*Beat, error) {
	var v Beat
	if err := s.db.WithContext(ctx).First(&v, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("storage: failed to get beat %s: %w", name, err)
	}
	return &v, nil
}

func (s *Store) SetBeat(ctx context.Context, v *Beat) error {
	if err := s.db.WithContext(ctx).Save(v).Error; err != nil {
		return fmt.Errorf("storage: failed to set beat %s: %w", v.ID, err)
	}
	return nil
}

func (s *Store) DeleteBeat(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Delete(&Beat{ID: id}, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("storage: failed to delete beat %s: %w", id, err)
	}
	return nil
}

func (s *Store) ListBeats(ctx context.Context, page, size int, orderBy string, filter ...Filter) ([]*Beat, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * size
	vs := []*Beat{}

	q := s.db.WithContext(ctx).Offset(offset).Limit(size)
	for _, f := range filter {
		q = q.Where(f.Query, f.Args...)
	}
	if orderBy == "" {
		orderBy = "name"
	}
	q = q.Order(orderBy)
	if err := q.Find(&vs).Error; err != nil {
		return nil, fmt.Errorf("storage: failed to list beats: %w", err)
	}
	return vs, nil
}
