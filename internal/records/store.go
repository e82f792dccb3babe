package records

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"stuud-backend/internal/model"
)

// Store defines the record operations the screens need: read-all and insert-one per collection.
type Store interface {
	ListFaculty(ctx context.Context) ([]model.Faculty, error)
	ListClassrooms(ctx context.Context) ([]model.Classroom, error)
	ListEvents(ctx context.Context) ([]model.Event, error)
	ListTimetable(ctx context.Context) ([]model.TimetableEntry, error)

	AddFaculty(ctx context.Context, f model.Faculty) (*model.Faculty, error)
	AddClassroom(ctx context.Context, c model.Classroom) (*model.Classroom, error)
	AddEvent(ctx context.Context, e model.Event) (*model.Event, error)
	AddTimetableEntry(ctx context.Context, t model.TimetableEntry) (*model.TimetableEntry, error)
}

// GormStore implements Store on a database the service owns.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) ListFaculty(ctx context.Context) ([]model.Faculty, error) {
	return findAll[model.Faculty](ctx, s.db, TableFaculty)
}

func (s *GormStore) ListClassrooms(ctx context.Context) ([]model.Classroom, error) {
	return findAll[model.Classroom](ctx, s.db, TableClassrooms)
}

func (s *GormStore) ListEvents(ctx context.Context) ([]model.Event, error) {
	return findAll[model.Event](ctx, s.db, TableEvents)
}

func (s *GormStore) ListTimetable(ctx context.Context) ([]model.TimetableEntry, error) {
	return findAll[model.TimetableEntry](ctx, s.db, TableTimetable)
}

func (s *GormStore) AddFaculty(ctx context.Context, f model.Faculty) (*model.Faculty, error) {
	f.ID = ""
	return create(ctx, s.db, TableFaculty, &f)
}

func (s *GormStore) AddClassroom(ctx context.Context, c model.Classroom) (*model.Classroom, error) {
	c.ID = ""
	return create(ctx, s.db, TableClassrooms, &c)
}

func (s *GormStore) AddEvent(ctx context.Context, e model.Event) (*model.Event, error) {
	e.ID = ""
	return create(ctx, s.db, TableEvents, &e)
}

func (s *GormStore) AddTimetableEntry(ctx context.Context, t model.TimetableEntry) (*model.TimetableEntry, error) {
	t.ID = ""
	return create(ctx, s.db, TableTimetable, &t)
}

func findAll[T any](ctx context.Context, db *gorm.DB, table string) ([]T, error) {
	rows := make([]T, 0)
	if err := db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	return rows, nil
}

func create[T any](ctx context.Context, db *gorm.DB, table string, row *T) (*T, error) {
	if err := db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return row, nil
}
