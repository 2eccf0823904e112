// Package inmem keeps every table in process memory. It backs tests and the
// "memory" storage driver.
package inmem

import (
	"context"
	"errors"
	"maps"
	"sync"
	"time"

	"github.com/Freeeeeet/tutorhub/internal/model"
	"github.com/google/uuid"
)

var errNoTx = errors.New("schedule lock requires a transaction")

type txKey struct{}

// DB holds the tables. Transactions are serialised and roll back by
// restoring a snapshot taken when they began.
type DB struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	users    map[uuid.UUID]model.User
	slots    map[uuid.UUID]model.AvailabilitySlot
	bookings map[uuid.UUID]model.Booking
	groups   map[uuid.UUID]model.StudyGroup

	now func() time.Time
}

func NewDB() *DB {
	return &DB{
		users:    make(map[uuid.UUID]model.User),
		slots:    make(map[uuid.UUID]model.AvailabilitySlot),
		bookings: make(map[uuid.UUID]model.Booking),
		groups:   make(map[uuid.UUID]model.StudyGroup),
		now:      time.Now,
	}
}

type snapshot struct {
	users    map[uuid.UUID]model.User
	slots    map[uuid.UUID]model.AvailabilitySlot
	bookings map[uuid.UUID]model.Booking
	groups   map[uuid.UUID]model.StudyGroup
}

func (db *DB) snapshot() snapshot {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return snapshot{
		users:    maps.Clone(db.users),
		slots:    maps.Clone(db.slots),
		bookings: maps.Clone(db.bookings),
		groups:   maps.Clone(db.groups),
	}
}

func (db *DB) restore(s snapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users = s.users
	db.slots = s.slots
	db.bookings = s.bookings
	db.groups = s.groups
}

// InTx runs fn exclusively against the database. Nested calls reuse the
// outer transaction.
func (db *DB) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	db.txMu.Lock()
	defer db.txMu.Unlock()

	before := db.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		db.restore(before)
		return err
	}
	return nil
}

// LockTutorSchedule is satisfied by the transaction itself, which already
// excludes every other writer.
func (db *DB) LockTutorSchedule(ctx context.Context, _ uuid.UUID) error {
	if ctx.Value(txKey{}) == nil {
		return errNoTx
	}
	return nil
}

func (db *DB) Users() *UserRepository {
	return &UserRepository{db: db}
}

func (db *DB) Availability() *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

func (db *DB) Bookings() *BookingRepository {
	return &BookingRepository{db: db}
}

func (db *DB) StudyGroups() *StudyGroupRepository {
	return &StudyGroupRepository{db: db}
}
