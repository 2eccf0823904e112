package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutorhub/internal/config"
	"github.com/Freeeeeet/tutorhub/internal/repository"
	"github.com/Freeeeeet/tutorhub/internal/repository/base"
	"github.com/Freeeeeet/tutorhub/internal/repository/inmem"
	"github.com/Freeeeeet/tutorhub/internal/service"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ParticipantAdder seeds study group membership.
type ParticipantAdder interface {
	AddParticipant(ctx context.Context, groupID, userID uuid.UUID) error
}

// Storage bundles the repositories of the configured driver.
type Storage struct {
	Tx           service.TxManager
	Users        service.UserRepository
	Availability service.AvailabilityRepository
	Bookings     service.BookingRepository
	StudyGroups  interface {
		service.StudyGroupRepository
		ParticipantAdder
	}

	// Pool is nil for the memory driver.
	Pool *pgxpool.Pool
}

func (s *Storage) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}

// OpenStorage connects the driver selected by cfg and, for postgres,
// applies pending migrations when enabled.
func OpenStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Storage, error) {
	if cfg.StorageDriver == config.StorageMemory {
		logger.Warn("Using in-memory storage, data is lost on restart")
		db := inmem.NewDB()
		return &Storage{
			Tx:           db,
			Users:        db.Users(),
			Availability: db.Availability(),
			Bookings:     db.Bookings(),
			StudyGroups:  db.StudyGroups(),
		}, nil
	}

	pool, err := NewPool(ctx, cfg.DBDSN, logger)
	if err != nil {
		return nil, err
	}

	if cfg.RunMigrations {
		migrator, err := NewMigrator(pool, logger)
		if err != nil {
			pool.Close()
			return nil, err
		}
		err = migrator.Run(ctx)
		_ = migrator.Close()
		if err != nil {
			pool.Close()
			return nil, err
		}
	}

	db := base.NewRepository(pool)
	return &Storage{
		Tx:           db,
		Users:        repository.NewUserRepository(db),
		Availability: repository.NewAvailabilityRepository(db),
		Bookings:     repository.NewBookingRepository(db),
		StudyGroups:  repository.NewStudyGroupRepository(db),
		Pool:         pool,
	}, nil
}

// NewPool creates and validates a pgxpool connection pool, retrying while
// the database container starts up.
func NewPool(ctx context.Context, dsn string, logger *zap.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}

	poolCfg.MaxConns = 20
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	const attempts = 5
	for attempt := 1; ; attempt++ {
		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}

		if attempt == attempts {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		logger.Warn("Database connection failed, retrying",
			zap.Int("attempt", attempt),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}
