// Command seed fills a database with demo tutors, students and schedule
// data and prints development tokens for them.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Freeeeeet/tutorhub/internal/app"
	"github.com/Freeeeeet/tutorhub/internal/auth"
	"github.com/Freeeeeet/tutorhub/internal/config"
	"github.com/Freeeeeet/tutorhub/internal/events"
	"github.com/Freeeeeet/tutorhub/internal/model"
	"github.com/Freeeeeet/tutorhub/internal/service"
	"go.uber.org/zap"
)

const tokenTTL = 30 * 24 * time.Hour

var demoUsers = []service.RegisterInput{
	{Name: "Alice Tutor", Username: "alice", Email: "alice@example.com", Password: "password", Role: model.RoleTutor, Subjects: []string{"Math", "Physics"}},
	{Name: "Bob Tutor", Username: "bob", Email: "bob@example.com", Password: "password", Role: model.RoleTutor, Subjects: []string{"Chemistry"}},
	{Name: "Carol Student", Username: "carol", Email: "carol@example.com", Password: "password", Role: model.RoleStudent, GradeLevel: "Uni-Freshman"},
	{Name: "Dan Student", Username: "dan", Email: "dan@example.com", Password: "password", Role: model.RoleStudent, GradeLevel: "H.S-Senior"},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	if cfg.StorageDriver == config.StorageMemory {
		logger.Warn("Seeding the memory driver only lives as long as this process")
	}

	ctx := context.Background()
	store, err := app.OpenStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer store.Close()

	if err := seed(ctx, cfg, store, logger); err != nil {
		logger.Fatal("Seeding failed", zap.Error(err))
	}
	logger.Info("Seeding completed")
}

func seed(ctx context.Context, cfg *config.Config, store *app.Storage, logger *zap.Logger) error {
	users := service.NewUserService(store.Users, store.Availability, store.StudyGroups, logger)
	availability := service.NewAvailabilityService(store.Tx, store.Availability, store.Bookings, store.Users, events.Nop{}, logger)
	groups := service.NewStudyGroupService(store.StudyGroups, logger)
	verifier := auth.NewVerifier(cfg.JWTSecret)

	created := make([]*model.User, 0, len(demoUsers))
	for _, in := range demoUsers {
		user, err := users.Register(ctx, in)
		if service.KindOf(err) == service.KindConflict {
			logger.Info("User already exists, nothing to seed", zap.String("username", in.Username))
			return nil
		}
		if err != nil {
			return fmt.Errorf("register %s: %w", in.Username, err)
		}
		created = append(created, user)
	}

	tutor := auth.Principal{UserID: created[0].ID, Role: model.RoleTutor}
	day := time.Now().UTC().AddDate(0, 0, 7).Truncate(24 * time.Hour)
	dayStr := day.Format(time.DateOnly)

	slots := []service.SlotInput{
		{Day: dayStr, Subject: "Math", StartTime: day.Add(9 * time.Hour), EndTime: day.Add(10 * time.Hour)},
		{Day: dayStr, Subject: "Physics", StartTime: day.Add(11 * time.Hour), EndTime: day.Add(12 * time.Hour)},
		{Day: dayStr, Subject: "Math", StartTime: day.Add(14 * time.Hour), EndTime: day.Add(15*time.Hour + 30*time.Minute)},
	}
	if _, err := availability.Create(ctx, tutor, slots); err != nil {
		return fmt.Errorf("create availability: %w", err)
	}

	creator := auth.Principal{UserID: created[2].ID, Role: model.RoleStudent}
	group, err := groups.Create(ctx, creator, service.StudyGroupInput{
		Title:       "Calculus revision",
		Subject:     "Math",
		Description: "Working through past exam papers",
		Date:        dayStr,
		Time:        "18:00",
		Duration:    90,
	})
	if err != nil {
		return fmt.Errorf("create study group: %w", err)
	}
	if err := store.StudyGroups.AddParticipant(ctx, group.ID, created[3].ID); err != nil {
		return fmt.Errorf("add participant: %w", err)
	}

	for _, user := range created {
		token, err := verifier.Sign(auth.Principal{UserID: user.ID, Role: user.Role}, tokenTTL)
		if err != nil {
			return fmt.Errorf("sign token for %s: %w", user.Username, err)
		}
		fmt.Printf("%-8s %-7s %s\n", user.Username, user.Role, token)
	}
	return nil
}
