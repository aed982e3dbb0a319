// Command seed fills a development database with a few users, a room and
// some messages so the web client has something to show.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/korsetof/chatmod/internal/config"
	"github.com/korsetof/chatmod/internal/database"
	"github.com/korsetof/chatmod/internal/models"
	"github.com/korsetof/chatmod/internal/repositories/postgres"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := run(logger); err != nil {
		logger.Error("seed failed", "error", err)
		os.Exit(1)
	}
	logger.Info("seed complete")
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	db, err := database.NewPostgresDB(cfg.Database, logger)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	ctx := context.Background()
	users := postgres.NewUserRepository(db)
	rooms := postgres.NewRoomRepository(db)
	messages := postgres.NewMessageRepository(db)

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	seeded := make([]*models.User, 0, 3)
	for i, name := range []string{"alice", "bob", "carol"} {
		user := &models.User{
			Username: name,
			Email:    fmt.Sprintf("%s@example.com", name),
			Password: string(hash),
			Role:     models.RoleUser,
			Bio:      fmt.Sprintf("seed user %d", i+1),
		}
		if i == 0 {
			user.Role = models.RoleAdmin
		}
		if err := users.Create(ctx, user); err != nil {
			return err
		}
		seeded = append(seeded, user)
		logger.Info("created user", "username", name, "id", user.ID)
	}

	room := &models.Room{Name: "general", Description: "seeded room", OwnerID: seeded[0].ID}
	if err := rooms.Create(ctx, room); err != nil {
		return err
	}
	for _, u := range seeded[1:] {
		if err := rooms.AddMember(ctx, room.ID, u.ID); err != nil {
			return err
		}
	}
	logger.Info("created room", "name", room.Name, "id", room.ID)

	if _, err := messages.CreateDirectMessage(ctx, seeded[0].ID, seeded[1].ID, "hey bob", models.MediaTypeText, ""); err != nil {
		return err
	}
	if _, err := messages.CreateRoomMessage(ctx, room.ID, seeded[1].ID, "welcome to general", models.MediaTypeText, ""); err != nil {
		return err
	}
	return nil
}
