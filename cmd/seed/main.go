package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/civic-portal-api/internal/models"
	"github.com/noah-isme/civic-portal-api/internal/repository"
	"github.com/noah-isme/civic-portal-api/pkg/config"
	"github.com/noah-isme/civic-portal-api/pkg/database"
	"github.com/noah-isme/civic-portal-api/pkg/logger"
)

// seed creates a default department plus an admin and an officer account.
// Running it twice leaves existing rows untouched.
func main() {
	password := flag.String("password", "password123", "password for the seeded accounts")
	department := flag.String("department", "General Services", "department the seeded officer belongs to")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		logr.Fatal("failed to apply migrations", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		logr.Fatal("failed to hash password", zap.Error(err))
	}

	deptID, err := ensureDepartment(ctx, repository.NewDepartmentRepository(db), *department)
	if err != nil {
		logr.Fatal("failed to seed department", zap.Error(err))
	}

	users := repository.NewUserRepository(db)
	accounts := []models.User{
		{Name: "Admin User", Email: "admin@example.com", PasswordHash: string(hash), Role: models.RoleAdmin},
		{Name: "Officer User", Email: "officer@example.com", PasswordHash: string(hash), Role: models.RoleOfficer, DepartmentID: &deptID},
	}
	for i := range accounts {
		account := accounts[i]
		err := users.Create(ctx, &account)
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			logr.Info("account already present", zap.String("email", account.Email))
		case err != nil:
			logr.Fatal("failed to seed account", zap.String("email", account.Email), zap.Error(err))
		default:
			logr.Info("account created", zap.String("email", account.Email), zap.String("role", string(account.Role)))
		}
	}
}

func ensureDepartment(ctx context.Context, repo *repository.DepartmentRepository, name string) (string, error) {
	existing, err := repo.List(ctx)
	if err != nil {
		return "", err
	}
	for _, dept := range existing {
		if strings.EqualFold(dept.Name, name) {
			return dept.ID, nil
		}
	}
	dept := &models.Department{Name: name, Description: "Seeded default department"}
	if err := repo.Create(ctx, dept); err != nil {
		return "", err
	}
	return dept.ID, nil
}
