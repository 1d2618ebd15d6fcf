package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hireloop/interview-backend/internal/config"
	"github.com/hireloop/interview-backend/internal/database"
	"github.com/hireloop/interview-backend/internal/logger"
	"github.com/hireloop/interview-backend/internal/model"
	"github.com/hireloop/interview-backend/internal/repository"
)

// Seeds a batch of demo candidates plus one demo role template. Intended for
// local development and load testing; every candidate gets the same password.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)
	templateRepo := repository.NewTemplateRepository(pool)

	fmt.Println("=== Seeding Demo Candidates ===")

	hash, err := bcrypt.GenerateFromPassword([]byte("candidate123"), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	names := []string{
		"Alice Johnson", "Bob Martinez", "Carol Nguyen", "David Okafor", "Elena Petrova",
		"Frank Liu", "Grace Adeyemi", "Hiro Tanaka", "Ingrid Svensson", "Jamal Carter",
		"Katya Ivanova", "Liam O'Brien", "Mei Chen", "Noah Fischer", "Olivia Kim",
		"Priya Sharma", "Quentin Dubois", "Rosa Alvarez", "Samir Haddad", "Tara Murphy",
	}

	created := 0
	for _, name := range names {
		email := strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com"
		user := &model.User{
			Name:         name,
			Email:        email,
			PasswordHash: string(hash),
			Role:         model.RoleCandidate,
			IsActive:     true,
		}
		if err := userRepo.Create(ctx, user); err != nil {
			log.Warn().Err(err).Str("email", email).Msg("Skipping candidate")
			continue
		}
		created++
	}
	fmt.Printf("Created %d candidates (password: candidate123)\n", created)

	tpl := &model.InterviewTemplate{
		Name:        "Backend Engineer Screen",
		RoleTitle:   "Backend Software Engineer",
		Skills:      []string{"go", "postgresql", "distributed systems"},
		Description: "General backend screening covering fundamentals and one coding exercise.",
		IsActive:    true,
	}
	if err := templateRepo.Create(ctx, tpl); err != nil {
		log.Warn().Err(err).Msg("Skipping template seed")
	} else {
		fmt.Printf("Created template %s (%s)\n", tpl.Name, tpl.ID)
	}
}
