// seed provisions student accounts from a YAML file. Students cannot sign
// up through the API, so this is the only way accounts are created.
//
//	seed --file students.yaml [--dry-run]
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-desk/internal/config"
	"github.com/spec-kit/complaint-desk/internal/observability"
	"github.com/spec-kit/complaint-desk/internal/persistence"
	"github.com/spec-kit/complaint-desk/internal/repository"
	"github.com/spec-kit/complaint-desk/internal/service"
	apperrors "github.com/spec-kit/complaint-desk/pkg/util/errorutil"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var (
		filePath      string
		dryRun        bool
		skipExisting  bool
		migrationsDir string
	)
	flagSet := pflag.NewFlagSet("seed", pflag.ContinueOnError)
	flagSet.StringVarP(&filePath, "file", "f", "students.yaml", "YAML file listing students")
	flagSet.BoolVar(&dryRun, "dry-run", false, "validate the file without writing")
	flagSet.BoolVar(&skipExisting, "skip-existing", true, "ignore students whose id or email already exists")
	flagSet.StringVar(&migrationsDir, "migrations", "migrations", "directory of SQL migrations to apply first")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open %s: %w", filePath, err)
	}
	defer file.Close()

	students, err := loadStudents(file)
	if err != nil {
		return fmt.Errorf("parse %s: %w", filePath, err)
	}
	if dryRun {
		fmt.Printf("%d students valid in %s\n", len(students), filePath)
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("POSTGRES_DSN is required to seed students")
	}
	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()
	if err := persistence.RunMigrations(ctx, pg.Pool, migrationsDir, logger); err != nil {
		return err
	}

	authService := service.NewAuthService(cfg.Auth, repository.NewUserRepository(pg.Pool))
	created, skipped := 0, 0
	for _, student := range students {
		_, err := authService.RegisterStudent(ctx, student.input())
		switch {
		case err == nil:
			created++
		case skipExisting && apperrors.IsCode(err, apperrors.CodeConflict):
			skipped++
			logger.Info("student already registered", zap.String("student_id", student.StudentID))
		default:
			return fmt.Errorf("register %s: %w", student.StudentID, err)
		}
	}

	logger.Info("seed complete", zap.Int("created", created), zap.Int("skipped", skipped))
	return nil
}
