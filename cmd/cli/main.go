package main

import (
	"context"
	"os"
	"time"

	"github.com/nimasrn/smartcart/internal/config"
	"github.com/nimasrn/smartcart/internal/repository"
	"github.com/nimasrn/smartcart/internal/services"
	"github.com/nimasrn/smartcart/migrations"
	"github.com/nimasrn/smartcart/pkg/logger"
	"github.com/nimasrn/smartcart/pkg/pg"
	"github.com/pkg/errors"
)

// cli --task=migrate [--dir=./migrations]
// cli --task=create-admin --email=... --password=...
// cli --task=seed-products
func main() {
	cfg, err := config.Load(config.EnvPathFromArgs(os.Args))
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	task := config.ArgValue(os.Args, "task")
	switch task {
	case "", "migrate":
		err = migrate(cfg)
	case "create-admin":
		err = createAdmin(ctx, cfg, config.ArgValue(os.Args, "email"), config.ArgValue(os.Args, "password"))
	case "seed-products":
		err = seedProducts(ctx, cfg)
	default:
		err = errors.Errorf("unknown task %q", task)
	}
	if err != nil {
		logger.Error("cli task failed", "task", task, "error", err)
		os.Exit(1)
	}
}

func migrate(cfg *config.Config) error {
	if dir := config.ArgValue(os.Args, "dir"); dir != "" {
		if _, err := os.Stat(dir); err != nil {
			return errors.Wrapf(err, "migration dir %s", dir)
		}
		return pg.Migrate(cfg.WriteDB(), nil, dir)
	}
	return pg.Migrate(cfg.WriteDB(), migrations.FS, ".")
}

func openDB(cfg *config.Config) (*pg.DB, error) {
	write, err := pg.Create(cfg.WriteDB(), false)
	if err != nil {
		return nil, errors.Wrap(err, "connect to pg")
	}
	return pg.New(write, write), nil
}

func createAdmin(ctx context.Context, cfg *config.Config, email, password string) error {
	db, err := openDB(cfg)
	if err != nil {
		return err
	}

	admin, err := services.NewAdminService(repository.NewAdminRepository(db)).Create(ctx, email, password)
	if err != nil {
		return err
	}
	logger.Info("admin created", "email", admin.Email)
	return nil
}

func seedProducts(ctx context.Context, cfg *config.Config) error {
	db, err := openDB(cfg)
	if err != nil {
		return err
	}

	n, err := services.NewCatalogService(repository.NewProductRepository(db)).Seed(ctx)
	if err != nil {
		return err
	}
	logger.Info("starter catalog seeded", "inserted", n, "catalog_size", len(services.StarterCatalog))
	return nil
}
