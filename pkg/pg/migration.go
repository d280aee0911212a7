package pg

import (
	"io/fs"

	_ "github.com/lib/pq"
	"github.com/nimasrn/smartcart/pkg/logger"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
)

// Migrate applies every pending goose migration found in dir of fsys.
// A nil fsys reads dir from the local filesystem.
func Migrate(cfg Config, fsys fs.FS, dir string) error {
	if fsys != nil {
		goose.SetBaseFS(fsys)
		defer goose.SetBaseFS(nil)
	}
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "set goose dialect")
	}

	db, err := newSqlConnection(cfg)
	if err != nil {
		return errors.Wrap(err, "open migration connection")
	}
	defer db.Close()

	if err = goose.Up(db, dir); err != nil {
		return errors.Wrap(err, "apply migrations")
	}

	version, err := goose.GetDBVersion(db)
	if err == nil {
		logger.Info("migrations applied", "version", version)
	}
	return nil
}
