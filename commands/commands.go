// Package commands implements the yatube subcommands other than help and version.
package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"yatube/app/config"
	"yatube/app/logging"
	"yatube/app/repositories"
)

// ErrUsage marks bad command-line arguments.
var ErrUsage = errors.New("usage")

// Env is what every command runs against.
type Env struct {
	Config *config.Config
	In     io.Reader
	Out    io.Writer
}

func (e *Env) printf(format string, args ...interface{}) {
	fmt.Fprintf(e.Out, format, args...)
}

// confirm asks a yes/no question; anything but y or Y is a no.
func (e *Env) confirm(prompt string) bool {
	e.printf("%s [y/N] ", prompt)
	line, _ := bufio.NewReader(e.In).ReadString('\n')
	answer := strings.TrimSpace(line)
	return answer == "y" || answer == "Y"
}

func usage(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrUsage}, args...)...)
}

// store is an open backend. db is set for Badger only.
type store struct {
	*repositories.Store
	db    *badger.DB
	close func() error
}

func openStore(cfg config.DatabaseConfig) (*store, error) {
	log := logging.Logger()
	switch cfg.Driver {
	case "mysql":
		gdb, err := repositories.OpenMySQL(cfg.DSN, log)
		if err != nil {
			return nil, err
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql handle: %w", err)
		}
		return &store{Store: repositories.NewGormStore(gdb), close: sqlDB.Close}, nil
	default:
		db, err := repositories.OpenBadger(repositories.BadgerOptions{
			Path:       cfg.Path,
			InMemory:   cfg.InMemory,
			SyncWrites: cfg.SyncWrites,
			Logger:     log,
		})
		if err != nil {
			return nil, err
		}
		return &store{Store: repositories.NewBadgerStore(db), db: db, close: db.Close}, nil
	}
}
