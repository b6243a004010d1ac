package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DB handles db init|clean|backup|restore. Only init works against MySQL,
// where it runs the schema migration.
func DB(env *Env, args []string) error {
	if len(args) < 1 {
		return usage("db <init|clean|backup|restore>")
	}
	cfg := env.Config.Database
	if cfg.Driver == "mysql" {
		if args[0] != "init" {
			return fmt.Errorf("db %s is only supported for the badger driver", args[0])
		}
		s, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer s.close()
		env.printf("Database schema migrated\n")
		return nil
	}

	switch args[0] {
	case "init":
		return initDB(env)
	case "clean":
		return cleanDB(env)
	case "backup":
		target := ""
		if len(args) > 1 {
			target = args[1]
		}
		return backupDB(env, target)
	case "restore":
		if len(args) < 2 {
			return usage("db restore <file>")
		}
		return restoreDB(env, args[1])
	default:
		return usage("unknown db command %q", args[0])
	}
}

func initDB(env *Env) error {
	path := env.Config.Database.Path
	if _, err := os.Stat(path); err == nil {
		env.printf("Database already exists. Use 'db clean' first if you want to reinitialize.\n")
		return nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	s, err := openStore(env.Config.Database)
	if err != nil {
		return err
	}
	if err := s.close(); err != nil {
		return err
	}
	env.printf("Database initialized at %s\n", path)
	return nil
}

func cleanDB(env *Env) error {
	path := env.Config.Database.Path
	if _, err := os.Stat(path); os.IsNotExist(err) {
		env.printf("Database is already clean (does not exist)\n")
		return nil
	}
	if !env.confirm("Are you sure you want to clean the database? This cannot be undone.") {
		env.printf("Operation cancelled\n")
		return nil
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to clean database: %w", err)
	}
	env.printf("Database cleaned successfully\n")
	return nil
}

func backupDB(env *Env, target string) error {
	path := env.Config.Database.Path
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("no database at %s to back up", path)
	}
	if target == "" {
		dir := filepath.Join(filepath.Dir(path), "backups")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create backup directory: %w", err)
		}
		target = filepath.Join(dir, fmt.Sprintf("backup_%d.db", time.Now().Unix()))
	}

	s, err := openStore(env.Config.Database)
	if err != nil {
		return err
	}
	defer s.close()

	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer f.Close()
	if _, err := s.db.Backup(f, 0); err != nil {
		return fmt.Errorf("failed to back up database: %w", err)
	}
	env.printf("Database backed up to %s\n", target)
	return nil
}

func restoreDB(env *Env, source string) error {
	if _, err := os.Stat(source); os.IsNotExist(err) {
		return fmt.Errorf("backup file does not exist: %s", source)
	}
	path := env.Config.Database.Path
	if _, err := os.Stat(path); err == nil {
		if !env.confirm("Existing database found. Do you want to replace it?") {
			env.printf("Operation cancelled\n")
			return nil
		}
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("failed to remove existing database: %w", err)
		}
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	s, err := openStore(env.Config.Database)
	if err != nil {
		return err
	}
	defer s.close()

	f, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer f.Close()
	if err := s.db.Load(f, 4); err != nil {
		return fmt.Errorf("failed to restore database: %w", err)
	}
	env.printf("Database restored from %s\n", source)
	return nil
}
