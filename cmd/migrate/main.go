// Command migrate manages the assessment schema (exams, participants,
// score_results, submissions). Wraps golang-migrate with the project's
// env-based configuration.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/luminedu/assess-engine/internal/config"
)

func main() {
	dir := flag.String("path", "migrations", "directory holding the .up.sql/.down.sql pairs")
	steps := flag.Int("steps", 0, "apply at most N steps instead of migrating fully (up/down only)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	m, err := migrate.New("file://"+*dir, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("open migrations: %v", err)
	}

	if err := run(m, flag.Args(), *steps); err != nil {
		log.Fatal(err)
	}
}

func run(m *migrate.Migrate, args []string, steps int) error {
	switch cmd := args[0]; cmd {
	case "up":
		var err error
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
		if err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("up: %w", err)
		}
		fmt.Println("schema is up to date")
	case "down":
		var err error
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
		if err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("down: %w", err)
		}
		fmt.Println("rolled back")
	case "version":
		v, dirty, err := m.Version()
		if err != nil {
			return fmt.Errorf("version: %w", err)
		}
		fmt.Printf("version %d (dirty: %t)\n", v, dirty)
	case "force":
		if len(args) < 2 {
			return errors.New("force requires a version argument")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version %q", args[1])
		}
		if err := m.Force(v); err != nil {
			return fmt.Errorf("force: %w", err)
		}
		fmt.Printf("forced version to %d\n", v)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: migrate [-path dir] [-steps n] <up|down|version|force <v>>")
	fmt.Fprintln(os.Stderr, "Reads DATABASE_URL from the environment or .env.")
	flag.PrintDefaults()
}
