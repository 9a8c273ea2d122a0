// The migrate binary applies schema migrations for the Postgres backend.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("GAVEL_DATABASE_URL"), "postgres connection url")
		sourcePath  = flag.String("path", "migrations", "path to migration files")
		steps       = flag.Int("steps", 0, "number of steps for up/down (0 = all)")
	)
	flag.Parse()

	command := flag.Arg(0)
	if command == "" {
		command = "up"
	}

	if err := run(command, *databaseURL, *sourcePath, *steps); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
}

func run(command, databaseURL, sourcePath string, steps int) error {
	if databaseURL == "" {
		return fmt.Errorf("database url is required (flag -database-url or GAVEL_DATABASE_URL)")
	}

	m, err := migrate.New("file://"+sourcePath, databaseURL)
	if err != nil {
		return fmt.Errorf("initializing migrator: %w", err)
	}
	defer m.Close()

	switch command {
	case "up":
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case "down":
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	case "version":
		version, dirty, verr := m.Version()
		if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
			return verr
		}
		fmt.Printf("version: %d dirty: %v\n", version, dirty)
		return nil
	default:
		return fmt.Errorf("unknown command %q (want up, down or version)", command)
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	fmt.Println("migrations applied")
	return nil
}
