package database

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrationLogger adapts zerolog to the migrate.Logger interface.
type migrationLogger struct {
	logger  zerolog.Logger
	verbose bool
}

func (l *migrationLogger) Printf(format string, v ...any) {
	l.logger.Info().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l *migrationLogger) Verbose() bool {
	return l.verbose
}

// Migrate applies every pending embedded migration to the database at connString.
func Migrate(connString string, logger zerolog.Logger) error {
	m, err := newMigrate(connString, logger)
	if err != nil {
		return err
	}
	defer closeMigrate(m, logger)

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.Log.Printf("no migrations to apply")
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	m.Log.Printf("migrations applied")
	return nil
}

// Rollback reverts the given number of migration steps.
func Rollback(connString string, steps int, logger zerolog.Logger) error {
	if steps < 1 {
		return fmt.Errorf("rollback steps must be at least 1")
	}

	m, err := newMigrate(connString, logger)
	if err != nil {
		return err
	}
	defer closeMigrate(m, logger)

	if err := m.Steps(-steps); err != nil {
		return fmt.Errorf("failed to roll back migrations: %w", err)
	}

	m.Log.Printf("rolled back %d migration(s)", steps)
	return nil
}

func newMigrate(connString string, logger zerolog.Logger) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, MigrationURL(connString))
	if err != nil {
		return nil, fmt.Errorf("failed to initialise migrations: %w", err)
	}

	m.Log = &migrationLogger{
		logger:  logger.With().Str("component", "migrate").Logger(),
		verbose: false,
	}
	return m, nil
}

func closeMigrate(m *migrate.Migrate, logger zerolog.Logger) {
	srcErr, dbErr := m.Close()
	if err := errors.Join(srcErr, dbErr); err != nil {
		logger.Warn().Err(err).Msg("failed to close migration handles")
	}
}

// MigrationURL rewrites a postgres:// connection string to the pgx5:// scheme
// understood by the migrate pgx driver.
func MigrationURL(connString string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(connString, scheme); ok {
			return "pgx5://" + rest
		}
	}
	return connString
}
