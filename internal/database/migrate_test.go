package database

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestMigrationURL(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{
			name:     "postgres scheme",
			in:       "postgres://u:p@localhost:5432/db?sslmode=disable",
			expected: "pgx5://u:p@localhost:5432/db?sslmode=disable",
		},
		{
			name:     "postgresql scheme",
			in:       "postgresql://u:p@db:5432/store",
			expected: "pgx5://u:p@db:5432/store",
		},
		{
			name:     "already pgx5",
			in:       "pgx5://u:p@db:5432/store",
			expected: "pgx5://u:p@db:5432/store",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MigrationURL(tt.in))
		})
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	assert.NoError(t, err)

	var ups, downs int
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".up.sql"):
			ups++
		case strings.HasSuffix(e.Name(), ".down.sql"):
			downs++
		}
	}
	assert.Positive(t, ups)
	assert.Equal(t, ups, downs, "every migration needs a down script")
}

func TestRollback_InvalidSteps(t *testing.T) {
	err := Rollback("postgres://u:p@localhost:5432/db", 0, zerolog.Nop())
	assert.Error(t, err)
}
