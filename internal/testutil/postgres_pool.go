package testutil

import (
	"context"
	"os"
	"strings"
	"testing"
	"unicode"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pitlane.io/pitlane/internal/repository"
)

// TestDatabaseEnv names the DSN of the PostgreSQL server used by
// integration tests.
const TestDatabaseEnv = "TEST_DATABASE_URL"

// OpenPGXPool returns a pool confined to a fresh schema holding the Pitlane
// tables. The schema is dropped when the test ends. Tests are skipped when
// TEST_DATABASE_URL is unset.
func OpenPGXPool(t *testing.T, label string) *pgxpool.Pool {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv(TestDatabaseEnv))
	if dsn == "" {
		t.Skipf("%s not set; skipping PostgreSQL integration test", TestDatabaseEnv)
	}
	ctx := context.Background()

	admin, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect to test database: %v", err)
	}
	t.Cleanup(admin.Close)

	schema := schemaName(label)
	quoted := pgx.Identifier{schema}.Sanitize()
	if _, err := admin.Exec(ctx, "CREATE SCHEMA "+quoted); err != nil {
		t.Fatalf("create schema %s: %v", schema, err)
	}
	t.Cleanup(func() {
		_, _ = admin.Exec(context.Background(), "DROP SCHEMA IF EXISTS "+quoted+" CASCADE")
	})

	cfg, err := scopedPoolConfig(dsn, schema)
	if err != nil {
		t.Fatalf("parse test database DSN: %v", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("connect to schema %s: %v", schema, err)
	}
	t.Cleanup(pool.Close)

	if _, err := pool.Exec(ctx, repository.Schema); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return pool
}

// scopedPoolConfig parses dsn (URL or keyword form) and pins every
// connection's search_path to schema.
func scopedPoolConfig(dsn, schema string) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.ConnConfig.RuntimeParams["search_path"] = schema
	return cfg, nil
}

// schemaName derives a unique identifier from label that stays within
// PostgreSQL's 63 byte limit.
func schemaName(label string) string {
	const maxIdent = 63
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")

	var b strings.Builder
	for _, r := range strings.ToLower(label) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case b.Len() > 0 && !strings.HasSuffix(b.String(), "_"):
			b.WriteByte('_')
		}
	}
	base := strings.Trim(b.String(), "_")
	if base == "" {
		base = "test"
	}
	if room := maxIdent - len("t__") - len(suffix); len(base) > room {
		base = strings.TrimRight(base[:room], "_")
	}
	return "t_" + base + "_" + suffix
}
