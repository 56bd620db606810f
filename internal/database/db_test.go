package database

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_InvalidDSN(t *testing.T) {
	_, err := Open("not a dsn")
	require.Error(t, err)
}

func TestDSNConfig(t *testing.T) {
	mc, err := dsnConfig("app:secret@tcp(127.0.0.1:3306)/plants")
	require.NoError(t, err)

	assert.True(t, mc.ParseTime)
	assert.Equal(t, time.UTC, mc.Loc)
	assert.Equal(t, "utf8mb4", mc.Params["charset"])
	assert.False(t, mc.MultiStatements)
	assert.NotContains(t, mc.FormatDSN(), "multiStatements")
}

func TestDSNConfig_KeepsExplicitCharset(t *testing.T) {
	mc, err := dsnConfig("app:secret@tcp(127.0.0.1:3306)/plants?charset=utf8")
	require.NoError(t, err)
	assert.Equal(t, "utf8", mc.Params["charset"])
}

func TestMigrate_UsesEmbeddedDir(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	orig := gooseUp
	defer func() { gooseUp = orig }()

	var gotDir string
	gooseUp = func(ctx context.Context, d *sql.DB, dir string) error {
		gotDir = dir
		return nil
	}

	require.NoError(t, Migrate(context.Background(), db))
	assert.Equal(t, "migrations", gotDir)
}

func TestMigrate_PropagatesError(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	orig := gooseUp
	defer func() { gooseUp = orig }()
	gooseUp = func(context.Context, *sql.DB, string) error { return errors.New("boom") }

	assert.EqualError(t, Migrate(context.Background(), db), "boom")
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrations.ReadDir("migrations")
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}

var (
	createTableRe = regexp.MustCompile(`(?s)CREATE TABLE IF NOT EXISTS (\w+) \((.*?)\n\) ([^;]*);`)
	tableCollRe   = regexp.MustCompile(`COLLATE=(\w+)`)
)

// Foreign keys between string columns need matching collations, so every
// table shares one default and only users.email overrides it.
func TestInitMigration_CollationsConsistent(t *testing.T) {
	raw, err := migrations.ReadFile("migrations/00001_init.sql")
	require.NoError(t, err)

	tables := createTableRe.FindAllStringSubmatch(string(raw), -1)
	require.Len(t, tables, 3)

	collations := map[string]string{}
	for _, m := range tables {
		name, body, opts := m[1], m[2], m[3]
		coll := tableCollRe.FindStringSubmatch(opts)
		require.NotNil(t, coll, "table %s has no default collation", name)
		assert.NotEqual(t, "utf8mb4_bin", coll[1], "table %s", name)
		collations[name] = coll[1]

		for _, line := range strings.Split(body, "\n") {
			line = strings.TrimSpace(line)
			if strings.Contains(line, " COLLATE ") {
				assert.True(t, name == "users" && strings.HasPrefix(line, "email "),
					"unexpected column collation in %s: %s", name, line)
			}
		}
	}

	assert.Equal(t, collations["users"], collations["detections"])
	assert.Equal(t, collations["users"], collations["contacts"])
	assert.Regexp(t, `email\s+VARCHAR\(255\) COLLATE utf8mb4_bin NOT NULL`, string(raw))
}
