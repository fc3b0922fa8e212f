package db

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/rs/zerolog"
)

func TestLoadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"002_consultations.sql": {Data: []byte("CREATE TABLE consultation (id UUID PRIMARY KEY);")},
		"001_core.sql":          {Data: []byte("CREATE TABLE patient (id UUID PRIMARY KEY);")},
		"010_indexes.sql":       {Data: []byte("CREATE INDEX x ON patient (id);")},
		"README.md":             {Data: []byte("not a migration")},
		"notes.sql":             {Data: []byte("-- no version")},
		"abc_core.sql":          {Data: []byte("-- bad version")},
	}

	m := NewMigrator(nil, fsys, "", zerolog.Nop())
	migrations, err := m.LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}
	if len(migrations) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(migrations))
	}

	wantVersions := []int{1, 2, 10}
	for i, v := range wantVersions {
		if migrations[i].Version != v {
			t.Errorf("migration %d: expected version %d, got %d", i, v, migrations[i].Version)
		}
	}
	if migrations[0].Name != "001_core.sql" {
		t.Errorf("expected name 001_core.sql, got %s", migrations[0].Name)
	}
	if !strings.Contains(migrations[0].SQL, "CREATE TABLE patient") {
		t.Errorf("unexpected SQL content: %s", migrations[0].SQL)
	}
}

func TestLoadMigrations_DuplicateVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"001_a.sql":  {Data: []byte("SELECT 1;")},
		"0001_b.sql": {Data: []byte("SELECT 2;")},
	}
	if _, err := NewMigrator(nil, fsys, "", zerolog.Nop()).LoadMigrations(); err == nil {
		t.Fatal("expected duplicate version error")
	}
}

func TestMigrator_DefaultSchema(t *testing.T) {
	m := NewMigrator(nil, fstest.MapFS{}, "", zerolog.Nop())
	if got := m.qualified("_migrations"); got != `"public"."_migrations"` {
		t.Errorf("unexpected qualified name %s", got)
	}
	m = NewMigrator(nil, fstest.MapFS{}, `we"ird`, zerolog.Nop())
	if got := m.qualified("_migrations"); got != `"we""ird"."_migrations"` {
		t.Errorf("expected quoted identifier, got %s", got)
	}
}
