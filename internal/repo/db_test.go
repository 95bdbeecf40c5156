package repo

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tbourn/go-lifetrack-backend/internal/config"
	"github.com/tbourn/go-lifetrack-backend/internal/domain"
)

func TestOpenSQLite_MissingParentDir(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "missing", "lifetrack.db")
	if db, err := OpenSQLite(bad); err == nil || db != nil {
		t.Fatalf("expected error opening %q, got db=%v err=%v", bad, db, err)
	}
}

func TestOpen_SQLiteProfile(t *testing.T) {
	db, err := Open(config.DBConfig{
		Driver:       "sqlite",
		Path:         filepath.Join(t.TempDir(), "lifetrack.db"),
		MaxOpenConns: 4,
		ConnMaxLife:  time.Minute,
		Trace:        true,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	for pragma, want := range map[string]string{
		"journal_mode": "wal",
		"synchronous":  "1", // NORMAL
		"foreign_keys": "1",
		"busy_timeout": "5000",
	} {
		var got string
		if err := db.Raw("PRAGMA " + pragma + ";").Row().Scan(&got); err != nil {
			t.Fatalf("PRAGMA %s: %v", pragma, err)
		}
		if strings.ToLower(got) != want {
			t.Fatalf("PRAGMA %s = %q; want %q", pragma, got, want)
		}
	}
	if n := sqlDB.Stats().MaxOpenConnections; n != 4 {
		t.Fatalf("MaxOpenConnections = %d; want 4", n)
	}

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	for _, model := range []any{&domain.LifeArea{}, &domain.Goal{}, &domain.ProgressEntry{}, &domain.Idempotency{}} {
		if !db.Migrator().HasTable(model) {
			t.Fatalf("missing table for %T", model)
		}
	}

	// The DSN pragmas hold on every pooled connection, so the FK fires.
	orphan := &domain.Goal{ID: "g-orphan", UserID: "u1", AreaID: "no-such-area", Title: "x",
		Status: domain.GoalStatusActive, Priority: 1, TargetValue: 1}
	if err := db.Create(orphan).Error; err == nil {
		t.Fatalf("expected FK violation for a goal without its area")
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	if _, err := Open(config.DBConfig{Driver: "mysql"}); err == nil || !strings.Contains(err.Error(), "mysql") {
		t.Fatalf("expected unsupported driver error, got %v", err)
	}
}

func TestSQLiteDSN(t *testing.T) {
	got := sqliteDSN("lifetrack.db")
	if !strings.HasPrefix(got, "lifetrack.db?_pragma=journal_mode(WAL)&") || !strings.HasSuffix(got, "&_pragma=busy_timeout(5000)") {
		t.Fatalf("unexpected dsn %q", got)
	}
	if got := sqliteDSN("file:x?mode=memory"); !strings.HasPrefix(got, "file:x?mode=memory&_pragma=") {
		t.Fatalf("existing query not extended: %q", got)
	}
}
