package db

import (
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/codecompanion-backend/internal/domain/notifications"
	"github.com/yungbote/codecompanion-backend/internal/platform/logger"
)

func TestOpenSQLiteMigrates(t *testing.T) {
	svc, err := Open(Config{
		Driver:     DriverSQLite,
		SQLitePath: "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	}, logger.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })

	if svc.Driver() != DriverSQLite {
		t.Fatalf("driver: want=%s got=%s", DriverSQLite, svc.Driver())
	}
	if !svc.DB().Migrator().HasTable(&notifications.Notification{}) {
		t.Fatalf("expected notifications table")
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(Config{Driver: "mysql"}, logger.Nop()); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}

func TestPostgresDSN(t *testing.T) {
	c := Config{Host: "h", Port: "5432", User: "u", Password: "p", Name: "n"}
	if got, want := c.postgresDSN(), "postgres://u:p@h:5432/n?sslmode=disable"; got != want {
		t.Fatalf("dsn: want=%s got=%s", want, got)
	}
	c.DSN = "postgres://override"
	if got := c.postgresDSN(); got != "postgres://override" {
		t.Fatalf("dsn override: got=%s", got)
	}
}
