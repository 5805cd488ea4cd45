package database

import (
	"net/url"
	"testing"
)

func TestDSNEscapesPassword(t *testing.T) {
	cfg := Config{Host: "localhost", Port: 5432, User: "gridbase", Password: "p/a=s?s", Name: "gridbase"}

	u, err := url.Parse(cfg.DSN())
	if err != nil {
		t.Fatalf("DSN did not parse: %v", err)
	}
	if u.User.Username() != "gridbase" {
		t.Errorf("username = %q, want %q", u.User.Username(), "gridbase")
	}
	pw, _ := u.User.Password()
	if pw != "p/a=s?s" {
		t.Errorf("password did not round-trip: got %q", pw)
	}
	if u.Host != "localhost:5432" {
		t.Errorf("host = %q, want %q", u.Host, "localhost:5432")
	}
	if u.Path != "/gridbase" {
		t.Errorf("path = %q, want %q", u.Path, "/gridbase")
	}
}

func TestDSNSSLModeDefault(t *testing.T) {
	cfg := Config{Host: "db", Port: 5432, User: "u", Name: "n"}
	u, err := url.Parse(cfg.DSN())
	if err != nil {
		t.Fatalf("DSN did not parse: %v", err)
	}
	if got := u.Query().Get("sslmode"); got != "disable" {
		t.Errorf("sslmode = %q, want %q", got, "disable")
	}

	cfg.SSLMode = "require"
	u, err = url.Parse(cfg.DSN())
	if err != nil {
		t.Fatalf("DSN did not parse: %v", err)
	}
	if got := u.Query().Get("sslmode"); got != "require" {
		t.Errorf("sslmode = %q, want %q", got, "require")
	}
}
