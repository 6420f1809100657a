package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinithetics/emr/internal/config"
	"github.com/clinithetics/emr/internal/domain/identity"
)

// ---------------------------------------------------------------------------
// resolveSigningKey
// ---------------------------------------------------------------------------

func TestResolveSigningKey_FromSecret(t *testing.T) {
	secret := strings.Repeat("s", 32)
	key, random, err := resolveSigningKey(secret)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if random {
		t.Error("expected random=false when JWT_SECRET is set")
	}
	if !bytes.Equal(key, []byte(secret)) {
		t.Errorf("key mismatch: got %q", key)
	}
}

func TestResolveSigningKey_RandomGeneration(t *testing.T) {
	key, random, err := resolveSigningKey("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !random {
		t.Error("expected random=true when JWT_SECRET is empty")
	}
	if len(key) != 32 {
		t.Errorf("expected 32-byte key, got %d bytes", len(key))
	}

	key2, _, err := resolveSigningKey("")
	if err != nil {
		t.Fatalf("unexpected error on second call: %v", err)
	}
	if bytes.Equal(key, key2) {
		t.Error("two random keys should not be identical")
	}
}

// ---------------------------------------------------------------------------
// newLogger
// ---------------------------------------------------------------------------

func TestNewLogger_Level(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"chatty", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		l := newLogger(&config.Config{Env: "production", LogLevel: tt.in})
		if got := l.GetLevel(); got != tt.want {
			t.Errorf("LOG_LEVEL=%q: got %s, want %s", tt.in, got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// user create flags
// ---------------------------------------------------------------------------

func parseUserFlags(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	var create *cobra.Command
	for _, c := range userCmd().Commands() {
		if c.Name() == "create" {
			create = c
		}
	}
	if create == nil {
		t.Fatal("user create command missing")
	}
	if err := create.ParseFlags(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return create
}

func TestUserFromFlags_DefaultsToSuperAdmin(t *testing.T) {
	cmd := parseUserFlags(t, "--email", "admin@clinic.example", "--password", "secret123",
		"--first-name", "Ada", "--last-name", "Admin")

	req, role, err := userFromFlags(cmd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if role != identity.RoleSuperAdmin {
		t.Errorf("expected super_admin, got %s", role)
	}
	if req.Email != "admin@clinic.example" || req.FirstName != "Ada" || req.Role != "super_admin" {
		t.Errorf("unexpected request: %+v", req)
	}
}

func TestUserFromFlags_Doctor(t *testing.T) {
	cmd := parseUserFlags(t, "--email", "dr@clinic.example", "--first-name", "Michael",
		"--last-name", "Chen", "--role", "doctor")

	_, role, err := userFromFlags(cmd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if role != identity.RoleDoctor {
		t.Errorf("expected doctor, got %s", role)
	}
}

func TestUserFromFlags_MissingFields(t *testing.T) {
	cmd := parseUserFlags(t, "--email", "x@clinic.example")

	_, _, err := userFromFlags(cmd)
	if err == nil {
		t.Fatal("expected error for missing names")
	}
	if !strings.Contains(err.Error(), "--first-name, --last-name") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestUserFromFlags_UnknownRole(t *testing.T) {
	cmd := parseUserFlags(t, "--email", "x@clinic.example", "--first-name", "A",
		"--last-name", "B", "--role", "nurse")

	if _, _, err := userFromFlags(cmd); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestMigrationsDir_FlagOverridesConfig(t *testing.T) {
	cfg := &config.Config{MigrationsDir: "./migrations"}
	cmd := &cobra.Command{}
	cmd.Flags().String("dir", "", "")

	if got := migrationsDir(cmd, cfg); got != "./migrations" {
		t.Errorf("expected config default, got %q", got)
	}
	_ = cmd.Flags().Set("dir", "/tmp/m")
	if got := migrationsDir(cmd, cfg); got != "/tmp/m" {
		t.Errorf("expected flag value, got %q", got)
	}
}
