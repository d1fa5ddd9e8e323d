package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewConfig(t *testing.T) {
	// Run away from any real threadbase.yaml or .env file.
	// (os.Chdir + cleanup instead of t.Chdir, which needs Go 1.24+.)
	origWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() returned error: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Chdir() returned error: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(origWD); err != nil {
			t.Fatalf("Chdir() back returned error: %v", err)
		}
	})

	t.Run("uses defaults in production without a config file", func(t *testing.T) {
		t.Setenv("THREADBASE_ENV", "production")
		t.Setenv("THREADBASE_CONFIG", "")
		t.Setenv("THREADBASE_MAIL_DIR", "")
		t.Setenv("TZ", "")

		config, err := NewConfig()
		if err != nil {
			t.Fatalf("NewConfig() returned error: %v", err)
		}
		if config.Environment != "production" {
			t.Errorf("expected Environment 'production', got '%s'", config.Environment)
		}
		if config.MailDir != "mail" {
			t.Errorf("expected MailDir 'mail', got '%s'", config.MailDir)
		}
		if config.Timezone != "UTC" {
			t.Errorf("expected Timezone 'UTC', got '%s'", config.Timezone)
		}
	})

	t.Run("reads the YAML config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "threadbase.yaml")
		if err := os.WriteFile(path, []byte("mail_dir: /srv/posts\ntimezone: Europe/Budapest\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		t.Setenv("THREADBASE_ENV", "production")
		t.Setenv("THREADBASE_CONFIG", path)
		t.Setenv("THREADBASE_MAIL_DIR", "")
		t.Setenv("TZ", "")

		config, err := NewConfig()
		if err != nil {
			t.Fatalf("NewConfig() returned error: %v", err)
		}
		if config.MailDir != "/srv/posts" {
			t.Errorf("expected MailDir '/srv/posts', got '%s'", config.MailDir)
		}
		if config.Timezone != "Europe/Budapest" {
			t.Errorf("expected Timezone 'Europe/Budapest', got '%s'", config.Timezone)
		}
	})

	t.Run("environment overrides the config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "threadbase.yaml")
		if err := os.WriteFile(path, []byte("mail_dir: /srv/posts\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		t.Setenv("THREADBASE_ENV", "production")
		t.Setenv("THREADBASE_CONFIG", path)
		t.Setenv("THREADBASE_MAIL_DIR", "/home/me/mail")

		config, err := NewConfig()
		if err != nil {
			t.Fatalf("NewConfig() returned error: %v", err)
		}
		if config.MailDir != "/home/me/mail" {
			t.Errorf("expected MailDir '/home/me/mail', got '%s'", config.MailDir)
		}
	})

	t.Run("fails when an explicitly named config file is missing", func(t *testing.T) {
		t.Setenv("THREADBASE_ENV", "production")
		t.Setenv("THREADBASE_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))

		if _, err := NewConfig(); err == nil {
			t.Error("expected error for missing config file, got nil")
		}
	})

	t.Run("fails on malformed YAML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "threadbase.yaml")
		if err := os.WriteFile(path, []byte("mail_dir: [broken\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		t.Setenv("THREADBASE_ENV", "production")
		t.Setenv("THREADBASE_CONFIG", path)

		if _, err := NewConfig(); err == nil {
			t.Error("expected error for malformed config file, got nil")
		}
	})

	t.Run("fails when the mail dir is cleared", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "threadbase.yaml")
		if err := os.WriteFile(path, []byte("mail_dir: \"\"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		t.Setenv("THREADBASE_ENV", "production")
		t.Setenv("THREADBASE_CONFIG", path)
		t.Setenv("THREADBASE_MAIL_DIR", "")

		if _, err := NewConfig(); err == nil {
			t.Error("expected validation error for empty mail dir, got nil")
		}
	})
}

func TestValidate(t *testing.T) {
	config := &Config{MailDir: "mail"}
	if err := config.Validate(); err != nil {
		t.Errorf("expected valid config, got error: %v", err)
	}

	config.MailDir = ""
	if err := config.Validate(); err == nil {
		t.Error("expected error for empty MailDir, got nil")
	}
}
