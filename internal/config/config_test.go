package config

import (
	"os"
	"path/filepath"
	"testing"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
	return dir
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Core.StoreDir != storeDirName {
		t.Fatalf("StoreDir = %q, want %q", cfg.Core.StoreDir, storeDirName)
	}
	if !cfg.Core.CompressFiles {
		t.Fatal("CompressFiles should default to true")
	}
}

func TestSetAndGetRepoValue(t *testing.T) {
	chdirTemp(t)

	if err := SetValue("user.name", "Ada Lovelace", false); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	got, err := GetValue("user.name")
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	if got != "Ada Lovelace" {
		t.Fatalf("GetValue(user.name) = %q, want %q", got, "Ada Lovelace")
	}

	if _, err := os.Stat(filepath.Join(".strata", "config")); err != nil {
		t.Fatalf("expected repo config file to exist: %v", err)
	}
}

func TestGetAuthorRequiresNameAndEmail(t *testing.T) {
	chdirTemp(t)

	if _, err := GetAuthor(); err == nil {
		t.Fatal("expected error when user.name/email unset")
	}

	if err := SetValue("user.name", "Ada", false); err != nil {
		t.Fatalf("SetValue name: %v", err)
	}
	if err := SetValue("user.email", "ada@example.com", false); err != nil {
		t.Fatalf("SetValue email: %v", err)
	}

	author, err := GetAuthor()
	if err != nil {
		t.Fatalf("GetAuthor: %v", err)
	}
	if author != "Ada <ada@example.com>" {
		t.Fatalf("GetAuthor = %q, want %q", author, "Ada <ada@example.com>")
	}
}

func TestGetValueUnknownKey(t *testing.T) {
	chdirTemp(t)
	if _, err := GetValue("bogus.field"); err == nil {
		t.Fatal("expected error for unknown config key")
	}
}
