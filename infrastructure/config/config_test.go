package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/jessevdk/go-flags"
)

func TestResolve(t *testing.T) {
	cfgFlags := DefaultFlags()
	cfgFlags.AppDir = "/tmp/kvstore-app/../kvstore-app"
	cfg, err := cfgFlags.Resolve()
	if err != nil {
		t.Fatalf("TestResolve: Resolve unexpectedly failed: %s", err)
	}
	if cfg.DataDir != "/tmp/kvstore-app/data" {
		t.Fatalf("TestResolve: wrong data dir %s", cfg.DataDir)
	}
	if cfg.LogFile != "/tmp/kvstore-app/logs/kvstore.log" {
		t.Fatalf("TestResolve: wrong log file %s", cfg.LogFile)
	}
	if cfg.ErrLogFile != "/tmp/kvstore-app/logs/kvstore_err.log" {
		t.Fatalf("TestResolve: wrong error log file %s", cfg.ErrLogFile)
	}

	explicit := DefaultFlags()
	explicit.DataDir = "/srv/data"
	explicit.LogDir = "/var/log/kvstore"
	cfg, err = explicit.Resolve()
	if err != nil {
		t.Fatalf("TestResolve: Resolve unexpectedly failed: %s", err)
	}
	if cfg.DataDir != "/srv/data" || cfg.LogDir != "/var/log/kvstore" {
		t.Fatalf("TestResolve: explicit directories were replaced: %s, %s", cfg.DataDir, cfg.LogDir)
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(cfgFlags *Flags)
	}{
		{"unknown backend", func(cfgFlags *Flags) { cfgFlags.Backend = "sqlite" }},
		{"empty bundle", func(cfgFlags *Flags) { cfgFlags.BundleName = "" }},
		{"zero cache", func(cfgFlags *Flags) { cfgFlags.LDBCacheMiB = 0 }},
	}
	for _, test := range tests {
		cfgFlags := DefaultFlags()
		test.modify(cfgFlags)
		_, err := cfgFlags.Resolve()
		if err == nil {
			t.Fatalf("TestResolveErrors: %s: Resolve unexpectedly succeeded", test.name)
		}
	}
}

func TestLoadConfigFile(t *testing.T) {
	appDir, err := ioutil.TempDir("", "TestLoadConfigFile")
	if err != nil {
		t.Fatalf("TestLoadConfigFile: TempDir unexpectedly failed: %s", err)
	}
	defer os.RemoveAll(appDir)

	// A missing default config file is not an error
	cfgFlags := DefaultFlags()
	cfgFlags.AppDir = appDir
	parser := flags.NewParser(cfgFlags, flags.Default)
	err = LoadConfigFile(parser, cfgFlags)
	if err != nil {
		t.Fatalf("TestLoadConfigFile: LoadConfigFile unexpectedly failed: %s", err)
	}

	contents := "[Application Options]\nbackend=boltdb\nbundle=from_file\n"
	err = ioutil.WriteFile(filepath.Join(appDir, defaultConfigFilename), []byte(contents), 0600)
	if err != nil {
		t.Fatalf("TestLoadConfigFile: WriteFile unexpectedly failed: %s", err)
	}
	err = LoadConfigFile(parser, cfgFlags)
	if err != nil {
		t.Fatalf("TestLoadConfigFile: LoadConfigFile unexpectedly failed: %s", err)
	}
	if cfgFlags.Backend != "boltdb" || cfgFlags.BundleName != "from_file" {
		t.Fatalf("TestLoadConfigFile: file options were not applied: %s, %s",
			cfgFlags.Backend, cfgFlags.BundleName)
	}

	missing := DefaultFlags()
	missing.ConfigFile = filepath.Join(appDir, "missing.conf")
	err = LoadConfigFile(flags.NewParser(missing, flags.Default), missing)
	if err == nil {
		t.Fatalf("TestLoadConfigFile: a missing explicit config file was accepted")
	}
}

func TestCleanAndExpandPath(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("TestCleanAndExpandPath: no home directory: %s", err)
	}
	os.Setenv("KVSTORE_TEST_DIR", "/opt/kvstore")
	defer os.Unsetenv("KVSTORE_TEST_DIR")

	tests := []struct {
		path     string
		expected string
	}{
		{"~/data", filepath.Join(homeDir, "data")},
		{"$KVSTORE_TEST_DIR/data", "/opt/kvstore/data"},
		{"/a/b/../c/", "/a/c"},
	}
	for _, test := range tests {
		result := CleanAndExpandPath(test.path)
		if result != test.expected {
			t.Fatalf("TestCleanAndExpandPath: %s expanded to %s, want %s",
				test.path, result, test.expected)
		}
	}
}
