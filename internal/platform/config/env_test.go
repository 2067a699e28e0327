package config

import (
	"strings"
	"testing"
)

type envTestConfig struct {
	Port int `env:"AMBER_TEST_PORT" envDefault:"123"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 123 {
		t.Fatalf("expected default port 123, got %d", cfg.Port)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("AMBER_TEST_PORT", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestParseEnvReportsEveryInvalidVariable(t *testing.T) {
	var cfg struct {
		Port    int  `env:"AMBER_TEST_PORT"`
		Verbose bool `env:"AMBER_TEST_VERBOSE"`
	}
	t.Setenv("AMBER_TEST_PORT", "x")
	t.Setenv("AMBER_TEST_VERBOSE", "maybe")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	for _, name := range []string{"Port", "Verbose"} {
		if !strings.Contains(err.Error(), name) {
			t.Fatalf("expected %s in %v", name, err)
		}
	}
}
