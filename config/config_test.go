package config

import (
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"ENV", "STORE_DRIVER", "JWT_SECRET", "TOKEN_TTL", "DEFAULT_COMMISSION_RATE", "KAFKA_BROKERS", "REDIS_ADDR"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.StoreDriver != StoreFile {
		t.Fatalf("expected file store by default, got %q", cfg.StoreDriver)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Fatalf("expected 24h token ttl, got %v", cfg.TokenTTL)
	}
	if cfg.DefaultCommissionRate != 15 {
		t.Fatalf("expected default commission rate 15, got %v", cfg.DefaultCommissionRate)
	}
	if len(cfg.KafkaBrokers) != 0 {
		t.Fatalf("expected no kafka brokers, got %v", cfg.KafkaBrokers)
	}
	if cfg.IsProduction() {
		t.Fatal("expected development environment by default")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("DEFAULT_COMMISSION_RATE", "12.5")
	t.Setenv("STORE_DRIVER", StoreMySQL)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[0] != "a:9092" || cfg.KafkaBrokers[1] != "b:9092" {
		t.Fatalf("unexpected brokers %q", cfg.KafkaBrokers)
	}
	if cfg.TokenTTL != 2*time.Hour || cfg.DefaultCommissionRate != 12.5 || cfg.StoreDriver != StoreMySQL {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown store driver", env: map[string]string{"STORE_DRIVER": "postgres"}},
		{name: "production without secret", env: map[string]string{"ENV": "production"}},
		{name: "commission rate above 100", env: map[string]string{"DEFAULT_COMMISSION_RATE": "150"}},
		{name: "negative commission rate", env: map[string]string{"DEFAULT_COMMISSION_RATE": "-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			for key, value := range tt.env {
				t.Setenv(key, value)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := splitList([]string{"a, b", "", " c "})
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("unexpected split result %q", got)
	}
}
