package config

import (
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.StorageBackend != BackendFile {
		t.Errorf("expected default backend file, got %s", cfg.StorageBackend)
	}
	if cfg.SuggestDelayMS != 1500 {
		t.Errorf("expected default suggest delay 1500, got %d", cfg.SuggestDelayMS)
	}
	if !cfg.IsDev() {
		t.Error("expected development mode by default")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE_BACKEND", "memory")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.StorageBackend != BackendMemory {
		t.Errorf("expected memory backend, got %s", cfg.StorageBackend)
	}
}

func TestValidate_UnknownBackend(t *testing.T) {
	cfg := &Config{Env: "development", StorageBackend: "redis"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestValidate_PostgresRequiresURL(t *testing.T) {
	cfg := &Config{Env: "development", StorageBackend: BackendPostgres}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing DATABASE_URL")
	}
	cfg.DatabaseURL = "postgres://localhost/clinic"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_MongoRequiresURI(t *testing.T) {
	cfg := &Config{Env: "development", StorageBackend: BackendMongo}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing MONGO_URI")
	}
}

func TestValidate_ProductionRequiresAuth(t *testing.T) {
	cfg := &Config{Env: "production", StorageBackend: BackendFile}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing AUTH_SECRET in production")
	}
	cfg.AuthSecret = "secret"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing DOCTOR_PIN in production")
	}
	cfg.DoctorPIN = "1234"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_NegativeSuggestDelay(t *testing.T) {
	cfg := &Config{Env: "development", StorageBackend: BackendMemory, SuggestDelayMS: -1}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative suggest delay")
	}
}
