package config

import (
	"errors"
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	os.Unsetenv("ENV")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// Check defaults
	if cfg.Env != "development" {
		t.Errorf("Expected Env to be development, got %s", cfg.Env)
	}

	if cfg.APIPort != "8089" {
		t.Errorf("Expected APIPort to be 8089, got %s", cfg.APIPort)
	}

	if cfg.Naver.ChartURL != "https://fchart.stock.naver.com" {
		t.Errorf("Expected default chart URL, got %s", cfg.Naver.ChartURL)
	}

	if cfg.Database.Enabled() {
		t.Error("Expected database to be disabled without DATABASE_URL")
	}
}

func TestLoadWithCustomValues(t *testing.T) {
	os.Setenv("ENV", "production")
	os.Setenv("LOG_LEVEL", "warn")
	os.Setenv("TELEGRAM_BOT_TOKEN", "token")
	os.Setenv("TELEGRAM_CHAT_ID", "42")
	os.Setenv("INFERENCE_URL", "http://localhost:11434/v1/chat/completions")
	os.Setenv("DB_MAX_CONNS", "9")

	defer func() {
		os.Unsetenv("ENV")
		os.Unsetenv("LOG_LEVEL")
		os.Unsetenv("TELEGRAM_BOT_TOKEN")
		os.Unsetenv("TELEGRAM_CHAT_ID")
		os.Unsetenv("INFERENCE_URL")
		os.Unsetenv("DB_MAX_CONNS")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Env != "production" {
		t.Errorf("Expected Env to be production, got %s", cfg.Env)
	}

	if cfg.LogLevel != "warn" {
		t.Errorf("Expected LogLevel to be warn, got %s", cfg.LogLevel)
	}

	if !cfg.Inference.Enabled() {
		t.Error("Expected inference to be enabled")
	}

	if cfg.Database.MaxConns != 9 {
		t.Errorf("Expected DB MaxConns to be 9, got %d", cfg.Database.MaxConns)
	}

	if err := cfg.RequireDelivery(); err != nil {
		t.Errorf("Expected delivery credentials to validate, got %v", err)
	}
}

func TestValidateInvalidEnv(t *testing.T) {
	os.Setenv("ENV", "invalid")
	defer os.Unsetenv("ENV")

	_, err := Load()
	if err == nil {
		t.Fatal("Expected error when ENV is invalid, got nil")
	}
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("Expected ErrConfiguration, got %v", err)
	}
}

func TestRequireDelivery(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"missing token", Config{Telegram: TelegramConfig{ChatID: "1"}}, true},
		{"missing chat", Config{Telegram: TelegramConfig{BotToken: "t"}}, true},
		{"complete", Config{Telegram: TelegramConfig{BotToken: "t", ChatID: "1"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.RequireDelivery()
			if (err != nil) != tt.wantErr {
				t.Errorf("RequireDelivery() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrConfiguration) {
				t.Errorf("Expected ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	os.Setenv("TEST_DURATION", "2h")
	defer os.Unsetenv("TEST_DURATION")

	duration := getEnvAsDuration("TEST_DURATION", "1h")
	expected := 2 * time.Hour

	if duration != expected {
		t.Errorf("Expected duration to be %v, got %v", expected, duration)
	}
}

func TestGetEnvAsInt(t *testing.T) {
	os.Setenv("TEST_INT", "not-a-number")
	defer os.Unsetenv("TEST_INT")

	value := getEnvAsInt("TEST_INT", 50)
	if value != 50 {
		t.Errorf("Expected fallback 50, got %d", value)
	}
}

func TestGetEnvAsBool(t *testing.T) {
	os.Setenv("TEST_BOOL", "true")
	defer os.Unsetenv("TEST_BOOL")

	value := getEnvAsBool("TEST_BOOL", false)
	if value != true {
		t.Errorf("Expected value to be true, got %v", value)
	}
}
