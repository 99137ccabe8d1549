package validation

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestConfigValidator_CollectsEveryProblem(t *testing.T) {
	err := NewConfigValidator("cfg").
		Required("addr", "").
		MinInt("retention_days", 0, 1).
		PositiveDuration("token_ttl", 0).
		OneOf("env", "staging", []string{"development", "production"}).
		Validate()
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, want := range []string{"cfg.addr", "cfg.retention_days", "cfg.token_ttl", `"staging"`} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestConfigValidator_ValidPasses(t *testing.T) {
	cv := NewConfigValidator("cfg").
		Required("addr", ":8080").
		MinInt("retention_days", 30, 1).
		PositiveDuration("token_ttl", time.Hour).
		OneOf("env", "production", []string{"development", "production"})
	if err := cv.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cv.Errors()) != 0 {
		t.Fatalf("Errors() = %v", cv.Errors())
	}
}

func TestConfigValidator_CustomKeepsSentinel(t *testing.T) {
	sentinel := errors.New("secret missing")
	err := NewConfigValidator("cfg").
		Custom("auth.jwt_secret", func() error { return sentinel }).
		Validate()
	if !errors.Is(err, sentinel) {
		t.Fatalf("errors.Is lost the sentinel: %v", err)
	}
}

func TestConfigValidator_When(t *testing.T) {
	ran := false
	NewConfigValidator("cfg").When(false, func(*ConfigValidator) { ran = true })
	if ran {
		t.Fatal("When(false) ran its validations")
	}
	err := NewConfigValidator("cfg").
		When(true, func(cv *ConfigValidator) { cv.Required("s3_bucket", "") }).
		Validate()
	if err == nil {
		t.Fatal("When(true) skipped its validations")
	}
}
