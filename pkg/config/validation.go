package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// Struct tags cover declarative checks; rules that depend on the selected
// store type live in validateCustomRules.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	return validateCustomRules(cfg)
}

// validateCustomRules performs validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	if cfg.Store.ProbeAttempts < 1 {
		return fmt.Errorf("store.probe_attempts: must be at least 1")
	}
	if cfg.Store.ProbeInterval < 0 {
		return fmt.Errorf("store.probe_interval: must not be negative")
	}

	if cfg.Store.Type == "remote" {
		if cfg.Store.Root == "" || !strings.HasPrefix(cfg.Store.Root, "/") {
			return fmt.Errorf("store.root: must be an absolute path, got %q", cfg.Store.Root)
		}
		switch cfg.Store.Namespace.Type {
		case "s3", "localfs", "memory":
		default:
			return fmt.Errorf("store.namespace.type: unknown namespace type %q", cfg.Store.Namespace.Type)
		}
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}
