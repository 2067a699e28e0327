package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ParseEnv loads configuration from environment variables. Every invalid
// variable is reported, not only the first.
func ParseEnv(target any) error {
	err := env.Parse(target)
	if err == nil {
		return nil
	}
	var agg env.AggregateError
	if errors.As(err, &agg) && len(agg.Errors) > 0 {
		return fmt.Errorf("parse env: %w", errors.Join(agg.Errors...))
	}
	return fmt.Errorf("parse env: %w", err)
}
