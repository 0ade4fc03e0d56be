package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/knadh/koanf/v2"
)

// Service merges an ordered list of Providers into a single Config using
// koanf. Later providers in the list win over earlier ones for any key
// they both set.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

// mapProvider adapts a plain map[string]any into koanf.Provider so
// Service can hand every Provider's output to the same koanf.Koanf
// instance regardless of how that provider produced its data.
type mapProvider struct {
	data map[string]any
}

func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("config: mapProvider does not support ReadBytes")
}

func (m mapProvider) Read() (map[string]any, error) {
	return m.data, nil
}

// Load merges providers in order and unmarshals the result into a Config.
// A nil entry in providers is skipped so callers can build the list
// conditionally without filtering it first.
func (s *Service) Load(ctx context.Context, providers ...Provider) (*Config, error) {
	k := koanf.New(".")
	for _, p := range providers {
		if p == nil {
			continue
		}
		data, err := p.Load()
		if err != nil {
			return nil, fmt.Errorf("config: failed to load from source %s: %w", p.Type(), err)
		}
		if err := k.Load(mapProvider{data: data}, nil); err != nil {
			return nil, fmt.Errorf("config: failed to merge source %s: %w", p.Type(), err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	_ = ctx
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.ControlPlane.BaseURL == "" {
		return errors.New("control_plane.base_url must not be empty")
	}
	switch cfg.Validation.Profile {
	case "minimal", "runtime", "ai-friendly", "strict":
	default:
		return fmt.Errorf("validation.profile %q is not one of minimal|runtime|ai-friendly|strict", cfg.Validation.Profile)
	}
	return nil
}
