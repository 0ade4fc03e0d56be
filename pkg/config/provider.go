package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	koanfenv "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
)

// Source identifies which layer a Provider contributes, used only for
// diagnostics (precedence is determined by the order sources are passed
// to Manager.Load, not by Source itself).
type Source int

const (
	SourceDefault Source = iota
	SourceYAML
	SourceEnv
	SourceCLI
)

func (s Source) String() string {
	switch s {
	case SourceDefault:
		return "default"
	case SourceYAML:
		return "yaml"
	case SourceEnv:
		return "env"
	case SourceCLI:
		return "cli"
	default:
		return "unknown"
	}
}

// Provider contributes one layer of configuration data, keyed the same
// way as Config's koanf tags (dotted paths, e.g. "control_plane.base_url").
type Provider interface {
	Load() (map[string]any, error)
	Type() Source
	// Watch notifies onChange when the underlying source changes. Most
	// providers have nothing to watch and return nil immediately.
	Watch(ctx context.Context, onChange func()) error
}

// defaultProvider supplies Default() through koanf's structs provider so
// every Config field is populated before any override is applied.
type defaultProvider struct {
	p *structs.Structs
}

func NewDefaultProvider() Provider {
	return &defaultProvider{p: structs.Provider(Default(), "koanf")}
}

func (d *defaultProvider) Load() (map[string]any, error) { return d.p.Read() }
func (d *defaultProvider) Type() Source                  { return SourceDefault }
func (d *defaultProvider) Watch(context.Context, func()) error { return nil }

// yamlProvider reads an optional ~/.config/n8nctl/config.yaml. A missing
// file is not an error: most installs run on defaults/env/flags alone.
type yamlProvider struct {
	path string
}

func NewYAMLProvider(path string) Provider {
	return &yamlProvider{path: path}
}

func (y *yamlProvider) Load() (map[string]any, error) {
	raw, err := os.ReadFile(y.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("config: read yaml file: %w", err)
	}
	out := map[string]any{}
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("config: parse yaml file: %w", err)
	}
	return out, nil
}

func (y *yamlProvider) Type() Source { return SourceYAML }

func (y *yamlProvider) Watch(context.Context, func()) error { return nil }

// envPrefix is the prefix every recognized environment variable carries.
// A double underscore separates config sections (matching the dotted
// koanf keys), e.g. N8NCTL_CONTROL_PLANE__API_KEY -> control_plane.api_key.
const envPrefix = "N8NCTL_"

type envProvider struct{}

func NewEnvProvider() Provider {
	return &envProvider{}
}

func (e *envProvider) Load() (map[string]any, error) {
	p := koanfenv.Provider(".", koanfenv.Opt{
		Prefix: envPrefix,
		TransformFunc: func(k, v string) (string, any) {
			key := strings.ToLower(strings.TrimPrefix(k, envPrefix))
			key = strings.ReplaceAll(key, "__", ".")
			return key, v
		},
	})
	return p.Read()
}

func (e *envProvider) Type() Source { return SourceEnv }

func (e *envProvider) Watch(context.Context, func()) error { return nil }

// cliProvider maps parsed CLI flags (by long flag name) onto Config's
// dotted key space. Unknown flags are ignored, not errors, since the
// same provider is shared across subcommands with different flag sets.
type cliProvider struct {
	flags map[string]any
}

func NewCLIProvider(flags map[string]any) Provider {
	return &cliProvider{flags: flags}
}

var cliFlagKeys = map[string]string{
	"base-url": "control_plane.base_url",
	"api-key":  "control_plane.api_key",
	"timeout":  "control_plane.timeout",
	"profile":  "validation.profile",
	"json":     "cli.json",
	"debug":    "cli.debug",
	"quiet":    "cli.quiet",
	"no-color": "cli.no_color",
}

func (c *cliProvider) Load() (map[string]any, error) {
	out := map[string]any{}
	for flag, value := range c.flags {
		key, ok := cliFlagKeys[flag]
		if !ok {
			continue
		}
		setDotted(out, key, value)
	}
	return out, nil
}

func (c *cliProvider) Type() Source { return SourceCLI }

func (c *cliProvider) Watch(context.Context, func()) error { return nil }

// setDotted assigns value at a dotted path inside nested maps, creating
// intermediate maps as needed, mirroring how koanf itself flattens keys.
func setDotted(m map[string]any, dotted string, value any) {
	parts := strings.Split(dotted, ".")
	cur := m
	for i, part := range parts {
		if i == len(parts)-1 {
			cur[part] = value
			return
		}
		next, ok := cur[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[part] = next
		}
		cur = next
	}
}
