// Package config reads the engine configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/milk9111/scripthost/script"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTPS = 60
	// MaxTPS is the highest accepted frame rate.
	MaxTPS = 1000
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	// TPS is the number of frames per second the loop runs.
	TPS int `yaml:"tps"`
	// Frames stops the headless loop after this many frames; 0 runs until
	// interrupted.
	Frames     uint64       `yaml:"frames"`
	ScriptsDir string       `yaml:"scripts_dir"`
	Watch      bool         `yaml:"watch"`
	Entities   []EntitySpec `yaml:"entities"`
	Invoke     []InvokeSpec `yaml:"invoke"`
}

type EntitySpec struct {
	ID      script.EntityID `yaml:"id"`
	Scripts []string        `yaml:"scripts"`
}

// InvokeSpec is a static command run once after the entities are set up.
type InvokeSpec struct {
	Target string   `yaml:"target"`
	Args   []string `yaml:"args"`
}

// Default returns the configuration used when no file is given: one entity
// running MyFirstScript and a greeting.
func Default() Config {
	return Config{
		TPS: DefaultTPS,
		Entities: []EntitySpec{
			{ID: "E1", Scripts: []string{"MyFirstScript"}},
		},
		Invoke: []InvokeSpec{
			{Target: "ManagedScripts.Greeter.SayHello", Args: []string{"World"}},
		},
	}
}

func Load(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("config: load %s: %w", filename, err)
	}
	return Parse(data)
}

func Parse(data []byte) (Config, error) {
	cfg := Config{TPS: DefaultTPS}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.TPS <= 0 || c.TPS > MaxTPS {
		errs = append(errs, fmt.Errorf("%w: tps must be in 1..%d, got %d", ErrInvalid, MaxTPS, c.TPS))
	}
	seen := map[script.EntityID]bool{}
	for i, e := range c.Entities {
		if strings.TrimSpace(string(e.ID)) == "" {
			errs = append(errs, fmt.Errorf("%w: entities[%d]: empty id", ErrInvalid, i))
			continue
		}
		if seen[e.ID] {
			errs = append(errs, fmt.Errorf("%w: entities[%d]: duplicate id %s", ErrInvalid, i, e.ID))
		}
		seen[e.ID] = true
	}
	for i, inv := range c.Invoke {
		if _, _, ok := script.SplitCommandKey(inv.Target); !ok {
			errs = append(errs, fmt.Errorf("%w: invoke[%d]: target %q is not type.method", ErrInvalid, i, inv.Target))
		}
	}
	return errors.Join(errs...)
}
