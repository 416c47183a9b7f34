// Package config loads burl's runtime settings from the environment and
// command-line flags, reads explicit generator configs from files, and
// builds the process logger.
package config

import (
	"flag"
	"fmt"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/chazu/burl/pkg/buildtree"
)

// Kernels lists the geometry backends the command can run with.
var Kernels = []string{"sdfx", "bounds", "manifold"}

// Settings are the process-wide options. Environment variables supply the
// defaults and flags override them.
type Settings struct {
	LogLevel      string        `env:"BURL_LOG_LEVEL" envDefault:"info"`
	LogFormat     string        `env:"BURL_LOG_FORMAT" envDefault:"text"`
	Timeout       time.Duration `env:"BURL_TIMEOUT" envDefault:"30s"`
	ScriptTimeout time.Duration `env:"BURL_SCRIPT_TIMEOUT" envDefault:"5s"`
	Format        string        `env:"BURL_FORMAT" envDefault:"json"`
	Meshes        bool          `env:"BURL_MESHES" envDefault:"false"`
	BatchLimit    int           `env:"BURL_BATCH_LIMIT" envDefault:"4"`
	Kernel        string        `env:"BURL_KERNEL" envDefault:"sdfx"`
	Scripts       string        `env:"BURL_SCRIPTS"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads Settings from the environment.
func Load() (Settings, error) {
	var s Settings
	if err := ParseEnv(&s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// RegisterFlags binds the settings to fs, using the current values as
// flag defaults.
func (s *Settings) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&s.LogLevel, "log-level", s.LogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&s.LogFormat, "log-format", s.LogFormat, "log format: text or json")
	fs.DurationVar(&s.Timeout, "timeout", s.Timeout, "limit for one generation request (0 for none)")
	fs.DurationVar(&s.ScriptTimeout, "script-timeout", s.ScriptTimeout, "limit for one scripted node (0 for none)")
	fs.StringVar(&s.Format, "format", s.Format, "output format: json, yaml or msgpack")
	fs.BoolVar(&s.Meshes, "meshes", s.Meshes, "attach triangle meshes to the output")
	fs.IntVar(&s.BatchLimit, "batch-limit", s.BatchLimit, "concurrent requests when running several seeds")
	fs.StringVar(&s.Kernel, "kernel", s.Kernel, "geometry kernel: sdfx, bounds or manifold")
	fs.StringVar(&s.Scripts, "scripts", s.Scripts, "directory of generator scripts (*.zy) to load")
}

// ParseFromArgs loads defaults from the environment and then parses flags,
// so flags win.
func ParseFromArgs(fs *flag.FlagSet, args []string) (Settings, error) {
	s, err := Load()
	if err != nil {
		return Settings{}, err
	}
	s.RegisterFlags(fs)
	if args == nil {
		args = []string{}
	}
	if err := fs.Parse(args); err != nil {
		return Settings{}, err
	}
	return s, s.Validate()
}

// Validate checks that every setting names something that exists.
func (s Settings) Validate() error {
	if _, err := ParseLevel(s.LogLevel); err != nil {
		return err
	}
	if s.LogFormat != "text" && s.LogFormat != "json" {
		return fmt.Errorf("config: unknown log format %q", s.LogFormat)
	}
	if _, err := buildtree.ParseFormat(s.Format); err != nil {
		return err
	}
	if !slices.Contains(Kernels, s.Kernel) {
		return fmt.Errorf("config: unknown kernel %q (want one of %v)", s.Kernel, Kernels)
	}
	if s.BatchLimit < 1 {
		return fmt.Errorf("config: batch limit must be at least 1, got %d", s.BatchLimit)
	}
	if s.Timeout < 0 || s.ScriptTimeout < 0 {
		return fmt.Errorf("config: timeouts cannot be negative")
	}
	return nil
}
