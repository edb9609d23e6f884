// Package config loads cmakepatch settings and derives the platform context
// from the environment.
package config

import (
	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigtoml"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// FileName is the optional settings file looked up in the working directory.
const FileName = "cmakepatch.toml"

// Values of the platform signals that mark a restricted (iOS) build.
const (
	RestrictedSystemName   = "iOS"
	RestrictedPlatformName = "iphoneos"
)

// Config describes all configuration options
type Config struct {
	Root     string `default:"." usage:"Source tree to patch"`
	DryRun   bool   `default:"false" usage:"Report changes without writing files"`
	Diff     bool   `default:"false" usage:"Print a unified diff for every changed file"`
	DumpDir  string `usage:"Directory for per-stage snapshots of every transformed file"`
	LogLevel string `default:"info"`
	LogJSON  bool   `default:"false" usage:"Output JSONND instead of pretty console messages"`
}

// Signals holds the raw platform-detection environment variables.
type Signals struct {
	SystemName   string `env:"CMAKE_SYSTEM_NAME"`
	PlatformName string `env:"PLATFORM_NAME"`
}

// Platform is the process-wide platform context. It is computed once before
// any file is transformed and passed around by value.
type Platform struct {
	Restricted bool
}

var logLevels = map[string]zerolog.Level{
	"trace":   zerolog.TraceLevel,
	"debug":   zerolog.DebugLevel,
	"info":    zerolog.InfoLevel,
	"warn":    zerolog.WarnLevel,
	"warning": zerolog.WarnLevel,
	"error":   zerolog.ErrorLevel,
	"fatal":   zerolog.FatalLevel,
}

// Loader initializes an empty config object and returns a new Loader for this object.
// Settings come from defaults, cmakepatch.toml and CMAKEPATCH_* variables.
func Loader() (*Config, *aconfig.Loader) {
	cfg := Config{}
	return &cfg, aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix:        "CMAKEPATCH",
		SkipFlags:        true,
		AllowUnknownEnvs: true,
		Files:            []string{FileName},
		FileDecoders: map[string]aconfig.FileDecoder{
			".toml": aconfigtoml.New(),
		},
	})
}

// signalLoader reads the unprefixed platform signals.
func signalLoader(s *Signals) *aconfig.Loader {
	return aconfig.LoaderFor(s, aconfig.Config{
		SkipDefaults:     true,
		SkipFiles:        true,
		SkipFlags:        true,
		AllowUnknownEnvs: true,
	})
}

// Load reads and validates the settings.
func Load() (*Config, error) {
	cfg, loader := Loader()
	if err := loader.Load(); err != nil {
		return nil, eris.Wrap(err, "failed to load configuration")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadSignals reads CMAKE_SYSTEM_NAME and PLATFORM_NAME from the environment.
func LoadSignals() (Signals, error) {
	var s Signals
	if err := signalLoader(&s).Load(); err != nil {
		return Signals{}, eris.Wrap(err, "failed to read platform signals")
	}
	return s, nil
}

// Validate verifies that all config fields have valid values
func (cfg *Config) Validate() error {
	if cfg.Root == "" {
		return eris.New("Invalid value for root: must not be empty")
	}

	if _, ok := logLevels[cfg.LogLevel]; !ok {
		return eris.Errorf("Invalid value for log level: %s", cfg.LogLevel)
	}

	return nil
}

// Level converts the .LogLevel field to a zerolog.Level
func (cfg *Config) Level() zerolog.Level {
	return logLevels[cfg.LogLevel]
}

// Restricted reports whether either signal names the restricted platform.
func (s Signals) Restricted() bool {
	return s.SystemName == RestrictedSystemName || s.PlatformName == RestrictedPlatformName
}

// Platform derives the platform context from the signals.
func (s Signals) Platform() Platform {
	return Platform{Restricted: s.Restricted()}
}
