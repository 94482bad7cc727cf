// Package config loads runtime settings from an optional YAML file and
// SYMFN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g. SYMFN_LOGGER_LEVEL.
const EnvPrefix = "SYMFN"

// Config is the complete runtime configuration.
type Config struct {
	Logger   *Logger
	JIT      *JIT
	Parallel *Parallel
	Viper    *viper.Viper
}

// Logger configures the process-wide logger.
type Logger struct {
	Level  string // logrus level name: panic, fatal, error, warn, info, debug, trace
	Format string // "text" or "json"
	Output string // "stdout" or "stderr"
}

// JIT configures the compilation cache.
type JIT struct {
	Enabled bool // compile expressions; false evaluates with the interpreter only
	Hoist   bool // hoist constant subexpressions into cache slots
}

// Parallel configures batch evaluation.
type Parallel struct {
	Enabled      bool
	NumWorkers   int
	MinChunkSize int
}

// setDefaults registers every key so that environment overrides apply even
// without a config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "warn")
	v.SetDefault("logger.format", "text")
	v.SetDefault("logger.output", "stderr")
	v.SetDefault("jit.enabled", true)
	v.SetDefault("jit.hoist", true)
	v.SetDefault("parallel.enabled", runtime.NumCPU() > 1)
	v.SetDefault("parallel.num_workers", runtime.NumCPU())
	v.SetDefault("parallel.min_chunk_size", 64)
}

// Load reads the configuration. An empty path uses defaults and the
// environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("error reading config %s: %w", path, err)
		}
	}

	cfg := &Config{
		Logger:   getLoggerConfig(v),
		JIT:      getJITConfig(v),
		Parallel: getParallelConfig(v),
		Viper:    v,
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration with no file and no environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	return &Config{
		Logger:   getLoggerConfig(v),
		JIT:      getJITConfig(v),
		Parallel: getParallelConfig(v),
		Viper:    v,
	}
}

func getLoggerConfig(v *viper.Viper) *Logger {
	return &Logger{
		Level:  v.GetString("logger.level"),
		Format: v.GetString("logger.format"),
		Output: v.GetString("logger.output"),
	}
}

func getJITConfig(v *viper.Viper) *JIT {
	return &JIT{
		Enabled: v.GetBool("jit.enabled"),
		Hoist:   v.GetBool("jit.hoist"),
	}
}

func getParallelConfig(v *viper.Viper) *Parallel {
	return &Parallel{
		Enabled:      v.GetBool("parallel.enabled"),
		NumWorkers:   v.GetInt("parallel.num_workers"),
		MinChunkSize: v.GetInt("parallel.min_chunk_size"),
	}
}

func (c *Config) validate() error {
	switch c.Logger.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: logger.format must be text or json, got %q", c.Logger.Format)
	}
	switch c.Logger.Output {
	case "stdout", "stderr":
	default:
		return fmt.Errorf("config: logger.output must be stdout or stderr, got %q", c.Logger.Output)
	}
	if c.Parallel.NumWorkers < 1 {
		return fmt.Errorf("config: parallel.num_workers must be positive, got %d", c.Parallel.NumWorkers)
	}
	if c.Parallel.MinChunkSize < 1 {
		return fmt.Errorf("config: parallel.min_chunk_size must be positive, got %d", c.Parallel.MinChunkSize)
	}
	return nil
}
