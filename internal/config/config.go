// Package config resolves toolbelt settings from defaults, an optional
// .toolbelt.yaml, TOOLBELT_* environment variables and command flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix  = "TOOLBELT"
	ConfigName = ".toolbelt"

	KeyOutputDir        = "output_dir"
	KeyMaxBytes         = "max_bytes"
	KeyWorkers          = "workers"
	KeyLogLevel         = "log_level"
	KeyLinkTimeout      = "link_timeout"
	KeyRespectGitignore = "respect_gitignore"
	KeyExclude          = "exclude"
	KeyTokenizer        = "tokenizer"
	KeyTokenizerModel   = "tokenizer_model"
)

// Config holds the settings shared by every command.
type Config struct {
	OutputDir        string
	MaxBytes         int64
	Workers          int
	LogLevel         string
	LinkTimeout      time.Duration
	RespectGitignore bool
	Exclude          []string
	Tokenizer        string
	TokenizerModel   string

	// File is the config file that was read, empty when none was found.
	File string
}

// flagKeys maps persistent flag names to config keys.
var flagKeys = map[string]string{
	"output-dir":        KeyOutputDir,
	"max-bytes":         KeyMaxBytes,
	"workers":           KeyWorkers,
	"log-level":         KeyLogLevel,
	"link-timeout":      KeyLinkTimeout,
	"respect-gitignore": KeyRespectGitignore,
	"exclude":           KeyExclude,
	"tokenizer":         KeyTokenizer,
	"tokenizer-model":   KeyTokenizerModel,
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyOutputDir, "context_out")
	v.SetDefault(KeyMaxBytes, 2_000_000)
	v.SetDefault(KeyWorkers, runtime.NumCPU())
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLinkTimeout, 5*time.Second)
	v.SetDefault(KeyRespectGitignore, false)
	v.SetDefault(KeyExclude, []string{})
	v.SetDefault(KeyTokenizer, "heuristic")
	v.SetDefault(KeyTokenizerModel, "")
}

// RegisterFlags adds the shared persistent flags to fs. Flag defaults are
// zero values so that unset flags never shadow file or env settings.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Config file (default: ./.toolbelt.yaml or ~/.config/toolbelt/.toolbelt.yaml)")
	fs.String("output-dir", "", "Directory for reports (default: context_out)")
	fs.Int64("max-bytes", 0, "Skip files larger than this many bytes (default: 2000000)")
	fs.Int("workers", 0, "Concurrent file workers (default: number of CPUs)")
	fs.String("log-level", "", "Log level: trace|debug|info|warn|error")
	fs.Duration("link-timeout", 0, "Per-request timeout for link checks (default: 5s)")
	fs.Bool("respect-gitignore", false, "Also skip paths matched by the root .gitignore")
	fs.StringSlice("exclude", nil, "Extra ignore patterns (gitignore syntax)")
	fs.String("tokenizer", "", "Token counter: heuristic|tiktoken")
	fs.String("tokenizer-model", "", "Model used to pick the tiktoken encoding")
}

// Load resolves the configuration. A .env file in the working directory is
// loaded into the environment first when present. fs may be nil.
func Load(v *viper.Viper, fs *pflag.FlagSet) (Config, error) {
	_ = godotenv.Load()

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			flag := fs.Lookup(name)
			if flag == nil || !flag.Changed {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return Config{}, fmt.Errorf("failed to bind --%s: %w", name, err)
			}
		}
	}

	file := ""
	if fs != nil {
		if flag := fs.Lookup("config"); flag != nil {
			file = strings.TrimSpace(flag.Value.String())
		}
	}
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "toolbelt"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := Config{
		OutputDir:        strings.TrimSpace(v.GetString(KeyOutputDir)),
		MaxBytes:         v.GetInt64(KeyMaxBytes),
		Workers:          v.GetInt(KeyWorkers),
		LogLevel:         v.GetString(KeyLogLevel),
		LinkTimeout:      v.GetDuration(KeyLinkTimeout),
		RespectGitignore: v.GetBool(KeyRespectGitignore),
		Exclude:          v.GetStringSlice(KeyExclude),
		Tokenizer:        strings.ToLower(strings.TrimSpace(v.GetString(KeyTokenizer))),
		TokenizerModel:   strings.TrimSpace(v.GetString(KeyTokenizerModel)),
		File:             v.ConfigFileUsed(),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings no command can work with.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("%s must not be empty", KeyOutputDir)
	}
	if c.MaxBytes <= 0 {
		return fmt.Errorf("%s must be positive, got %d", KeyMaxBytes, c.MaxBytes)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%s must not be negative, got %d", KeyWorkers, c.Workers)
	}
	if c.LinkTimeout <= 0 {
		return fmt.Errorf("%s must be positive, got %s", KeyLinkTimeout, c.LinkTimeout)
	}
	switch c.Tokenizer {
	case "heuristic", "tiktoken":
	default:
		return fmt.Errorf("unsupported %s %q (supported: heuristic, tiktoken)", KeyTokenizer, c.Tokenizer)
	}
	return nil
}
