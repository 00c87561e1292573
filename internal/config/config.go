// Package config loads host settings from .env, an optional config file and
// ZITAREV_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/justyntemme/zitarev/pkg/dsp/gain"
	"github.com/justyntemme/zitarev/pkg/framework/engine"
)

// EnvPrefix is prepended to every environment override, e.g. ZITAREV_SAMPLERATE.
const EnvPrefix = "ZITAREV"

// ErrInvalid is returned for settings outside their valid range.
var ErrInvalid = errors.New("config: invalid value")

// Config holds the settings of one host run.
type Config struct {
	LogLevel   string
	LogFile    string
	SampleRate float64
	BlockSize  int
	// OutputGain is linear. The "outputgaindb" key, when set, takes
	// precedence over "outputgain".
	OutputGain float64
	Crossover  float64
	// Params holds parameter overrides keyed by id. Ids without an
	// override are absent.
	Params map[string]float64
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("loglevel", "info")
	v.SetDefault("logfile", "")
	v.SetDefault("samplerate", 48000)
	v.SetDefault("blocksize", 512)
	v.SetDefault("outputgain", 2.0)
	v.SetDefault("crossover", 200.0)
}

// Load reads configuration for the given parameter ids.
//
// A missing .env or config file is tolerated; a malformed one is an error.
// An empty path skips the config file.
func Load(path string, paramIDs []string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
			slog.Info("no config file found", "configFilePath", path)
		}
	}

	return fromViper(v, paramIDs)
}

func fromViper(v *viper.Viper, paramIDs []string) (*Config, error) {
	cfg := &Config{
		LogLevel:   v.GetString("loglevel"),
		LogFile:    v.GetString("logfile"),
		SampleRate: v.GetFloat64("samplerate"),
		BlockSize:  v.GetInt("blocksize"),
		OutputGain: v.GetFloat64("outputgain"),
		Crossover:  v.GetFloat64("crossover"),
		Params:     make(map[string]float64),
	}
	if v.IsSet("outputgaindb") {
		cfg.OutputGain = float64(gain.CompensationDb(v.GetFloat64("outputgaindb")))
	}

	if !(cfg.SampleRate >= engine.MinSampleRate) {
		return nil, fmt.Errorf("%w: samplerate %v", ErrInvalid, cfg.SampleRate)
	}
	if cfg.BlockSize <= 0 {
		return nil, fmt.Errorf("%w: blocksize %d", ErrInvalid, cfg.BlockSize)
	}
	if !(cfg.OutputGain > 0) {
		return nil, fmt.Errorf("%w: outputgain %v", ErrInvalid, cfg.OutputGain)
	}
	if !(cfg.Crossover > 0) {
		return nil, fmt.Errorf("%w: crossover %v", ErrInvalid, cfg.Crossover)
	}

	for _, id := range paramIDs {
		key := "params." + id
		if !v.IsSet(key) {
			continue
		}
		value, err := cast.ToFloat64E(v.Get(key))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, key, err)
		}
		cfg.Params[id] = value
	}
	return cfg, nil
}
