package config

import (
	"os"
	"strings"

	"github.com/arthur-debert/fsmerge/pkg/archive"
	"github.com/arthur-debert/fsmerge/pkg/errors"
	"github.com/arthur-debert/fsmerge/pkg/paths"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	gotoml "github.com/pelletier/go-toml/v2"
)

// EnvPrefix prefixes every configuration environment variable
const EnvPrefix = "FSMERGE_"

// Default returns the embedded defaults
func Default() *Config {
	cfg, err := load("", false)
	if err != nil {
		panic("config: embedded defaults are invalid: " + err.Error())
	}
	return cfg
}

// LoadConfiguration layers the embedded defaults, the config file and the
// environment. An empty path means paths.ConfigFile(), which may be
// missing; an explicit path must exist.
func LoadConfiguration(path string) (*Config, error) {
	return load(path, true)
}

func load(path string, external bool) (*Config, error) {
	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to load defaults")
	}

	if external {
		// 2. Config file
		explicit := path != ""
		if !explicit {
			path = paths.ConfigFile()
		}
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to load config from %s", path)
			}
		} else if explicit || !errors.IsNotExist(err) {
			return nil, errors.Wrapf(err, errors.ErrConfigLoad, "cannot read config %s", path)
		}

		// 3. Environment
		err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load env vars")
		}
	}

	// 4. Unmarshal
	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.TextUnmarshallerHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to unmarshal configuration")
	}

	// 5. Post-process
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps FSMERGE_LOG__VERBOSITY to log.verbosity
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Validate normalizes paths and rejects values nothing can act on
func (c *Config) Validate() error {
	if c.Root == "" {
		c.Root = paths.Separator
	}
	if c.DBDir == "" {
		return errors.New(errors.ErrConfigParse, "db_dir must be set")
	}
	comp, err := archive.ParseCompression(c.Archive.Compression)
	if err != nil {
		return errors.Wrap(err, errors.ErrConfigParse, "invalid archive.compression")
	}
	if comp == archive.CompressionBzip2 {
		return errors.New(errors.ErrConfigParse, "archive.compression: bzip2 can only be read")
	}
	if c.Regen.Jobs < 0 {
		return errors.Newf(errors.ErrConfigParse, "regen.jobs must not be negative, got %d", c.Regen.Jobs)
	}
	if c.Log.Verbosity < 0 {
		return errors.Newf(errors.ErrConfigParse, "log.verbosity must not be negative, got %d", c.Log.Verbosity)
	}
	return nil
}

// Dump renders cfg as TOML
func Dump(cfg *Config) (string, error) {
	out, err := gotoml.Marshal(cfg)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrInternal, "failed to render configuration")
	}
	return string(out), nil
}
