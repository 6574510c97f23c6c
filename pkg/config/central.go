package config

import (
	"time"
)

// Config is the complete fsmerge configuration
type Config struct {
	Root    string  `koanf:"root" toml:"root"`
	DBDir   string  `koanf:"db_dir" toml:"db_dir"`
	Engine  Engine  `koanf:"engine" toml:"engine"`
	Archive Archive `koanf:"archive" toml:"archive"`
	Log     Log     `koanf:"log" toml:"log"`

	Ldconfig Ldconfig `koanf:"ldconfig" toml:"ldconfig"`
	Info     Info     `koanf:"info" toml:"info"`
	Perms    Perms    `koanf:"perms" toml:"perms"`
	Prune    Prune    `koanf:"prune" toml:"prune"`
	Regen    Regen    `koanf:"regen" toml:"regen"`
}

// Engine holds trigger engine settings
type Engine struct {
	AbortOnMissingChangeset bool `koanf:"abort_on_missing_changeset" toml:"abort_on_missing_changeset"`
}

// Archive holds archive writing settings
type Archive struct {
	Compression   string `koanf:"compression" toml:"compression"`
	AbsolutePaths bool   `koanf:"absolute_paths" toml:"absolute_paths"`
}

// Log holds logging settings
type Log struct {
	Verbosity  int    `koanf:"verbosity" toml:"verbosity"`
	File       string `koanf:"file" toml:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb" toml:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups" toml:"max_backups"`
	NoColor    bool   `koanf:"no_color" toml:"no_color"`
}

// Ldconfig configures the linker cache trigger
type Ldconfig struct {
	Enabled  bool   `koanf:"enabled" toml:"enabled"`
	Binary   string `koanf:"binary" toml:"binary"`
	ConfPath string `koanf:"conf_path" toml:"conf_path"`
}

// Info configures the info index trigger
type Info struct {
	Enabled   bool     `koanf:"enabled" toml:"enabled"`
	Binary    string   `koanf:"binary" toml:"binary"`
	Locations []string `koanf:"locations" toml:"locations"`
}

// Perms configures the ownership and permission triggers
type Perms struct {
	FixOwnership        bool `koanf:"fix_ownership" toml:"fix_ownership"`
	BadUID              int  `koanf:"bad_uid" toml:"bad_uid"`
	GoodUID             int  `koanf:"good_uid" toml:"good_uid"`
	BadGID              int  `koanf:"bad_gid" toml:"bad_gid"`
	GoodGID             int  `koanf:"good_gid" toml:"good_gid"`
	StripSetBits        bool `koanf:"strip_set_bits" toml:"strip_set_bits"`
	ReportWorldWritable bool `koanf:"report_world_writable" toml:"report_world_writable"`
	StripWorldWritable  bool `koanf:"strip_world_writable" toml:"strip_world_writable"`
}

// Prune configures payload pruning
type Prune struct {
	Patterns []string `koanf:"patterns" toml:"patterns"`
}

// Regen configures bulk regeneration
type Regen struct {
	Jobs         int      `koanf:"jobs" toml:"jobs"`
	PollInterval Duration `koanf:"poll_interval" toml:"poll_interval"`
}

// Duration is a time.Duration spelled like "250ms" in TOML
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}
