package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	homedir "github.com/mitchellh/go-homedir"

	"github.com/blackwell-systems/dumbinstall/internal/errors"
	"github.com/blackwell-systems/dumbinstall/internal/logging"
)

// EnvPrefix is the prefix of environment variables overriding settings.
const EnvPrefix = "DUMBINSTALL_"

// Settings is the tool configuration after all layers are merged.
type Settings struct {
	InstallRoot  string `koanf:"install_root"`
	BinDir       string `koanf:"bin_dir"`
	GitHost      string `koanf:"git_host"`
	RequireRoot  bool   `koanf:"require_root"`
	RegistryPath string `koanf:"registry_path"`
	LockDir      string `koanf:"lock_dir"`
}

// LoadOptions selects the optional layers.
type LoadOptions struct {
	// ConfigFile overrides the default settings file. An explicit file must
	// exist; the default one is optional.
	ConfigFile string

	// User selects the per-user layout defaults.
	User bool
}

// Dir returns the dumbinstall config directory, respecting XDG_CONFIG_HOME.
func Dir() string {
	return filepath.Join(xdg.ConfigHome, "dumbinstall")
}

// StateDir holds the registry, locks and log file.
func StateDir() string {
	return filepath.Join(xdg.StateHome, "dumbinstall")
}

// Defaults returns the built-in settings layer.
func Defaults(user bool) map[string]interface{} {
	m := map[string]interface{}{
		"install_root":  "/opt/dumb_builds",
		"bin_dir":       "/usr/local/bin",
		"git_host":      "github.com",
		"require_root":  true,
		"registry_path": filepath.Join(StateDir(), "registry.db"),
		"lock_dir":      filepath.Join(StateDir(), "locks"),
	}
	if user {
		m["install_root"] = filepath.Join(xdg.DataHome, "dumb_builds")
		m["bin_dir"] = "~/.local/bin"
		m["require_root"] = false
	}
	return m
}

// LoadSettings merges, lowest precedence first: built-in defaults, the TOML
// settings file, then DUMBINSTALL_* environment variables.
func LoadSettings(opts LoadOptions) (*Settings, error) {
	logger := logging.GetLogger("config")
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(opts.User), "."), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfiguration, "failed to load defaults")
	}

	path := opts.ConfigFile
	explicit := path != ""
	if !explicit {
		path = filepath.Join(Dir(), "config.toml")
	} else if expanded, err := homedir.Expand(path); err == nil {
		path = expanded
	}

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfiguration, "failed to load settings from %s", path)
		}
		logger.Debug().Str("path", path).Msg("Loaded settings file")
	} else if explicit {
		return nil, errors.Newf(errors.ErrConfiguration, "settings file %s not found", path)
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfiguration, "failed to load environment")
	}

	var s Settings
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &s,
			WeaklyTypedInput: true,
		},
	}
	if err := k.UnmarshalWithConf("", &s, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfiguration, "failed to decode settings")
	}

	if err := s.normalize(); err != nil {
		return nil, err
	}

	logger.Debug().
		Str("install_root", s.InstallRoot).
		Str("bin_dir", s.BinDir).
		Bool("require_root", s.RequireRoot).
		Msg("Settings resolved")
	return &s, nil
}

// normalize expands ~ and makes every path absolute.
func (s *Settings) normalize() error {
	for _, p := range []*string{&s.InstallRoot, &s.BinDir, &s.RegistryPath, &s.LockDir} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return errors.Wrapf(err, errors.ErrConfiguration, "expand %s", *p)
		}
		if expanded == "" {
			return errors.New(errors.ErrConfiguration, "settings paths must not be empty")
		}
		abs, err := filepath.Abs(expanded)
		if err != nil {
			return errors.Wrapf(err, errors.ErrConfiguration, "resolve %s", expanded)
		}
		*p = abs
	}
	if s.GitHost == "" {
		s.GitHost = "github.com"
	}
	return nil
}
