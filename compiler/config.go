package compiler

import (
	"github.com/BurntSushi/toml"
	"tlog.app/go/errors"

	"github.com/slowlang/jackc/compiler/engine"
)

type (
	// Config is loaded from a jackc.toml file.
	Config struct {
		Out           string         `toml:"out"`
		Jobs          int            `toml:"jobs"`
		AllowRedefine bool           `toml:"allow-redefine"`
		Runtime       engine.Runtime `toml:"runtime"`
	}
)

func DefaultConfig() Config {
	return Config{
		Runtime: engine.DefaultRuntime,
	}
}

// LoadConfig reads name over the defaults.
// Keys the Config does not know are an error.
func LoadConfig(name string) (Config, error) {
	cfg := DefaultConfig()

	md, err := toml.DecodeFile(name, &cfg)
	if err != nil {
		return Config{}, errors.Wrap(err, "decode %v", name)
	}

	if und := md.Undecoded(); len(und) != 0 {
		return Config{}, errors.New("%v: unknown keys: %v", name, und)
	}

	return cfg, nil
}
