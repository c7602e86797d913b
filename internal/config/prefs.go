package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// PrefStore is a small persisted key-value store for UI preferences such as
// page sizes. It lives in its own prefs.yaml so preference writes never
// touch the user's hand-edited config file. Set writes through to disk on a
// best-effort basis.
type PrefStore struct {
	v    *viper.Viper
	path string
}

// NewPrefStore loads (or creates) the preference store in dir.
func NewPrefStore(dir string) (*PrefStore, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	path := filepath.Join(dir, "prefs.yaml")
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, err
			}
		}
	}

	return &PrefStore{v: v, path: path}, nil
}

// Prefs returns the preference store in the app config directory. The
// config package must be initialized first.
func Prefs() (*PrefStore, error) {
	return NewPrefStore(GetDirs().Config)
}

func (p *PrefStore) Get(key string) (string, bool) {
	if !p.v.IsSet(key) {
		return "", false
	}
	return p.v.GetString(key), true
}

func (p *PrefStore) Set(key, value string) {
	p.v.Set(key, value)
	_ = p.v.WriteConfigAs(p.path)
}
