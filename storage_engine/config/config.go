// Package config holds the buffer pool's construction options. Per
// spec.md §6, pool_size and file_path are the only recognized options —
// there is no broader configuration surface here to invent.
package config

import (
	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// Options are the construction parameters for a BufferPoolManager.
type Options struct {
	PoolSize int    `toml:"pool_size"`
	FilePath string `toml:"file_path"`
}

// Load reads Options from a TOML file at path. Used when pool_size and
// file_path are externalized instead of passed directly to the
// constructor; calling bufferpool.New(poolSize, filePath) directly remains
// the primary path spec.md describes.
func Load(path string) (Options, error) {
	tree, err := toml.LoadFile(path)
	if err != nil {
		return Options{}, errors.Wrapf(err, "load config %q", path)
	}

	var opts Options
	if err := tree.Unmarshal(&opts); err != nil {
		return Options{}, errors.Wrapf(err, "unmarshal config %q", path)
	}
	return opts, nil
}
