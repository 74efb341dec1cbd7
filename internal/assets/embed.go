// Package assets embeds the files shipped inside the voxflow binary: the
// configuration schema, the default configuration and the model registry.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed data/*
var dataFS embed.FS

// FS is rooted at the data directory.
var FS, _ = fs.Sub(dataFS, "data")

// ConfigSchema returns the JSON Schema for the configuration file.
func ConfigSchema() []byte { return mustRead("config.schema.json") }

// DefaultConfig returns the configuration written by `voxflow init`.
func DefaultConfig() []byte { return mustRead("default-config.json") }

// Models returns the model capability registry.
func Models() []byte { return mustRead("models.json") }

func mustRead(name string) []byte {
	data, err := fs.ReadFile(FS, name)
	if err != nil {
		panic("assets: " + err.Error())
	}
	return data
}
