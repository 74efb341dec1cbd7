package assets

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedFilesAreJSON(t *testing.T) {
	for name, data := range map[string][]byte{
		"schema":  ConfigSchema(),
		"default": DefaultConfig(),
		"models":  Models(),
	} {
		var v map[string]any
		require.NoError(t, json.Unmarshal(data, &v), name)
		assert.NotEmpty(t, v, name)
	}
}
