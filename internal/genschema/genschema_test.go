package genschema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateFlatSchema(t *testing.T) {
	src := []byte(`{
		"title": "Server",
		"type": "object",
		"properties": {
			"host": {"type": "string"},
			"port": {"type": "integer", "minimum": 1, "maximum": 65535},
			"tags": {"type": "array", "items": {"type": "string"}}
		},
		"required": ["host", "port"]
	}`)

	out, err := Generate("schema://server.json", src, "Server")
	require.NoError(t, err)
	assert.Contains(t, out, "schema Server {")
	assert.Contains(t, out, "host: string")
	assert.Contains(t, out, "port: int(1,65535)")
	assert.Contains(t, out, "tags?: array<string>")
}

func TestGenerateNestedObject(t *testing.T) {
	src := []byte(`{
		"title": "Config",
		"type": "object",
		"properties": {
			"server": {
				"type": "object",
				"properties": {
					"host": {"type": "string"}
				},
				"required": ["host"]
			}
		},
		"required": ["server"]
	}`)

	out, err := Generate("schema://config.json", src, "Config")
	require.NoError(t, err)
	assert.Contains(t, out, "schema Config {")
	assert.Contains(t, out, "server: Server")
	assert.Contains(t, out, "schema Server {")
	assert.Contains(t, out, "host: string")
}

func TestGenerateRejectsInvalidSchema(t *testing.T) {
	_, err := Generate("schema://bad.json", []byte(`{"type": "not-a-real-type"}`), "Bad")
	require.Error(t, err)
}
