package emit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/honelang/hone/internal/value"
)

func sampleObject() value.Value {
	inner := value.NewObject()
	inner.Set("host", value.String("localhost"))
	inner.Set("port", value.Int(8080))
	root := value.NewObject()
	root.Set("service", value.FromObject(inner))
	root.Set("replicas", value.Int(2))
	return value.FromObject(root)
}

func TestJSONPreservesInsertionOrder(t *testing.T) {
	s, err := JSON(sampleObject())
	require.NoError(t, err)
	assert.Equal(t, `{"service":{"host":"localhost","port":8080},"replicas":2}`, s)
}

func TestJSONPrettyIsIndentedAndOrdered(t *testing.T) {
	s, err := JSONPretty(sampleObject())
	require.NoError(t, err)
	assert.Contains(t, s, "\"service\": {")
	assert.True(t, indexOf(s, "service") < indexOf(s, "replicas"))
}

func TestYAMLPreservesInsertionOrder(t *testing.T) {
	s, err := YAML(sampleObject())
	require.NoError(t, err)
	assert.True(t, indexOf(s, "service") < indexOf(s, "replicas"))
	assert.Contains(t, s, "host: localhost")
}

func TestTOMLFlattensNestedObjects(t *testing.T) {
	s, err := TOML(sampleObject())
	require.NoError(t, err)
	assert.Contains(t, s, "replicas = 2")
	assert.Contains(t, s, "[service]")
	assert.Contains(t, s, "host = \"localhost\"")
}

func TestTOMLRejectsNull(t *testing.T) {
	o := value.NewObject()
	o.Set("x", value.Null)
	_, err := TOML(value.FromObject(o))
	require.Error(t, err)
}

func TestDotenvFlatScalars(t *testing.T) {
	o := value.NewObject()
	o.Set("NAME", value.String("api"))
	o.Set("PORT", value.Int(8080))
	s, err := Dotenv(value.FromObject(o))
	require.NoError(t, err)
	assert.Contains(t, s, "NAME=\"api\"")
	assert.Contains(t, s, "PORT=\"8080\"")
}

func TestDotenvRejectsNestedObject(t *testing.T) {
	_, err := Dotenv(sampleObject())
	require.Error(t, err)
}

func TestManyJSONEmitsArray(t *testing.T) {
	docs := []Document{{Name: "a", Value: value.Int(1)}, {Name: "b", Value: value.Int(2)}}
	s, err := Many(docs, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, `[1,2]`, s)
}

func TestManyYAMLSeparatesDocuments(t *testing.T) {
	docs := []Document{{Name: "a", Value: value.Int(1)}, {Name: "b", Value: value.Int(2)}}
	s, err := Many(docs, FormatYAML)
	require.NoError(t, err)
	assert.Contains(t, s, "---")
	assert.Contains(t, s, "# a")
	assert.Contains(t, s, "# b")
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
