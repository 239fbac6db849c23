package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/honelang/hone/internal/ast"
	"github.com/honelang/hone/internal/value"
)

func obj(pairs ...any) value.Value {
	o := value.NewObject()
	for i := 0; i < len(pairs); i += 2 {
		o.Set(pairs[i].(string), pairs[i+1].(value.Value))
	}
	return value.FromObject(o)
}

func TestValidateRequiredAndBounds(t *testing.T) {
	reg := NewRegistry(map[string]*ast.SchemaDecl{
		"Server": {
			Name: "Server",
			Fields: []ast.SchemaField{
				{Name: "host", Constraint: &ast.Constraint{Name: "string"}},
				{Name: "port", Constraint: &ast.Constraint{Name: "int", Args: []ast.Expr{
					&ast.IntLit{Value: 1}, &ast.IntLit{Value: 65535},
				}}},
			},
		},
	}, nil, nil, "host: \"x\"\nport: 99999", "test.hone")

	good := obj("host", value.String("localhost"), "port", value.Int(8080))
	require.NoError(t, reg.Validate(good, "Server", nil, ast.Position{Line: 1, Column: 1}))

	bad := obj("host", value.String("localhost"), "port", value.Int(99999))
	err := reg.Validate(bad, "Server", nil, ast.Position{Line: 1, Column: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port")
}

func TestExtendsFlattensParentFirst(t *testing.T) {
	reg := NewRegistry(map[string]*ast.SchemaDecl{
		"Base": {Name: "Base", Fields: []ast.SchemaField{
			{Name: "id", Constraint: &ast.Constraint{Name: "int"}},
		}},
		"Child": {Name: "Child", Extends: "Base", Fields: []ast.SchemaField{
			{Name: "name", Constraint: &ast.Constraint{Name: "string"}},
		}},
	}, nil, nil, "", "test.hone")

	fields, open, err := reg.Flatten("Child")
	require.NoError(t, err)
	assert.False(t, open)
	require.Len(t, fields, 2)
	assert.Equal(t, "id", fields[0].Name)
	assert.Equal(t, "name", fields[1].Name)
}

func TestExtendsCycleIsReported(t *testing.T) {
	reg := NewRegistry(map[string]*ast.SchemaDecl{
		"A": {Name: "A", Extends: "B"},
		"B": {Name: "B", Extends: "A"},
	}, nil, nil, "", "test.hone")

	_, _, err := reg.Flatten("A")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular")
}

func TestOpenSchemaAllowsExtraKeys(t *testing.T) {
	reg := NewRegistry(map[string]*ast.SchemaDecl{
		"Open": {Name: "Open", Open: true, Fields: []ast.SchemaField{
			{Name: "id", Constraint: &ast.Constraint{Name: "int"}},
		}},
	}, nil, nil, "", "test.hone")

	v := obj("id", value.Int(1), "extra", value.String("ok"))
	require.NoError(t, reg.Validate(v, "Open", nil, ast.Position{Line: 1, Column: 1}))
}

func TestClosedSchemaRejectsExtraKeys(t *testing.T) {
	reg := NewRegistry(map[string]*ast.SchemaDecl{
		"Closed": {Name: "Closed", Fields: []ast.SchemaField{
			{Name: "id", Constraint: &ast.Constraint{Name: "int"}},
		}},
	}, nil, nil, "", "test.hone")

	v := obj("id", value.Int(1), "extra", value.String("nope"))
	err := reg.Validate(v, "Closed", nil, ast.Position{Line: 1, Column: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extra")
}

func TestUncheckedPathSkipsValidation(t *testing.T) {
	reg := NewRegistry(map[string]*ast.SchemaDecl{
		"S": {Name: "S", Fields: []ast.SchemaField{
			{Name: "id", Constraint: &ast.Constraint{Name: "int"}},
		}},
	}, nil, map[string]bool{"id": true}, "", "test.hone")

	v := obj("id", value.String("not an int"))
	require.NoError(t, reg.Validate(v, "S", nil, ast.Position{Line: 1, Column: 1}))
}

func TestOptionalFieldAllowsNullOrAbsent(t *testing.T) {
	reg := NewRegistry(map[string]*ast.SchemaDecl{
		"S": {Name: "S", Fields: []ast.SchemaField{
			{Name: "nickname", Constraint: &ast.Constraint{Name: "string"}, Optional: true},
		}},
	}, nil, nil, "", "test.hone")

	require.NoError(t, reg.Validate(obj(), "S", nil, ast.Position{Line: 1, Column: 1}))
	require.NoError(t, reg.Validate(obj("nickname", value.Null), "S", nil, ast.Position{Line: 1, Column: 1}))
}

func TestUnionTypeFirstSuccess(t *testing.T) {
	reg := NewRegistry(map[string]*ast.SchemaDecl{
		"S": {Name: "S", Fields: []ast.SchemaField{
			{Name: "v", Constraint: &ast.Constraint{Name: "union", Union: []*ast.Constraint{
				{Name: "int"}, {Name: "string"},
			}}},
		}},
	}, nil, nil, "", "test.hone")

	require.NoError(t, reg.Validate(obj("v", value.Int(1)), "S", nil, ast.Position{Line: 1, Column: 1}))
	require.NoError(t, reg.Validate(obj("v", value.String("x")), "S", nil, ast.Position{Line: 1, Column: 1}))
	require.Error(t, reg.Validate(obj("v", value.Bool(true)), "S", nil, ast.Position{Line: 1, Column: 1}))
}
