package pyast

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `"""Module doc."""
import os
import collections.abc as cabc
from typing import List, Optional as Opt
from . import sibling


class Greeter(Base):
    """Say hello.

    More detail here.
    """

    def __init__(self, name):
        self.name = name

    @property
    def upper(self) -> str:
        return self.name.upper()


async def fetch(url: str, *args, retries=3, **kwargs):
    return url


def plain(a, b, /, c, *, d):
    pass
`

func parse(t *testing.T, src string) *Module {
	t.Helper()
	m, err := Parse(context.Background(), []byte(src))
	require.NoError(t, err)
	return m
}

func findDef(t *testing.T, m *Module, name string) Def {
	t.Helper()
	for _, d := range m.Defs {
		if d.Name == name {
			return d
		}
	}
	t.Fatalf("definition %q not found in %+v", name, m.Defs)
	return Def{}
}

func TestParseDefinitions(t *testing.T) {
	m := parse(t, sample)
	require.Nil(t, m.Err)

	greeter := findDef(t, m, "Greeter")
	assert.Equal(t, KindClass, greeter.Kind)
	assert.Equal(t, 8, greeter.Line)
	assert.Equal(t, 19, greeter.EndLine)
	assert.Equal(t, 2, greeter.Methods)
	assert.True(t, greeter.HasDoc)
	assert.Equal(t, "Say hello.\n\nMore detail here.", greeter.Doc)
	assert.Equal(t, "Say hello.", greeter.Summary())

	init := findDef(t, m, "__init__")
	assert.Equal(t, KindFunction, init.Kind)
	assert.Equal(t, 2, init.Params)
	assert.False(t, init.Annotated)
	assert.False(t, init.HasDoc)
	assert.Equal(t, 2, init.Lines())

	upper := findDef(t, m, "upper")
	assert.True(t, upper.Annotated)
	assert.Equal(t, 18, upper.Line)

	fetch := findDef(t, m, "fetch")
	assert.Equal(t, KindAsyncFunction, fetch.Kind)
	assert.Equal(t, 4, fetch.Params)
	assert.True(t, fetch.Annotated)

	plain := findDef(t, m, "plain")
	assert.Equal(t, 4, plain.Params)
	assert.Equal(t, 26, plain.Line)
	assert.Equal(t, 27, plain.EndLine)

	assert.Len(t, m.Functions(), 4)
	assert.Len(t, m.Classes(), 1)
}

func TestParseImports(t *testing.T) {
	m := parse(t, sample)
	assert.Equal(t, []string{
		"os",
		"collections.abc",
		"typing.List",
		"typing.Optional",
		".sibling",
	}, m.Imports)
}

func TestParseWildcardImport(t *testing.T) {
	m := parse(t, "from pkg.mod import *\n")
	assert.Equal(t, []string{"pkg.mod.*"}, m.Imports)
}

func TestParseSyntaxError(t *testing.T) {
	m := parse(t, "def ok():\n    return 1\n\ndef broken(:\n    pass\n")
	require.NotNil(t, m.Err)
	assert.GreaterOrEqual(t, m.Err.Line, 4)
	assert.NotEmpty(t, m.Err.Msg)
}

func TestParseUnreachable(t *testing.T) {
	src := `def f(x):
    if x:
        return 1
        print("never")
    raise ValueError()
    # trailing comment
    return 2


def g():
    return 3
`
	m := parse(t, src)
	require.Nil(t, m.Err)
	assert.Equal(t, []int{3, 5}, m.Unreachable)
}

func TestAnnotatedSplatDoesNotCount(t *testing.T) {
	m := parse(t, "def f(*args: int, **kwargs: str):\n    pass\n")
	f := findDef(t, m, "f")
	assert.Equal(t, 2, f.Params)
	assert.False(t, f.Annotated)
}

func TestNestedFunctionsAreIncluded(t *testing.T) {
	m := parse(t, "def outer():\n    def inner():\n        pass\n    return inner\n")
	assert.Len(t, m.Functions(), 2)
	assert.Equal(t, "outer", m.Defs[0].Name)
	assert.Equal(t, "inner", m.Defs[1].Name)
}

func TestDocstringRules(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		hasDoc  bool
		summary string
	}{
		{"double", "def f():\n    \"\"\"  Line one.\n    line two\"\"\"\n", true, "Line one."},
		{"single quoted", "def f():\n    'short'\n", true, "short"},
		{"raw", "def f():\n    r'''raw \\d'''\n", true, "raw \\d"},
		{"bytes", "def f():\n    b'nope'\n", false, ""},
		{"fstring", "def f():\n    f\"{x}\"\n", false, ""},
		{"not first", "def f():\n    x = 1\n    'late'\n", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := findDef(t, parse(t, tt.src), "f")
			assert.Equal(t, tt.hasDoc, f.HasDoc)
			assert.Equal(t, tt.summary, f.Summary())
		})
	}
}

func TestCleandoc(t *testing.T) {
	assert.Equal(t, "Title\n\n  indented\nback", cleandoc("Title\n\n      indented\n    back\n    "))
	assert.Equal(t, "", cleandoc("   "))
}
