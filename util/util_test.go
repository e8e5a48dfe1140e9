package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentSet(t *testing.T) {
	s := NewIdentSet(NewKeywords("type", "func"))
	assert.Equal(t, "type1", s.New("type", 0, ""))
	assert.Equal(t, "x", s.New("x", 0, ""))
	assert.Equal(t, "x1", s.New("x", 0, ""))
	assert.Equal(t, "Maybe_aux", s.New("Maybe", 0, "_aux"))
	assert.Equal(t, "_0abc", s.New("0abc", 0, ""))
	assert.Equal(t, "name", s.New("Block.name", 0, ""))

	fork := s.Fork()
	fork.Insert("y")
	assert.True(t, fork.Contains("x"))
	assert.False(t, s.Contains("y"), "forks do not share names taken later")
	assert.False(t, s.IsGood("x"))
	assert.False(t, s.IsGood("func"))
	assert.True(t, s.IsGood("y"))
}

func TestSanitizeIdent(t *testing.T) {
	cases := map[string]string{
		"bool_true":   "bool_true",
		"!merkle":     "merkle",
		"a-b":         "a_b",
		"":            "_",
		"1":           "_1",
		"hml_long'":   "hml_long_",
		"unary_succ ": "unary_succ_",
	}
	for in, want := range cases {
		assert.Equal(t, want, SanitizeIdent(in, 0), "%q", in)
	}
	assert.Equal(t, "x3", SanitizeIdent("x", 3))
}

func TestExported(t *testing.T) {
	assert.Equal(t, "BoolFalse", Exported("bool_false"))
	assert.Equal(t, "HmlLong", Exported("hml_long"))
	assert.Equal(t, "Aux", Exported("_aux"))
	assert.Equal(t, "X1", Exported("1"))
	assert.Equal(t, "X", Exported("_"))
}

func TestStack(t *testing.T) {
	var s Stack[int]
	_, ok := s.Pop()
	require.False(t, ok)
	s.Push(1)
	s.Push(2)
	top, ok := s.Peek()
	require.True(t, ok)
	assert.Equal(t, 2, top)
	assert.Equal(t, 2, s.Len())
	top, _ = s.Pop()
	assert.Equal(t, 2, top)
	assert.Equal(t, 1, s.Len())
}
