package python

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cottand/tlbc/backend"
	"github.com/cottand/tlbc/internal/tlbtest"
)

func generate(t *testing.T, src string) string {
	t.Helper()
	out, err := backend.Generate(tlbtest.Env(t, src), New(), backend.Options{})
	require.NoError(t, err)
	return string(out)
}

func TestBoolClass(t *testing.T) {
	src := generate(t, tlbtest.Bool)
	for _, want := range []string{
		"# Code generated by tlbc. DO NOT EDIT.",
		"from tonpy.types import TLB, TLBComplex, Cell, CellSlice, CellBuilder, RecordBase",
		"# class for type `Bool`\nclass Bool(TLBComplex):",
		"    class Tag(Enum):\n        bool_false = 0\n        bool_true = 1\n",
		"    cons_len_exact = 1\n    cons_tag = [0x0, 0x1]\n",
		"    class Record_bool_true(RecordBase):",
		"            return Bool.Tag.bool_true",
		"    def fetch_enum(self, cs: CellSlice) -> int:",
		"    def store_enum_from(self, cb: CellBuilder, tag: int) -> None:",
		"tlb_classes.append(\"Bool\")",
		"TLBComplex.constants[\"t_Bool\"] = Bool()",
	} {
		assert.Contains(t, src, want)
	}
}

func TestUnaryOutputs(t *testing.T) {
	src := generate(t, tlbtest.Unary)
	assert.Contains(t, src, "    def validate_skip_out(self, cs: CellSlice) -> tuple:")
	assert.Contains(t, src, "return (m,)")
	assert.Contains(t, src, "if tag == 1:")
	assert.Contains(t, src, "raise RuntimeError(\"no matching constructor of Unary\")")
}

func TestParamsAndConstants(t *testing.T) {
	src := generate(t, tlbtest.Maybe+"wrap$_ a:(Maybe ^Cell) = Wrap;")
	assert.Contains(t, src, "    def __init__(self, X: TLB):\n        super().__init__()\n        self.X = X\n")
	assert.Contains(t, src, "Maybe(RefT(CellT()))")
	assert.Contains(t, src, "self.type_class = type_class if type_class is not None else None")
	assert.Contains(t, src, "self.type_class = type_class if type_class is not None else Wrap()")
}

// TestIndentation checks that every block opener is followed by a deeper line
func TestIndentation(t *testing.T) {
	src := generate(t, tlbtest.Bool+tlbtest.Unary+tlbtest.Maybe+`
point$_ x:(## 8) y:int16 flag:Bool { x <= 100 } = Point;
`)
	lines := strings.Split(src, "\n")
	indent := func(s string) int { return len(s) - len(strings.TrimLeft(s, " ")) }
	for i, line := range lines {
		assert.NotContains(t, line, "\t", "line %d", i+1)
		if !strings.HasSuffix(line, ":") || strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		next := i + 1
		for next < len(lines) && strings.TrimSpace(lines[next]) == "" {
			next++
		}
		require.Less(t, next, len(lines), "block at line %d has no body", i+1)
		assert.Greater(t, indent(lines[next]), indent(line), "line %d: %q", i+1, line)
	}
}

func TestStable(t *testing.T) {
	schema := tlbtest.Bool + tlbtest.Unary
	assert.Equal(t, generate(t, schema), generate(t, schema))
}
