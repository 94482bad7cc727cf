package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseAssignments(t *testing.T) {
	got, err := parseAssignments([]string{"x=1, y=2.5", "z=-3"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"x": 1, "y": 2.5, "z": -3}, got)

	_, err = parseAssignments([]string{"x"})
	assert.Error(t, err)
	_, err = parseAssignments([]string{"x=abc"})
	assert.Error(t, err)
}

func TestEval(t *testing.T) {
	out, err := run(t, "eval", "sqrt(x^2 + y^2)", "--at", "x=3,y=4")
	require.NoError(t, err)
	assert.Contains(t, out, "f(x=3, y=4) = 5  [compiled]")

	out, err = run(t, "eval", "x - y", "--at", "x=3,y=4", "--vars", "y,x", "--interpret")
	require.NoError(t, err)
	assert.Contains(t, out, "f(y=4, x=3) = -1  [interpreted]")

	out, err = run(t, "eval", "x*2", "--at", "x=1", "--ir")
	require.NoError(t, err)
	assert.Contains(t, out, "load")
	assert.Contains(t, out, "= 2")
}

func TestEval_Errors(t *testing.T) {
	_, err := run(t, "eval", "x +")
	assert.Error(t, err)

	_, err = run(t, "eval", "x*y", "--at", "x=1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[x y]")
}

func TestDiff(t *testing.T) {
	out, err := run(t, "diff", "x*x", "--wrt", "x", "--at", "x=3")
	require.NoError(t, err)
	assert.Contains(t, out, "d/dx x*x = x*1+x*1")
	assert.Contains(t, out, "= 6")

	out, err = run(t, "diff", "x^3", "--wrt", "x,x", "--at", "x=2")
	require.NoError(t, err)
	assert.Contains(t, out, "= 12")

	_, err = run(t, "diff", "x")
	assert.Error(t, err)
	_, err = run(t, "diff", "x", "--wrt", "q")
	assert.Error(t, err)
}

func TestCompose(t *testing.T) {
	out, err := run(t, "compose", "sqrt(r)", "--sub", "r=x*x", "--at", "x=3", "--wrt", "x")
	require.NoError(t, err)
	assert.Contains(t, out, "f[x] = sqrt(r)[r := x*x]")
	assert.Contains(t, out, "f(x=3) = 3")
	assert.Contains(t, out, "f(x=3) = 1")

	_, err = run(t, "compose", "sqrt(r)", "--sub", "q=x")
	assert.Error(t, err)
}

func TestLib(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lib.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
functions:
  - name: n3
    vars: [r, s, t]
    expr: t
    dependents: {t: {r: -1, s: -1}}
`), 0o600))

	out, err := run(t, "lib", path)
	require.NoError(t, err)
	assert.Equal(t, "n3[r s t] = t\n", out)

	out, err = run(t, "lib", path, "n3", "--at", "r=0.2,s=0.3,t=0.5", "--wrt", "r")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[1], "= 0.5")
	assert.Contains(t, lines[3], "= -1")

	_, err = run(t, "lib", path, "missing")
	assert.Error(t, err)
}

func TestBench(t *testing.T) {
	out, err := run(t, "bench", "x*y+sin(x)", "--at", "x=1,y=2", "--n", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "interpreter")
	assert.Contains(t, out, "compiled")
	assert.Contains(t, out, "batch")

	_, err = run(t, "bench", "x", "--at", "x=1", "--n", "0")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "symfn "+Version+"\n", out)
}

func TestShape(t *testing.T) {
	out, err := run(t, "shape", "--vertices", "0,0,2,0,0,1", "--point", "0.5,0.25", "--point", "0,0")
	require.NoError(t, err)
	assert.Contains(t, out, "N1(r, s, t) = ")
	assert.Contains(t, out, "(0.5, 0.25): N1=0.5 N2=0.25 N3=0.25")
	assert.Contains(t, out, "(0, 0): N1=1 N2=0 N3=0")

	_, err = run(t, "shape", "--vertices", "0,0,2,0")
	assert.Error(t, err)
	_, err = run(t, "shape", "--vertices", "0,0,0,1,2,0")
	assert.Error(t, err)
	_, err = run(t, "shape", "--vertices", "0,0,2,0,0,1", "--point", "1")
	assert.Error(t, err)
}
