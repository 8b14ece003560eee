package celengine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEval(t *testing.T) {
	e := New()
	attrs := map[string]any{"earned_badges": 10, "longest_streak": 2, "region": "north"}

	ok, err := e.Eval("earned_badges >= 10", attrs)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = e.Eval("longest_streak >= 3 || region == 'south'", attrs)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCompileCachesPerShape(t *testing.T) {
	e := New()
	_, err := e.Compile("n > 1", map[string]any{"n": 1})
	require.NoError(t, err)
	_, err = e.Compile("n > 1", map[string]any{"n": 2})
	require.NoError(t, err)
	require.Len(t, e.programs, 1)

	_, err = e.Compile("n > 1.5", map[string]any{"n": 2.0})
	require.NoError(t, err)
	require.Len(t, e.programs, 2)
}

func TestValidateRejectsNonBool(t *testing.T) {
	e := New()
	require.Error(t, e.Validate("earned_badges + 1", map[string]any{"earned_badges": 1}))
	require.Error(t, e.Validate("unknown_var > 1", map[string]any{"earned_badges": 1}))
	require.NoError(t, e.Validate("earned_badges > 1", map[string]any{"earned_badges": 1}))
}
