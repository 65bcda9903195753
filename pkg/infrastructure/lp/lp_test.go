package lp

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const delta = 1e-7

func TestSolve_Maximize(t *testing.T) {
	problem, err := NewBuilder("textbook").
		Variable("x").
		Variable("y").
		Objective(Maximize, T("x", 3), T("y", 5)).
		Constraint("x_cap", LessOrEqual, 4, T("x", 1)).
		Constraint("y_cap", LessOrEqual, 12, T("y", 2)).
		Constraint("mix", LessOrEqual, 18, T("x", 3), T("y", 2)).
		Build()
	require.NoError(t, err)

	solution, err := Solve(context.Background(), problem)
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, solution.Status)
	assert.InDelta(t, 36, solution.Objective, delta)
	assert.InDelta(t, 2, solution.Value("x"), delta)
	assert.InDelta(t, 6, solution.Value("y"), delta)
}

func TestSolve_MinimizeWithLowerBounds(t *testing.T) {
	problem, err := NewBuilder("cover").
		Variable("x").
		Variable("y").
		Objective(Minimize, T("x", 1), T("y", 1)).
		Constraint("a", GreaterOrEqual, 4, T("x", 1), T("y", 2)).
		Constraint("b", GreaterOrEqual, 6, T("x", 3), T("y", 1)).
		Build()
	require.NoError(t, err)

	solution, err := Solve(context.Background(), problem)
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, solution.Status)
	assert.InDelta(t, 2.8, solution.Objective, delta)
	assert.InDelta(t, 1.6, solution.Value("x"), delta)
	assert.InDelta(t, 1.2, solution.Value("y"), delta)
}

func TestSolve_EqualityAndNegativeRHS(t *testing.T) {
	t.Run("equality", func(t *testing.T) {
		problem, err := NewBuilder("split").
			Variable("x").
			Variable("y").
			Objective(Minimize, T("x", 1)).
			Constraint("total", Equal, 5, T("x", 1), T("y", 1)).
			Constraint("y_cap", LessOrEqual, 3, T("y", 1)).
			Build()
		require.NoError(t, err)

		solution, err := Solve(context.Background(), problem)
		require.NoError(t, err)
		require.Equal(t, StatusOptimal, solution.Status)
		assert.InDelta(t, 2, solution.Value("x"), delta)
		assert.InDelta(t, 3, solution.Value("y"), delta)
	})

	t.Run("negative rhs", func(t *testing.T) {
		problem, err := NewBuilder("gap").
			Variable("x").
			Variable("y").
			Objective(Minimize, T("y", 1)).
			Constraint("gap", LessOrEqual, -2, T("x", 1), T("y", -1)).
			Build()
		require.NoError(t, err)

		solution, err := Solve(context.Background(), problem)
		require.NoError(t, err)
		require.Equal(t, StatusOptimal, solution.Status)
		assert.InDelta(t, 2, solution.Objective, delta)
	})
}

func TestSolve_Infeasible(t *testing.T) {
	problem, err := NewBuilder("clash").
		Variable("x").
		Objective(Maximize, T("x", 1)).
		Constraint("upper", LessOrEqual, 1, T("x", 1)).
		Constraint("lower", GreaterOrEqual, 2, T("x", 1)).
		Build()
	require.NoError(t, err)

	solution, err := Solve(context.Background(), problem)
	require.NoError(t, err)
	assert.Equal(t, StatusInfeasible, solution.Status)
}

func TestSolve_Unbounded(t *testing.T) {
	t.Run("open direction", func(t *testing.T) {
		problem, err := NewBuilder("open").
			Variable("x").
			Variable("y").
			Objective(Maximize, T("x", 1)).
			Constraint("diff", LessOrEqual, 1, T("x", 1), T("y", -1)).
			Build()
		require.NoError(t, err)

		solution, err := Solve(context.Background(), problem)
		require.NoError(t, err)
		assert.Equal(t, StatusUnbounded, solution.Status)
	})

	t.Run("unconstrained variable", func(t *testing.T) {
		problem, err := NewBuilder("free").
			Variable("x").
			Variable("z").
			Objective(Maximize, T("x", 1), T("z", 1)).
			Constraint("x_cap", LessOrEqual, 1, T("x", 1)).
			Build()
		require.NoError(t, err)

		solution, err := Solve(context.Background(), problem)
		require.NoError(t, err)
		assert.Equal(t, StatusUnbounded, solution.Status)
	})

	t.Run("unconstrained variable with no gain stays at zero", func(t *testing.T) {
		problem, err := NewBuilder("idle").
			Variable("x").
			Variable("z").
			Objective(Maximize, T("x", 2)).
			Constraint("x_cap", LessOrEqual, 1, T("x", 1)).
			Build()
		require.NoError(t, err)

		solution, err := Solve(context.Background(), problem)
		require.NoError(t, err)
		require.Equal(t, StatusOptimal, solution.Status)
		assert.InDelta(t, 2, solution.Objective, delta)
		assert.Zero(t, solution.Value("z"))
	})
}

func TestSolve_CanceledContext(t *testing.T) {
	problem, err := NewBuilder("any").
		Variable("x").
		Objective(Maximize, T("x", 1)).
		Constraint("cap", LessOrEqual, 1, T("x", 1)).
		Build()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	solution, err := Solve(ctx, problem)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusTimeout, solution.Status)
}

func TestBuilder_Validation(t *testing.T) {
	testCases := []struct {
		name        string
		build       func() *Builder
		expectError string
	}{
		{"no variables", func() *Builder {
			return NewBuilder("p")
		}, "no variables"},
		{"duplicate variable", func() *Builder {
			return NewBuilder("p").Variable("x").Variable("x")
		}, "duplicate variable x"},
		{"unknown objective variable", func() *Builder {
			return NewBuilder("p").Variable("x").Objective(Maximize, T("y", 1))
		}, "objective references unknown variable y"},
		{"unknown constraint variable", func() *Builder {
			return NewBuilder("p").Variable("x").Constraint("c", LessOrEqual, 1, T("y", 1))
		}, "constraint c references unknown variable y"},
		{"duplicate constraint", func() *Builder {
			return NewBuilder("p").Variable("x").
				Constraint("c", LessOrEqual, 1, T("x", 1)).
				Constraint("c", LessOrEqual, 2, T("x", 1))
		}, "duplicate constraint c"},
		{"empty constraint", func() *Builder {
			return NewBuilder("p").Variable("x").Constraint("c", LessOrEqual, 1)
		}, "constraint c has no terms"},
		{"nan coefficient", func() *Builder {
			return NewBuilder("p").Variable("x").Objective(Maximize, T("x", math.NaN()))
		}, "non-finite coefficient"},
		{"infinite rhs", func() *Builder {
			return NewBuilder("p").Variable("x").Constraint("c", LessOrEqual, math.Inf(1), T("x", 1))
		}, "non-finite rhs"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.build().Build()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expectError)
		})
	}
}

func TestBuilder_ProblemIsImmutable(t *testing.T) {
	builder := NewBuilder("frozen").
		Variable("x").
		Objective(Maximize, T("x", 1)).
		Constraint("cap", LessOrEqual, 3, T("x", 1))
	problem, err := builder.Build()
	require.NoError(t, err)

	builder.Variable("y").Constraint("more", LessOrEqual, 1, T("y", 1))
	assert.Equal(t, []string{"x"}, problem.Variables())
	assert.Equal(t, 1, problem.NumConstraints())

	constraints := problem.Constraints()
	constraints[0].Terms[0].Coef = 100
	assert.Equal(t, 1.0, problem.Constraints()[0].Terms[0].Coef)

	// solving twice gives the same answer
	first, err := Solve(context.Background(), problem)
	require.NoError(t, err)
	second, err := Solve(context.Background(), problem)
	require.NoError(t, err)
	assert.Equal(t, first.Values(), second.Values())
	assert.InDelta(t, 3, first.Objective, delta)
}
