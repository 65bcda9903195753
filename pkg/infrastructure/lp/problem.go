// Package lp builds small linear programs and solves them with gonum's simplex.
//
// A Problem is assembled with a Builder, validated once by Build and never
// mutated afterwards, so the same Problem may be solved from several goroutines.
package lp

import (
	"fmt"
	"math"
)

// Sense is the relation of a constraint's left-hand side to its right-hand side
type Sense int

const (
	LessOrEqual Sense = iota
	GreaterOrEqual
	Equal
)

// String method for Sense enum
func (s Sense) String() string {
	switch s {
	case LessOrEqual:
		return "<="
	case GreaterOrEqual:
		return ">="
	case Equal:
		return "="
	default:
		return "?"
	}
}

// Direction is the optimization direction of the objective
type Direction int

const (
	Maximize Direction = iota
	Minimize
)

// String method for Direction enum
func (d Direction) String() string {
	switch d {
	case Maximize:
		return "maximize"
	case Minimize:
		return "minimize"
	default:
		return "unknown"
	}
}

// Term is coefficient * variable
type Term struct {
	Var  string
	Coef float64
}

// T is shorthand for a Term
func T(variable string, coef float64) Term {
	return Term{Var: variable, Coef: coef}
}

// Constraint is a named linear row: Σ terms <sense> RHS
type Constraint struct {
	Name  string
	Sense Sense
	RHS   float64
	Terms []Term
}

// Problem is a validated, immutable linear program over non-negative variables
type Problem struct {
	name        string
	variables   []string
	index       map[string]int
	direction   Direction
	objective   []Term
	constraints []Constraint
}

// Name returns the problem name
func (p *Problem) Name() string { return p.name }

// Direction returns the objective direction
func (p *Problem) Direction() Direction { return p.direction }

// Variables returns the variable names in declaration order
func (p *Problem) Variables() []string {
	out := make([]string, len(p.variables))
	copy(out, p.variables)
	return out
}

// NumConstraints returns the number of constraint rows
func (p *Problem) NumConstraints() int { return len(p.constraints) }

// Constraints returns a copy of the constraint rows
func (p *Problem) Constraints() []Constraint {
	out := make([]Constraint, len(p.constraints))
	for i, c := range p.constraints {
		out[i] = c
		out[i].Terms = append([]Term(nil), c.Terms...)
	}
	return out
}

// Builder accumulates a linear program. Errors are collected and reported by Build.
type Builder struct {
	name        string
	variables   []string
	index       map[string]int
	direction   Direction
	objective   []Term
	constraints []Constraint
	errs        []error
}

// NewBuilder creates an empty builder
func NewBuilder(name string) *Builder {
	return &Builder{
		name:  name,
		index: make(map[string]int),
	}
}

// Variable declares a non-negative variable
func (b *Builder) Variable(name string) *Builder {
	if name == "" {
		b.errs = append(b.errs, fmt.Errorf("variable name cannot be empty"))
		return b
	}
	if _, exists := b.index[name]; exists {
		b.errs = append(b.errs, fmt.Errorf("duplicate variable %s", name))
		return b
	}
	b.index[name] = len(b.variables)
	b.variables = append(b.variables, name)
	return b
}

// Objective sets the objective; a later call replaces an earlier one
func (b *Builder) Objective(direction Direction, terms ...Term) *Builder {
	b.direction = direction
	b.objective = append([]Term(nil), terms...)
	return b
}

// Constraint adds a named row
func (b *Builder) Constraint(name string, sense Sense, rhs float64, terms ...Term) *Builder {
	b.constraints = append(b.constraints, Constraint{
		Name:  name,
		Sense: sense,
		RHS:   rhs,
		Terms: append([]Term(nil), terms...),
	})
	return b
}

// Build validates the program and returns an immutable Problem
func (b *Builder) Build() (*Problem, error) {
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("invalid problem %s: %w", b.name, b.errs[0])
	}
	if len(b.variables) == 0 {
		return nil, fmt.Errorf("invalid problem %s: no variables", b.name)
	}

	if err := b.checkTerms("objective", b.objective); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(b.constraints))
	for _, c := range b.constraints {
		if c.Name == "" {
			return nil, fmt.Errorf("invalid problem %s: constraint name cannot be empty", b.name)
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("invalid problem %s: duplicate constraint %s", b.name, c.Name)
		}
		seen[c.Name] = true
		if len(c.Terms) == 0 {
			return nil, fmt.Errorf("invalid problem %s: constraint %s has no terms", b.name, c.Name)
		}
		if !finite(c.RHS) {
			return nil, fmt.Errorf("invalid problem %s: constraint %s has non-finite rhs %v", b.name, c.Name, c.RHS)
		}
		if err := b.checkTerms("constraint "+c.Name, c.Terms); err != nil {
			return nil, err
		}
	}

	index := make(map[string]int, len(b.index))
	for k, v := range b.index {
		index[k] = v
	}
	p := &Problem{
		name:      b.name,
		variables: append([]string(nil), b.variables...),
		index:     index,
		direction: b.direction,
		objective: append([]Term(nil), b.objective...),
	}
	p.constraints = make([]Constraint, len(b.constraints))
	for i, c := range b.constraints {
		p.constraints[i] = c
		p.constraints[i].Terms = append([]Term(nil), c.Terms...)
	}
	return p, nil
}

func (b *Builder) checkTerms(where string, terms []Term) error {
	for _, t := range terms {
		if _, ok := b.index[t.Var]; !ok {
			return fmt.Errorf("invalid problem %s: %s references unknown variable %s", b.name, where, t.Var)
		}
		if !finite(t.Coef) {
			return fmt.Errorf("invalid problem %s: %s has non-finite coefficient %v for %s", b.name, where, t.Coef, t.Var)
		}
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
