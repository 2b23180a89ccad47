// Package constraint compiles and evaluates per-field CEL expressions
// against generated records, so schemas can reject implausible model output
// (e.g. negative amounts) before it reaches a sink.
package constraint

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/phrazzld/synthgen/internal/domain"
)

// compiled pairs a field with its compiled constraint program.
type compiled struct {
	field   string
	expr    string
	program cel.Program
}

// Engine holds the compiled constraint programs for one schema. Programs
// are compiled once at construction; evaluation is read-only and safe for
// concurrent use.
type Engine struct {
	programs []compiled
}

// Result reports one record's evaluation: whether every constraint passed,
// and if not, which field's constraint rejected it.
type Result struct {
	Passed bool
	Field  string
}

// NewEngine compiles every non-empty field constraint in the schema.
// Each schema field is declared as a dynamically typed CEL variable, so
// expressions reference fields by name: `amount > 0 && currency != ""`.
func NewEngine(schema *domain.Schema) (*Engine, error) {
	if schema == nil {
		return nil, fmt.Errorf("schema cannot be nil")
	}

	opts := make([]cel.EnvOption, 0, len(schema.Fields))
	for _, f := range schema.Fields {
		opts = append(opts, cel.Variable(f.Name, cel.DynType))
	}

	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	var programs []compiled
	for _, f := range schema.Fields {
		if f.Constraint == "" {
			continue
		}

		ast, issues := env.Compile(f.Constraint)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("field %q: compile error: %w", f.Name, issues.Err())
		}

		// Cost limit prevents runaway expressions from schema files.
		prog, err := env.Program(ast, cel.CostLimit(1000000))
		if err != nil {
			return nil, fmt.Errorf("field %q: program creation error: %w", f.Name, err)
		}

		programs = append(programs, compiled{field: f.Name, expr: f.Constraint, program: prog})
	}

	return &Engine{programs: programs}, nil
}

// ConstraintCount returns how many constraints the engine compiled.
func (e *Engine) ConstraintCount() int {
	return len(e.programs)
}

// Evaluate runs every compiled constraint against the record. Constraints on
// absent optional values are skipped. A non-boolean expression result counts
// as a rejection.
func (e *Engine) Evaluate(rec *domain.Record) (Result, error) {
	if len(e.programs) == 0 {
		return Result{Passed: true}, nil
	}

	facts := rec.Map()
	for _, c := range e.programs {
		if v, ok := facts[c.field]; !ok || v == nil {
			continue
		}

		out, _, err := c.program.Eval(facts)
		if err != nil {
			return Result{}, fmt.Errorf("field %q: constraint %q: %w", c.field, c.expr, err)
		}

		passed, ok := out.Value().(bool)
		if !ok || !passed {
			return Result{Passed: false, Field: c.field}, nil
		}
	}

	return Result{Passed: true}, nil
}
