package battle

import (
	"fmt"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Rule is one doctrine clause: a named condition compiled to expr
// bytecode. Rules are evaluated by descending priority and the first
// match wins; the caller dispatches on the winning rule's name.
type Rule[E any] struct {
	Name      string
	Priority  int
	Condition string

	program *vm.Program
}

// RuleSet holds compiled rules in evaluation order.
type RuleSet[E any] struct {
	rules []Rule[E]
}

// CompileRuleSet compiles every rule condition against the environment
// type and orders the set by descending priority. A condition that
// fails to compile aborts the whole set; doctrine bugs surface at
// startup, not mid-battle.
func CompileRuleSet[E any](rules []Rule[E]) (*RuleSet[E], error) {
	var env E
	compiled := make([]Rule[E], len(rules))
	for i, r := range rules {
		prog, err := expr.Compile(r.Condition, expr.Env(env), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", r.Name, err)
		}
		r.program = prog
		compiled[i] = r
	}
	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].Priority > compiled[j].Priority
	})
	return &RuleSet[E]{rules: compiled}, nil
}

// Evaluate runs the set against env and returns the name of the first
// matching rule, or false if none fire.
func (rs *RuleSet[E]) Evaluate(env E) (string, bool) {
	for _, r := range rs.rules {
		out, err := vm.Run(r.program, env)
		if err != nil {
			continue
		}
		if matched, ok := out.(bool); ok && matched {
			return r.Name, true
		}
	}
	return "", false
}

// StrategicEnv is the picture a general's doctrine reasons over.
type StrategicEnv struct {
	OwnedObjectives   int     `expr:"owned_objectives"`
	EnemyObjectives   int     `expr:"enemy_objectives"`
	NeutralObjectives int     `expr:"neutral_objectives"`
	UnitCount         int     `expr:"unit_count"`
	EnemyUnitCount    int     `expr:"enemy_unit_count"`
	Morale            float64 `expr:"morale"`
}

// TacticalEnv is the local picture an officer's doctrine reasons over.
type TacticalEnv struct {
	ThreatRatio      float64 `expr:"threat_ratio"`
	SquadMorale      float64 `expr:"squad_morale"`
	StrengthFraction float64 `expr:"strength"`
	Cohesion         float64 `expr:"cohesion"`
	HasOrders        bool    `expr:"has_orders"`
}

// Tactical decision thresholds.
const (
	retreatThreatRatio = 1.5
	retreatMoraleFloor = 0.3
	reinforceStrength  = 0.4
)

// strategicDoctrine drives the general. Later clauses are fallbacks;
// "advance" always fires when nothing else does.
func strategicDoctrine() []Rule[StrategicEnv] {
	return []Rule[StrategicEnv]{
		{
			Name:      "desperate_attack",
			Priority:  50,
			Condition: "owned_objectives == 0 && enemy_objectives > 0",
		},
		{
			Name:      "attack",
			Priority:  40,
			Condition: "enemy_objectives > owned_objectives",
		},
		{
			Name:      "expand",
			Priority:  30,
			Condition: "neutral_objectives > 0",
		},
		{
			Name:      "defend",
			Priority:  20,
			Condition: "owned_objectives > 0 && unit_count*10 < enemy_unit_count*7",
		},
		{
			Name:      "advance",
			Priority:  10,
			Condition: "true",
		},
	}
}

// tacticalDoctrine drives officers. Retreat clauses outrank everything;
// "execute_order" is the fallback that follows the general's goal.
func tacticalDoctrine() []Rule[TacticalEnv] {
	return []Rule[TacticalEnv]{
		{
			Name:      "retreat_threat",
			Priority:  50,
			Condition: fmt.Sprintf("threat_ratio > %v", retreatThreatRatio),
		},
		{
			Name:      "retreat_morale",
			Priority:  40,
			Condition: fmt.Sprintf("squad_morale < %v", retreatMoraleFloor),
		},
		{
			Name:      "request_reinforcement",
			Priority:  30,
			Condition: fmt.Sprintf("strength < %v", reinforceStrength),
		},
		{
			Name:      "regroup",
			Priority:  20,
			Condition: fmt.Sprintf("cohesion < %v", cohesionBreakPoint),
		},
		{
			Name:      "execute_order",
			Priority:  10,
			Condition: "true",
		},
	}
}
