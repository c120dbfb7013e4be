package battle

import "testing"

func TestCompileRuleSet_BadConditionFails(t *testing.T) {
	_, err := CompileRuleSet([]Rule[TacticalEnv]{
		{Name: "broken", Priority: 1, Condition: "threat_ratio >"},
	})
	if err == nil {
		t.Fatal("expected compile error for malformed condition")
	}
}

func TestCompileRuleSet_NonBoolFails(t *testing.T) {
	_, err := CompileRuleSet([]Rule[TacticalEnv]{
		{Name: "numeric", Priority: 1, Condition: "threat_ratio + 1"},
	})
	if err == nil {
		t.Fatal("expected compile error for non-boolean condition")
	}
}

func TestRuleSet_PriorityOrderWins(t *testing.T) {
	rs, err := CompileRuleSet([]Rule[TacticalEnv]{
		{Name: "low", Priority: 1, Condition: "true"},
		{Name: "high", Priority: 10, Condition: "true"},
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	name, ok := rs.Evaluate(TacticalEnv{})
	if !ok || name != "high" {
		t.Fatalf("winner = %q (%v), want high", name, ok)
	}
}

func TestTacticalDoctrine_RetreatOutranksAll(t *testing.T) {
	rs, err := CompileRuleSet(tacticalDoctrine())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	// Everything is wrong at once: outnumbered, broken morale, thin
	// roster, scattered. Threat retreat must win.
	env := TacticalEnv{
		ThreatRatio:      3.0,
		SquadMorale:      0.1,
		StrengthFraction: 0.2,
		Cohesion:         0.1,
	}
	name, _ := rs.Evaluate(env)
	if name != "retreat_threat" {
		t.Fatalf("winner = %q, want retreat_threat", name)
	}
}

func TestTacticalDoctrine_Thresholds(t *testing.T) {
	rs, err := CompileRuleSet(tacticalDoctrine())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	healthy := TacticalEnv{ThreatRatio: 1.0, SquadMorale: 1.0, StrengthFraction: 1.0, Cohesion: 1.0}

	cases := []struct {
		name string
		env  TacticalEnv
		want string
	}{
		{"healthy", healthy, "execute_order"},
		{"at threat threshold", TacticalEnv{ThreatRatio: 1.5, SquadMorale: 1, StrengthFraction: 1, Cohesion: 1}, "execute_order"},
		{"over threat threshold", TacticalEnv{ThreatRatio: 1.51, SquadMorale: 1, StrengthFraction: 1, Cohesion: 1}, "retreat_threat"},
		{"broken morale", TacticalEnv{ThreatRatio: 1, SquadMorale: 0.29, StrengthFraction: 1, Cohesion: 1}, "retreat_morale"},
		{"understrength", TacticalEnv{ThreatRatio: 1, SquadMorale: 1, StrengthFraction: 0.39, Cohesion: 1}, "request_reinforcement"},
		{"scattered", TacticalEnv{ThreatRatio: 1, SquadMorale: 1, StrengthFraction: 1, Cohesion: 0.29}, "regroup"},
	}
	for _, c := range cases {
		name, ok := rs.Evaluate(c.env)
		if !ok || name != c.want {
			t.Fatalf("%s: winner = %q, want %q", c.name, name, c.want)
		}
	}
}

func TestStrategicDoctrine_Dispatch(t *testing.T) {
	rs, err := CompileRuleSet(strategicDoctrine())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	cases := []struct {
		name string
		env  StrategicEnv
		want string
	}{
		{
			"desperate when landless",
			StrategicEnv{OwnedObjectives: 0, EnemyObjectives: 2, UnitCount: 5, EnemyUnitCount: 20, Morale: 0.2},
			"desperate_attack",
		},
		{
			// The rule is territorial, not psychological: a confident
			// landless army still goes all in.
			"desperate despite high morale",
			StrategicEnv{OwnedObjectives: 0, EnemyObjectives: 2, UnitCount: 10, EnemyUnitCount: 10, Morale: 0.8},
			"desperate_attack",
		},
		{
			"attack when outheld",
			StrategicEnv{OwnedObjectives: 1, EnemyObjectives: 2, UnitCount: 20, EnemyUnitCount: 10, Morale: 0.8},
			"attack",
		},
		{
			// Territory drives the attack rule; being outnumbered
			// doesn't suppress it.
			"attack while outnumbered",
			StrategicEnv{OwnedObjectives: 1, EnemyObjectives: 3, UnitCount: 10, EnemyUnitCount: 12, Morale: 0.8},
			"attack",
		},
		{
			"expand onto neutral ground",
			StrategicEnv{OwnedObjectives: 1, NeutralObjectives: 2, UnitCount: 10, EnemyUnitCount: 10, Morale: 0.8},
			"expand",
		},
		{
			"defend when badly outnumbered",
			StrategicEnv{OwnedObjectives: 2, EnemyObjectives: 1, UnitCount: 6, EnemyUnitCount: 10, Morale: 0.8},
			"defend",
		},
		{
			"advance as fallback",
			StrategicEnv{UnitCount: 10, EnemyUnitCount: 10, Morale: 0.8},
			"advance",
		},
	}
	for _, c := range cases {
		name, ok := rs.Evaluate(c.env)
		if !ok || name != c.want {
			t.Fatalf("%s: winner = %q, want %q", c.name, name, c.want)
		}
	}
}
