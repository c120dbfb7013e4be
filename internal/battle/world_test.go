package battle

import (
	"math"
	"testing"
)

func TestNewUnit_RankStatTable(t *testing.T) {
	cases := []struct {
		rank                      Rank
		hp, damage, rng, cooldown float64
	}{
		{RankSoldier, 50, 10, 30, 1.0},
		{RankOfficer, 150, 20, 40, 0.8},
		{RankGeneral, 300, 40, 50, 0.6},
	}
	for _, c := range cases {
		u := NewUnit(0, c.rank, TeamRed, 0, 0)
		if u.MaxHP != c.hp || u.AttackDamage != c.damage ||
			u.AttackRange != c.rng || u.AttackCooldown != c.cooldown {
			t.Fatalf("%s stats = hp %.0f dmg %.0f rng %.0f cd %.1f",
				c.rank, u.MaxHP, u.AttackDamage, u.AttackRange, u.AttackCooldown)
		}
		if u.Morale != 1.0 {
			t.Fatalf("%s spawns with morale %.2f, want 1.0", c.rank, u.Morale)
		}
	}
}

func TestUnit_CombatModifierTracksMorale(t *testing.T) {
	u := NewUnit(0, RankSoldier, TeamRed, 0, 0)
	if u.CombatModifier() != 1.0 {
		t.Fatalf("full morale modifier = %.2f", u.CombatModifier())
	}
	u.AdjustMorale(-2) // clamps to zero
	if u.Morale != 0 {
		t.Fatalf("morale not clamped: %.2f", u.Morale)
	}
	if u.CombatModifier() != 0.5 {
		t.Fatalf("broken morale modifier = %.2f, want 0.5", u.CombatModifier())
	}
	u.AdjustMorale(5)
	if u.Morale != 1.0 {
		t.Fatalf("morale not clamped high: %.2f", u.Morale)
	}
}

func TestUnit_MoveTowardDegenerateTargetHalts(t *testing.T) {
	u := NewUnit(0, RankSoldier, TeamRed, 100, 100)
	u.VX, u.VY = 5, 5
	u.MoveToward(100, 100, soldierSpeed, 0.05)
	if u.VX != 0 || u.VY != 0 {
		t.Fatalf("velocity after degenerate move = (%.2f, %.2f)", u.VX, u.VY)
	}
	if u.X != 100 || u.Y != 100 {
		t.Fatalf("unit drifted to (%.2f, %.2f)", u.X, u.Y)
	}
}

func TestUnit_MoveTowardIntegratesOneStep(t *testing.T) {
	u := NewUnit(0, RankSoldier, TeamRed, 0, 0)
	u.MoveToward(100, 0, 120, 0.5)
	if math.Abs(u.X-60) > 0.001 || u.Y != 0 {
		t.Fatalf("position = (%.2f, %.2f), want (60, 0)", u.X, u.Y)
	}
}

func TestWorld_SpawnOrderIsStable(t *testing.T) {
	w := NewWorld(3000, 2000)
	for i := 0; i < 5; i++ {
		w.Spawn(RankSoldier, TeamRed, float64(i), 0)
	}
	var seen []int
	w.ForEach(func(u *Unit) { seen = append(seen, u.ID) })
	for i, id := range seen {
		if id != i {
			t.Fatalf("iteration order %v, want spawn order", seen)
		}
	}
}

func TestWorld_KillRemovesFromIterationButNotLookup(t *testing.T) {
	w := NewWorld(3000, 2000)
	a := w.Spawn(RankSoldier, TeamRed, 0, 0)
	w.Spawn(RankSoldier, TeamRed, 10, 0)
	w.Kill(a.ID)

	if got := w.CountTeam(TeamRed); got != 1 {
		t.Fatalf("living count = %d, want 1", got)
	}
	body, ok := w.Unit(a.ID)
	if !ok || !body.Dead {
		t.Fatal("dead unit should stay addressable with Dead set")
	}
}

func TestWorld_ArmyCenterExcludesGeneral(t *testing.T) {
	w := NewWorld(3000, 2000)
	w.Spawn(RankGeneral, TeamRed, 0, 0)
	w.Spawn(RankSoldier, TeamRed, 100, 0)
	w.Spawn(RankSoldier, TeamRed, 300, 0)

	x, y, ok := w.ArmyCenter(TeamRed)
	if !ok || x != 200 || y != 0 {
		t.Fatalf("army center = (%.1f, %.1f, %v), want (200, 0)", x, y, ok)
	}
}

func TestWorld_NearestEnemyIgnoresOwnTeam(t *testing.T) {
	w := NewWorld(3000, 2000)
	w.Spawn(RankSoldier, TeamRed, 10, 0)
	far := w.Spawn(RankSoldier, TeamBlue, 500, 0)

	got := w.NearestEnemy(TeamRed, 0, 0)
	if got == nil || got.ID != far.ID {
		t.Fatalf("nearest enemy = %v, want blue unit", got)
	}
	if w.NearestEnemy(TeamBlue, 0, 0).Team != TeamRed {
		t.Fatal("nearest enemy of blue should be red")
	}
}

func TestWorld_LocalPowerWeighsRank(t *testing.T) {
	w := NewWorld(3000, 2000)
	w.Spawn(RankSoldier, TeamRed, 0, 0)
	w.Spawn(RankOfficer, TeamRed, 50, 0)
	w.Spawn(RankGeneral, TeamRed, 2000, 0) // outside radius

	if p := w.LocalPower(TeamRed, 0, 0, 100); p != 3 {
		t.Fatalf("local power = %.1f, want 3 (soldier 1 + officer 2)", p)
	}
}
