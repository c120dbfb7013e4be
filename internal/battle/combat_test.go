package battle

import (
	"io"
	"math"
	"testing"
)

func newCombatFixture() (*World, *CombatResolver, *SimLog) {
	w := NewWorld(3000, 2000)
	log := NewSimLog(false)
	events := NewEventsTo(io.Discard, log)
	bb := NewBlackboard()
	fm := NewFormationManager(events)
	sai := NewSoldierAI(w, bb, fm, events)
	return w, NewCombatResolver(w, sai, events), log
}

func TestCombat_CooldownGatesAttacks(t *testing.T) {
	w, cr, _ := newCombatFixture()
	w.Spawn(RankSoldier, TeamRed, 0, 0)
	def := w.Spawn(RankSoldier, TeamBlue, 20, 0)

	cr.Resolve(0.05)
	if def.HP != 40 {
		t.Fatalf("hp after first swing = %.1f, want 40", def.HP)
	}
	// Half the cooldown: no second swing yet.
	cr.Resolve(0.5)
	if def.HP != 40 {
		t.Fatalf("hp mid-cooldown = %.1f, want 40", def.HP)
	}
	cr.Resolve(0.6)
	if def.HP != 30 {
		t.Fatalf("hp after cooldown = %.1f, want 30", def.HP)
	}
}

func TestCombat_OutOfRangeNoDamage(t *testing.T) {
	w, cr, _ := newCombatFixture()
	w.Spawn(RankSoldier, TeamRed, 0, 0)
	def := w.Spawn(RankSoldier, TeamBlue, 200, 0)

	cr.Resolve(0.05)
	if def.HP != def.MaxHP {
		t.Fatalf("hp = %.1f, unit out of range should be untouched", def.HP)
	}
}

func TestCombat_LowMoraleHalvesDamage(t *testing.T) {
	w, cr, _ := newCombatFixture()
	atk := w.Spawn(RankSoldier, TeamRed, 0, 0)
	atk.AdjustMorale(-1)
	def := w.Spawn(RankSoldier, TeamBlue, 20, 0)

	cr.Resolve(0.05)
	if math.Abs(def.HP-45) > 0.001 {
		t.Fatalf("hp = %.1f, want 45 (half damage at zero morale)", def.HP)
	}
}

func TestCombat_DeathSpreadsMoraleShock(t *testing.T) {
	w, cr, log := newCombatFixture()
	atk := w.Spawn(RankSoldier, TeamRed, 0, 0)
	def := w.Spawn(RankSoldier, TeamBlue, 20, 0)
	def.HP = 5
	near := w.Spawn(RankSoldier, TeamBlue, 100, 0)
	far := w.Spawn(RankSoldier, TeamBlue, 1000, 0)

	cr.Resolve(0.05)
	if !def.Dead {
		t.Fatal("defender should be dead")
	}
	if math.Abs(near.Morale-0.95) > 0.001 {
		t.Fatalf("nearby friend morale = %.3f, want 0.95", near.Morale)
	}
	if far.Morale != 1.0 {
		t.Fatalf("distant friend morale = %.3f, want untouched", far.Morale)
	}
	if atk.Morale != 1.0 {
		t.Fatalf("killer morale = %.3f, boost should clamp at 1.0", atk.Morale)
	}
	if log.CountCategory("death", "") == 0 {
		t.Fatal("death event not recorded")
	}
}

func TestCombat_CommanderDeathShocksHarder(t *testing.T) {
	w, cr, _ := newCombatFixture()
	w.Spawn(RankGeneral, TeamRed, 0, 0)
	officer := w.Spawn(RankOfficer, TeamBlue, 30, 0)
	officer.HP = 5
	witness := w.Spawn(RankSoldier, TeamBlue, 100, 0)

	cr.Resolve(0.05)
	if !officer.Dead {
		t.Fatal("officer should be dead")
	}
	if math.Abs(witness.Morale-0.85) > 0.001 {
		t.Fatalf("witness morale = %.3f, want 0.85 after commander death", witness.Morale)
	}
}

func TestCombat_SoldierPrefersAITarget(t *testing.T) {
	w := NewWorld(3000, 2000)
	log := NewSimLog(false)
	events := NewEventsTo(io.Discard, log)
	bb := NewBlackboard()
	fm := NewFormationManager(events)
	sai := NewSoldierAI(w, bb, fm, events)
	cr := NewCombatResolver(w, sai, events)

	atk := w.Spawn(RankSoldier, TeamRed, 0, 0)
	closer := w.Spawn(RankSoldier, TeamBlue, 15, 0)
	chosen := w.Spawn(RankSoldier, TeamBlue, 25, 0)
	sai.targets[atk.ID] = chosen.ID

	cr.Resolve(0.05)
	if chosen.HP != 40 {
		t.Fatalf("chosen target hp = %.1f, want 40", chosen.HP)
	}
	if closer.HP != closer.MaxHP {
		t.Fatalf("closer unit hp = %.1f, should be ignored for the AI target", closer.HP)
	}
}
