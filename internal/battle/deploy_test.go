package battle

import (
	"io"
	"math"
	"testing"

	"github.com/Garsondee/Command-Chain/internal/tuning"
)

func newDeployFixture(cfg tuning.Tuning) (*World, *Blackboard, *Deployment, *SimLog) {
	log := NewSimLog(false)
	events := NewEventsTo(io.Discard, log)
	w := NewWorld(cfg.WorldWidth, cfg.WorldHeight)
	bb := NewBlackboard()
	fm := NewFormationManager(events)
	return w, bb, NewDeployment(w, bb, fm, events, cfg, 42), log
}

func TestDeployment_InitialPlacement(t *testing.T) {
	cfg := tuning.Default()
	w, bb, d, _ := newDeployFixture(cfg)
	d.DeployArmies()

	redGen, ok := w.General(TeamRed)
	if !ok || redGen.X != 250 || redGen.Y != 1000 {
		t.Fatalf("red general at (%.0f, %.0f), want (250, 1000)", redGen.X, redGen.Y)
	}
	blueGen, _ := w.General(TeamBlue)
	if blueGen.X != 2750 || blueGen.Y != 1000 {
		t.Fatalf("blue general at (%.0f, %.0f), want (2750, 1000)", blueGen.X, blueGen.Y)
	}

	officers := w.TeamRank(TeamRed, RankOfficer)
	if len(officers) != 3 {
		t.Fatalf("red officers = %d, want 3", len(officers))
	}
	wantY := []float64{600, 1000, 1400}
	for i, o := range officers {
		if o.X != 400 || o.Y != wantY[i] {
			t.Fatalf("red officer %d at (%.0f, %.0f), want (400, %.0f)", i, o.X, o.Y, wantY[i])
		}
	}

	// Soldiers deploy behind their own line, never past the officers.
	for _, s := range w.TeamRank(TeamRed, RankSoldier) {
		if s.X >= 400 {
			t.Fatalf("red soldier ahead of the line at x=%.1f", s.X)
		}
	}
	for _, s := range w.TeamRank(TeamBlue, RankSoldier) {
		if s.X <= 2600 {
			t.Fatalf("blue soldier ahead of the line at x=%.1f", s.X)
		}
	}

	for _, id := range []string{"red_squad0", "red_squad1", "red_squad2"} {
		sq, ok := bb.Squad(TeamRed, id)
		if !ok {
			t.Fatalf("squad %s not registered", id)
		}
		if sq.Size() != cfg.SoldiersPerSquad {
			t.Fatalf("%s size = %d, want %d", id, sq.Size(), cfg.SoldiersPerSquad)
		}
	}
}

func TestDeployment_WaveWaitsForInterval(t *testing.T) {
	cfg := tuning.Default()
	cfg.SoldiersPerSquad = 5 // leave room for reinforcements
	w, _, d, log := newDeployFixture(cfg)
	d.DeployArmies()
	before := w.CountTeam(TeamRed)

	d.Update(cfg.ReinforcementInterval / 2)
	if w.CountTeam(TeamRed) != before {
		t.Fatal("reinforcements arrived before the interval expired")
	}
	d.Update(cfg.ReinforcementInterval/2 + 0.1)
	if got := w.CountTeam(TeamRed); got != before+cfg.ReinforcementPerWave {
		t.Fatalf("red count after wave = %d, want %d", got, before+cfg.ReinforcementPerWave)
	}
	if log.CountCategory("deployment", "reinforcement") != 2 {
		t.Fatal("reinforcement wave not recorded for both teams")
	}
}

func TestDeployment_WaveFillsWeakestSquadFirst(t *testing.T) {
	cfg := tuning.Default()
	w, bb, d, _ := newDeployFixture(cfg)
	d.DeployArmies()

	// Gut red_squad1: 8 casualties against squad0's 2.
	weak, _ := bb.Squad(TeamRed, "red_squad1")
	for _, id := range append([]int(nil), weak.SoldierIDs[:8]...) {
		w.Kill(id)
		weak.RemoveSoldier(id)
	}
	strong, _ := bb.Squad(TeamRed, "red_squad0")
	for _, id := range append([]int(nil), strong.SoldierIDs[:2]...) {
		w.Kill(id)
		strong.RemoveSoldier(id)
	}
	bb.RequestReinforcement(TeamRed, "red_squad1", 0)

	d.Update(cfg.ReinforcementInterval + 0.1)

	if weak.Size() != 7 {
		t.Fatalf("weak squad size = %d, want 7 (whole wave)", weak.Size())
	}
	if strong.Size() != 8 {
		t.Fatalf("strong squad size = %d, want untouched 8", strong.Size())
	}
	if reqs := bb.ReinforcementRequests(TeamRed); len(reqs) != 0 {
		t.Fatalf("reinforcement request not cleared: %v", reqs)
	}

	// New men spawn beside their officer, not at the map edge.
	officer, _ := w.Unit(weak.OfficerID)
	for _, id := range weak.SoldierIDs[2:] {
		u, _ := w.Unit(id)
		if dist := math.Hypot(u.X-officer.X, u.Y-officer.Y); dist > cfg.SoldierSpacing*2 {
			t.Fatalf("reinforcement %d spawned %.0f from its officer", id, dist)
		}
	}
}

func TestDeployment_FullSquadsAbsorbNothing(t *testing.T) {
	cfg := tuning.Default()
	w, _, d, log := newDeployFixture(cfg)
	d.DeployArmies()
	before := w.CountTeam(TeamRed) + w.CountTeam(TeamBlue)

	d.Update(cfg.ReinforcementInterval + 0.1)
	if got := w.CountTeam(TeamRed) + w.CountTeam(TeamBlue); got != before {
		t.Fatalf("units grew %d -> %d with every squad full", before, got)
	}
	if log.CountCategory("deployment", "reinforcement") != 0 {
		t.Fatal("reinforcement event recorded for an empty wave")
	}
}
