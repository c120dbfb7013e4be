package battle

import "testing"

func TestOfficer_AppliesDelayedOrder(t *testing.T) {
	// Soldiers start on their line slots so the pre-order formation is
	// already settled.
	ts := NewTestSim(
		WithObjective("hill", 1500, 1000, 100, 10),
		WithSquad("red_squad0", TeamRed, 400, 1000,
			[2]float64{400, 970}, [2]float64{400, 1030}),
	)
	ts.BB.IssueOrder(TeamRed, "red_squad0", OrderCapture, "hill", ts.Now(), generalOrderDelay)

	sq := ts.Squad(TeamRed, "red_squad0")
	ts.Step(0.05)
	if sq.Order == OrderCapture {
		t.Fatal("order applied before delivery delay")
	}

	ts.Run(1, 0.05)
	if sq.Order != OrderCapture || sq.Target != "hill" {
		t.Fatalf("squad order = %s/%q, want capture/hill", sq.Order, sq.Target)
	}
	cur, _ := ts.Formations.Current("red_squad0")
	if cur.Type != FormationCaptureSpread {
		t.Fatalf("formation = %s after capture order, want capture_spread", cur.Type)
	}
	if ts.Log.CountCategory("order", "capture") == 0 {
		t.Fatal("no order event recorded")
	}
}

func TestOfficer_RetreatsWhenOutnumbered(t *testing.T) {
	ts := NewTestSim(
		WithSquad("red_squad0", TeamRed, 500, 500,
			[2]float64{450, 450}, [2]float64{450, 550}),
		WithOrder("red_squad0", OrderAdvance, ""),
	)
	// Twelve blue soldiers inside the officer's superiority radius:
	// r = 4/16, threat ratio 3.0, well over the 1.5 threshold.
	for i := 0; i < 12; i++ {
		ts.World.Spawn(RankSoldier, TeamBlue, 700, 280+float64(i)*40)
	}

	sq := ts.Squad(TeamRed, "red_squad0")
	ts.Run(officerEvalInterval+0.1, 0.05)

	if sq.Order != OrderRetreat {
		t.Fatalf("squad order = %s, want retreat", sq.Order)
	}
	if sq.Target != "" {
		t.Fatalf("retreating squad kept target %q", sq.Target)
	}
	if ts.Log.CountCategory("retreat", "") == 0 {
		t.Fatal("no retreat event recorded")
	}
	cur, _ := ts.Formations.Current("red_squad0")
	if cur.Type != FormationSkirmish {
		t.Fatalf("retreat formation = %s, want skirmish", cur.Type)
	}
}

func TestOfficer_RetreatClearsSoldierTargets(t *testing.T) {
	ts := NewTestSim(
		WithSquad("red_squad0", TeamRed, 500, 500, [2]float64{520, 500}),
	)
	soldier := ts.World.TeamRank(TeamRed, RankSoldier)[0]
	for i := 0; i < 12; i++ {
		ts.World.Spawn(RankSoldier, TeamBlue, 600, 280+float64(i)*40)
	}
	ts.Step(0.05)
	ai := ts.Officers["red_squad0"]
	ai.retreat(3.0, ts.Now())
	ai.commitStaged(ts.Now() + officerOrderDelay)
	if _, has := ts.Soldiers.Target(soldier.ID); has {
		t.Fatal("soldier target survived squad retreat")
	}
}

func TestOfficer_RelaysOrderToSquadAfterDelay(t *testing.T) {
	ts := NewTestSim(
		WithObjective("hill", 1500, 1000, 100, 10),
		WithSquad("red_squad0", TeamRed, 400, 1000,
			[2]float64{400, 970}, [2]float64{400, 1030}),
	)
	// Deliver immediately: only the officer-to-soldier relay remains.
	ts.BB.IssueOrder(TeamRed, "red_squad0", OrderCapture, "hill", ts.Now(), 0)

	sq := ts.Squad(TeamRed, "red_squad0")
	before, _ := ts.Formations.Current("red_squad0")
	ts.Step(0.05)
	if sq.Order == OrderCapture {
		t.Fatal("squad saw the order the same tick the officer received it")
	}
	if cur, _ := ts.Formations.Current("red_squad0"); cur.Type != before.Type {
		t.Fatalf("formation flipped to %s before the relay delay", cur.Type)
	}

	ts.Run(officerOrderDelay+0.1, 0.05)
	if sq.Order != OrderCapture || sq.Target != "hill" {
		t.Fatalf("squad order = %s/%q after relay delay, want capture/hill", sq.Order, sq.Target)
	}
}

func TestOfficer_RequestsReinforcementWhenThin(t *testing.T) {
	// One soldier out of ten: strength 0.1, under the 0.4 threshold.
	ts := NewTestSim(
		WithSquad("red_squad0", TeamRed, 400, 500, [2]float64{420, 500}),
	)
	ts.Run(officerEvalInterval+0.1, 0.05)

	reqs := ts.BB.ReinforcementRequests(TeamRed)
	if len(reqs) != 1 || reqs[0] != "red_squad0" {
		t.Fatalf("requests = %v, want [red_squad0]", reqs)
	}
	if ts.Log.CountCategory("reinforce", "understrength") == 0 {
		t.Fatal("no reinforce event recorded")
	}
}

func TestOfficer_DropsOwnedObjectiveTarget(t *testing.T) {
	ts := NewTestSim(
		WithOwnedObjective("hill", 600, 1000, 100, 10, TeamRed),
		WithGeneral(TeamRed, 200, 1000),
		WithSquad("red_squad0", TeamRed, 500, 1000,
			[2]float64{450, 950}, [2]float64{450, 1000}, [2]float64{450, 1050},
			[2]float64{400, 950}, [2]float64{400, 1050}),
		WithOrder("red_squad0", OrderCapture, "hill"),
	)
	sq := ts.Squad(TeamRed, "red_squad0")
	// The general's goal still names the captured hill; the officer
	// must notice it is already owned and stand the squad down within
	// one evaluation.
	ts.BB.SetStrategicGoal(TeamRed, StrategyExpand, "hill", ts.Now())

	// Long enough for the squad to pull itself together: an initial
	// regroup window can delay the execute evaluation by a few seconds.
	ts.Run(8, 0.05)
	if sq.Target != "" {
		t.Fatalf("squad still targeting owned objective %q", sq.Target)
	}
	if sq.Order != OrderHold {
		t.Fatalf("squad order = %s on captured ground, want hold", sq.Order)
	}
}

func TestOfficer_MovesTowardObjective(t *testing.T) {
	ts := NewTestSim(
		WithObjective("hill", 1500, 1000, 100, 10),
		WithSquad("red_squad0", TeamRed, 400, 1000,
			[2]float64{350, 950}, [2]float64{350, 1000}, [2]float64{350, 1050},
			[2]float64{300, 950}, [2]float64{300, 1050}),
		WithOrder("red_squad0", OrderCapture, "hill"),
	)
	officer, _ := ts.World.Unit(ts.Squad(TeamRed, "red_squad0").OfficerID)

	start := officer.DistanceTo(1500, 1000)
	ts.Run(3, 0.05)
	after := officer.DistanceTo(1500, 1000)
	if after >= start {
		t.Fatalf("officer did not advance on objective: %.1f -> %.1f", start, after)
	}
}

func TestOfficer_StopsInsideObjective(t *testing.T) {
	ts := NewTestSim(
		WithObjective("hill", 700, 1000, 100, 10),
		WithSquad("red_squad0", TeamRed, 600, 1000,
			[2]float64{550, 950}, [2]float64{550, 1000}, [2]float64{550, 1050},
			[2]float64{500, 950}, [2]float64{500, 1050}),
		WithOrder("red_squad0", OrderCapture, "hill"),
	)
	officer, _ := ts.World.Unit(ts.Squad(TeamRed, "red_squad0").OfficerID)

	ts.Run(10, 0.05)
	if d := officer.DistanceTo(700, 1000); d > objectiveStopDist+5 {
		t.Fatalf("officer parked %.1f from objective center, want <= %.0f", d, objectiveStopDist)
	}
}

func TestMaxScouts_Allotment(t *testing.T) {
	cases := []struct {
		size int
		want int
	}{
		{0, 0}, {4, 0}, {5, 1}, {9, 1}, {10, 1}, {12, 1}, {20, 2}, {30, 3},
	}
	for _, c := range cases {
		if got := MaxScouts(c.size); got != c.want {
			t.Fatalf("MaxScouts(%d) = %d, want %d", c.size, got, c.want)
		}
	}
}

func TestOfficer_DeploysScoutsForFullSquad(t *testing.T) {
	soldiers := make([][2]float64, 10)
	for i := range soldiers {
		soldiers[i] = [2]float64{300, 800 + float64(i)*40}
	}
	ts := NewTestSim(
		WithSquad("red_squad0", TeamRed, 400, 1000, soldiers...),
	)
	ts.Step(0.05)
	if n := ts.BB.ScoutCount(TeamRed); n != 1 {
		t.Fatalf("scouts for 10-man squad = %d, want 1", n)
	}
}

func TestOfficer_RecallsExcessScouts(t *testing.T) {
	ts := NewTestSim(
		WithSquad("red_squad0", TeamRed, 400, 1000,
			[2]float64{300, 950}, [2]float64{300, 1000}, [2]float64{300, 1050}),
	)
	// Hand-assign scouts beyond the allotment for a 3-man squad (0).
	sq := ts.Squad(TeamRed, "red_squad0")
	ts.BB.AssignScout(TeamRed, sq.SoldierIDs[0], 700, 1000)
	ts.BB.AssignScout(TeamRed, sq.SoldierIDs[1], 700, 1100)

	ts.Step(0.05)
	if n := ts.BB.ScoutCount(TeamRed); n != 0 {
		t.Fatalf("scouts after recall pass = %d, want 0", n)
	}
}

func TestOfficer_WithholdsScoutsUnderThreat(t *testing.T) {
	// A squad of five would normally field one scout, but it starts
	// blanketed: twelve blue against seven red power is a high threat.
	soldiers := make([][2]float64, 5)
	for i := range soldiers {
		soldiers[i] = [2]float64{350, 800 + float64(i)*100}
	}
	ts := NewTestSim(
		WithSquad("red_squad0", TeamRed, 400, 1000, soldiers...),
	)
	for i := 0; i < 12; i++ {
		ts.World.Spawn(RankSoldier, TeamBlue, 700, 780+float64(i)*40)
	}

	ts.Run(scoutEvalInterval*2+0.2, 0.05)
	if n := ts.BB.ScoutCount(TeamRed); n != 0 {
		t.Fatalf("scouts deployed under high threat = %d, want 0", n)
	}
}

func TestOfficer_RecallsScoutsWhenThreatened(t *testing.T) {
	soldiers := make([][2]float64, 5)
	for i := range soldiers {
		soldiers[i] = [2]float64{350, 800 + float64(i)*100}
	}
	ts := NewTestSim(
		WithSquad("red_squad0", TeamRed, 400, 1000, soldiers...),
	)
	ts.Step(0.05)
	if n := ts.BB.ScoutCount(TeamRed); n != 1 {
		t.Fatalf("scouts on a quiet front = %d, want 1", n)
	}

	// The front collapses onto the squad; the scout comes home.
	for i := 0; i < 12; i++ {
		ts.World.Spawn(RankSoldier, TeamBlue, 700, 780+float64(i)*40)
	}
	ts.Run(scoutEvalInterval+0.2, 0.05)
	if n := ts.BB.ScoutCount(TeamRed); n != 0 {
		t.Fatalf("scouts still out under high threat = %d, want 0", n)
	}
}

func TestOfficer_TransitFormationAdaptsToThreat(t *testing.T) {
	// The lone soldier starts on its column slot (the officer's own
	// position) so cohesion stays high and the formation choice is
	// driven purely by the threat picture.
	ts := NewTestSim(
		WithSquad("red_squad0", TeamRed, 500, 500, [2]float64{500, 500}),
		WithOrder("red_squad0", OrderAdvance, ""),
	)
	// Red power 3 vs blue 2 inside the officer's radius: r = 0.6, a
	// medium threat that doesn't trip the retreat threshold.
	ts.World.Spawn(RankSoldier, TeamBlue, 850, 480)
	ts.World.Spawn(RankSoldier, TeamBlue, 850, 520)

	ts.Run(officerEvalInterval+0.1, 0.05)
	cur, _ := ts.Formations.Current("red_squad0")
	if cur.Type != FormationLine {
		t.Fatalf("transit formation under medium threat = %s, want line", cur.Type)
	}
}
