package battle

import "io"

// TestSim is a headless harness used exclusively by tests. It mirrors
// ArmyManager.Step but places units by hand instead of running the
// deployment, so scenarios can pin down one behavior at a time.
type TestSim struct {
	World      *World
	BB         *Blackboard
	Formations *FormationManager
	Objectives *ObjectiveSet
	Soldiers   *SoldierAI
	Combat     *CombatResolver
	Events     *Events
	Log        *SimLog

	Generals map[Team]*GeneralAI
	Officers map[string]*OfficerAI

	combatOn bool
	now      float64
	tick     int
}

// simOptionKind controls the pass in which an option is applied.
type simOptionKind int

const (
	simOptInfra simOptionKind = iota // arena, objectives, verbose — applied first
	simOptUnit                       // spawn units and squads
	simOptWire                       // anything that needs units in place
)

// SimOption is a builder function applied to a TestSim during construction.
type SimOption struct {
	kind simOptionKind
	fn   func(*TestSim)
}

// WithArena sets the battlefield dimensions.
func WithArena(w, h float64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.World = NewWorld(w, h)
	}}
}

// WithVerbose enables per-tick verbose logging.
func WithVerbose(v bool) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.Log = NewSimLog(v)
	}}
}

// WithCombat enables the attack resolver; off by default so movement
// tests don't lose units mid-assertion.
func WithCombat() SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.combatOn = true
	}}
}

// WithObjective adds a neutral objective.
func WithObjective(name string, x, y, radius, value float64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.Objectives.Add(NewObjective(name, x, y, radius, value))
	}}
}

// WithOwnedObjective adds an objective already held by a team.
func WithOwnedObjective(name string, x, y, radius, value float64, owner Team) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		o := NewObjective(name, x, y, radius, value)
		o.Owner = int(owner)
		if owner == TeamRed {
			o.Control = controlRedBand
		} else {
			o.Control = controlBlueBand
		}
		ts.Objectives.Add(o)
	}}
}

// WithGeneral spawns a general for the team.
func WithGeneral(team Team, x, y float64) SimOption {
	return SimOption{simOptUnit, func(ts *TestSim) {
		ts.World.Spawn(RankGeneral, team, x, y)
	}}
}

// WithSquad spawns an officer at (ox, oy) plus soldiers at the given
// positions, registered as one squad.
func WithSquad(id string, team Team, ox, oy float64, soldiers ...[2]float64) SimOption {
	return SimOption{simOptUnit, func(ts *TestSim) {
		officer := ts.World.Spawn(RankOfficer, team, ox, oy)
		sq := NewSquad(id, team, officer.ID)
		for _, pos := range soldiers {
			s := ts.World.Spawn(RankSoldier, team, pos[0], pos[1])
			s.SquadID = id
			sq.AddSoldier(s.ID)
		}
		ts.BB.RegisterSquad(sq)
		ts.Formations.Create(id, ChooseForOrder(OrderHold))
	}}
}

// WithLoneSoldier spawns a soldier with no squad.
func WithLoneSoldier(team Team, x, y float64) SimOption {
	return SimOption{simOptUnit, func(ts *TestSim) {
		ts.World.Spawn(RankSoldier, team, x, y)
	}}
}

// WithOrder seeds a squad's standing order before the first tick.
func WithOrder(squadID string, order OrderKind, target string) SimOption {
	return SimOption{simOptWire, func(ts *TestSim) {
		if ai, ok := ts.Officers[squadID]; ok {
			ai.applyOrder(order, target)
		}
	}}
}

// NewTestSim constructs a TestSim from the given options in three
// ordered passes: infrastructure, units, then wiring. Doctrines compile
// once per sim; a compile failure panics because it is a programming
// error in the doctrine tables, not a scenario problem.
func NewTestSim(opts ...SimOption) *TestSim {
	ts := &TestSim{
		World:      NewWorld(3000, 2000),
		BB:         NewBlackboard(),
		Objectives: NewObjectiveSet(),
		Log:        NewSimLog(false),
		Generals:   make(map[Team]*GeneralAI),
		Officers:   make(map[string]*OfficerAI),
	}
	for _, o := range opts {
		if o.kind == simOptInfra {
			o.fn(ts)
		}
	}
	ts.Events = NewEventsTo(io.Discard, ts.Log)
	ts.Formations = NewFormationManager(ts.Events)
	ts.Soldiers = NewSoldierAI(ts.World, ts.BB, ts.Formations, ts.Events)
	ts.Combat = NewCombatResolver(ts.World, ts.Soldiers, ts.Events)

	for _, o := range opts {
		if o.kind == simOptUnit {
			o.fn(ts)
		}
	}

	strategic, err := CompileRuleSet(strategicDoctrine())
	if err != nil {
		panic(err)
	}
	tactical, err := CompileRuleSet(tacticalDoctrine())
	if err != nil {
		panic(err)
	}
	for _, team := range []Team{TeamRed, TeamBlue} {
		if _, ok := ts.World.General(team); ok {
			ts.Generals[team] = NewGeneralAI(ts.World, ts.BB, ts.Objectives, ts.Events, strategic, team)
		}
		for _, sq := range ts.BB.Squads(team) {
			ts.Officers[sq.ID] = NewOfficerAI(ts.World, ts.BB, ts.Formations,
				ts.Soldiers, ts.Objectives, ts.Events, tactical, sq)
		}
	}
	ts.updateStats()

	for _, o := range opts {
		if o.kind == simOptWire {
			o.fn(ts)
		}
	}
	return ts
}

// Now is the simulation clock in seconds.
func (ts *TestSim) Now() float64 { return ts.now }

// CurrentTick returns the current simulation tick.
func (ts *TestSim) CurrentTick() int { return ts.tick }

// Step advances one fixed timestep, mirroring ArmyManager.Step.
func (ts *TestSim) Step(dt float64) {
	ts.tick++
	ts.now += dt
	ts.Events.SetTick(ts.tick)
	ts.updateStats()

	for _, team := range []Team{TeamRed, TeamBlue} {
		if g, ok := ts.Generals[team]; ok {
			g.Update(dt, ts.now)
		}
		for _, sq := range ts.BB.Squads(team) {
			if ai, ok := ts.Officers[sq.ID]; ok {
				ai.Update(dt, ts.now)
			}
		}
	}

	ts.World.ForEach(func(u *Unit) {
		if u.Rank == RankSoldier {
			ts.Soldiers.Update(dt, ts.now, u)
		}
	})

	if ts.combatOn {
		ts.Combat.Resolve(dt)
		for _, team := range []Team{TeamRed, TeamBlue} {
			for _, sq := range ts.BB.Squads(team) {
				for _, id := range append([]int(nil), sq.SoldierIDs...) {
					if u, ok := ts.World.Unit(id); !ok || u.Dead {
						sq.RemoveSoldier(id)
						ts.BB.RecallScout(team, id)
					}
				}
			}
		}
	}
	ts.Formations.Tick(dt)
	ts.updateCohesion()
	ts.Objectives.Update(dt, ts.World, ts.Events)
}

// Run advances the sim for the given duration at a fixed timestep.
func (ts *TestSim) Run(seconds, dt float64) {
	steps := int(seconds / dt)
	for i := 0; i < steps; i++ {
		ts.Step(dt)
	}
}

// RunUntil steps until predicate returns true or maxTicks elapse,
// returning the tick at which it fired, or -1.
func (ts *TestSim) RunUntil(predicate func(*TestSim) bool, dt float64, maxTicks int) int {
	for i := 0; i < maxTicks; i++ {
		ts.Step(dt)
		if predicate(ts) {
			return ts.tick
		}
	}
	return -1
}

// UnitAt returns the nth spawned unit, in spawn order. Tests lean on
// spawn order being deterministic.
func (ts *TestSim) UnitAt(n int) *Unit {
	u, ok := ts.World.Unit(n)
	if !ok {
		return nil
	}
	return u
}

// Squad returns a registered squad by id, nil when missing.
func (ts *TestSim) Squad(team Team, id string) *Squad {
	sq, ok := ts.BB.Squad(team, id)
	if !ok {
		return nil
	}
	return sq
}

func (ts *TestSim) updateStats() {
	red, blue, neutral := ts.Objectives.CountOwned()
	redUnits := ts.World.CountTeam(TeamRed)
	blueUnits := ts.World.CountTeam(TeamBlue)
	ts.BB.UpdateTeamStats(TeamRed, TeamStats{
		Units: redUnits, EnemyUnits: blueUnits,
		Owned: red, EnemyOwned: blue, Neutral: neutral,
	})
	ts.BB.UpdateTeamStats(TeamBlue, TeamStats{
		Units: blueUnits, EnemyUnits: redUnits,
		Owned: blue, EnemyOwned: red, Neutral: neutral,
	})
}

func (ts *TestSim) updateCohesion() {
	for _, team := range []Team{TeamRed, TeamBlue} {
		for _, sq := range ts.BB.Squads(team) {
			var devs []float64
			for _, id := range sq.SoldierIDs {
				u, ok := ts.World.Unit(id)
				if !ok || u.Dead || !u.HasSlot {
					continue
				}
				devs = append(devs, u.FormationDeviation)
			}
			sq.Cohesion = ts.Formations.UpdateCohesion(sq.ID, devs)
		}
	}
}
