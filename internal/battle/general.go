package battle

import (
	"math"
	"sort"
)

// Strategic cadence and reserve policy.
const (
	generalDecisionInterval = 2.0

	reserveFraction     = 0.3
	reserveCommitRatio  = 0.8 // commit when own count < enemy * this
	reserveCommitMorale = 0.4

	driftGateDist        = 200.0
	driftOfficerWeight   = 0.7
	driftObjectiveWeight = 0.3
)

// ObjectiveScore rates an objective for strategic targeting: value over
// a gentle distance falloff, so a distant prize still beats worthless
// nearby ground.
func ObjectiveScore(value, dist float64) float64 {
	return value / (dist/1000 + 0.5)
}

// GeneralAI sets army-wide strategy on a slow cadence, assigns squads
// against the chosen target while withholding a reserve, and drifts
// behind the officer line.
type GeneralAI struct {
	world      *World
	bb         *Blackboard
	objectives *ObjectiveSet
	events     *Events
	doctrine   *RuleSet[StrategicEnv]

	Team     Team
	Strategy Strategy
	Target   string

	decisionTimer float64
	reserves      map[string]struct{}
	lastOwned     int
	justLost      bool
}

func NewGeneralAI(w *World, bb *Blackboard, objs *ObjectiveSet, events *Events,
	doctrine *RuleSet[StrategicEnv], team Team) *GeneralAI {
	return &GeneralAI{
		world:      w,
		bb:         bb,
		objectives: objs,
		events:     events,
		doctrine:   doctrine,
		Team:       team,
		reserves:   make(map[string]struct{}),
		lastOwned:  -1,
	}
}

// Update advances the general one step.
func (ai *GeneralAI) Update(dt, now float64) {
	general, ok := ai.world.General(ai.Team)
	if !ok {
		return
	}

	ai.trackObjectiveLosses()

	ai.decisionTimer -= dt
	if ai.decisionTimer <= 0 {
		ai.decisionTimer = generalDecisionInterval
		ai.decide(now)
	}

	ai.checkReserveCommit(now)
	ai.drift(dt, general)
}

// trackObjectiveLosses latches a flag when owned ground drops, feeding
// the reserve commit check.
func (ai *GeneralAI) trackObjectiveLosses() {
	owned := len(ai.objectives.OwnedBy(ai.Team))
	if ai.lastOwned >= 0 && owned < ai.lastOwned {
		ai.justLost = true
	}
	ai.lastOwned = owned
}

// decide runs the strategic doctrine and publishes the result.
func (ai *GeneralAI) decide(now float64) {
	stats := ai.bb.Stats(ai.Team)
	env := StrategicEnv{
		OwnedObjectives:   stats.Owned,
		EnemyObjectives:   stats.EnemyOwned,
		NeutralObjectives: stats.Neutral,
		UnitCount:         stats.Units,
		EnemyUnitCount:    stats.EnemyUnits,
		Morale:            ai.bb.Morale(ai.Team),
	}

	name, matched := ai.doctrine.Evaluate(env)
	if !matched {
		name = "advance"
	}
	var strategy Strategy
	switch name {
	case "desperate_attack":
		strategy = StrategyDesperateAttack
	case "attack":
		strategy = StrategyAttack
	case "expand":
		strategy = StrategyExpand
	case "defend":
		strategy = StrategyDefend
	default:
		strategy = StrategyAdvance
	}

	target := ai.chooseTarget(strategy)
	if strategy == ai.Strategy && target == ai.Target {
		return
	}
	ai.Strategy = strategy
	ai.Target = target
	ai.bb.SetStrategicGoal(ai.Team, strategy, target, now)
	ai.events.Strategy(ai.Team, strategy.String(), target)
	ai.assignSquads(now)
}

// chooseTarget picks the objective the strategy points at.
func (ai *GeneralAI) chooseTarget(strategy Strategy) string {
	switch strategy {
	case StrategyAttack:
		if name := ai.bestScored(ai.objectives.OwnedBy(ai.Team.Enemy())); name != "" {
			return name
		}
		return ai.bestScored(ai.objectives.Neutral())
	case StrategyDesperateAttack:
		// All-in pushes take the shortest road, not the best prize.
		if name := ai.nearestOf(ai.objectives.OwnedBy(ai.Team.Enemy())); name != "" {
			return name
		}
		return ai.nearestOf(ai.objectives.Neutral())
	case StrategyExpand:
		if name := ai.bestScored(ai.objectives.Neutral()); name != "" {
			return name
		}
		return ai.bestScored(ai.objectives.OwnedBy(ai.Team.Enemy()))
	case StrategyDefend:
		return ai.mostValuableOwned()
	default: // advance pushes at the nearest hostile ground
		if name := ai.nearestOf(ai.objectives.OwnedBy(ai.Team.Enemy())); name != "" {
			return name
		}
		return ai.nearestOf(ai.objectives.Neutral())
	}
}

// bestScored returns the highest-scoring objective from the army
// center. Candidates arrive in name order, so score ties resolve to
// the alphabetically first name.
func (ai *GeneralAI) bestScored(candidates []*Objective) string {
	cx, cy, ok := ai.world.ArmyCenter(ai.Team)
	if !ok {
		if g, gok := ai.world.General(ai.Team); gok {
			cx, cy = g.X, g.Y
		} else {
			return ""
		}
	}
	best := ""
	bestScore := math.Inf(-1)
	for _, o := range candidates {
		d := math.Hypot(o.X-cx, o.Y-cy)
		if s := ObjectiveScore(o.Value, d); s > bestScore {
			bestScore = s
			best = o.Name
		}
	}
	return best
}

func (ai *GeneralAI) nearestOf(candidates []*Objective) string {
	cx, cy, ok := ai.world.ArmyCenter(ai.Team)
	if !ok {
		return ai.bestScored(candidates)
	}
	best := ""
	bestDist := math.Inf(1)
	for _, o := range candidates {
		if d := math.Hypot(o.X-cx, o.Y-cy); d < bestDist {
			bestDist = d
			best = o.Name
		}
	}
	return best
}

// mostValuableOwned picks the highest-value owned objective, the one
// worth garrisoning. Candidates arrive in name order, so value ties
// resolve to the alphabetically first name.
func (ai *GeneralAI) mostValuableOwned() string {
	best := ""
	bestValue := math.Inf(-1)
	for _, o := range ai.objectives.OwnedBy(ai.Team) {
		if o.Value > bestValue {
			bestValue = o.Value
			best = o.Name
		}
	}
	return best
}

// assignSquads orders the active squads against the target while
// holding out a reserve. Desperate attacks commit everyone.
func (ai *GeneralAI) assignSquads(now float64) {
	squads := ai.bb.Squads(ai.Team)
	if len(squads) == 0 {
		return
	}

	reserveCount := int(math.Floor(float64(len(squads)) * reserveFraction))
	if reserveCount == 0 && len(squads) > 1 {
		reserveCount = 1
	}
	if ai.Strategy == StrategyDesperateAttack {
		reserveCount = 0
	}

	// Weakest squads sit in reserve; full-strength squads lead.
	ordered := make([]*Squad, len(squads))
	copy(ordered, squads)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].StrengthFraction() > ordered[j].StrengthFraction()
	})

	for id := range ai.reserves {
		ai.bb.SetReserved(ai.Team, id, false)
	}
	ai.reserves = make(map[string]struct{})
	order := ai.Strategy.Order()
	for i, sq := range ordered {
		if i >= len(ordered)-reserveCount {
			ai.reserves[sq.ID] = struct{}{}
			ai.bb.SetReserved(ai.Team, sq.ID, true)
			ai.bb.IssueOrder(ai.Team, sq.ID, OrderHold, "", now, generalOrderDelay)
			continue
		}
		ai.bb.IssueOrder(ai.Team, sq.ID, order, ai.Target, now, generalOrderDelay)
	}
}

// checkReserveCommit releases reserves when the army is losing: thinned
// out, bleeding objectives, or broken morale.
func (ai *GeneralAI) checkReserveCommit(now float64) {
	// A reserve whose squad disbanded is no reserve at all.
	for id := range ai.reserves {
		if _, ok := ai.bb.Squad(ai.Team, id); !ok {
			delete(ai.reserves, id)
		}
	}
	if len(ai.reserves) == 0 {
		return
	}
	stats := ai.bb.Stats(ai.Team)
	losing := float64(stats.Units) < float64(stats.EnemyUnits)*reserveCommitRatio ||
		ai.justLost ||
		ai.bb.Morale(ai.Team) < reserveCommitMorale
	if !losing {
		return
	}
	ai.justLost = false

	ids := make([]string, 0, len(ai.reserves))
	for id := range ai.reserves {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	commit := ids[:1]
	if ai.Strategy == StrategyDesperateAttack {
		commit = ids
	}
	for _, id := range commit {
		delete(ai.reserves, id)
		ai.bb.SetReserved(ai.Team, id, false)
		ai.bb.IssueOrder(ai.Team, id, OrderAttack, ai.Target, now, generalOrderDelay)
		ai.events.Reinforce(ai.Team, id, "reserve_commit")
	}
}

// drift keeps the general behind the officer line, biased toward the
// strategic target, without ever marching into contact.
func (ai *GeneralAI) drift(dt float64, general *Unit) {
	ox, oy, ok := ai.world.OfficerCenter(ai.Team)
	if !ok {
		general.Halt()
		return
	}
	tx, ty := ox, oy
	if obj, found := ai.objectives.ByName(ai.Target); found {
		tx = ox*driftOfficerWeight + obj.X*driftObjectiveWeight
		ty = oy*driftOfficerWeight + obj.Y*driftObjectiveWeight
	}
	if general.DistanceTo(tx, ty) <= driftGateDist {
		general.Halt()
		return
	}
	general.MoveToward(tx, ty, generalDriftSpeed, dt)
}
