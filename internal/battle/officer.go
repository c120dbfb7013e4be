package battle

import "math"

// Officer decision cadence and movement tuning.
const (
	officerEvalInterval = 1.0
	scoutEvalInterval   = 5.0

	officerSuperiorityRadius = 400.0
	objectiveApproachBand    = 150.0 // "near" is within radius + this
	objectiveStopDist        = 30.0
	defaultStopDist          = 100.0

	scoutShareOfSquad = 0.10
	scoutMinSquadSize = 5
)

// OfficerAI runs one squad's chain of command: it receives the
// general's orders off the blackboard, reevaluates the local situation
// on a fixed cadence, and keeps the squad's formation anchored to its
// own position.
type OfficerAI struct {
	world      *World
	bb         *Blackboard
	formations *FormationManager
	soldiers   *SoldierAI
	events     *Events
	objectives *ObjectiveSet
	doctrine   *RuleSet[TacticalEnv]

	OfficerID int
	Squad     *Squad

	evalTimer  float64
	scoutTimer float64
	staged     *PendingOrder // downward order awaiting the relay delay
}

func NewOfficerAI(w *World, bb *Blackboard, fm *FormationManager, sai *SoldierAI,
	objs *ObjectiveSet, events *Events, doctrine *RuleSet[TacticalEnv], squad *Squad) *OfficerAI {
	return &OfficerAI{
		world:      w,
		bb:         bb,
		formations: fm,
		soldiers:   sai,
		events:     events,
		objectives: objs,
		doctrine:   doctrine,
		OfficerID:  squad.OfficerID,
		Squad:      squad,
	}
}

// Update advances the officer one step.
func (ai *OfficerAI) Update(dt, now float64) {
	officer, ok := ai.world.Unit(ai.OfficerID)
	if !ok || officer.Dead {
		return
	}

	ai.receiveOrders(now)
	ai.commitStaged(now)

	ai.evalTimer -= dt
	if ai.evalTimer <= 0 {
		ai.evalTimer = officerEvalInterval
		ai.evaluate(officer, now)
	}

	ai.scoutTimer -= dt
	if ai.scoutTimer <= 0 {
		ai.scoutTimer = scoutEvalInterval
		ai.manageScouts(officer)
	}

	ai.move(dt, officer)
	ai.anchorFormation(officer)
}

// receiveOrders drains delivered orders and stages the latest one for
// the squad.
func (ai *OfficerAI) receiveOrders(now float64) {
	orders := ai.bb.OrdersFor(ai.Squad.Team, ai.Squad.ID, now)
	if len(orders) == 0 {
		return
	}
	latest := orders[len(orders)-1]
	ai.stageOrder(latest.Order, latest.Target, now)
}

// stageOrder queues the officer's downward order. The squad sees it
// only after the officer-to-soldier relay delay; the latest staged
// intent always wins.
func (ai *OfficerAI) stageOrder(order OrderKind, target string, now float64) {
	if ai.Squad.Order == order && ai.Squad.Target == target {
		ai.staged = nil
		return
	}
	if ai.staged != nil && ai.staged.Order == order && ai.staged.Target == target {
		return
	}
	ai.staged = &PendingOrder{
		Recipient: ai.Squad.ID,
		Order:     order,
		Target:    target,
		DeliverAt: now + officerOrderDelay,
	}
}

// commitStaged applies the staged order once its relay delay elapses.
func (ai *OfficerAI) commitStaged(now float64) {
	if ai.staged == nil || now < ai.staged.DeliverAt {
		return
	}
	order, target := ai.staged.Order, ai.staged.Target
	ai.staged = nil
	ai.applyOrder(order, target)
}

func (ai *OfficerAI) applyOrder(order OrderKind, target string) {
	if ai.Squad.Order == order && ai.Squad.Target == target {
		return
	}
	ai.Squad.Order = order
	ai.Squad.Target = target
	ai.formations.Change(ai.Squad.ID, ChooseForOrder(order))
	if order == OrderRetreat {
		for _, id := range ai.Squad.SoldierIDs {
			ai.soldiers.ClearTarget(id)
		}
	}
	ai.events.Order(ai.Squad.ID, ai.Squad.Team, order, target)
}

// evaluate runs the tactical doctrine and dispatches on the winner.
func (ai *OfficerAI) evaluate(officer *Unit, now float64) {
	superiority := LocalSuperiority(ai.world, officer.Team, officer.X, officer.Y, officerSuperiorityRadius)
	cohesion := ai.formations.Cohesion(ai.Squad.ID)
	if ai.formations.Settling(ai.Squad.ID) || ai.formations.Regrouping(ai.Squad.ID) {
		// Mid-transition readings would re-trigger the regroup rule.
		cohesion = 1.0
	}
	env := TacticalEnv{
		ThreatRatio:      ThreatRatio(superiority),
		SquadMorale:      ai.squadMorale(),
		StrengthFraction: ai.Squad.StrengthFraction(),
		Cohesion:         cohesion,
		HasOrders:        ai.Squad.Order != OrderHold,
	}

	name, matched := ai.doctrine.Evaluate(env)
	if !matched {
		return
	}
	switch name {
	case "retreat_threat", "retreat_morale":
		ai.retreat(env.ThreatRatio, now)
	case "request_reinforcement":
		ai.bb.RequestReinforcement(ai.Squad.Team, ai.Squad.ID, now)
		ai.events.Reinforce(ai.Squad.Team, ai.Squad.ID, "understrength")
		ai.executeStrategicGoal(officer, now)
		ai.adaptFormation(officer)
	case "regroup":
		ai.formations.IssueRegroup(ai.Squad.ID)
	case "execute_order":
		ai.executeStrategicGoal(officer, now)
		ai.adaptFormation(officer)
	}
}

// adaptFormation tightens or disperses a squad in transit as the local
// balance of force shifts. Combat and capture orders keep their
// doctrine formations.
func (ai *OfficerAI) adaptFormation(officer *Unit) {
	switch ai.Squad.Order {
	case OrderAdvance, OrderMove:
	default:
		return
	}
	lvl := ThreatLevelAt(ai.world, officer.Team, officer.X, officer.Y, officerSuperiorityRadius)
	if lvl == ThreatLow {
		ai.formations.Change(ai.Squad.ID, ChooseForOrder(ai.Squad.Order))
		return
	}
	ai.formations.Change(ai.Squad.ID, ChooseForThreat(lvl))
}

func (ai *OfficerAI) retreat(threatRatio, now float64) {
	if ai.Squad.Order != OrderRetreat {
		ai.events.Retreat(ai.Squad.ID, ai.Squad.Team, threatRatio)
	}
	ai.stageOrder(OrderRetreat, "", now)
}

// executeStrategicGoal aligns the squad with the general's published
// intent. A target the team already holds is a finished job: the squad
// drops it and holds rather than milling on captured ground.
func (ai *OfficerAI) executeStrategicGoal(officer *Unit, now float64) {
	if ai.bb.IsReserved(officer.Team, ai.Squad.ID) {
		return
	}
	goal, ok := ai.bb.StrategicGoal(officer.Team, now)
	if !ok {
		return
	}
	if goal.Target != "" {
		if obj, found := ai.objectives.ByName(goal.Target); found && obj.Owner == int(officer.Team) {
			if ai.Squad.Target != "" {
				ai.stageOrder(OrderHold, "", now)
			}
			return
		}
	}
	ai.stageOrder(goal.Strategy.Order(), goal.Target, now)
}

// move steers the officer toward the squad's destination. The squad
// body follows via the formation anchored on the officer.
func (ai *OfficerAI) move(dt float64, officer *Unit) {
	switch ai.Squad.Order {
	case OrderRetreat:
		ai.moveRetreat(dt, officer)
		return
	case OrderHold:
		officer.Halt()
		return
	}

	tx, ty, stop, haveTarget := ai.destination(officer)
	if !haveTarget {
		officer.Halt()
		return
	}
	if officer.DistanceTo(tx, ty) <= stop {
		officer.Halt()
		return
	}
	officer.MoveToward(tx, ty, officerSpeed, dt)
}

// destination resolves where the squad is headed and the stop distance.
func (ai *OfficerAI) destination(officer *Unit) (x, y, stop float64, ok bool) {
	if ai.Squad.Target != "" {
		if obj, found := ai.objectives.ByName(ai.Squad.Target); found {
			// Inside the approach band steer at the exact center so the
			// capture spread actually covers the footprint.
			if officer.DistanceTo(obj.X, obj.Y) <= obj.Radius+objectiveApproachBand {
				return obj.X, obj.Y, objectiveStopDist, true
			}
			return obj.X, obj.Y, defaultStopDist, true
		}
	}
	if enemy := ai.world.NearestEnemy(officer.Team, officer.X, officer.Y); enemy != nil && ai.Squad.Order.Aggressive() {
		return enemy.X, enemy.Y, defaultStopDist, true
	}
	return 0, 0, 0, false
}

// moveRetreat pulls back toward the general, or directly away from the
// nearest enemy when the general is gone.
func (ai *OfficerAI) moveRetreat(dt float64, officer *Unit) {
	if g, ok := ai.world.General(officer.Team); ok {
		if officer.DistanceTo(g.X, g.Y) > defaultStopDist {
			officer.MoveToward(g.X, g.Y, officerSpeed, dt)
			return
		}
		officer.Halt()
		return
	}
	enemy := ai.world.NearestEnemy(officer.Team, officer.X, officer.Y)
	if enemy == nil {
		officer.Halt()
		return
	}
	dx, dy := officer.X-enemy.X, officer.Y-enemy.Y
	d := math.Hypot(dx, dy)
	if d < minSeparation {
		officer.Halt()
		return
	}
	officer.MoveToward(officer.X+dx/d*100, officer.Y+dy/d*100, officerSpeed, dt)
}

// anchorFormation pins the squad's formation to the officer and pushes
// slot positions onto the soldiers.
func (ai *OfficerAI) anchorFormation(officer *Unit) {
	facing := 0.0
	if tx, ty, _, ok := ai.destination(officer); ok {
		if d := officer.DistanceTo(tx, ty); d > minSeparation {
			facing = math.Atan2(ty-officer.Y, tx-officer.X)
		}
	}
	ai.formations.SetCenter(ai.Squad.ID, officer.X, officer.Y, facing)

	members := ai.formationMembers()
	total := len(members)
	for i, u := range members {
		if x, y, ok := ai.formations.SlotPosition(ai.Squad.ID, i, total); ok {
			u.HasSlot = true
			u.SlotX, u.SlotY = x, y
			u.FormationDeviation = u.DistanceTo(x, y)
		}
	}
}

// formationMembers returns the squad's soldiers that hold slots, in
// roster order. Scouts patrol detached and get no slot.
func (ai *OfficerAI) formationMembers() []*Unit {
	var out []*Unit
	for _, id := range ai.Squad.SoldierIDs {
		u, ok := ai.world.Unit(id)
		if !ok || u.Dead {
			continue
		}
		if ai.bb.IsScout(u.Team, u.ID) {
			u.HasSlot = false
			continue
		}
		out = append(out, u)
	}
	return out
}

// squadMorale averages the living members' morale, officer included.
func (ai *OfficerAI) squadMorale() float64 {
	var sum float64
	n := 0
	if o, ok := ai.world.Unit(ai.OfficerID); ok && !o.Dead {
		sum += o.Morale
		n++
	}
	for _, id := range ai.Squad.SoldierIDs {
		if u, ok := ai.world.Unit(id); ok && !u.Dead {
			sum += u.Morale
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// MaxScouts is the scout allotment for a squad of the given size: one
// in ten, but any squad of five or more fields at least one.
func MaxScouts(size int) int {
	n := int(math.Floor(float64(size) * scoutShareOfSquad))
	if n == 0 && size >= scoutMinSquadSize {
		n = 1
	}
	return n
}

// manageScouts keeps the squad's scout detachment at strength, pushing
// patrol anchors toward the enemy side of the officer. Scouting is a
// luxury of a quiet front: under high or overwhelming threat every
// scout is recalled to the line.
func (ai *OfficerAI) manageScouts(officer *Unit) {
	want := MaxScouts(ai.Squad.Size())
	lvl := ThreatLevelAt(ai.world, officer.Team, officer.X, officer.Y, officerSuperiorityRadius)
	if lvl == ThreatHigh || lvl == ThreatOverwhelming {
		want = 0
	}

	var current []int
	for _, id := range ai.Squad.SoldierIDs {
		if ai.bb.IsScout(officer.Team, id) {
			current = append(current, id)
		}
	}

	for len(current) > want {
		id := current[len(current)-1]
		current = current[:len(current)-1]
		ai.bb.RecallScout(officer.Team, id)
	}

	if len(current) >= want {
		return
	}

	// Patrol anchors fan out toward the enemy army.
	dirX, dirY := 1.0, 0.0
	if enemy := ai.world.NearestEnemy(officer.Team, officer.X, officer.Y); enemy != nil {
		dx, dy := enemy.X-officer.X, enemy.Y-officer.Y
		if d := math.Hypot(dx, dy); d > minSeparation {
			dirX, dirY = dx/d, dy/d
		}
	}
	for _, id := range ai.Squad.SoldierIDs {
		if len(current) >= want {
			break
		}
		if ai.bb.IsScout(officer.Team, id) {
			continue
		}
		u, ok := ai.world.Unit(id)
		if !ok || u.Dead {
			continue
		}
		spread := float64(len(current)) * 0.5
		px := officer.X + dirX*scoutPatrolRadius - dirY*spread*baseSpacing
		py := officer.Y + dirY*scoutPatrolRadius + dirX*spread*baseSpacing
		ai.bb.AssignScout(officer.Team, id, px, py)
		u.HasSlot = false
		current = append(current, id)
	}
}
