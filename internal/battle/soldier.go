package battle

import "math"

// Targeting and positioning constants.
const (
	generalProtectRadius = 200.0
	officerProtectRadius = 150.0

	rallyOverrideDist = 350.0 // beyond this, drop everything and return
	slotTolerance     = 30.0  // close enough to the formation slot

	scoutPatrolRadius = 250.0
	scoutScanRange    = 300.0

	orphanEngageRange = 400.0
	orphanRallyDist   = 50.0
)

// TargetScore ranks an enemy for a soldier: rank weight over a distance
// falloff. A general at 300 units still outranks a soldier at 10.
func TargetScore(rank Rank, dist float64) float64 {
	return rank.Weight() / (dist/100 + 0.5)
}

// SoldierAI drives every soldier-rank unit. Soldiers are reactive: they
// hold formation slots, pick their own targets inside doctrine
// priorities, and only break discipline to protect commanders or rally.
type SoldierAI struct {
	world      *World
	bb         *Blackboard
	formations *FormationManager
	events     *Events

	targets map[int]int // soldier id -> current target id
}

func NewSoldierAI(w *World, bb *Blackboard, fm *FormationManager, events *Events) *SoldierAI {
	return &SoldierAI{
		world:      w,
		bb:         bb,
		formations: fm,
		events:     events,
		targets:    make(map[int]int),
	}
}

// Target returns the soldier's current target, if alive.
func (ai *SoldierAI) Target(soldierID int) (*Unit, bool) {
	id, ok := ai.targets[soldierID]
	if !ok {
		return nil, false
	}
	t, tok := ai.world.Unit(id)
	if !tok || t.Dead {
		delete(ai.targets, soldierID)
		return nil, false
	}
	return t, true
}

// ClearTarget drops the soldier's target, used when orders override it.
func (ai *SoldierAI) ClearTarget(soldierID int) {
	delete(ai.targets, soldierID)
}

// Update advances one soldier one step.
func (ai *SoldierAI) Update(dt float64, now float64, s *Unit) {
	if s.Dead || s.Rank != RankSoldier {
		return
	}

	if ai.bb.IsScout(s.Team, s.ID) {
		ai.updateScout(dt, now, s)
		return
	}

	officer := ai.officerOf(s)
	if officer == nil {
		ai.updateOrphan(dt, s)
		return
	}

	// Rally override: too far from the officer, everything else waits.
	if d := s.DistanceTo(officer.X, officer.Y); d > rallyOverrideDist {
		ai.ClearTarget(s.ID)
		ai.events.Rally(s.ID, s.Team, d)
		s.MoveToward(officer.X, officer.Y, rallySpeed*s.CombatModifier(), dt)
		return
	}

	target, protection := ai.SelectTarget(s)
	if protection {
		prev, hadPrev := ai.targets[s.ID]
		if !hadPrev || prev != target.ID {
			commander := RankGeneral
			if g, ok := ai.world.General(s.Team); !ok || target.DistanceTo(g.X, g.Y) > generalProtectRadius {
				commander = RankOfficer
			}
			ai.events.Protection(s.ID, s.Team, target.ID, commander)
		}
	}
	if target == nil {
		ai.ClearTarget(s.ID)
		ai.followFormation(dt, s)
		return
	}
	ai.targets[s.ID] = target.ID

	dist := s.DistanceTo(target.X, target.Y)
	switch {
	case protection:
		// Commander defense closes regardless of formation discipline.
		if dist > s.AttackRange {
			s.MoveToward(target.X, target.Y, soldierChaseSpeed*s.CombatModifier(), dt)
		} else {
			s.Halt()
		}
	case dist <= s.AttackRange:
		s.Halt()
	case dist <= s.AttackRange*2:
		// Close contact: chase.
		s.MoveToward(target.X, target.Y, soldierChaseSpeed*s.CombatModifier(), dt)
	case dist <= s.AttackRange*3:
		// Target nearby but not pressing: hold the slot, let it come.
		ai.followFormation(dt, s)
	default:
		ai.ClearTarget(s.ID)
		ai.followFormation(dt, s)
	}
}

// SelectTarget applies the targeting doctrine. The returned bool marks
// a protection pick: an enemy that got close to the general or the
// soldier's own officer, chosen over anything in normal detection.
func (ai *SoldierAI) SelectTarget(s *Unit) (*Unit, bool) {
	// Tier 1: threats to the general. Only when the general is safe
	// does the soldier's own officer get the same treatment.
	if general, ok := ai.world.General(s.Team); ok {
		if threat := ai.nearestThreat(s, general.X, general.Y, generalProtectRadius); threat != nil {
			return threat, true
		}
	}
	if officer := ai.officerOf(s); officer != nil {
		if threat := ai.nearestThreat(s, officer.X, officer.Y, officerProtectRadius); threat != nil {
			return threat, true
		}
	}

	// Tier 3: best-scoring enemy inside detection range. Ties resolve
	// to the closer enemy, then to scan order.
	var best *Unit
	bestScore := 0.0
	bestDist := math.Inf(1)
	detect := s.DetectionRange()
	ai.world.ForEach(func(e *Unit) {
		if e.Team == s.Team {
			return
		}
		d := s.DistanceTo(e.X, e.Y)
		if d > detect {
			return
		}
		score := TargetScore(e.Rank, d)
		if score > bestScore || (score == bestScore && d < bestDist) {
			bestScore = score
			bestDist = d
			best = e
		}
	})
	return best, false
}

// nearestThreat returns the enemy inside the protect radius around
// (cx, cy) that is closest to the soldier, if any.
func (ai *SoldierAI) nearestThreat(s *Unit, cx, cy, radius float64) *Unit {
	var best *Unit
	bestDist := math.Inf(1)
	ai.world.ForEach(func(e *Unit) {
		if e.Team == s.Team || e.DistanceTo(cx, cy) > radius {
			return
		}
		if d := s.DistanceTo(e.X, e.Y); d < bestDist {
			bestDist = d
			best = e
		}
	})
	return best
}

// followFormation seeks the assigned slot; on station the soldier holds.
func (ai *SoldierAI) followFormation(dt float64, s *Unit) {
	if !s.HasSlot {
		s.Halt()
		return
	}
	dev := s.DistanceTo(s.SlotX, s.SlotY)
	s.FormationDeviation = dev
	if dev <= slotTolerance {
		s.Halt()
		return
	}
	s.MoveToward(s.SlotX, s.SlotY, soldierSpeed*s.CombatModifier(), dt)
}

// officerOf resolves the soldier's squad officer, nil when orphaned.
func (ai *SoldierAI) officerOf(s *Unit) *Unit {
	if s.SquadID == "" {
		return nil
	}
	sq, ok := ai.bb.Squad(s.Team, s.SquadID)
	if !ok {
		s.SquadID = ""
		return nil
	}
	o, ok := ai.world.Unit(sq.OfficerID)
	if !ok || o.Dead {
		return nil
	}
	return o
}

// updateOrphan recovers a soldier with no living officer: rejoin the
// nearest officer with room, fall back to shadowing the general, fight
// whatever comes close in the meantime.
func (ai *SoldierAI) updateOrphan(dt float64, s *Unit) {
	if enemy := ai.world.NearestEnemy(s.Team, s.X, s.Y); enemy != nil {
		if d := s.DistanceTo(enemy.X, enemy.Y); d <= orphanEngageRange {
			ai.targets[s.ID] = enemy.ID
			if d > s.AttackRange {
				s.MoveToward(enemy.X, enemy.Y, soldierChaseSpeed*s.CombatModifier(), dt)
			} else {
				s.Halt()
			}
			return
		}
	}
	ai.ClearTarget(s.ID)

	if o := ai.world.NearestOfficer(s.Team, s.X, s.Y); o != nil {
		if s.DistanceTo(o.X, o.Y) <= RankOfficer.CommandRadius() {
			if sq := ai.squadOfOfficer(s.Team, o.ID); sq != nil && sq.AddSoldier(s.ID) {
				s.SquadID = sq.ID
				return
			}
		}
		// Out of command range: march toward the officer.
		if d := s.DistanceTo(o.X, o.Y); d > orphanRallyDist {
			s.MoveToward(o.X, o.Y, soldierChaseSpeed*s.CombatModifier(), dt)
			return
		}
	} else if g, ok := ai.world.General(s.Team); ok {
		if d := s.DistanceTo(g.X, g.Y); d > orphanRallyDist {
			s.MoveToward(g.X, g.Y, soldierChaseSpeed*s.CombatModifier(), dt)
			return
		}
	}
	s.Halt()
}

func (ai *SoldierAI) squadOfOfficer(team Team, officerID int) *Squad {
	for _, sq := range ai.bb.Squads(team) {
		if sq.OfficerID == officerID {
			return sq
		}
	}
	return nil
}

// updateScout runs the detached patrol loop: cruise to the anchor,
// orbit it, report contacts, and fall back before getting caught.
func (ai *SoldierAI) updateScout(dt, now float64, s *Unit) {
	px, py, ok := ai.bb.ScoutPatrol(s.Team, s.ID)
	if !ok {
		ai.bb.RecallScout(s.Team, s.ID)
		return
	}

	// Report everything inside scan range.
	ai.world.ForEach(func(e *Unit) {
		if e.Team == s.Team {
			return
		}
		d := s.DistanceTo(e.X, e.Y)
		if d > scoutScanRange {
			return
		}
		if ai.bb.ReportScoutSighting(s.Team, s.ID, e.ID, e.X, e.Y, now) {
			ai.events.ScoutSighting(s.ID, s.Team, e.ID, d)
		}
	})

	// Scouts don't fight: anything inside twice attack range sends
	// them sprinting back toward the officer line.
	if enemy := ai.world.NearestEnemy(s.Team, s.X, s.Y); enemy != nil {
		if s.DistanceTo(enemy.X, enemy.Y) <= s.AttackRange*2 {
			if o := ai.world.NearestOfficer(s.Team, s.X, s.Y); o != nil {
				s.MoveToward(o.X, o.Y, scoutRetreatSpeed, dt)
				return
			}
		}
	}

	if s.DistanceTo(px, py) > slotTolerance {
		s.MoveToward(px, py, scoutCruiseSpeed, dt)
		return
	}
	s.Halt()
}
