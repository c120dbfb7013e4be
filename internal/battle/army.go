package battle

import (
	"fmt"

	"github.com/Garsondee/Command-Chain/internal/tuning"
)

// Team morale pressure per second.
const (
	casualtyMoralePerLoss = 0.01
	unitAdvantageMorale   = 0.005
	objAdvantageMorale    = 0.01
)

// ArmyManager owns the whole battle: the world, the blackboard, both
// chains of command, and the per-tick update order. One Step is one
// fixed timestep of simulation.
type ArmyManager struct {
	World      *World
	Blackboard *Blackboard
	Formations *FormationManager
	Objectives *ObjectiveSet
	Deployment *Deployment
	Events     *Events

	generals [2]*GeneralAI
	officers map[string]*OfficerAI // keyed by squad id
	soldiers *SoldierAI
	combat   *CombatResolver

	tactical *RuleSet[TacticalEnv]

	cfg  tuning.Tuning
	now  float64
	tick int

	lastCount [2]int
}

// NewArmyManager compiles the doctrines, builds the arena, and deploys
// both armies. Doctrine compile errors abort construction.
func NewArmyManager(cfg tuning.Tuning, seed int64, objs *ObjectiveSet, events *Events) (*ArmyManager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	strategic, err := CompileRuleSet(strategicDoctrine())
	if err != nil {
		return nil, fmt.Errorf("strategic doctrine: %w", err)
	}
	tactical, err := CompileRuleSet(tacticalDoctrine())
	if err != nil {
		return nil, fmt.Errorf("tactical doctrine: %w", err)
	}

	w := NewWorld(cfg.WorldWidth, cfg.WorldHeight)
	bb := NewBlackboard()
	fm := NewFormationManager(events)
	sai := NewSoldierAI(w, bb, fm, events)

	m := &ArmyManager{
		World:      w,
		Blackboard: bb,
		Formations: fm,
		Objectives: objs,
		Events:     events,
		officers:   make(map[string]*OfficerAI),
		soldiers:   sai,
		combat:     NewCombatResolver(w, sai, events),
		tactical:   tactical,
		cfg:        cfg,
	}
	m.Deployment = NewDeployment(w, bb, fm, events, cfg, seed)
	m.Deployment.DeployArmies()

	for _, team := range []Team{TeamRed, TeamBlue} {
		m.generals[team] = NewGeneralAI(w, bb, objs, events, strategic, team)
		m.lastCount[team] = w.CountTeam(team)
	}
	m.ensureOfficers()
	m.updateStats()
	return m, nil
}

// Now is the simulation clock in seconds.
func (m *ArmyManager) Now() float64 { return m.now }

// Tick is the number of completed steps.
func (m *ArmyManager) Tick() int { return m.tick }

// SoldierAI exposes the soldier layer for inspection.
func (m *ArmyManager) SoldierAI() *SoldierAI { return m.soldiers }

// General returns the team's general AI.
func (m *ArmyManager) General(team Team) *GeneralAI { return m.generals[team] }

// Officer returns the AI running the named squad, if it exists.
func (m *ArmyManager) Officer(squadID string) (*OfficerAI, bool) {
	o, ok := m.officers[squadID]
	return o, ok
}

// Step advances the battle one fixed timestep. Update order is
// top-down: reinforcements arrive, intelligence refreshes, then
// generals, officers, soldiers, combat, and finally the environment.
func (m *ArmyManager) Step(dt float64) {
	m.tick++
	m.now += dt
	m.Events.SetTick(m.tick)

	m.Deployment.Update(dt)
	m.ensureOfficers()
	m.updateStats()

	for _, g := range m.generals {
		g.Update(dt, m.now)
	}
	for _, sq := range m.Blackboard.Squads(TeamRed) {
		m.officers[sq.ID].Update(dt, m.now)
	}
	for _, sq := range m.Blackboard.Squads(TeamBlue) {
		m.officers[sq.ID].Update(dt, m.now)
	}

	m.World.ForEach(func(u *Unit) {
		if u.Rank == RankSoldier {
			m.soldiers.Update(dt, m.now, u)
		}
	})

	m.combat.Resolve(dt)
	m.Formations.Tick(dt)
	m.updateCohesion()
	m.Objectives.Update(dt, m.World, m.Events)
	m.updateMorale(dt)
	m.reapSquads()
}

// ensureOfficers creates an OfficerAI for any squad missing one.
func (m *ArmyManager) ensureOfficers() {
	for _, team := range []Team{TeamRed, TeamBlue} {
		for _, sq := range m.Blackboard.Squads(team) {
			if _, ok := m.officers[sq.ID]; !ok {
				m.officers[sq.ID] = NewOfficerAI(m.World, m.Blackboard, m.Formations,
					m.soldiers, m.Objectives, m.Events, m.tactical, sq)
			}
		}
	}
}

// updateStats publishes the aggregate picture each general reads.
func (m *ArmyManager) updateStats() {
	red, blue, neutral := m.Objectives.CountOwned()
	redUnits := m.World.CountTeam(TeamRed)
	blueUnits := m.World.CountTeam(TeamBlue)
	m.Blackboard.UpdateTeamStats(TeamRed, TeamStats{
		Units: redUnits, EnemyUnits: blueUnits,
		Owned: red, EnemyOwned: blue, Neutral: neutral,
	})
	m.Blackboard.UpdateTeamStats(TeamBlue, TeamStats{
		Units: blueUnits, EnemyUnits: redUnits,
		Owned: blue, EnemyOwned: red, Neutral: neutral,
	})
}

// updateCohesion recomputes every squad's cohesion from slot deviations.
func (m *ArmyManager) updateCohesion() {
	for _, team := range []Team{TeamRed, TeamBlue} {
		for _, sq := range m.Blackboard.Squads(team) {
			var devs []float64
			for _, id := range sq.SoldierIDs {
				u, ok := m.World.Unit(id)
				if !ok || u.Dead || !u.HasSlot {
					continue
				}
				devs = append(devs, u.FormationDeviation)
			}
			sq.Cohesion = m.Formations.UpdateCohesion(sq.ID, devs)
		}
	}
}

// updateMorale drains or restores army-wide morale from casualties,
// numerical advantage, and map control.
func (m *ArmyManager) updateMorale(dt float64) {
	red, blue, _ := m.Objectives.CountOwned()
	counts := [2]int{m.World.CountTeam(TeamRed), m.World.CountTeam(TeamBlue)}
	owned := [2]int{red, blue}

	for _, team := range []Team{TeamRed, TeamBlue} {
		enemy := team.Enemy()
		if lost := m.lastCount[team] - counts[team]; lost > 0 {
			m.Blackboard.AdjustMorale(team, -casualtyMoralePerLoss*float64(lost))
		}
		switch {
		case counts[team] > counts[enemy]:
			m.Blackboard.AdjustMorale(team, unitAdvantageMorale*dt)
		case counts[team] < counts[enemy]:
			m.Blackboard.AdjustMorale(team, -unitAdvantageMorale*dt)
		}
		switch {
		case owned[team] > owned[enemy]:
			m.Blackboard.AdjustMorale(team, objAdvantageMorale*dt)
		case owned[team] < owned[enemy]:
			m.Blackboard.AdjustMorale(team, -objAdvantageMorale*dt)
		}
		m.lastCount[team] = counts[team]
	}
}

// reapSquads prunes casualties from rosters and dissolves squads whose
// officer died: soldiers are orphaned, scouts recalled, and the squad
// forgotten. Orphans recover on their own through the soldier AI.
func (m *ArmyManager) reapSquads() {
	for _, team := range []Team{TeamRed, TeamBlue} {
		for _, sq := range m.Blackboard.Squads(team) {
			for _, id := range append([]int(nil), sq.SoldierIDs...) {
				if u, uok := m.World.Unit(id); !uok || u.Dead {
					sq.RemoveSoldier(id)
					m.Blackboard.RecallScout(team, id)
				}
			}
			o, ok := m.World.Unit(sq.OfficerID)
			if ok && !o.Dead {
				continue
			}
			orphans := 0
			for _, id := range sq.SoldierIDs {
				u, uok := m.World.Unit(id)
				if !uok || u.Dead {
					continue
				}
				u.SquadID = ""
				u.HasSlot = false
				m.Blackboard.RecallScout(team, id)
				orphans++
			}
			m.Events.SquadDisbanded(sq.ID, team, orphans)
			m.Blackboard.UnregisterSquad(team, sq.ID)
			m.Formations.Remove(sq.ID)
			delete(m.officers, sq.ID)
		}
	}
}

// Winner reports the battle outcome: a team with no living opponents
// wins; the zero result with false means the fight continues.
func (m *ArmyManager) Winner() (Team, bool) {
	red := m.World.CountTeam(TeamRed)
	blue := m.World.CountTeam(TeamBlue)
	switch {
	case red > 0 && blue == 0:
		return TeamRed, true
	case blue > 0 && red == 0:
		return TeamBlue, true
	default:
		return TeamRed, false
	}
}
