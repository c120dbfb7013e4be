package battle

import (
	"fmt"
	"math"
	"sort"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/Garsondee/Command-Chain/internal/tuning"
)

// Deployment places both armies at battle start and feeds periodic
// reinforcement waves to the squads that need them most. Placement
// jitter comes from seeded noise so a scenario replays identically.
type Deployment struct {
	world      *World
	bb         *Blackboard
	formations *FormationManager
	events     *Events
	cfg        tuning.Tuning
	noise      opensimplex.Noise

	waveTimer float64
	sample    float64 // advances per noise draw
}

func NewDeployment(w *World, bb *Blackboard, fm *FormationManager, events *Events,
	cfg tuning.Tuning, seed int64) *Deployment {
	return &Deployment{
		world:      w,
		bb:         bb,
		formations: fm,
		events:     events,
		cfg:        cfg,
		noise:      opensimplex.NewNormalized(seed),
		waveTimer:  cfg.ReinforcementInterval,
	}
}

// jitter draws a deterministic offset in [-scale, scale].
func (d *Deployment) jitter(scale float64) float64 {
	d.sample += 0.731
	return (d.noise.Eval2(d.sample, 0.5) - 0.5) * 2 * scale
}

// DeployArmies spawns both teams: one general, a line of officers, and
// a full squad behind each officer.
func (d *Deployment) DeployArmies() {
	for _, team := range []Team{TeamRed, TeamBlue} {
		d.deployTeam(team)
	}
}

func (d *Deployment) deployTeam(team Team) {
	x := d.cfg.DeployEdgeOffset
	facing := 1.0
	if team == TeamBlue {
		x = d.world.Width - d.cfg.DeployEdgeOffset
		facing = -1.0
	}
	centerY := d.world.Height / 2

	// The general stands behind the officer line.
	d.world.Spawn(RankGeneral, team, x-facing*150, centerY)

	span := float64(d.cfg.OfficersPerTeam-1) * d.cfg.OfficerSpacing
	for i := 0; i < d.cfg.OfficersPerTeam; i++ {
		oy := centerY - span/2 + float64(i)*d.cfg.OfficerSpacing
		officer := d.world.Spawn(RankOfficer, team, x, oy)

		sq := NewSquad(fmt.Sprintf("%s_squad%d", team, i), team, officer.ID)
		sq.MaxSize = d.cfg.SquadMaxSize
		for j := 0; j < d.cfg.SoldiersPerSquad; j++ {
			sx := x - facing*(d.cfg.SoldierSpacing+d.jitter(d.cfg.SoldierSpacing*0.3))
			sy := oy + (float64(j)-float64(d.cfg.SoldiersPerSquad-1)/2)*d.cfg.SoldierSpacing +
				d.jitter(d.cfg.SoldierSpacing*0.2)
			soldier := d.world.Spawn(RankSoldier, team, sx, sy)
			soldier.SquadID = sq.ID
			sq.AddSoldier(soldier.ID)
		}
		d.bb.RegisterSquad(sq)
		d.formations.Create(sq.ID, ChooseForOrder(OrderHold))
	}
	d.events.Deployment(team, 1+d.cfg.OfficersPerTeam*(1+d.cfg.SoldiersPerSquad), "initial")
}

// Update advances the reinforcement clock, releasing a wave per team
// when it expires.
func (d *Deployment) Update(dt float64) {
	d.waveTimer -= dt
	if d.waveTimer > 0 {
		return
	}
	d.waveTimer = d.cfg.ReinforcementInterval
	for _, team := range []Team{TeamRed, TeamBlue} {
		d.reinforce(team)
	}
}

// reinforce spawns a wave of soldiers and routes them to the weakest
// squads first. Open reinforcement requests clear for every squad that
// receives men.
func (d *Deployment) reinforce(team Team) {
	squads := d.bb.Squads(team)
	var open []*Squad
	for _, sq := range squads {
		if o, ok := d.world.Unit(sq.OfficerID); ok && !o.Dead && sq.Size() < sq.MaxSize {
			open = append(open, sq)
		}
	}
	if len(open) == 0 {
		return
	}
	sort.SliceStable(open, func(i, j int) bool {
		return open[i].StrengthFraction() < open[j].StrengthFraction()
	})

	placed := 0
	for i := 0; i < d.cfg.ReinforcementPerWave; i++ {
		sq := d.weakestWithRoom(open)
		if sq == nil {
			break
		}
		officer, _ := d.world.Unit(sq.OfficerID)
		theta := d.jitter(math.Pi)
		sx := officer.X + math.Cos(theta)*d.cfg.SoldierSpacing*1.5
		sy := officer.Y + math.Sin(theta)*d.cfg.SoldierSpacing*1.5
		soldier := d.world.Spawn(RankSoldier, team, sx, sy)
		soldier.SquadID = sq.ID
		sq.AddSoldier(soldier.ID)
		d.bb.ClearReinforcementRequest(team, sq.ID)
		placed++
	}
	if placed > 0 {
		d.events.Deployment(team, placed, "reinforcement")
	}
}

func (d *Deployment) weakestWithRoom(squads []*Squad) *Squad {
	var best *Squad
	bestFrac := 2.0
	for _, sq := range squads {
		if sq.Size() >= sq.MaxSize {
			continue
		}
		if f := sq.StrengthFraction(); f < bestFrac {
			bestFrac = f
			best = sq
		}
	}
	return best
}
