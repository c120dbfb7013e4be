package battle

import "math"

// World holds every unit in the arena with stable iteration order.
// Iteration follows spawn order so a fixed seed replays identically.
type World struct {
	Width, Height float64

	units  map[int]*Unit
	order  []int
	nextID int
}

func NewWorld(width, height float64) *World {
	return &World{
		Width:  width,
		Height: height,
		units:  make(map[int]*Unit),
	}
}

// Spawn creates a unit and registers it, returning the new unit.
func (w *World) Spawn(rank Rank, team Team, x, y float64) *Unit {
	u := NewUnit(w.nextID, rank, team, x, y)
	w.units[u.ID] = u
	w.order = append(w.order, u.ID)
	w.nextID++
	return u
}

// Unit looks up a unit by id. Dead units remain addressable until reaped.
func (w *World) Unit(id int) (*Unit, bool) {
	u, ok := w.units[id]
	return u, ok
}

// Kill marks a unit dead. The body stays in the map so in-flight
// references resolve; callers filter on Dead.
func (w *World) Kill(id int) {
	if u, ok := w.units[id]; ok {
		u.Dead = true
		u.Halt()
	}
}

// ForEach visits every living unit in spawn order.
func (w *World) ForEach(fn func(*Unit)) {
	for _, id := range w.order {
		u := w.units[id]
		if u == nil || u.Dead {
			continue
		}
		fn(u)
	}
}

// TeamUnits returns all living units on the team in spawn order.
func (w *World) TeamUnits(team Team) []*Unit {
	var out []*Unit
	w.ForEach(func(u *Unit) {
		if u.Team == team {
			out = append(out, u)
		}
	})
	return out
}

// TeamRank returns living units of the team holding the given rank.
func (w *World) TeamRank(team Team, rank Rank) []*Unit {
	var out []*Unit
	w.ForEach(func(u *Unit) {
		if u.Team == team && u.Rank == rank {
			out = append(out, u)
		}
	})
	return out
}

// EnemiesOf returns all living units opposing the team.
func (w *World) EnemiesOf(team Team) []*Unit {
	return w.TeamUnits(team.Enemy())
}

// General returns the team's living general, if any.
func (w *World) General(team Team) (*Unit, bool) {
	gs := w.TeamRank(team, RankGeneral)
	if len(gs) == 0 {
		return nil, false
	}
	return gs[0], true
}

// CountTeam returns the number of living units on the team.
func (w *World) CountTeam(team Team) int {
	return len(w.TeamUnits(team))
}

// ArmyCenter is the centroid of the team's soldiers and officers. The
// general is excluded so its own drift target doesn't chase itself.
func (w *World) ArmyCenter(team Team) (x, y float64, ok bool) {
	var sx, sy float64
	n := 0
	w.ForEach(func(u *Unit) {
		if u.Team != team || u.Rank == RankGeneral {
			return
		}
		sx += u.X
		sy += u.Y
		n++
	})
	if n == 0 {
		return 0, 0, false
	}
	return sx / float64(n), sy / float64(n), true
}

// OfficerCenter is the centroid of the team's living officers.
func (w *World) OfficerCenter(team Team) (x, y float64, ok bool) {
	var sx, sy float64
	n := 0
	for _, o := range w.TeamRank(team, RankOfficer) {
		sx += o.X
		sy += o.Y
		n++
	}
	if n == 0 {
		return 0, 0, false
	}
	return sx / float64(n), sy / float64(n), true
}

// NearestEnemy returns the closest living enemy to (x, y), nil if the
// enemy army is wiped out. Ties resolve to the earliest-spawned unit.
func (w *World) NearestEnemy(team Team, x, y float64) *Unit {
	var best *Unit
	bestDist := math.Inf(1)
	w.ForEach(func(u *Unit) {
		if u.Team == team {
			return
		}
		d := u.DistanceTo(x, y)
		if d < bestDist {
			bestDist = d
			best = u
		}
	})
	return best
}

// NearestOfficer returns the closest living officer of the team to (x, y).
func (w *World) NearestOfficer(team Team, x, y float64) *Unit {
	var best *Unit
	bestDist := math.Inf(1)
	for _, o := range w.TeamRank(team, RankOfficer) {
		d := o.DistanceTo(x, y)
		if d < bestDist {
			bestDist = d
			best = o
		}
	}
	return best
}

// LocalPower sums rank-weighted combat power of the team's living units
// within radius of (x, y).
func (w *World) LocalPower(team Team, x, y, radius float64) float64 {
	var p float64
	w.ForEach(func(u *Unit) {
		if u.Team != team {
			return
		}
		if u.DistanceTo(x, y) <= radius {
			p += u.Rank.CombatPower()
		}
	})
	return p
}
