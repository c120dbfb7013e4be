package battle

import "math"

// Team distinguishes the two opposing armies.
type Team int

const (
	TeamRed  Team = iota // team 0
	TeamBlue             // team 1
)

func (t Team) String() string {
	switch t {
	case TeamRed:
		return "red"
	case TeamBlue:
		return "blue"
	default:
		return "unknown"
	}
}

// Enemy returns the opposing team.
func (t Team) Enemy() Team {
	return 1 - t
}

// Rank places a unit in the chain of command.
type Rank int

const (
	RankSoldier Rank = iota
	RankOfficer
	RankGeneral
)

func (r Rank) String() string {
	switch r {
	case RankSoldier:
		return "soldier"
	case RankOfficer:
		return "officer"
	case RankGeneral:
		return "general"
	default:
		return "unknown"
	}
}

// Weight is the targeting priority multiplier: soldiers prefer
// killing generals over officers over soldiers.
func (r Rank) Weight() float64 {
	switch r {
	case RankGeneral:
		return 3.0
	case RankOfficer:
		return 2.0
	default:
		return 1.0
	}
}

// CombatPower weights a unit's contribution to local force comparisons.
func (r Rank) CombatPower() float64 {
	return r.Weight()
}

// CaptureRate is the per-second objective capture contribution of one unit
// of this rank standing inside the objective radius.
func (r Rank) CaptureRate() float64 {
	switch r {
	case RankGeneral:
		return 0.5
	case RankOfficer:
		return 0.3
	default:
		return 0.1
	}
}

// CommandRadius is how far a commander's influence reaches. Soldiers
// outside every officer's radius are orphaned; generals command officers.
func (r Rank) CommandRadius() float64 {
	switch r {
	case RankGeneral:
		return 1000
	case RankOfficer:
		return 400
	default:
		return 0
	}
}

// rankStats is the per-rank combat stat table.
var rankStats = map[Rank]struct {
	hp       float64
	damage   float64
	rng      float64
	cooldown float64
}{
	RankSoldier: {hp: 50, damage: 10, rng: 30, cooldown: 1.0},
	RankOfficer: {hp: 150, damage: 20, rng: 40, cooldown: 0.8},
	RankGeneral: {hp: 300, damage: 40, rng: 50, cooldown: 0.6},
}

// Movement speeds in world units per second.
const (
	soldierSpeed      = 120.0 // formation seek
	soldierChaseSpeed = 100.0 // closing on an engaged target
	rallySpeed        = 100.0 // returning to a distant officer
	scoutCruiseSpeed  = 100.0 // moving to patrol position
	scoutRetreatSpeed = 140.0 // fleeing toward the officer
	officerSpeed      = 80.0
	generalDriftSpeed = 30.0 // slower than everything else
)

// Unit is one autonomous agent in the arena. Squad membership is a
// relation held on the Squad/Blackboard side; SquadID here is a lookup
// key, never an owning reference.
type Unit struct {
	ID   int
	Team Team
	Rank Rank

	X, Y   float64
	VX, VY float64

	HP     float64
	MaxHP  float64
	Morale float64 // 0-1, clamped
	Dead   bool

	AttackRange    float64
	AttackDamage   float64
	AttackCooldown float64
	cooldownLeft   float64

	SquadID string // empty for generals and orphans

	// Formation slot assigned by the squad's officer.
	HasSlot            bool
	SlotX, SlotY       float64
	FormationDeviation float64
}

// NewUnit creates a unit of the given rank at (x, y) with the standard
// stat table applied.
func NewUnit(id int, rank Rank, team Team, x, y float64) *Unit {
	st := rankStats[rank]
	return &Unit{
		ID:             id,
		Team:           team,
		Rank:           rank,
		X:              x,
		Y:              y,
		HP:             st.hp,
		MaxHP:          st.hp,
		Morale:         1.0,
		AttackRange:    st.rng,
		AttackDamage:   st.damage,
		AttackCooldown: st.cooldown,
	}
}

// AdjustMorale shifts morale by delta, clamped to [0, 1].
func (u *Unit) AdjustMorale(delta float64) {
	u.Morale = clamp01(u.Morale + delta)
}

// CombatModifier maps morale to an effectiveness multiplier (0.5x-1.0x).
func (u *Unit) CombatModifier() float64 {
	return 0.5 + u.Morale*0.5
}

// DetectionRange is how far the unit notices enemies for targeting.
func (u *Unit) DetectionRange() float64 {
	return u.AttackRange * 4
}

// DistanceTo returns the distance from the unit to (x, y).
func (u *Unit) DistanceTo(x, y float64) float64 {
	return math.Hypot(x-u.X, y-u.Y)
}

// Halt zeroes the unit's velocity.
func (u *Unit) Halt() {
	u.VX = 0
	u.VY = 0
}

// minSeparation guards every normalization against zero-length vectors.
const minSeparation = 1e-6

// MoveToward steers the unit straight at (x, y) at the given speed and
// integrates one step of dt seconds. Degenerate geometry (target on top
// of the unit) halts instead of dividing by zero.
func (u *Unit) MoveToward(x, y, speed, dt float64) {
	dx := x - u.X
	dy := y - u.Y
	dist := math.Hypot(dx, dy)
	if dist < minSeparation {
		u.Halt()
		return
	}
	u.VX = dx / dist * speed
	u.VY = dy / dist * speed
	u.X += u.VX * dt
	u.Y += u.VY * dt
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
