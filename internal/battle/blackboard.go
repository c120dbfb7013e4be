package battle

import "sort"

// Strategy is the general's army-wide posture.
type Strategy int

const (
	StrategyAdvance Strategy = iota
	StrategyAttack
	StrategyDefend
	StrategyExpand
	StrategyDesperateAttack
)

func (s Strategy) String() string {
	switch s {
	case StrategyAdvance:
		return "advance"
	case StrategyAttack:
		return "attack"
	case StrategyDefend:
		return "defend"
	case StrategyExpand:
		return "expand"
	case StrategyDesperateAttack:
		return "desperate_attack"
	default:
		return "unknown"
	}
}

// Order maps each strategy to the order kind officers relay downward.
func (s Strategy) Order() OrderKind {
	switch s {
	case StrategyAttack, StrategyDesperateAttack:
		return OrderAttack
	case StrategyDefend:
		return OrderDefend
	case StrategyExpand:
		return OrderCapture
	default:
		return OrderAdvance
	}
}

// ThreatLevel bands local force superiority into discrete postures.
type ThreatLevel int

const (
	ThreatLow ThreatLevel = iota
	ThreatMedium
	ThreatHigh
	ThreatOverwhelming
)

func (t ThreatLevel) String() string {
	switch t {
	case ThreatLow:
		return "low"
	case ThreatMedium:
		return "medium"
	case ThreatHigh:
		return "high"
	case ThreatOverwhelming:
		return "overwhelming"
	default:
		return "unknown"
	}
}

// Command propagation delays in seconds. Orders take time to travel
// down the chain; nothing in the army reacts instantly.
const (
	generalOrderDelay = 0.5
	officerOrderDelay = 0.2

	scoutReportInterval = 5.0
)

// StrategicGoal is the general's published intent. Officers see it only
// after the propagation delay has elapsed.
type StrategicGoal struct {
	Strategy Strategy
	Target   string // objective name, may be empty for defend
	IssuedAt float64
}

// PendingOrder is an order in flight down the chain of command.
type PendingOrder struct {
	Recipient string // squad id
	Order     OrderKind
	Target    string
	DeliverAt float64
}

// ThreatReport is a known enemy concentration published by scouts or
// engaged squads.
type ThreatReport struct {
	X, Y       float64
	Strength   float64
	ReportedAt float64
}

// TeamStats is the aggregate picture the general reasons over.
type TeamStats struct {
	Units      int
	EnemyUnits int
	Owned      int
	EnemyOwned int
	Neutral    int
}

type teamBoard struct {
	goal    *StrategicGoal
	pending []PendingOrder
	squads  map[string]*Squad
	morale  float64

	scouts       map[int]struct{}   // unit id -> scout duty
	patrols      map[int][2]float64 // unit id -> patrol anchor
	lastSighting map[[2]int]float64 // (scout, enemy) -> report time
	threats      []ThreatReport
	reinforce    map[string]float64  // squad id -> request time
	reserved     map[string]struct{} // squads held back from the goal
	stats        TeamStats
}

func newTeamBoard() *teamBoard {
	return &teamBoard{
		squads:       make(map[string]*Squad),
		morale:       1.0,
		scouts:       make(map[int]struct{}),
		patrols:      make(map[int][2]float64),
		lastSighting: make(map[[2]int]float64),
		reinforce:    make(map[string]float64),
		reserved:     make(map[string]struct{}),
	}
}

// Blackboard is the shared memory both chains of command write through.
// All cross-rank communication flows here so propagation delays apply
// uniformly; units never call each other directly.
type Blackboard struct {
	boards [2]*teamBoard
}

func NewBlackboard() *Blackboard {
	return &Blackboard{boards: [2]*teamBoard{newTeamBoard(), newTeamBoard()}}
}

func (b *Blackboard) board(team Team) *teamBoard {
	return b.boards[team]
}

// SetStrategicGoal publishes the general's intent at the given time.
func (b *Blackboard) SetStrategicGoal(team Team, strategy Strategy, target string, now float64) {
	b.board(team).goal = &StrategicGoal{Strategy: strategy, Target: target, IssuedAt: now}
}

// StrategicGoal returns the team's goal once the propagation delay has
// elapsed. Before that officers still see the previous goal as absent.
func (b *Blackboard) StrategicGoal(team Team, now float64) (StrategicGoal, bool) {
	g := b.board(team).goal
	if g == nil || now < g.IssuedAt+generalOrderDelay {
		return StrategicGoal{}, false
	}
	return *g, true
}

// RegisterSquad adds a squad to the team roster.
func (b *Blackboard) RegisterSquad(s *Squad) {
	b.board(s.Team).squads[s.ID] = s
}

// UnregisterSquad removes a squad, used when its officer dies. Orders
// still in flight to the squad are dropped with it.
func (b *Blackboard) UnregisterSquad(team Team, id string) {
	board := b.board(team)
	delete(board.squads, id)
	delete(board.reinforce, id)
	delete(board.reserved, id)
	rest := board.pending[:0]
	for _, p := range board.pending {
		if p.Recipient != id {
			rest = append(rest, p)
		}
	}
	board.pending = rest
}

// SetReserved marks or clears a squad as strategic reserve. Reserved
// squads hold position instead of following the published goal.
func (b *Blackboard) SetReserved(team Team, id string, reserved bool) {
	if reserved {
		b.board(team).reserved[id] = struct{}{}
		return
	}
	delete(b.board(team).reserved, id)
}

// IsReserved reports whether the squad sits in reserve.
func (b *Blackboard) IsReserved(team Team, id string) bool {
	_, ok := b.board(team).reserved[id]
	return ok
}

// Squad looks up a registered squad by id.
func (b *Blackboard) Squad(team Team, id string) (*Squad, bool) {
	s, ok := b.board(team).squads[id]
	return s, ok
}

// Squads returns the team's registered squads in id order.
func (b *Blackboard) Squads(team Team) []*Squad {
	board := b.board(team)
	ids := make([]string, 0, len(board.squads))
	for id := range board.squads {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*Squad, 0, len(ids))
	for _, id := range ids {
		out = append(out, board.squads[id])
	}
	return out
}

// IssueOrder queues an order for a squad, delivered after delay seconds.
func (b *Blackboard) IssueOrder(team Team, squadID string, order OrderKind, target string, now, delay float64) {
	board := b.board(team)
	board.pending = append(board.pending, PendingOrder{
		Recipient: squadID,
		Order:     order,
		Target:    target,
		DeliverAt: now + delay,
	})
}

// OrdersFor drains orders for the squad whose delivery time has passed.
func (b *Blackboard) OrdersFor(team Team, squadID string, now float64) []PendingOrder {
	board := b.board(team)
	var delivered []PendingOrder
	rest := board.pending[:0]
	for _, p := range board.pending {
		if p.Recipient == squadID && now >= p.DeliverAt {
			delivered = append(delivered, p)
		} else {
			rest = append(rest, p)
		}
	}
	board.pending = rest
	return delivered
}

// Morale returns the team's army-wide morale.
func (b *Blackboard) Morale(team Team) float64 {
	return b.board(team).morale
}

// AdjustMorale shifts team morale by delta, clamped to [0, 1].
func (b *Blackboard) AdjustMorale(team Team, delta float64) {
	board := b.board(team)
	board.morale = clamp01(board.morale + delta)
}

// AssignScout puts a soldier on scout duty with a patrol anchor.
func (b *Blackboard) AssignScout(team Team, unitID int, px, py float64) {
	board := b.board(team)
	board.scouts[unitID] = struct{}{}
	board.patrols[unitID] = [2]float64{px, py}
}

// IsScout reports whether the unit is on scout duty.
func (b *Blackboard) IsScout(team Team, unitID int) bool {
	_, ok := b.board(team).scouts[unitID]
	return ok
}

// ScoutPatrol returns the unit's patrol anchor.
func (b *Blackboard) ScoutPatrol(team Team, unitID int) (x, y float64, ok bool) {
	p, pok := b.board(team).patrols[unitID]
	return p[0], p[1], pok
}

// RecallScout takes a soldier off scout duty.
func (b *Blackboard) RecallScout(team Team, unitID int) {
	board := b.board(team)
	delete(board.scouts, unitID)
	delete(board.patrols, unitID)
}

// ScoutCount returns how many of the team's units are on scout duty.
func (b *Blackboard) ScoutCount(team Team) int {
	return len(b.board(team).scouts)
}

// ReportScoutSighting records an enemy contact. Repeat reports for the
// same (scout, enemy) pair inside the report interval are dropped.
func (b *Blackboard) ReportScoutSighting(team Team, scoutID, enemyID int, x, y, now float64) bool {
	board := b.board(team)
	key := [2]int{scoutID, enemyID}
	if last, ok := board.lastSighting[key]; ok && now-last < scoutReportInterval {
		return false
	}
	board.lastSighting[key] = now
	board.threats = append(board.threats, ThreatReport{X: x, Y: y, Strength: 1, ReportedAt: now})
	return true
}

// ReportThreat publishes a concentration of enemy force.
func (b *Blackboard) ReportThreat(team Team, x, y, strength, now float64) {
	board := b.board(team)
	board.threats = append(board.threats, ThreatReport{X: x, Y: y, Strength: strength, ReportedAt: now})
}

// Threats returns the team's current threat reports.
func (b *Blackboard) Threats(team Team) []ThreatReport {
	return b.board(team).threats
}

// RequestReinforcement flags the squad as needing replacements. Waves
// are scheduled centrally; the flag records demand for telemetry and
// routing.
func (b *Blackboard) RequestReinforcement(team Team, squadID string, now float64) {
	b.board(team).reinforce[squadID] = now
}

// ReinforcementRequests returns squad ids with open requests, sorted.
func (b *Blackboard) ReinforcementRequests(team Team) []string {
	board := b.board(team)
	out := make([]string, 0, len(board.reinforce))
	for id := range board.reinforce {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ClearReinforcementRequest closes a squad's open request.
func (b *Blackboard) ClearReinforcementRequest(team Team, squadID string) {
	delete(b.board(team).reinforce, squadID)
}

// UpdateTeamStats refreshes the aggregate picture for the general.
func (b *Blackboard) UpdateTeamStats(team Team, stats TeamStats) {
	b.board(team).stats = stats
}

// Stats returns the last published aggregate picture.
func (b *Blackboard) Stats(team Team) TeamStats {
	return b.board(team).stats
}

// LocalSuperiority returns the team's share of rank-weighted combat
// power within radius of (x, y): 1.0 is uncontested, 0.5 even, 0.0
// hopeless. An empty neighborhood reads as even.
func LocalSuperiority(w *World, team Team, x, y, radius float64) float64 {
	own := w.LocalPower(team, x, y, radius)
	enemy := w.LocalPower(team.Enemy(), x, y, radius)
	total := own + enemy
	if total < minSeparation {
		return 0.5
	}
	return own / total
}

// ThreatLevelAt bands local superiority into a threat posture.
func ThreatLevelAt(w *World, team Team, x, y, radius float64) ThreatLevel {
	r := LocalSuperiority(w, team, x, y, radius)
	switch {
	case r >= 0.7:
		return ThreatLow
	case r >= 0.5:
		return ThreatMedium
	case r >= 0.3:
		return ThreatHigh
	default:
		return ThreatOverwhelming
	}
}

// ThreatRatio converts superiority into the enemy/own pressure ratio
// officers test retreat thresholds against. Monotone decreasing in r:
// even odds give 1.0, being outnumbered pushes it above.
func ThreatRatio(superiority float64) float64 {
	const eps = 1e-6
	r := superiority
	if r < eps {
		r = eps
	}
	return (1 - superiority) / r
}

