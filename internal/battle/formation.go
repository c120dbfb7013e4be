package battle

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// FormationType selects the slot geometry a squad assembles into.
type FormationType int

const (
	FormationLine FormationType = iota
	FormationColumn
	FormationWedge
	FormationSkirmish
	FormationCaptureSpread
)

func (f FormationType) String() string {
	switch f {
	case FormationLine:
		return "line"
	case FormationColumn:
		return "column"
	case FormationWedge:
		return "wedge"
	case FormationSkirmish:
		return "skirmish"
	case FormationCaptureSpread:
		return "capture_spread"
	default:
		return "unknown"
	}
}

const (
	baseSpacing = 50.0

	// Cohesion below this fraction triggers a regroup.
	cohesionBreakPoint = 0.3
	regroupDuration    = 3.0
	regroupLooseness   = 0.5

	// Grace period after a deliberate formation change. Soldiers are
	// mid-transit to new slots, so low cohesion is expected and must
	// not trip a regroup.
	formationSettleTime = 2.0

	captureSpreadRadius = 70.0
)

// formationNoise jitters skirmish slots deterministically. The same
// slot index always produces the same offset.
var formationNoise = opensimplex.NewNormalized(7)

// Formation is a squad's current geometry. Looseness scales spacing:
// 0 is shoulder-to-shoulder, 1 doubles the base spacing.
type Formation struct {
	Type      FormationType
	Looseness float64
}

// ChooseForOrder maps an order to the doctrine formation for it.
func ChooseForOrder(o OrderKind) Formation {
	switch o {
	case OrderCapture:
		return Formation{Type: FormationCaptureSpread, Looseness: 0.5}
	case OrderDefend, OrderHold:
		return Formation{Type: FormationLine, Looseness: 0.2}
	case OrderAttack:
		return Formation{Type: FormationWedge, Looseness: 0.2}
	case OrderRetreat:
		return Formation{Type: FormationSkirmish, Looseness: 0.8}
	default: // advance, move, expand
		return Formation{Type: FormationColumn, Looseness: 0.3}
	}
}

// ChooseForThreat maps local threat to a formation, the reactive
// counterpart to order-driven selection.
func ChooseForThreat(level ThreatLevel) Formation {
	switch level {
	case ThreatOverwhelming, ThreatHigh:
		return Formation{Type: FormationSkirmish, Looseness: 0.6}
	case ThreatMedium:
		return Formation{Type: FormationLine, Looseness: 0.2}
	default:
		return Formation{Type: FormationColumn, Looseness: 0.3}
	}
}

// Spacing is the inter-slot distance after looseness scaling, also the
// normalization reference for cohesion.
func (f Formation) Spacing() float64 {
	return baseSpacing * (1 + f.Looseness)
}

// SlotOffset returns the local-frame offset of slot index out of total
// before rotation. Offsets are deterministic: the same (type, index,
// total, looseness) always yields the same slot.
func (f Formation) SlotOffset(index, total int) (x, y float64) {
	if total <= 0 {
		return 0, 0
	}
	sp := f.Spacing()
	switch f.Type {
	case FormationLine:
		// Centered row abreast, perpendicular to facing.
		x = 0
		y = (float64(index) - float64(total-1)/2) * sp
	case FormationColumn:
		// Single file behind the leader.
		x = -float64(index) * sp
		y = 0
	case FormationWedge:
		// Alternating arms of a V opening backward.
		row := (index + 1) / 2
		side := 1.0
		if index%2 == 1 {
			side = -1.0
		}
		x = -float64(row) * sp
		y = side * float64(row) * sp
	case FormationSkirmish:
		// Dispersed line with deterministic noise scatter.
		y = (float64(index) - float64(total-1)/2) * sp
		x = (formationNoise.Eval2(float64(index)*0.37, 0.5) - 0.5) * sp
		y += (formationNoise.Eval2(float64(index)*0.37, 7.5) - 0.5) * sp * 0.5
	case FormationCaptureSpread:
		// Ring at fixed radius regardless of looseness, so the squad
		// blankets the objective footprint.
		theta := 2 * math.Pi * float64(index) / float64(total)
		x = captureSpreadRadius * math.Cos(theta)
		y = captureSpreadRadius * math.Sin(theta)
	}
	return x, y
}

// SlotPosition places slot index in world space around (cx, cy) with
// the formation facing the given heading in radians.
func (f Formation) SlotPosition(index, total int, cx, cy, facing float64) (x, y float64) {
	lx, ly := f.SlotOffset(index, total)
	sin, cos := math.Sin(facing), math.Cos(facing)
	return cx + lx*cos - ly*sin, cy + lx*sin + ly*cos
}

// Cohesion scores how tightly soldiers hold their slots: 1.0 when every
// soldier stands on its slot, falling toward 0 as mean deviation
// approaches the formation spacing.
func (f Formation) Cohesion(deviations []float64) float64 {
	if len(deviations) == 0 {
		return 1.0
	}
	var sum float64
	for _, d := range deviations {
		sum += d
	}
	mean := sum / float64(len(deviations))
	ref := f.Spacing()
	if ref < minSeparation {
		return 1.0
	}
	return clamp01(1.0 - mean/ref)
}

// squadFormation is the manager's per-squad state.
type squadFormation struct {
	formation Formation
	cx, cy    float64
	facing    float64
	cohesion  float64

	regroupLeft float64
	settleLeft  float64
	// Formation to restore when the regroup window closes.
	resume Formation
}

// FormationManager owns formation assignments, centers and the regroup
// state machine for every squad.
type FormationManager struct {
	squads map[string]*squadFormation
	events *Events
}

func NewFormationManager(events *Events) *FormationManager {
	return &FormationManager{
		squads: make(map[string]*squadFormation),
		events: events,
	}
}

// Create registers a squad with an initial formation.
func (m *FormationManager) Create(squadID string, f Formation) {
	m.squads[squadID] = &squadFormation{formation: f, cohesion: 1.0}
}

// Remove drops a squad's formation state, used when its officer dies.
func (m *FormationManager) Remove(squadID string) {
	delete(m.squads, squadID)
}

// SetCenter anchors the squad's formation at (x, y) facing the heading.
func (m *FormationManager) SetCenter(squadID string, x, y, facing float64) {
	if sf, ok := m.squads[squadID]; ok {
		sf.cx, sf.cy = x, y
		sf.facing = facing
	}
}

// Change swaps the squad's formation. During a regroup the change is
// deferred: it becomes the formation to resume once the window closes,
// so a regroup always completes before re-evaluation.
func (m *FormationManager) Change(squadID string, f Formation) {
	sf, ok := m.squads[squadID]
	if !ok {
		return
	}
	if sf.regroupLeft > 0 {
		sf.resume = f
		return
	}
	if sf.formation == f {
		return
	}
	sf.formation = f
	sf.settleLeft = formationSettleTime
}

// Current returns the squad's active formation.
func (m *FormationManager) Current(squadID string) (Formation, bool) {
	sf, ok := m.squads[squadID]
	if !ok {
		return Formation{}, false
	}
	return sf.formation, true
}

// SlotPosition resolves slot index of total for the squad in world space.
func (m *FormationManager) SlotPosition(squadID string, index, total int) (x, y float64, ok bool) {
	sf, sok := m.squads[squadID]
	if !sok {
		return 0, 0, false
	}
	x, y = sf.formation.SlotPosition(index, total, sf.cx, sf.cy, sf.facing)
	return x, y, true
}

// UpdateCohesion recomputes cohesion from slot deviations and triggers
// a regroup when it falls below the break point.
func (m *FormationManager) UpdateCohesion(squadID string, deviations []float64) float64 {
	sf, ok := m.squads[squadID]
	if !ok {
		return 1.0
	}
	sf.cohesion = sf.formation.Cohesion(deviations)
	if sf.cohesion < cohesionBreakPoint && sf.regroupLeft <= 0 && sf.settleLeft <= 0 {
		m.IssueRegroup(squadID)
	}
	return sf.cohesion
}

// Cohesion returns the squad's last computed cohesion.
func (m *FormationManager) Cohesion(squadID string) float64 {
	if sf, ok := m.squads[squadID]; ok {
		return sf.cohesion
	}
	return 1.0
}

// IssueRegroup collapses the squad into a tight column for a fixed
// window, then restores the previous (or deferred) formation.
func (m *FormationManager) IssueRegroup(squadID string) {
	sf, ok := m.squads[squadID]
	if !ok {
		return
	}
	if sf.regroupLeft <= 0 {
		sf.resume = sf.formation
	}
	sf.regroupLeft = regroupDuration
	sf.formation = Formation{Type: FormationColumn, Looseness: regroupLooseness}
	if m.events != nil {
		m.events.Regroup(squadID, sf.cohesion)
	}
}

// Regrouping reports whether the squad is inside a regroup window.
func (m *FormationManager) Regrouping(squadID string) bool {
	sf, ok := m.squads[squadID]
	return ok && sf.regroupLeft > 0
}

// Settling reports whether the squad is inside the post-change grace
// period. Cohesion readings during settle are transitional.
func (m *FormationManager) Settling(squadID string) bool {
	sf, ok := m.squads[squadID]
	return ok && sf.settleLeft > 0
}

// Tick advances regroup and settle timers, restoring formations whose
// regroup window closed.
func (m *FormationManager) Tick(dt float64) {
	for _, sf := range m.squads {
		if sf.settleLeft > 0 {
			sf.settleLeft -= dt
		}
		if sf.regroupLeft <= 0 {
			continue
		}
		sf.regroupLeft -= dt
		if sf.regroupLeft <= 0 {
			sf.regroupLeft = 0
			sf.formation = sf.resume
			sf.settleLeft = formationSettleTime
		}
	}
}
