package battle

// OrderKind is the vocabulary generals use with officers and officers
// use with their soldiers.
type OrderKind int

const (
	OrderHold OrderKind = iota
	OrderAdvance
	OrderAttack
	OrderDefend
	OrderCapture
	OrderRetreat
	OrderMove
	OrderExpand
)

func (o OrderKind) String() string {
	switch o {
	case OrderHold:
		return "hold"
	case OrderAdvance:
		return "advance"
	case OrderAttack:
		return "attack"
	case OrderDefend:
		return "defend"
	case OrderCapture:
		return "capture"
	case OrderRetreat:
		return "retreat"
	case OrderMove:
		return "move"
	case OrderExpand:
		return "expand"
	default:
		return "unknown"
	}
}

// Aggressive reports whether the order commits the squad to contact.
func (o OrderKind) Aggressive() bool {
	return o == OrderAttack || o == OrderAdvance || o == OrderCapture
}

// squadMaxSize caps squad membership; reinforcements route elsewhere
// once a squad is full.
const squadMaxSize = 10

// Squad groups soldiers under one officer. A squad dies with its
// officer: surviving soldiers are orphaned, not transferred.
type Squad struct {
	ID         string
	Team       Team
	OfficerID  int
	SoldierIDs []int
	MaxSize    int

	Cohesion float64
	Order    OrderKind
	Target   string // objective name, empty when holding
}

func NewSquad(id string, team Team, officerID int) *Squad {
	return &Squad{
		ID:        id,
		Team:      team,
		OfficerID: officerID,
		MaxSize:   squadMaxSize,
		Cohesion:  1.0,
	}
}

// AddSoldier registers the soldier if there is room. Membership is
// exclusive; the caller clears any previous SquadID on the unit.
func (s *Squad) AddSoldier(id int) bool {
	if len(s.SoldierIDs) >= s.MaxSize {
		return false
	}
	for _, existing := range s.SoldierIDs {
		if existing == id {
			return true
		}
	}
	s.SoldierIDs = append(s.SoldierIDs, id)
	return true
}

// RemoveSoldier drops the soldier from the roster, preserving order.
func (s *Squad) RemoveSoldier(id int) {
	for i, existing := range s.SoldierIDs {
		if existing == id {
			s.SoldierIDs = append(s.SoldierIDs[:i], s.SoldierIDs[i+1:]...)
			return
		}
	}
}

// Size is the current soldier count, officer excluded.
func (s *Squad) Size() int {
	return len(s.SoldierIDs)
}

// StrengthFraction is current size over capacity, the metric used to
// pick which squads get reinforcements first.
func (s *Squad) StrengthFraction() float64 {
	if s.MaxSize == 0 {
		return 0
	}
	return float64(len(s.SoldierIDs)) / float64(s.MaxSize)
}
