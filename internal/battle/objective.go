package battle

import "sort"

// Ownership control bands. Control drifts continuously; ownership only
// flips once a band is crossed, so contested ground doesn't flicker.
const (
	controlRedBand  = 0.7
	controlBlueBand = 0.3
	controlNeutral  = 0.5
)

// NeutralOwner marks an objective no team holds.
const NeutralOwner = -1

// Objective is a capturable point on the map. Control is a tug-of-war
// value in [0, 1]: red presence pulls toward 1, blue toward 0.
type Objective struct {
	Name   string
	X, Y   float64
	Radius float64
	Value  float64

	Control float64
	Owner   int // NeutralOwner, or int(Team)
}

func NewObjective(name string, x, y, radius, value float64) *Objective {
	return &Objective{
		Name:    name,
		X:       x,
		Y:       y,
		Radius:  radius,
		Value:   value,
		Control: controlNeutral,
		Owner:   NeutralOwner,
	}
}

// Contains reports whether (x, y) is inside the capture footprint.
func (o *Objective) Contains(x, y float64) bool {
	dx, dy := x-o.X, y-o.Y
	return dx*dx+dy*dy <= o.Radius*o.Radius
}

// update integrates one step of the control tug-of-war from the two
// teams' capture rates and returns the ownership transition, if any.
func (o *Objective) update(dt, redRate, blueRate float64) (flipped bool, previous int) {
	net := (redRate - blueRate) * dt
	o.Control = clamp01(o.Control + net)

	previous = o.Owner
	switch {
	case o.Control >= controlRedBand:
		o.Owner = int(TeamRed)
	case o.Control <= controlBlueBand:
		o.Owner = int(TeamBlue)
	default:
		// Hold ownership inside the dead band; only a return past
		// neutral strips it.
		if o.Owner == int(TeamRed) && o.Control < controlNeutral {
			o.Owner = NeutralOwner
		}
		if o.Owner == int(TeamBlue) && o.Control > controlNeutral {
			o.Owner = NeutralOwner
		}
	}
	return o.Owner != previous, previous
}

// ObjectiveSet owns the map's objectives in stable name order.
type ObjectiveSet struct {
	objectives []*Objective
	byName     map[string]*Objective
}

func NewObjectiveSet(objs ...*Objective) *ObjectiveSet {
	set := &ObjectiveSet{byName: make(map[string]*Objective)}
	for _, o := range objs {
		set.Add(o)
	}
	return set
}

// Add registers an objective, keeping name order stable.
func (s *ObjectiveSet) Add(o *Objective) {
	s.objectives = append(s.objectives, o)
	s.byName[o.Name] = o
	sort.Slice(s.objectives, func(i, j int) bool {
		return s.objectives[i].Name < s.objectives[j].Name
	})
}

// ByName looks up an objective.
func (s *ObjectiveSet) ByName(name string) (*Objective, bool) {
	o, ok := s.byName[name]
	return o, ok
}

// All returns every objective in name order.
func (s *ObjectiveSet) All() []*Objective {
	return s.objectives
}

// OwnedBy returns the objectives the team currently holds.
func (s *ObjectiveSet) OwnedBy(team Team) []*Objective {
	var out []*Objective
	for _, o := range s.objectives {
		if o.Owner == int(team) {
			out = append(out, o)
		}
	}
	return out
}

// Neutral returns all unowned objectives.
func (s *ObjectiveSet) Neutral() []*Objective {
	var out []*Objective
	for _, o := range s.objectives {
		if o.Owner == NeutralOwner {
			out = append(out, o)
		}
	}
	return out
}

// CountOwned returns (team0, team1, neutral) ownership counts.
func (s *ObjectiveSet) CountOwned() (red, blue, neutral int) {
	for _, o := range s.objectives {
		switch o.Owner {
		case int(TeamRed):
			red++
		case int(TeamBlue):
			blue++
		default:
			neutral++
		}
	}
	return red, blue, neutral
}

// Update advances capture progress for every objective from the units
// standing inside each footprint. Higher ranks capture faster.
func (s *ObjectiveSet) Update(dt float64, w *World, events *Events) {
	for _, o := range s.objectives {
		var redRate, blueRate float64
		w.ForEach(func(u *Unit) {
			if !o.Contains(u.X, u.Y) {
				return
			}
			if u.Team == TeamRed {
				redRate += u.Rank.CaptureRate()
			} else {
				blueRate += u.Rank.CaptureRate()
			}
		})
		flipped, previous := o.update(dt, redRate, blueRate)
		if !flipped || events == nil {
			continue
		}
		if o.Owner == NeutralOwner {
			events.Neutralized(o.Name, Team(previous))
		} else {
			events.Capture(o.Name, Team(o.Owner))
		}
	}
}
