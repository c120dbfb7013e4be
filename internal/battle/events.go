package battle

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Events is the battle's structured event stream. Every notable AI
// decision goes through here so headless runs and tests can observe
// behavior without poking at internals. Logging rides zerolog; the
// optional SimLog mirror keeps a queryable in-memory record.
type Events struct {
	log zerolog.Logger
	sim *SimLog

	tick int
}

// NewEvents builds an event stream writing human-readable output to the
// console. Pass a SimLog to also record entries for querying.
func NewEvents(sim *SimLog) *Events {
	w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	return &Events{log: zerolog.New(w).With().Timestamp().Logger(), sim: sim}
}

// NewEventsTo builds an event stream on an arbitrary writer. Tests pass
// io.Discard and rely on the SimLog alone.
func NewEventsTo(w io.Writer, sim *SimLog) *Events {
	return &Events{log: zerolog.New(w), sim: sim}
}

// SetTick stamps subsequent events with the current simulation tick.
func (e *Events) SetTick(tick int) {
	e.tick = tick
}

// SimLog exposes the in-memory mirror, nil when not recording.
func (e *Events) SimLog() *SimLog {
	return e.sim
}

func (e *Events) record(actor string, team Team, category, key, value string, num float64) {
	if e.sim != nil {
		e.sim.Add(SimLogEntry{
			Tick:     e.tick,
			Actor:    actor,
			Team:     int(team),
			Category: category,
			Key:      key,
			Value:    value,
			NumVal:   num,
		})
	}
}

// Strategy records a general's strategic decision.
func (e *Events) Strategy(team Team, strategy, target string) {
	e.log.Info().Int("team", int(team)).Str("strategy", strategy).Str("target", target).Msg("strategy")
	e.record("general", team, "strategy", strategy, target, 0)
}

// Order records an order delivered to an officer or soldier.
func (e *Events) Order(squadID string, team Team, order OrderKind, target string) {
	e.log.Info().Str("squad", squadID).Int("team", int(team)).Stringer("order", order).Str("target", target).Msg("order")
	e.record(squadID, team, "order", order.String(), target, 0)
}

// Protection records a soldier preempting its target to defend a commander.
func (e *Events) Protection(soldierID int, team Team, threatID int, commander Rank) {
	e.log.Warn().Int("soldier", soldierID).Int("threat", threatID).Stringer("commander", commander).Msg("protection override")
	e.record(actorID(soldierID), team, "protection", commander.String(), "", float64(threatID))
}

// Rally records a soldier sprinting back into command range.
func (e *Events) Rally(soldierID int, team Team, dist float64) {
	e.log.Debug().Int("soldier", soldierID).Float64("dist", dist).Msg("rally override")
	e.record(actorID(soldierID), team, "rally", "", "", dist)
}

// Regroup records a squad collapsing into a regroup column.
func (e *Events) Regroup(squadID string, cohesion float64) {
	e.log.Info().Str("squad", squadID).Float64("cohesion", cohesion).Msg("regroup")
	e.record(squadID, TeamRed, "regroup", "", "", cohesion)
}

// ScoutSighting records a scout reporting an enemy contact.
func (e *Events) ScoutSighting(scoutID int, team Team, enemyID int, dist float64) {
	e.log.Debug().Int("scout", scoutID).Int("enemy", enemyID).Float64("dist", dist).Msg("scout sighting")
	e.record(actorID(scoutID), team, "scout_sighting", actorID(enemyID), "", dist)
}

// Capture records an objective changing hands.
func (e *Events) Capture(name string, owner Team) {
	e.log.Info().Str("objective", name).Int("owner", int(owner)).Msg("objective captured")
	e.record(name, owner, "capture", name, "", 0)
}

// Neutralized records an objective losing its owner.
func (e *Events) Neutralized(name string, previous Team) {
	e.log.Info().Str("objective", name).Int("previous", int(previous)).Msg("objective neutralized")
	e.record(name, previous, "neutralized", name, "", 0)
}

// Deployment records a wave of units entering the arena.
func (e *Events) Deployment(team Team, count int, kind string) {
	e.log.Info().Int("team", int(team)).Int("count", count).Str("kind", kind).Msg("deployment")
	e.record("deployment", team, "deployment", kind, "", float64(count))
}

// Reinforce records a general committing reserves or a squad's
// reinforcement request reaching the blackboard.
func (e *Events) Reinforce(team Team, squadID, reason string) {
	e.log.Info().Int("team", int(team)).Str("squad", squadID).Str("reason", reason).Msg("reinforce")
	e.record(squadID, team, "reinforce", reason, "", 0)
}

// Retreat records an officer pulling its squad back.
func (e *Events) Retreat(squadID string, team Team, threatRatio float64) {
	e.log.Warn().Str("squad", squadID).Float64("threat_ratio", threatRatio).Msg("retreat")
	e.record(squadID, team, "retreat", "", "", threatRatio)
}

// Death records a unit dying.
func (e *Events) Death(u *Unit, killerID int) {
	e.log.Debug().Int("unit", u.ID).Stringer("rank", u.Rank).Int("killer", killerID).Msg("death")
	e.record(actorID(u.ID), u.Team, "death", u.Rank.String(), "", float64(killerID))
}

// SquadDisbanded records a squad dissolving after its officer died.
func (e *Events) SquadDisbanded(squadID string, team Team, orphans int) {
	e.log.Info().Str("squad", squadID).Int("orphans", orphans).Msg("squad disbanded")
	e.record(squadID, team, "disband", "", "", float64(orphans))
}
