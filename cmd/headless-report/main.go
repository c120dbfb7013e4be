package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/Garsondee/Command-Chain/internal/battle"
	"github.com/Garsondee/Command-Chain/internal/telemetry"
	"github.com/Garsondee/Command-Chain/internal/tuning"
)

type runStats struct {
	runIndex int
	seed     int64

	ticks     int
	winner    int // -1 draw/timeout
	redAlive  int
	blueAlive int

	firstStrategyTick   int
	firstOrderTick      int
	firstCaptureTick    int
	firstRetreatTick    int
	firstRegroupTick    int
	firstProtectionTick int
	firstSightingTick   int

	strategyChanges int
	orders          int
	captures        int
	retreats        int
	regroups        int
	protections     int
	sightings       int
	deaths          int
	reinforcements  int
}

func main() {
	var runs int
	var seconds float64
	var dt float64
	var seedBase int64
	var seedStep int64
	var tuningPath string
	var dbPath string
	var verbose bool

	flag.IntVar(&runs, "runs", 5, "number of headless battle runs")
	flag.Float64Var(&seconds, "seconds", 600, "simulated seconds per run")
	flag.Float64Var(&dt, "dt", 0.05, "fixed timestep in seconds")
	flag.Int64Var(&seedBase, "seed-base", 42, "base deployment seed for run 1")
	flag.Int64Var(&seedStep, "seed-step", 1, "seed increment between runs")
	flag.StringVar(&tuningPath, "tuning", "", "optional YAML tuning overlay")
	flag.StringVar(&dbPath, "db", "", "optional SQLite file to persist results")
	flag.BoolVar(&verbose, "verbose", false, "stream battle events to stderr")
	flag.Parse()

	if runs <= 0 || seconds <= 0 || dt <= 0 {
		fmt.Println("error: -runs, -seconds and -dt must all be > 0")
		return
	}

	cfg := tuning.Default()
	if tuningPath != "" {
		var err error
		cfg, err = tuning.Load(tuningPath)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			return
		}
	}

	var db *telemetry.DB
	if dbPath != "" {
		var err error
		db, err = telemetry.Open(dbPath)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			return
		}
		defer db.Close()
	}

	fmt.Printf("=== Headless Battle Report ===\n")
	fmt.Printf("runs=%d seconds=%.0f dt=%.3f seed_base=%d seed_step=%d\n\n",
		runs, seconds, dt, seedBase, seedStep)

	all := make([]runStats, 0, runs)
	for i := 0; i < runs; i++ {
		seed := seedBase + int64(i)*seedStep
		stats, err := runBattle(i+1, seed, seconds, dt, cfg, db, verbose)
		if err != nil {
			fmt.Printf("error: run %d: %v\n", i+1, err)
			return
		}
		all = append(all, stats)
		printRun(stats)
	}

	printAggregate(all)
}

// standardObjectives is the three-point map every report run fights over.
func standardObjectives(cfg tuning.Tuning) *battle.ObjectiveSet {
	cx := cfg.WorldWidth / 2
	cy := cfg.WorldHeight / 2
	return battle.NewObjectiveSet(
		battle.NewObjective("hill", cx, cy, 120, 10),
		battle.NewObjective("bridge", cx, cy-600, 100, 8),
		battle.NewObjective("depot", cx, cy+600, 100, 6),
	)
}

func runBattle(runIndex int, seed int64, seconds, dt float64, cfg tuning.Tuning,
	db *telemetry.DB, verbose bool) (runStats, error) {
	log := battle.NewSimLog(false)
	var events *battle.Events
	if verbose {
		events = battle.NewEvents(log)
	} else {
		events = battle.NewEventsTo(io.Discard, log)
	}

	mgr, err := battle.NewArmyManager(cfg, seed, standardObjectives(cfg), events)
	if err != nil {
		return runStats{}, err
	}

	var runID int64
	if db != nil {
		runID, err = db.StartRun(seed)
		if err != nil {
			return runStats{}, err
		}
	}

	steps := int(seconds / dt)
	winner := -1
	for i := 0; i < steps; i++ {
		mgr.Step(dt)
		if w, done := mgr.Winner(); done {
			winner = int(w)
			break
		}
	}

	stats := collectStats(runIndex, seed, mgr, log, winner)
	if db != nil {
		if err := persistRun(db, runID, log, stats); err != nil {
			fmt.Fprintf(os.Stderr, "warning: persist run %d: %v\n", runIndex, err)
		}
	}
	return stats, nil
}

func collectStats(runIndex int, seed int64, mgr *battle.ArmyManager, log *battle.SimLog, winner int) runStats {
	return runStats{
		runIndex: runIndex,
		seed:     seed,

		ticks:     mgr.Tick(),
		winner:    winner,
		redAlive:  mgr.World.CountTeam(battle.TeamRed),
		blueAlive: mgr.World.CountTeam(battle.TeamBlue),

		firstStrategyTick:   firstTick(log, "strategy"),
		firstOrderTick:      firstTick(log, "order"),
		firstCaptureTick:    firstTick(log, "capture"),
		firstRetreatTick:    firstTick(log, "retreat"),
		firstRegroupTick:    firstTick(log, "regroup"),
		firstProtectionTick: firstTick(log, "protection"),
		firstSightingTick:   firstTick(log, "scout_sighting"),

		strategyChanges: log.CountCategory("strategy", ""),
		orders:          log.CountCategory("order", ""),
		captures:        log.CountCategory("capture", ""),
		retreats:        log.CountCategory("retreat", ""),
		regroups:        log.CountCategory("regroup", ""),
		protections:     log.CountCategory("protection", ""),
		sightings:       log.CountCategory("scout_sighting", ""),
		deaths:          log.CountCategory("death", ""),
		reinforcements:  log.CountCategory("reinforce", ""),
	}
}

func persistRun(db *telemetry.DB, runID int64, log *battle.SimLog, stats runStats) error {
	for _, e := range log.Entries() {
		if e.Category == "capture" {
			if err := db.RecordCapture(runID, e.Tick, e.Key, e.Team); err != nil {
				return err
			}
			continue
		}
		if err := db.RecordEvent(runID, e.Tick, e.Actor, e.Team, e.Category, e.Key, e.Value, e.NumVal); err != nil {
			return err
		}
	}
	return db.FinishRun(runID, stats.ticks, stats.winner, stats.redAlive, stats.blueAlive)
}

func firstTick(log *battle.SimLog, category string) int {
	entries := log.Filter(category, "")
	if len(entries) == 0 {
		return -1
	}
	return entries[0].Tick
}

func printRun(rs runStats) {
	outcome := "timeout"
	switch rs.winner {
	case int(battle.TeamRed):
		outcome = "red"
	case int(battle.TeamBlue):
		outcome = "blue"
	}
	fmt.Printf("--- Run %d (seed=%d) ---\n", rs.runIndex, rs.seed)
	fmt.Printf("outcome=%s ticks=%d alive: red=%d blue=%d\n",
		outcome, rs.ticks, rs.redAlive, rs.blueAlive)
	fmt.Printf("phase_markers: strategy=%d order=%d sighting=%d capture=%d retreat=%d regroup=%d protection=%d\n",
		rs.firstStrategyTick, rs.firstOrderTick, rs.firstSightingTick, rs.firstCaptureTick,
		rs.firstRetreatTick, rs.firstRegroupTick, rs.firstProtectionTick)
	fmt.Printf("event_totals: strategies=%d orders=%d captures=%d retreats=%d regroups=%d protections=%d sightings=%d deaths=%d reinforcements=%d\n",
		rs.strategyChanges, rs.orders, rs.captures, rs.retreats, rs.regroups,
		rs.protections, rs.sightings, rs.deaths, rs.reinforcements)
	fmt.Println()
}

func printAggregate(all []runStats) {
	redWins, blueWins, timeouts := 0, 0, 0
	totalOrders, totalCaptures, totalRetreats := 0, 0, 0
	totalProtections, totalSightings, totalDeaths := 0, 0, 0
	captureTicks := make([]int, 0, len(all))
	retreatTicks := make([]int, 0, len(all))

	for _, rs := range all {
		switch rs.winner {
		case int(battle.TeamRed):
			redWins++
		case int(battle.TeamBlue):
			blueWins++
		default:
			timeouts++
		}
		totalOrders += rs.orders
		totalCaptures += rs.captures
		totalRetreats += rs.retreats
		totalProtections += rs.protections
		totalSightings += rs.sightings
		totalDeaths += rs.deaths
		if rs.firstCaptureTick >= 0 {
			captureTicks = append(captureTicks, rs.firstCaptureTick)
		}
		if rs.firstRetreatTick >= 0 {
			retreatTicks = append(retreatTicks, rs.firstRetreatTick)
		}
	}

	fmt.Println("=== Aggregate ===")
	fmt.Printf("runs=%d red_wins=%d blue_wins=%d timeouts=%d\n",
		len(all), redWins, blueWins, timeouts)
	fmt.Printf("avg_events_per_run: orders=%.1f captures=%.1f retreats=%.1f protections=%.1f sightings=%.1f deaths=%.1f\n",
		avg(totalOrders, len(all)), avg(totalCaptures, len(all)), avg(totalRetreats, len(all)),
		avg(totalProtections, len(all)), avg(totalSightings, len(all)), avg(totalDeaths, len(all)))
	fmt.Printf("phase_marker_avg_ticks: first_capture=%s first_retreat=%s\n",
		avgTickString(captureTicks), avgTickString(retreatTicks))
}

func avg(sum int, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func avgTickString(vals []int) string {
	if len(vals) == 0 {
		return "n/a"
	}
	sum := 0
	for _, v := range vals {
		sum += v
	}
	return fmt.Sprintf("%.1f", float64(sum)/float64(len(vals)))
}
