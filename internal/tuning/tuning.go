// Package tuning holds the battle's deployment and pacing knobs,
// loadable from YAML so headless runs can sweep scenarios without
// recompiling.
package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning is the scenario configuration. Zero values are invalid; start
// from Default and overlay.
type Tuning struct {
	WorldWidth  float64 `yaml:"world_width"`
	WorldHeight float64 `yaml:"world_height"`

	OfficersPerTeam  int `yaml:"officers_per_team"`
	SoldiersPerSquad int `yaml:"soldiers_per_squad"`
	SquadMaxSize     int `yaml:"squad_max_size"`

	DeployEdgeOffset float64 `yaml:"deploy_edge_offset"`
	OfficerSpacing   float64 `yaml:"officer_spacing"`
	SoldierSpacing   float64 `yaml:"soldier_spacing"`

	ReinforcementInterval float64 `yaml:"reinforcement_interval"`
	ReinforcementPerWave  int     `yaml:"reinforcement_per_wave"`
}

// Default returns the standard three-squad scenario.
func Default() Tuning {
	return Tuning{
		WorldWidth:  3000,
		WorldHeight: 2000,

		OfficersPerTeam:  3,
		SoldiersPerSquad: 10,
		SquadMaxSize:     10,

		DeployEdgeOffset: 400,
		OfficerSpacing:   400,
		SoldierSpacing:   50,

		ReinforcementInterval: 120,
		ReinforcementPerWave:  5,
	}
}

// Load reads a YAML overlay on top of the defaults. Keys absent from
// the file keep their default values.
func Load(path string) (Tuning, error) {
	t := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read tuning: %w", err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("parse tuning %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return t, err
	}
	return t, nil
}

// Validate rejects configurations the simulation can't run.
func (t Tuning) Validate() error {
	if t.WorldWidth <= 0 || t.WorldHeight <= 0 {
		return fmt.Errorf("tuning: world dimensions must be positive")
	}
	if t.OfficersPerTeam < 1 {
		return fmt.Errorf("tuning: officers_per_team must be at least 1")
	}
	if t.SoldiersPerSquad < 0 || t.SoldiersPerSquad > t.SquadMaxSize {
		return fmt.Errorf("tuning: soldiers_per_squad must be in [0, squad_max_size]")
	}
	if t.ReinforcementInterval <= 0 {
		return fmt.Errorf("tuning: reinforcement_interval must be positive")
	}
	return nil
}
