package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// EnvPath overrides the config file location.
const EnvPath = "CIVSIM_CONFIG"

type Config struct {
	Simulation SimulationConfig `toml:"simulation"`
	Map        MapConfig        `toml:"map"`
	Data       DataConfig       `toml:"data"`
	Growth     GrowthConfig     `toml:"growth"`
	City       CityConfig       `toml:"city"`
	Scripting  ScriptingConfig  `toml:"scripting"`
	Network    NetworkConfig    `toml:"network"`
	Logging    LoggingConfig    `toml:"logging"`
}

type SimulationConfig struct {
	Authority   string         `toml:"authority"` // "local" or "remote"
	LocalPlayer int            `toml:"local_player"`
	MaxTurns    int            `toml:"max_turns"` // headless driver stops after this turn
	TickRate    time.Duration  `toml:"tick_rate"` // 0 = run ticks back to back
	Players     []PlayerConfig `toml:"players"`
}

type PlayerConfig struct {
	ID   int    `toml:"id"`
	Civ  string `toml:"civ"`
	Name string `toml:"name"`
	Bot  bool   `toml:"bot"`
}

type MapConfig struct {
	Source   string `toml:"source"` // "file" or "generate"
	ListPath string `toml:"list_path"`
	TileDir  string `toml:"tile_dir"`
	ID       int    `toml:"id"`
	Width    int    `toml:"width"`
	Height   int    `toml:"height"`
	Seed     int64  `toml:"seed"`
}

type DataConfig struct {
	Dir string `toml:"dir"`
}

type GrowthConfig struct {
	Policy        string `toml:"policy"` // "backoff" or "threshold"
	BackoffBase   int    `toml:"backoff_base"`
	ThresholdBase int    `toml:"threshold_base"`
	ThresholdStep int    `toml:"threshold_step"`
	MaxPopulation int    `toml:"max_population"`
}

type CityConfig struct {
	MaxSight        int `toml:"max_sight"`
	BaseFood        int `toml:"base_food"`
	BaseProduction  int `toml:"base_production"`
	BaseGold        int `toml:"base_gold"`
	StartPopulation int `toml:"start_population"`
}

type ScriptingConfig struct {
	Dir string `toml:"dir"` // optional overrides of the built-in scripts
}

type NetworkConfig struct {
	Enabled            bool          `toml:"enabled"`
	URL                string        `toml:"url"`    // authority to join (remote authority)
	Listen             string        `toml:"listen"` // address to host on (local authority)
	Compress           bool          `toml:"compress"`
	InQueueSize        int           `toml:"in_queue_size"`
	OutQueueSize       int           `toml:"out_queue_size"`
	MaxMessagesPerTick int           `toml:"max_messages_per_tick"`
	MaxFrameBytes      int64         `toml:"max_frame_bytes"` // per frame, before and after decompression
	WriteTimeout       time.Duration `toml:"write_timeout"`
	ReadTimeout        time.Duration `toml:"read_timeout"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path == "" {
		cfg.Simulation.Players = defaultPlayers()
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	// seats are not part of defaults() so configured ones start clean
	if len(cfg.Simulation.Players) == 0 {
		cfg.Simulation.Players = defaultPlayers()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Simulation.Authority {
	case "local", "remote":
	default:
		return fmt.Errorf("simulation.authority: %q is not local or remote", c.Simulation.Authority)
	}
	switch c.Map.Source {
	case "file", "generate":
	default:
		return fmt.Errorf("map.source: %q is not file or generate", c.Map.Source)
	}
	switch c.Growth.Policy {
	case "backoff", "threshold":
	default:
		return fmt.Errorf("growth.policy: %q is not backoff or threshold", c.Growth.Policy)
	}
	if len(c.Simulation.Players) == 0 {
		return fmt.Errorf("simulation.players: at least one player required")
	}
	seen := make(map[int]bool, len(c.Simulation.Players))
	local := false
	for _, p := range c.Simulation.Players {
		if p.ID <= 0 {
			return fmt.Errorf("simulation.players: id %d must be positive", p.ID)
		}
		if seen[p.ID] {
			return fmt.Errorf("simulation.players: duplicate id %d", p.ID)
		}
		seen[p.ID] = true
		if p.ID == c.Simulation.LocalPlayer {
			local = true
		}
	}
	if !local {
		return fmt.Errorf("simulation.local_player: %d is not seated", c.Simulation.LocalPlayer)
	}
	if c.Simulation.Authority == "remote" && (!c.Network.Enabled || c.Network.URL == "") {
		return fmt.Errorf("remote authority needs network.enabled and network.url")
	}
	if c.Simulation.Authority == "local" && c.Network.Enabled && c.Network.Listen == "" {
		return fmt.Errorf("hosting needs network.listen")
	}
	if c.Network.MaxFrameBytes <= 0 {
		return fmt.Errorf("network.max_frame_bytes: must be positive")
	}
	if c.City.StartPopulation < 1 {
		return fmt.Errorf("city.start_population: must be at least 1")
	}
	return nil
}

func defaultPlayers() []PlayerConfig {
	return []PlayerConfig{
		{ID: 1, Civ: "rome", Name: "Player"},
		{ID: 2, Civ: "egypt", Name: "Bot", Bot: true},
	}
}

func defaults() *Config {
	return &Config{
		Simulation: SimulationConfig{
			Authority:   "local",
			LocalPlayer: 1,
			MaxTurns:    20,
		},
		Map: MapConfig{
			Source:   "generate",
			ListPath: "data/maps/map_list.yaml",
			TileDir:  "data/maps",
			ID:       1,
			Width:    40,
			Height:   24,
			Seed:     1,
		},
		Data: DataConfig{
			Dir: "data/yaml",
		},
		Growth: GrowthConfig{
			Policy:        "backoff",
			BackoffBase:   2,
			ThresholdBase: 10,
			ThresholdStep: 5,
			MaxPopulation: 20,
		},
		City: CityConfig{
			MaxSight:        4,
			BaseFood:        2,
			BaseProduction:  1,
			BaseGold:        1,
			StartPopulation: 1,
		},
		Network: NetworkConfig{
			InQueueSize:        128,
			OutQueueSize:       256,
			MaxMessagesPerTick: 32,
			MaxFrameBytes:      1 << 20,
			WriteTimeout:       10 * time.Second,
			ReadTimeout:        60 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
