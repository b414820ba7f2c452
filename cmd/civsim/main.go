package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/civsim/engine/internal/component"
	"github.com/civsim/engine/internal/config"
	"github.com/civsim/engine/internal/data"
	"github.com/civsim/engine/internal/grid"
	"github.com/civsim/engine/internal/mapgen"
	gonet "github.com/civsim/engine/internal/net"
	"github.com/civsim/engine/internal/scripting"
	"github.com/civsim/engine/internal/sim"
	"github.com/civsim/engine/internal/system"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(mode string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m              civsim  v0.1.0               \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mauthority:\033[0m %s\n\n", mode)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := humanize.Comma(int64(count))
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Driver ────────────────────────────────────────────────────────

func run() error {
	cfgPath := "config/civsim.toml"
	if p := os.Getenv(config.EnvPath); p != "" {
		cfgPath = p
	}
	flag.StringVar(&cfgPath, "config", cfgPath, "path to the TOML config")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	printBanner(cfg.Simulation.Authority)

	printSection("data")
	tables, err := data.LoadTables(cfg.Data.Dir)
	if err != nil {
		return fmt.Errorf("load tables: %w", err)
	}
	printStat("unit types", tables.Units.Count())
	printStat("buildings", tables.Buildings.Count())
	printStat("civilizations", len(tables.Civs.IDs()))
	printStat("terrain types", tables.Terrain.Count())

	terrain, err := loadTerrain(cfg, tables)
	if err != nil {
		return err
	}
	printStat("map tiles", terrain.Width()*terrain.Height())

	scripts, err := scripting.NewEngine(cfg.Scripting.Dir, log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer scripts.Close()
	printOK("rule scripts loaded")
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	opts := sim.Options{
		Config:     cfg,
		Log:        log,
		Tables:     tables,
		Terrain:    terrain,
		Scripting:  scripts,
		Autoplay:   true,
		Projection: grid.Projection{TileW: 64, TileH: 32},
	}
	netOpts := gonet.Options{
		InQueueSize:   cfg.Network.InQueueSize,
		OutQueueSize:  cfg.Network.OutQueueSize,
		MaxFrameBytes: cfg.Network.MaxFrameBytes,
		ReadTimeout:   cfg.Network.ReadTimeout,
		WriteTimeout:  cfg.Network.WriteTimeout,
	}

	printSection("network")
	switch {
	case !cfg.Network.Enabled:
		printOK("offline")
	case cfg.Simulation.Authority == "remote":
		dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		link, err := gonet.Dial(dialCtx, cfg.Network.URL, netOpts, log)
		cancel()
		if err != nil {
			return fmt.Errorf("join %s: %w", cfg.Network.URL, err)
		}
		defer link.Close()
		opts.Link = link
		printOK("joined " + cfg.Network.URL)
	default:
		srv, err := gonet.NewServer(cfg.Network.Listen, netOpts, log)
		if err != nil {
			return fmt.Errorf("net server: %w", err)
		}
		g.Go(srv.Serve)
		g.Go(func() error {
			<-ctx.Done()
			shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutCtx)
		})
		opts.Accept = func() system.Peer {
			select {
			case sess := <-srv.NewSessions():
				return sess
			default:
				return nil
			}
		}
		printReady("hosting on ws://" + srv.Addr().String() + "/ws")
	}
	fmt.Println()

	s, err := sim.New(opts)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.NewGame(); err != nil {
		return err
	}

	tickRate := cfg.Simulation.TickRate
	if tickRate <= 0 && cfg.Network.Enabled {
		tickRate = 50 * time.Millisecond
	}
	start := time.Now()
	printReady(fmt.Sprintf("simulation started (match %s)", s.ID))

	g.Go(func() error {
		defer stop()
		return loop(ctx, s, tickRate)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	printSummary(s.Summary(), time.Since(start))
	return nil
}

// loop ticks the simulation until the turn limit or ctx ends. A client
// also stops once its host goes away.
func loop(ctx context.Context, s *sim.Simulation, rate time.Duration) error {
	var tick <-chan time.Time
	if rate > 0 {
		ticker := time.NewTicker(rate)
		defer ticker.Stop()
		tick = ticker.C
	}
	for !s.Over() {
		if tick != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-tick:
			}
		} else if ctx.Err() != nil {
			return nil
		}
		s.Tick()
		if s.Disconnected() {
			printOK("Host closed the session")
			return nil
		}
	}
	return nil
}

func loadTerrain(cfg *config.Config, tables *data.Tables) (grid.Terrain, error) {
	if cfg.Map.Source == "file" {
		m, info, err := data.LoadMap(cfg.Map.ListPath, cfg.Map.TileDir, cfg.Map.ID, tables.Terrain)
		if err != nil {
			return nil, fmt.Errorf("load map: %w", err)
		}
		printOK(fmt.Sprintf("map %q (%dx%d)", info.Name, info.Width, info.Height))
		return m, nil
	}
	gen := mapgen.DefaultConfig()
	gen.Width, gen.Height, gen.Seed = cfg.Map.Width, cfg.Map.Height, cfg.Map.Seed
	m, err := mapgen.Generate(gen, tables.Terrain)
	if err != nil {
		return nil, fmt.Errorf("generate map: %w", err)
	}
	printOK(fmt.Sprintf("generated %dx%d map (seed %d)", gen.Width, gen.Height, gen.Seed))
	return m, nil
}

func printSummary(sum sim.Summary, took time.Duration) {
	fmt.Println()
	printSection("summary")
	printStat("turns played", int(sum.Turn)-1)
	printStat("ticks", int(sum.Ticks))
	printStat("units", sum.Units)
	printStat("cities", sum.Cities)
	printStat("buildings", sum.Buildings)
	printStat("items produced", sum.Completed)
	if sum.Forwarded > 0 || sum.Sync.FullStates > 0 {
		printStat("actions forwarded", sum.Forwarded)
		printStat("full states applied", sum.Sync.FullStates)
		printStat("desyncs", sum.Sync.Desyncs)
	}
	if sum.Peers > 0 {
		printStat("peers", sum.Peers)
	}
	civs := make([]string, 0, len(sum.Ledger))
	for civ := range sum.Ledger {
		civs = append(civs, string(civ))
	}
	sort.Strings(civs)
	for _, civ := range civs {
		printStat("production "+civ, sum.Ledger[component.CivID(civ)])
	}
	printReady(fmt.Sprintf("finished in %s", took.Round(time.Millisecond)))
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
