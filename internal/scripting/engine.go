package scripting

import (
	"embed"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

//go:embed lua/*.lua
var builtin embed.FS

// Engine wraps a single gopher-lua VM for rule formulas.
// Single-goroutine access only (simulation loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine with the built-in scripts, then loads any
// .lua files in scriptsDir on top so they may redefine functions.
// An empty scriptsDir loads only the built-ins.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	if err := e.loadBuiltin(); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load builtin scripts: %w", err)
	}
	if scriptsDir != "" {
		if err := e.loadDir(scriptsDir); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load scripts: %w", err)
		}
	}
	return e, nil
}

func (e *Engine) loadBuiltin() error {
	entries, err := fs.ReadDir(builtin, "lua")
	if err != nil {
		return err
	}
	for _, entry := range entries {
		src, err := builtin.ReadFile("lua/" + entry.Name())
		if err != nil {
			return err
		}
		if err := e.vm.DoString(string(src)); err != nil {
			return fmt.Errorf("load %s: %w", entry.Name(), err)
		}
		e.log.Debug("loaded builtin lua script", zap.String("file", entry.Name()))
	}
	return nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// Combatant is the packed stat block of one side of a fight.
type Combatant struct {
	Attack    int
	Defense   int
	Health    int
	MaxHealth int
}

// CombatContext holds pre-packed data for one attack.
type CombatContext struct {
	Attacker Combatant
	Defender Combatant
}

// CombatResult is the damage each side takes.
type CombatResult struct {
	DefenderDamage int
	AttackerDamage int
}

// CalcAttack calls the Lua calc_attack function, falling back to the
// built-in formula if the script is missing or fails.
func (e *Engine) CalcAttack(ctx CombatContext) CombatResult {
	if e == nil {
		return FallbackAttack(ctx)
	}
	fn := e.vm.GetGlobal("calc_attack")
	if fn == lua.LNil {
		e.log.Error("lua function calc_attack not found")
		return FallbackAttack(ctx)
	}

	t := e.vm.NewTable()
	t.RawSetString("attacker", e.combatant(ctx.Attacker))
	t.RawSetString("defender", e.combatant(ctx.Defender))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua calc_attack error", zap.Error(err))
		return FallbackAttack(ctx)
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		e.log.Error("lua calc_attack returned non-table")
		return FallbackAttack(ctx)
	}
	return CombatResult{
		DefenderDamage: max(lInt(rt, "defender_damage"), 0),
		AttackerDamage: max(lInt(rt, "attacker_damage"), 0),
	}
}

func (e *Engine) combatant(c Combatant) *lua.LTable {
	t := e.vm.NewTable()
	t.RawSetString("attack", lua.LNumber(c.Attack))
	t.RawSetString("defense", lua.LNumber(c.Defense))
	t.RawSetString("health", lua.LNumber(c.Health))
	t.RawSetString("max_health", lua.LNumber(c.MaxHealth))
	return t
}

// FallbackAttack is the Go rendition of the built-in combat.lua.
func FallbackAttack(ctx CombatContext) CombatResult {
	a, d := ctx.Attacker, ctx.Defender
	strength := float64(a.Attack)
	if a.MaxHealth > 0 {
		strength = float64(a.Attack) * float64(a.Health) / float64(a.MaxHealth)
	}
	dmg := math.Floor(20 * strength / float64(max(d.Defense, 1)))
	counter := math.Floor(10 * float64(d.Defense) / float64(max(a.Attack, 1)))
	return CombatResult{DefenderDamage: max(int(dmg), 0), AttackerDamage: max(int(counter), 0)}
}

func lInt(t *lua.LTable, key string) int {
	return int(lua.LVAsNumber(t.RawGetString(key)))
}

func (e *Engine) Close() {
	if e != nil {
		e.vm.Close()
	}
}
