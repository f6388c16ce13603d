package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lastlight/server/internal/collision"
	"github.com/lastlight/server/internal/config"
	coresys "github.com/lastlight/server/internal/core/system"
	"github.com/lastlight/server/internal/data"
	"github.com/lastlight/server/internal/persist"
	"github.com/lastlight/server/internal/scripting"
	"github.com/lastlight/server/internal/spatial"
	"github.com/lastlight/server/internal/system"
	"github.com/lastlight/server/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m            Lastlight  v0.1.0              \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m      zombie survival world server         \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mserver:\033[0m %s\n\n", serverName)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
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

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("LASTLIGHT_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name)

	// 3. Optional PostgreSQL: profile persistence only, the sim runs
	// in-memory without it.
	var db *persist.DB
	var profileRepo *persist.ProfileRepo
	if cfg.Database.Enabled {
		printSection("database")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		db, err = persist.NewDB(ctx, cfg.Database, log)
		cancel()
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("postgres connected")

		ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
		err = db.RunMigrations(ctx)
		cancel()
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		profileRepo = persist.NewProfileRepo(db)
		printOK("migrations applied")
		fmt.Println()
	}

	// 4. Load scenario data
	printSection("scenario data")

	scenario, err := data.LoadScenario(cfg.World.ScenarioDir)
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}
	printStat("maps", scenario.Count())

	creatures, err := data.LoadCreatureTable(cfg.World.ScenarioDir + "/creature_list.yaml")
	if err != nil {
		return fmt.Errorf("load creatures: %w", err)
	}
	printStat("creature templates", creatures.Count())

	spawns, err := data.LoadSpawnList(cfg.World.ScenarioDir + "/spawn_list.yaml")
	if err != nil {
		return fmt.Errorf("load spawns: %w", err)
	}
	printStat("spawn entries", len(spawns))

	info := scenario.Info(cfg.World.MapID)
	if info == nil {
		return fmt.Errorf("map %d not in scenario", cfg.World.MapID)
	}

	// 5. Spatial index + collision resolver over the active map
	bounds := spatial.Rect{Width: info.Width, Height: info.Height}
	index := spatial.NewIndex(bounds, scenario.ObstacleBounds(cfg.World.MapID))
	resolver, err := collision.NewResolver(index, collision.NewTreeWalk(index))
	if err != nil {
		return fmt.Errorf("collision: %w", err)
	}
	printStat("obstacles", index.StaticLen())

	// 6. Lua AI engine
	engine, err := scripting.NewEngine(cfg.World.ScriptsDir, log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer engine.Close()
	printOK("lua engine ready")
	fmt.Println()

	// 7. World managers
	mgr := world.NewManager(index, log)
	zombies := world.NewZombieManager(mgr, creatures, cfg.Pool.MaxSize, log)
	partners := world.NewPartnerManager(mgr, creatures, cfg.Pool.MaxSize, log)
	chars := world.NewCharacterManager(mgr)
	items := world.NewItemManager(mgr, cfg.Pool.MaxSize, log)

	// 8. Populate the world
	printSection("world")

	player := loadOrCreatePlayer(profileRepo, cfg.World, info, log)
	chars.Add(player)
	px, py := player.Pos()
	printOK(fmt.Sprintf("survivor %s at (%.0f, %.0f)", player.Name, px, py))

	partnerKinds := kindsByRole(creatures, spawns, "partner")
	for i := 0; i < cfg.World.PartnerCount && len(partnerKinds) > 0; i++ {
		kind := partnerKinds[i%len(partnerKinds)]
		x, y, ok := resolver.SafeSpawn(px, py, 40, 120, 24, 24, true)
		if !ok {
			log.Warn("no safe position for partner", zap.String("kind", kind))
			continue
		}
		if _, err := partners.Spawn(kind, player.ID(), x, y); err != nil {
			log.Warn("partner spawn failed", zap.String("kind", kind), zap.Error(err))
		}
	}
	printStat("partners", partners.Count())

	zombieKinds := kindsByRole(creatures, spawns, "zombie")
	printStat("initial zombies", seedZombies(zombies, resolver, creatures, spawns, cfg.World.MapID, log))

	fmt.Println()

	// 9. Systems
	runner := coresys.NewRunner()
	runner.Register(system.NewSpawnSystem(mgr, zombies, chars, items, resolver, creatures, zombieKinds, cfg.World, log))
	runner.Register(system.NewZombieAISystem(mgr, zombies, resolver, engine, cfg.World, log))
	runner.Register(system.NewPartnerAISystem(mgr, partners, zombies, items, resolver, engine, cfg.World, log))
	runner.Register(system.NewPoolMaintenanceSystem(cfg.Pool, log, zombies.Pool(), partners.Pool(), items.Pool()))
	runner.Register(system.NewHealthCheckSystem(mgr, cfg.World, log, zombies.Pool(), partners.Pool(), items.Pool()))
	var persistSys *system.PersistenceSystem
	if profileRepo != nil {
		persistSys = system.NewPersistenceSystem(chars, profileRepo, cfg.World, log)
		runner.Register(persistSys)
	}
	runner.Register(system.NewCleanupSystem(mgr, log))

	// 10. Game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Server.TickRate)
	defer ticker.Stop()

	printReady(fmt.Sprintf("world running, tick %v", cfg.Server.TickRate))
	fmt.Println()
	log.Info("server started",
		zap.String("map", info.Name),
		zap.Duration("tick", cfg.Server.TickRate),
		zap.Bool("persistence", profileRepo != nil))

	last := time.Now()
	for {
		select {
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			runner.Tick(dt)
		case sig := <-shutdownCh:
			log.Info("shutdown signal", zap.String("signal", sig.String()))
			if persistSys != nil {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				persistSys.SaveDirty(ctx)
				cancel()
			}
			log.Info("server stopped")
			return nil
		}
	}
}

// loadOrCreatePlayer restores the survivor profile from the database when
// available, otherwise starts fresh at the map start point.
func loadOrCreatePlayer(repo *persist.ProfileRepo, wcfg config.WorldConfig, info *data.MapInfo, log *zap.Logger) *world.Character {
	c := &world.Character{
		Name:   "survivor",
		HP:     100,
		MaxHP:  100,
		Radius: 12,
		Speed:  6,
	}
	c.SetPos(info.StartX, info.StartY)

	if repo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		row, err := repo.Load(ctx, c.Name)
		cancel()
		if err != nil {
			log.Warn("profile load failed, starting fresh", zap.Error(err))
		} else if row != nil && row.MapID == wcfg.MapID {
			c.HP = row.HP
			c.MaxHP = row.MaxHP
			c.DaysSurvived = row.DaysSurvived
			c.ZombieKills = row.ZombieKills
			c.SetPos(row.X, row.Y)
			log.Info("profile restored",
				zap.Int32("days", row.DaysSurvived),
				zap.Int32("kills", row.ZombieKills))
		}
	}
	c.Dirty = true
	return c
}

// seedZombies places the scenario's initial spawn entries.
func seedZombies(zombies *world.ZombieManager, resolver *collision.Resolver, creatures *data.CreatureTable, spawns []data.SpawnEntry, mapID int16, log *zap.Logger) int {
	total := 0
	for _, spawn := range spawns {
		if spawn.MapID != mapID {
			continue
		}
		tpl := creatures.Get(spawn.Kind)
		if tpl == nil || tpl.Role != "zombie" {
			continue
		}
		for i := 0; i < spawn.Count; i++ {
			x, y := spawn.X, spawn.Y
			if spawn.RandomR > 0 {
				x += (rand.Float64()*2 - 1) * spawn.RandomR
				y += (rand.Float64()*2 - 1) * spawn.RandomR
			}
			if !resolver.IsWalkable(x, y) || resolver.CircleHitsBuildings(x, y, tpl.Radius) {
				sx, sy, ok := resolver.SafeSpawn(spawn.X, spawn.Y, 0, spawn.RandomR+tpl.Radius*4, tpl.Radius*2, tpl.Radius*2, true)
				if !ok {
					log.Warn("seed spawn blocked", zap.String("kind", spawn.Kind))
					continue
				}
				x, y = sx, sy
			}
			if _, err := zombies.Spawn(spawn.Kind, x, y); err != nil {
				log.Warn("seed spawn failed", zap.String("kind", spawn.Kind), zap.Error(err))
				continue
			}
			total++
		}
	}
	return total
}

// kindsByRole collects the creature kinds of one role referenced by the
// spawn list, falling back to every template of that role.
func kindsByRole(creatures *data.CreatureTable, spawns []data.SpawnEntry, role string) []string {
	seen := make(map[string]bool)
	var kinds []string
	for _, spawn := range spawns {
		if seen[spawn.Kind] {
			continue
		}
		if tpl := creatures.Get(spawn.Kind); tpl != nil && tpl.Role == role {
			seen[spawn.Kind] = true
			kinds = append(kinds, spawn.Kind)
		}
	}
	if len(kinds) == 0 {
		kinds = creatures.KindsByRole(role)
	}
	return kinds
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
