package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gopxl/beep/speaker"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/novaengine/nova/internal/camera"
	"github.com/novaengine/nova/internal/component"
	"github.com/novaengine/nova/internal/config"
	"github.com/novaengine/nova/internal/data"
	"github.com/novaengine/nova/internal/feedback"
	"github.com/novaengine/nova/internal/frame"
	"github.com/novaengine/nova/internal/input"
	"github.com/novaengine/nova/internal/pacing"
	"github.com/novaengine/nova/internal/render"
	"github.com/novaengine/nova/internal/scripting"
	"github.com/novaengine/nova/internal/sim"
)

const (
	alertRows     = 4
	targetSpacing = 8.0  // m between spawned targets
	targetRange   = 30.0 // m ahead of the player
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner() {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m               Nova  v0.1.0                \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m         太空模擬即時核心 · Go            \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
}

func displayWidth(s string) int {
	w := 0
	for _, r := range s {
		if r > 0x7F {
			w += 2
		} else {
			w++
		}
	}
	return w
}

func printSection(title string) {
	lineLen := 46 - displayWidth(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - displayWidth(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

// ── Engine startup ─────────────────────────────────────────────────

func run() error {
	// 1. Config
	cfg, err := config.Load(config.Path(os.Getenv))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.ApplyEnv(os.Getenv)
	headless := cfg.Engine.Headless

	// 2. Logger
	log, err := newLogger(cfg.Logging, !headless)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner()

	// 3. Feedback
	minSev, ok := feedback.ParseSeverity(cfg.HUD.MinSeverity)
	if !ok {
		log.Warn("unknown hud severity, using info", zap.String("value", cfg.HUD.MinSeverity))
	}
	bus := feedback.NewBus(log.Named("feedback"))
	alerts := feedback.NewAlertLog(cfg.HUD.Locale, cfg.HUD.MaxAlerts, minSev)
	bus.Subscribe(alerts)

	// 4. Camera profile
	printSection("攝影機")
	camCfg := camera.DefaultConfig()
	profile := cfg.Camera.Profile
	if cfg.Camera.ProfileFile != "" {
		loaded, used, err := camera.LoadProfile(cfg.Camera.ProfileFile, cfg.Camera.Profile)
		if err != nil {
			log.Warn("camera profile unavailable, using defaults",
				zap.String("file", cfg.Camera.ProfileFile), zap.Error(err))
		} else {
			camCfg, profile = loaded, used
			printOK(fmt.Sprintf("設定檔 %s [%s]", cfg.Camera.ProfileFile, used))
		}
	}
	var watcher *camera.ProfileWatcher
	if cfg.Camera.Watch && cfg.Camera.ProfileFile != "" {
		w, err := camera.WatchProfile(cfg.Camera.ProfileFile, profile, log.Named("camera"))
		if err != nil {
			log.Warn("camera profile watch disabled", zap.Error(err))
		} else {
			defer w.Close()
			watcher = w
			printOK("監看設定檔變更")
		}
	}
	fmt.Println()

	// 5. World
	world := sim.New(bus, camCfg, log.Named("sim"))

	printSection("資料載入")
	loadouts, err := data.LoadLoadoutTable(cfg.Data.LoadoutFile)
	if err != nil {
		return fmt.Errorf("load loadouts: %w", err)
	}
	if cfg.Data.ObstacleFile != "" {
		obstacles, err := data.LoadObstacleTable(cfg.Data.ObstacleFile)
		if err != nil {
			return fmt.Errorf("load obstacles: %w", err)
		}
		world.LoadObstacles(obstacles)
		printStat("障礙物", obstacles.Count())
	}
	ships, err := spawnShips(world, loadouts, cfg.Data)
	if err != nil {
		return err
	}
	printStat("艦船", ships)

	// 6. Scripts
	engine, err := scripting.NewEngine(cfg.Data.ScriptsDir, log.Named("lua"))
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer engine.Close()
	engine.SetPower(world.Power())
	engine.SetHUD(alerts)
	bus.Subscribe(engine)
	world.AddScripts(engine)
	printStat("Lua 腳本", len(engine.Loaded()))
	fmt.Println()

	// 7. Audio
	if cfg.Audio.Enabled {
		if err := speaker.Init(feedback.SampleRate, feedback.SampleRate.N(time.Second/20)); err != nil {
			log.Warn("audio disabled", zap.Error(err))
		} else {
			cues := feedback.NewCuePlayer(cfg.Audio.Volume, speakerLock{})
			speaker.Play(cues.Mixer())
			bus.Subscribe(cues)
			defer speaker.Close()
		}
	}

	// 8. Frame pacing
	pace := pacing.New(pacing.Settings{VSync: cfg.Pacing.VSync, TargetFPS: cfg.Pacing.TargetFPS}, log.Named("pacing"))
	pace.ApplyEnv(os.Getenv)
	pace.SetAdaptive(cfg.Pacing.Adaptive && !headless)
	if !cfg.Pacing.AdaptiveVSync {
		pace.SetAdaptiveVSync(false)
	}

	clock := frame.SystemClock{}
	sched := frame.NewScheduler(frame.Config{
		FixedUpdateHz: cfg.Engine.FixedUpdateHz,
		MaxRenderHz:   renderCap(pace.VSync(), pace.TargetFPS(), cfg.Engine.MaxRenderHz),
		TimingHistory: cfg.Engine.TimingHistory,
	}, clock, log.Named("frame"))
	sched.SetPaused(cfg.Engine.PausedStart)

	h := &host{
		sim:         world,
		sched:       sched,
		pacing:      pace,
		alerts:      alerts,
		watcher:     watcher,
		stages:      frame.NewStageRecorder(clock),
		log:         log,
		maxRenderHz: cfg.Engine.MaxRenderHz,
	}
	if headless {
		h.maxFrames = uint64(cfg.Engine.MaxFrames)
	}

	if cfg.Trace.Path != "" {
		tw, err := frame.OpenTrace(cfg.Trace.Path)
		if err != nil {
			return fmt.Errorf("open trace: %w", err)
		}
		h.trace = tw
		defer func() {
			if h.trace == nil {
				return
			}
			if err := h.trace.Close(); err != nil {
				log.Warn("close trace", zap.Error(err))
			}
			log.Info("frame trace written", zap.String("path", cfg.Trace.Path))
		}()
	}

	// 9. Input and render collaborators
	if headless {
		h.input = &input.Static{}
		h.renderer = &render.Discard{}
	} else {
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("terminal: %w", err)
		}
		if err := screen.Init(); err != nil {
			return fmt.Errorf("terminal: %w", err)
		}
		defer screen.Fini()
		in := input.NewTerminal(screen, input.DefaultHoldWindow)
		defer in.Close()
		h.input = in
		h.renderer = render.NewTerminal(screen, alertRows)
	}

	// 10. Run
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(shutdownCh)
	go func() {
		if sig, ok := <-shutdownCh; ok {
			log.Info("收到關閉信號", zap.String("signal", sig.String()))
			h.Stop()
		}
	}()

	log.Info("engine running",
		zap.Bool("headless", headless),
		zap.Float64("fixed_hz", cfg.Engine.FixedUpdateHz),
		zap.Stringer("player", world.Player()))
	sched.Run(h.callbacks())

	log.Info("engine stopped",
		zap.Uint64("frames", sched.Frames()),
		zap.Uint64("steps", world.Steps()),
		zap.Uint64("destroyed", world.Destroyed()))
	return nil
}

// spawnShips places the player at the origin and the targets in a row ahead.
func spawnShips(world *sim.Sim, loadouts *data.LoadoutTable, cfg config.DataConfig) (int, error) {
	player := loadouts.Get(cfg.PlayerLoadout)
	if player == nil {
		return 0, fmt.Errorf("player loadout %q not found", cfg.PlayerLoadout)
	}
	if _, err := world.Spawn(player, component.Position{}, true); err != nil {
		return 0, err
	}
	n := 1
	if cfg.Targets == 0 {
		return n, nil
	}
	target := loadouts.Get(cfg.TargetLoadout)
	if target == nil {
		return n, fmt.Errorf("target loadout %q not found", cfg.TargetLoadout)
	}
	for i := 0; i < cfg.Targets; i++ {
		x := (float64(i) - float64(cfg.Targets-1)/2) * targetSpacing
		if _, err := world.Spawn(target, component.Position{X: x, Z: targetRange}, false); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// speakerLock guards the mixer with the speaker's own lock.
type speakerLock struct{}

func (speakerLock) Lock()   { speaker.Lock() }
func (speakerLock) Unlock() { speaker.Unlock() }

func newLogger(cfg config.LoggingConfig, toFile bool) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		if !toFile {
			zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	// 終端畫面占用 stdout 時改寫檔案
	if toFile && cfg.File != "" {
		zapCfg.OutputPaths = []string{cfg.File}
		zapCfg.ErrorOutputPaths = []string{cfg.File}
	}

	return zapCfg.Build()
}
