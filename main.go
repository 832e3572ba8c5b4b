package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"go-livedeck/config"
	"go-livedeck/debug"
	"go-livedeck/deck"
	"go-livedeck/gain"
	"go-livedeck/graph"
	"go-livedeck/midi"
	"go-livedeck/player"
	"go-livedeck/preprocess"
	"go-livedeck/settings"
	"go-livedeck/theme"
	"go-livedeck/transport"
	"go-livedeck/tui"
)

type engine interface {
	transport.Player
	gain.LogSource
}

func main() {
	configPath := flag.String("config", "", "config file (default ~/.config/go-livedeck/config.json)")
	debugLog := flag.Bool("debug", false, "write a debug log next to the config")
	debugOnly := flag.String("debug-only", "", "comma separated debug categories to keep (deck,transport,sampler,midi,...)")
	playerKind := flag.String("player", "", "engine: sim or process")
	engineCmd := flag.String("engine-cmd", "", "engine command line for --player=process")
	chartOut := flag.String("chart-out", "", "keep an .svg or .png gain chart up to date")
	ephemeral := flag.Bool("ephemeral", false, "keep saved settings in memory only")
	useMIDI := flag.Bool("midi", false, "enable MIDI controllers")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [template-file]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	// Flags override the file
	if *playerKind != "" {
		cfg.Player.Kind = *playerKind
	}
	if *engineCmd != "" {
		cfg.Player.Command = strings.Fields(*engineCmd)
	}
	if *chartOut != "" {
		cfg.Chart.Output = *chartOut
	}
	if *useMIDI {
		cfg.MIDI.Enabled = true
	}
	if flag.NArg() > 0 {
		cfg.Template.Path = flag.Arg(0)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if *debugLog {
		debug.Only(debug.ParseCategories(*debugOnly)...)
		if dir, err := config.ConfigDir(); err == nil {
			if err := debug.Enable(filepath.Join(dir, "debug.log")); err != nil {
				fmt.Printf("Warning: debug log: %v\n", err)
			}
		}
		defer debug.Disable()
	}

	if err := run(cfg, *ephemeral); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, ephemeral bool) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load theme
	palette, err := theme.LoadOrDefault(cfg.UI.Palette)
	if err != nil {
		return err
	}
	th := theme.New(palette)

	tmpl := deck.DefaultTune
	if cfg.Template.Path != "" {
		data, err := os.ReadFile(cfg.Template.Path)
		if err != nil {
			return fmt.Errorf("read template: %w", err)
		}
		tmpl = string(data)
	}

	eng, closeEngine, err := startEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeEngine()

	var slot settings.Slot = settings.NewMemorySlot()
	if !ephemeral {
		path, err := cfg.StoragePath()
		if err != nil {
			return err
		}
		slot = settings.NewFileSlot(path)
	}

	editor := transport.NewEditor(tmpl)
	ctrl := transport.New(eng, editor, preprocess.New(cfg.Template.MuteSentinel))
	ctrl.SetExpressions(cfg.Template.Expressions)
	d := deck.New(settings.NewStore(slot, cfg.Storage.Key), ctrl, editor)
	defer d.Stop()

	sampler := gain.New(eng, gain.Options{Interval: cfg.Interval(), Capacity: cfg.Sampler.Capacity})
	if cfg.Chart.Output != "" {
		redraw := graph.NewRedrawer(cfg.Chart.Output, graph.StyleFrom(th))
		sampler.Subscribe(redraw.Update)
		defer func() {
			if err := redraw.Err(); err != nil {
				fmt.Printf("Warning: chart: %v\n", err)
			}
		}()
	}
	sampler.Start(ctx)
	defer sampler.Stop()

	// Create MIDI device manager (handles hot-plug)
	var router *midi.Router
	if cfg.MIDI.Enabled {
		deviceMgr := midi.NewDeviceManager(cfg.AutoConnectControllers())
		router = midi.NewRouter(d, cfg.MIDI.Bindings, th)
		go deviceMgr.Run(ctx)
		go router.Run(ctx, deviceMgr.Events())
	}

	debug.Log("main", "player=%s template=%q chart=%q midi=%v",
		cfg.Player.Kind, cfg.Template.Path, cfg.Chart.Output, cfg.MIDI.Enabled)

	m := tui.NewModel(d, sampler, router, th)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err = p.Run()
	return err
}

func startEngine(ctx context.Context, cfg *config.Config) (engine, func(), error) {
	log := player.NewLog(0)
	if cfg.Player.Kind == "process" {
		proc, err := player.StartProcess(ctx, player.ProcessConfig{Command: cfg.Player.Command}, log)
		if err != nil {
			return nil, nil, err
		}
		return procEngine{proc, log}, func() {
			if err := proc.Close(2 * time.Second); err != nil {
				debug.Log("main", "engine close: %v", err)
			}
		}, nil
	}
	sim := player.NewSim(log)
	return simEngine{sim, log}, func() { _ = sim.Stop() }, nil
}

type simEngine struct {
	*player.Sim
	*player.Log
}

type procEngine struct {
	*player.Process
	*player.Log
}
