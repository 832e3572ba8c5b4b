// Command livedeck-tool runs deck pieces without the TUI: port listing,
// template rendering, chart export and settings inspection.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"go-livedeck/config"
	"go-livedeck/deck"
	"go-livedeck/gain"
	"go-livedeck/graph"
	"go-livedeck/midi"
	"go-livedeck/player"
	"go-livedeck/preprocess"
	"go-livedeck/settings"
	"go-livedeck/theme"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

func main() {
	log.SetFlags(0)
	configPath := flag.String("config", "", "config file")
	flag.Usage = usage
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	switch args[0] {
	case "ports":
		err = listPorts(cfg)
	case "poll":
		pollDevices(cfg)
	case "pads":
		err = showPads(cfg)
	case "preprocess":
		err = preprocessFile(cfg, args[1:])
	case "render":
		err = renderLog(cfg, args[1:])
	case "settings":
		err = showSettings(cfg)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Println("livedeck-tool")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  ports                 - List MIDI ports and how they would be opened")
	fmt.Println("  poll                  - Watch controllers connect and disconnect")
	fmt.Println("  pads                  - Light the deck layout on a Launchpad")
	fmt.Println("  preprocess [file]     - Print a template with saved settings applied")
	fmt.Println("  render <log> <out>    - Sample a gain log and write an .svg or .png chart")
	fmt.Println("  settings              - Print the saved settings record")
}

func listPorts(cfg *config.Config) error {
	fmt.Println("=== MIDI Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	type result struct{ ins, outs []string }
	ch := make(chan result, 1)
	go func() {
		ins, outs := midi.Ports()
		ch <- result{ins, outs}
	}()

	select {
	case r := <-ch:
		known := cfg.AutoConnectControllers()
		for i, name := range r.ins {
			kind, ok := midi.Classify(name, known)
			if !ok {
				fmt.Printf("  in  %d: %s\n", i, name)
				continue
			}
			fmt.Printf("  in  %d: %s  -> %s\n", i, name, kind)
		}
		for i, name := range r.outs {
			fmt.Printf("  out %d: %s\n", i, name)
		}
		return nil
	case <-time.After(3 * time.Second):
		return errors.New("timeout listing MIDI ports (on macOS: sudo killall coreaudiod midiserver)")
	}
}

func pollDevices(cfg *config.Config) {
	fmt.Println("Watching for controllers. Ctrl+C to exit.")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dm := midi.NewDeviceManager(cfg.AutoConnectControllers())
	go dm.Run(ctx)
	for ev := range dm.Events() {
		stamp := time.Now().Format("15:04:05")
		if ev.Type == midi.DeviceConnected {
			fmt.Printf("[%s] connected %s (%s)\n", stamp, ev.ID, ev.Controller.Type())
		} else {
			fmt.Printf("[%s] disconnected %s\n", stamp, ev.ID)
		}
	}
}

func showPads(cfg *config.Config) error {
	th, err := loadTheme(cfg)
	if err != nil {
		return err
	}

	var lp *midi.LaunchpadController
	for _, in := range gomidi.GetInPorts() {
		kind, ok := midi.Classify(in.String(), cfg.AutoConnectControllers())
		if !ok || kind != midi.ControllerLaunchpad {
			continue
		}
		var out drivers.Out
		for _, o := range gomidi.GetOutPorts() {
			if strings.EqualFold(o.String(), in.String()) {
				out = o
				break
			}
		}
		if out == nil {
			return fmt.Errorf("no output port named %s", in.String())
		}
		lp, err = midi.NewLaunchpadController(in.String(), nil, out)
		if err != nil {
			return err
		}
		break
	}
	if lp == nil {
		return errors.New("no Launchpad found")
	}
	defer lp.Close()

	fmt.Printf("Lighting %s with the default deck layout...\n", lp.ID())
	if err := lp.SetLEDBatch(midi.LEDFrame(settings.Default(), false, th)); err != nil {
		return err
	}
	fmt.Println("Press Enter to clear...")
	_, _ = bufio.NewReader(os.Stdin).ReadString('\n')
	return nil
}

func preprocessFile(cfg *config.Config, args []string) error {
	tmpl := deck.DefaultTune
	if len(args) > 0 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		tmpl = string(data)
	}

	s := settings.Default()
	if p, err := openStore(cfg).Load(); err == nil {
		if !s.Apply(p) {
			log.Print(deck.MsgCPMInvalid)
		}
	} else if !errors.Is(err, settings.ErrNotFound) {
		return err
	}

	out, err := preprocess.New(cfg.Template.MuteSentinel).Render(tmpl, s, cfg.Template.Expressions)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

// renderLog replays a log file one entry per sampler tick
func renderLog(cfg *config.Config, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: render <logfile> <out.svg|out.png>")
	}
	th, err := loadTheme(cfg)
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	engineLog := player.NewLog(0)
	sampler := gain.New(engineLog, gain.Options{Capacity: cfg.Sampler.Capacity})
	sc := bufio.NewScanner(f)
	n := 0
	for sc.Scan() {
		engineLog.Append(sc.Text())
		if sampler.Tick() {
			n++
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}

	out, err := os.Create(args[1])
	if err != nil {
		return err
	}
	if err := graph.Render(sampler.Snapshot(), graph.FormatFor(args[1]), graph.StyleFrom(th), out); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	log.Printf("%d samples, last %d plotted -> %s", n, len(sampler.Snapshot()), args[1])
	return nil
}

func showSettings(cfg *config.Config) error {
	p, err := openStore(cfg).Load()
	if errors.Is(err, settings.ErrNotFound) {
		fmt.Println(deck.MsgNotFound)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Println(p.JSON())
	return nil
}

func openStore(cfg *config.Config) *settings.Store {
	path, err := cfg.StoragePath()
	if err != nil {
		log.Fatal(err)
	}
	return settings.NewStore(settings.NewFileSlot(path), cfg.Storage.Key)
}

func loadTheme(cfg *config.Config) (*theme.Theme, error) {
	p, err := theme.LoadOrDefault(cfg.UI.Palette)
	if err != nil {
		return nil, err
	}
	return theme.New(p), nil
}
