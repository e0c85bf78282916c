package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	Sa "github.com/maroda/syssonic/audio"
	Sd "github.com/maroda/syssonic/display"
	Sm "github.com/maroda/syssonic/mapper"
	Sc "github.com/maroda/syssonic/metrics"
	So "github.com/maroda/syssonic/obvy"
	Ss "github.com/maroda/syssonic/server"
)

// Gap between the smoothing samples inside one cycle
const sampleInterval = 200 * time.Millisecond

func init() {
	user := Ss.FillEnvVar("USER")
	fmt.Printf("SysSonic initializing for ... %s\n", user)

	if Ss.FillEnvVar("SYSSONIC_DEBUG") != "ENOENT" {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx := context.Background()

	config, err := Ss.NewConfig(ctx)
	if err != nil {
		slog.Error("Could not load configuration", slog.Any("Error", err))
		os.Exit(1)
	}

	switch os.Args[1] {
	case "live":
		err = runLive(config, os.Args[2:])
	case "export":
		err = runExport(ctx, config, os.Args[2:])
	case "monitor":
		err = runMonitor(config, os.Args[2:])
	case "test":
		err = runTest(config)
	case "serve":
		err = runServe(ctx, config, os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		slog.Error("Command failed", slog.Any("Error", err))
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("usage: syssonic <live|export|monitor|test|serve> [flags]")
	fmt.Println("  live     play live system sonification")
	fmt.Println("  export   capture a snapshot and render it to a file")
	fmt.Println("  monitor  print current metrics and their mapping, no audio")
	fmt.Println("  test     play a fixed composition to verify audio output")
	fmt.Println("  serve    run the cycle loop with the data surface attached")
}

func runLive(config *Ss.Config, args []string) error {
	fs := flag.NewFlagSet("live", flag.ExitOnError)
	bars := fs.Int("bars", Sd.DefaultLiveBars, "bars per cycle")
	interval := fs.Float64("interval", 16.0, "seconds between cycles")
	count := fs.Int("count", 0, "cycles to run, 0 = forever")
	if err := fs.Parse(args); err != nil {
		return err
	}

	fmt.Println("SysSonic - Live System Sonification")
	fmt.Println("Press Ctrl+C to stop")

	sonifier, err := Ss.NewSonifier(config, "live")
	if err != nil {
		return err
	}

	cadence := time.Duration(*interval * float64(time.Second))
	supervisor := Sd.NewLiveSupervisor(sonifier, cadence, config.SampleCount, *bars, *count)
	supervisor.Start()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigs:
		slog.Info("Stopping live sonification")
	case <-supervisor.DoneChan:
	}
	supervisor.Stop()

	if err := sonifier.Close(); err != nil {
		return err
	}
	fmt.Println("Live sonification complete")
	return nil
}

func runExport(ctx context.Context, config *Ss.Config, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	output := fs.String("output", "out.wav", "output file path")
	format := fs.String("format", "wav", "export format: wav, flac, or midi")
	bars := fs.Int("bars", 8, "bars to generate")
	samples := fs.Int("samples", 5, "samples to average")
	if err := fs.Parse(args); err != nil {
		return err
	}

	fmt.Println("SysSonic - Export Snapshot")
	fmt.Printf("Collecting %d samples...\n", *samples)

	sonifier, err := Ss.NewSonifier(config, "export")
	if err != nil {
		return err
	}
	defer func() {
		if err := sonifier.Close(); err != nil {
			slog.Error("Could not close sonifier", slog.Any("Error", err))
		}
	}()

	err = sonifier.ExportOnce(ctx, *samples, sampleInterval, *bars, *output, Sa.ParseFormat(*format))
	if err != nil {
		return err
	}

	// Follow events until the export resolves
	for {
		for _, ev := range sonifier.Controller.PollEvents() {
			switch ev.Kind {
			case Sa.EventExportStarted:
				fmt.Printf("Generating composition (%d bars)...\n", *bars)
			case Sa.EventExportProgress:
				fmt.Printf("\rRendering... %3.0f%%", ev.Fraction*100)
			case Sa.EventExportComplete:
				fmt.Printf("\nExport complete: %s\n", ev.Path)
				return nil
			case Sa.EventError:
				fmt.Println()
				return errors.New(ev.Message)
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func runMonitor(config *Ss.Config, args []string) error {
	fs := flag.NewFlagSet("monitor", flag.ExitOnError)
	interval := fs.Float64("interval", 2.0, "seconds between updates")
	count := fs.Int("count", 0, "updates to print, 0 = forever")
	if err := fs.Parse(args); err != nil {
		return err
	}

	fmt.Println("SysSonic - Metrics Monitor")
	fmt.Println("Press Ctrl+C to stop")

	hub := Sc.NewSensorHub(config.EnableGPU, config.EnableBattery, config.EnableFans)
	collector := Sc.NewCollector(hub)

	mapper := Sm.NewMapper()
	mapper.BaseTempo = config.BaseTempo
	mapper.Scale = Sm.ScaleByName(config.ScaleType)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(time.Duration(*interval * float64(time.Second)))
	defer ticker.Stop()

	for iteration := 0; ; {
		m := collector.Collect()
		p := mapper.Map(m)
		Sd.PrintCycle(os.Stdout, m, p)

		iteration++
		if *count > 0 && iteration >= *count {
			break
		}

		select {
		case <-sigs:
			fmt.Println("Monitoring complete")
			return nil
		case <-ticker.C:
		}
	}

	fmt.Println("Monitoring complete")
	return nil
}

func runTest(config *Ss.Config) error {
	fmt.Println("SysSonic - Audio Test")
	fmt.Println("Playing test composition...")

	engine, err := Sa.EngineLookup(config.Engine)
	if err != nil {
		return err
	}
	defer func() {
		if err := engine.Close(); err != nil {
			slog.Error("Could not close engine", slog.Any("Error", err))
		}
	}()

	mixer := Sa.TestComposition().Mixer()
	if err := engine.Play(mixer); err != nil {
		return err
	}

	fmt.Println("Test complete! If you heard sound, audio is working.")
	return nil
}

func runServe(ctx context.Context, config *Ss.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", config.ListenAddr, "listen address")
	bars := fs.Int("bars", Sd.DefaultLiveBars, "bars per cycle")
	if err := fs.Parse(args); err != nil {
		return err
	}

	shutdownOTel, err := So.InitOTel(ctx)
	if err != nil {
		slog.Error("Could not start tracing", slog.Any("Error", err))
		return err
	}
	defer shutdownOTel()

	sonifier, err := Ss.NewSonifier(config, "serve")
	if err != nil {
		return err
	}

	view, err := Sd.NewView(sonifier)
	if err != nil {
		return err
	}

	cadence := time.Duration(config.UpdateIntervalMS) * time.Millisecond
	supervisor := Sd.NewLiveSupervisor(sonifier, cadence, config.SampleCount, *bars, 0)
	view.Supervisor = supervisor
	supervisor.Start()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		slog.Info("Shutting down data surface")
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := view.StopServing(shutCtx); err != nil {
			slog.Error("Could not stop serving cleanly", slog.Any("Error", err))
		}
	}()

	servErr := view.StartDataServ(*addr)

	supervisor.Stop()
	if err := sonifier.Close(); err != nil {
		slog.Error("Could not close sonifier", slog.Any("Error", err))
	}

	return servErr
}
