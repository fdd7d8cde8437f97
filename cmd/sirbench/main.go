// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Sirbench runs the SIR app startup benchmarks and baseline profile
// generation against a device connected through adb.
//
// Usage:
//
//	sirbench [flags] list [pattern...]
//	sirbench [flags] run [pattern...]
//
// Patterns are globs over test names, such as "sir.StartupBenchmark.launch_*".
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"

	"github.com/cascadiacollections/sir-android/internal/adb"
	"github.com/cascadiacollections/sir-android/internal/adb/ui"
	"github.com/cascadiacollections/sir-android/internal/bundle"
	"github.com/cascadiacollections/sir-android/internal/bundles/sir"
	"github.com/cascadiacollections/sir-android/internal/config"
	"github.com/cascadiacollections/sir-android/internal/logging"
	"github.com/cascadiacollections/sir-android/internal/macrobench"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: sirbench [flags] list|run [pattern...]\n")
	flag.PrintDefaults()
	os.Exit(2)
}

func main() {
	log.SetPrefix("sirbench: ")
	log.SetFlags(0)

	var (
		configPath = flag.String("config", "", "load configuration from `file`")
		serial     = flag.String("serial", "", "device `serial`; overrides the configuration")
		outDir     = flag.String("outdir", "", "write results under `dir`; overrides the configuration")
		iterations = flag.Int("iterations", 0, "override the iteration count of every benchmark")
		verbose    = flag.Bool("v", false, "log debug messages")
		noUI       = flag.Bool("noui", false, "inject input through adb instead of UI Automator")
		restartADB = flag.Bool("restart-adb", false, "kill the local adb server before connecting")
	)
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "serial":
			cfg.Serial = *serial
		case "outdir":
			cfg.OutDir = *outDir
		case "iterations":
			cfg.Iterations = *iterations
		case "v":
			cfg.Verbose = *verbose
		case "noui":
			cfg.UIAutomator.Disabled = *noUI
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	reg := bundle.Global()
	if errs := reg.Errors(); len(errs) > 0 {
		log.Fatalf("bad test registration: %v", errs)
	}
	insts, err := reg.Match(flag.Args()[1:])
	if err != nil {
		log.Fatal(err)
	}

	switch flag.Arg(0) {
	case "list":
		list(insts)
	case "run":
		if len(insts) == 0 {
			log.Fatal("no tests matched")
		}
		ok, err := run(cfg, *restartADB, insts)
		if err != nil {
			log.Fatal(err)
		}
		if !ok {
			os.Exit(1)
		}
	default:
		usage()
	}
}

func list(insts []*bundle.Instance) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	for _, inst := range insts {
		fmt.Fprintf(tw, "%s\t%s\n", inst.Name, inst.Desc)
	}
	tw.Flush()
}

func run(cfg *config.Config, restartADB bool, insts []*bundle.Instance) (bool, error) {
	logger, err := logging.New(cfg.Verbose)
	if err != nil {
		return false, errors.Wrap(err, "failed to create logger")
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithLogger(ctx, logger)

	env, cleanup, err := setUp(ctx, cfg, restartADB)
	if err != nil {
		return false, err
	}
	defer cleanup()

	results := bundle.Run(ctx, insts, bundle.RunConfig{OutDir: cfg.OutDir, FixtValue: env})

	passed := true
	tw := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	for _, res := range results {
		status := "PASS"
		if !res.Passed() {
			status = "FAIL"
			passed = false
		}
		fmt.Fprintf(tw, "%s\t%s\t%v\n", res.Name, status, res.Duration.Round(time.Millisecond))
		for _, e := range res.Errors {
			fmt.Fprintf(tw, "\t  %s\n", e)
		}
	}
	tw.Flush()
	return passed, nil
}

// setUp connects to the device and prepares the fixture shared by all
// tests.
func setUp(ctx context.Context, cfg *config.Config, restartADB bool) (*sir.Env, func(), error) {
	if restartADB {
		if err := adb.KillLocalServer(ctx); err != nil {
			return nil, nil, errors.Wrap(err, "failed to kill adb server")
		}
	}
	dev, err := adb.Connect(ctx, cfg.Serial)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to connect to device")
	}
	if err := dev.Root(ctx); err != nil {
		// Cold starts then run with a warm page cache.
		logging.ContextLog(ctx, "Continuing without root: ", err)
	}
	pkgs, err := dev.InstalledPackages(ctx)
	if err != nil {
		return nil, nil, err
	}
	if _, ok := pkgs[cfg.Package]; !ok {
		return nil, nil, errors.Errorf("%s is not installed", cfg.Package)
	}
	if sdk, err := dev.SDKVersion(ctx); err == nil {
		logging.ContextLogf(ctx, "Connected to %q (SDK %d)", dev.Serial, sdk)
	}

	env := &sir.Env{Device: dev, Package: cfg.Package, Iterations: cfg.Iterations}
	cleanup := func() {}
	if !cfg.UIAutomator.Disabled {
		d, err := ui.NewDevice(ctx, dev, ui.Options{APKs: cfg.UIAutomator.APKs, HostPort: cfg.UIAutomator.Port})
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to start UI Automator")
		}
		if cfg.Verbose {
			d.EnableDebug()
		}
		env.UI = macrobench.AutomatorUI(d)
		cleanup = func() {
			if err := d.Close(context.Background()); err != nil {
				logging.ContextLog(ctx, "Failed to close UI Automator: ", err)
			}
		}
	}
	return env, cleanup, nil
}
