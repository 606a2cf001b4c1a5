// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command cachebench runs the cache budget scenarios and reports cache churn.
//
// Each scenario runs on its own gpucache.Context, concurrently with the
// others. Resources are host-memory checkerboards by default, or textures of
// a noop HAL device with -device=noop.
//
//	cachebench -scenario=all -v
//	cachebench -scenario=flipflop -budget=25 -frames=80 -metrics-addr=:9090
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/gpucache"
	"github.com/gogpu/gpucache/gpu"
	"github.com/gogpu/gpucache/internal/scenario"
	"github.com/gogpu/gpucache/metrics"
)

type config struct {
	scenario    string
	frames      int
	budget      int
	seed        int64
	device      string
	metricsAddr string
	verbose     bool
}

// job is one scenario bound to its own context.
type job struct {
	name string
	run  func(ctx *gpucache.Context, src scenario.ImageSource) (scenario.Report, error)
}

func main() {
	var cfg config
	flag.StringVar(&cfg.scenario, "scenario", "all", "scenario to run: flipflop, ordered, shuffled or all")
	flag.IntVar(&cfg.frames, "frames", 0, "frames per scenario (0 = scenario default)")
	flag.IntVar(&cfg.budget, "budget", 0, "image budget above the baseline (0 = scenario default)")
	flag.Int64Var(&cfg.seed, "seed", 1, "shuffle seed")
	flag.StringVar(&cfg.device, "device", "memory", "resource backend: memory or noop")
	flag.StringVar(&cfg.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address and wait for a signal")
	flag.BoolVar(&cfg.verbose, "v", false, "log cache activity")
	flag.Parse()

	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	gpucache.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("cachebench failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config, logger *slog.Logger) error {
	jobs, err := selectJobs(cfg)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)

	var server *http.Server
	if cfg.metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		server = &http.Server{Addr: cfg.metricsAddr, Handler: mux}
		go func() {
			logger.Info("starting metrics server", "addr", cfg.metricsAddr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "err", err)
			}
		}()
	}

	reports := make([]scenario.Report, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	for i, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			src, cleanup, err := newSource(cfg.device)
			if err != nil {
				return err
			}
			defer cleanup()

			cc := gpucache.NewContext(gpucache.WithName(j.name), gpucache.WithFlushObserver(m.Observer(j.name)))
			defer cc.Close()

			r, err := j.run(cc, src)
			if err != nil {
				return fmt.Errorf("%s: %w", j.name, err)
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, r := range reports {
		logger.Info("scenario finished",
			"name", r.Name, "budget", r.Budget, "frames", r.Frames(),
			"misses", r.TotalMisses(), "maxResident", r.MaxResident(),
			"maxAfterFlush", r.MaxAfterFlush(), "hitRate", fmt.Sprintf("%.1f%%", r.Final.HitRate()*100))
		if perOsc, ok := r.SteadyMisses(2, min(r.Frames(), 20)); ok {
			logger.Info("steady churn", "name", r.Name, "missesPerTwoFrames", perOsc)
		}
	}

	if server == nil {
		return nil
	}
	logger.Info("waiting for signal, metrics remain available")
	<-ctx.Done()
	return server.Shutdown(context.Background())
}

func selectJobs(cfg config) ([]job, error) {
	ff := scenario.DefaultFlipFlop()
	sh := scenario.DefaultShuffle()
	sh.Seed = cfg.seed
	if cfg.frames > 0 {
		ff.Frames = cfg.frames
		sh.Frames = cfg.frames
	}
	if cfg.budget > 0 {
		// Keep the flip-flop oscillating around the budget.
		k := ff.Max - ff.Budget
		ff.Budget, ff.Min, ff.Max = cfg.budget, max(cfg.budget-k, 0), cfg.budget+k
		sh.Budget = cfg.budget
	}
	ordered := sh
	ordered.Shuffled = false

	all := map[string]job{
		"flipflop": {"flipflop", ff.Run},
		"ordered":  {"ordered", ordered.Run},
		"shuffled": {"shuffled", sh.Run},
	}
	switch cfg.scenario {
	case "all":
		return []job{all["flipflop"], all["ordered"], all["shuffled"]}, nil
	default:
		j, ok := all[cfg.scenario]
		if !ok {
			return nil, fmt.Errorf("unknown scenario %q", cfg.scenario)
		}
		return []job{j}, nil
	}
}

func newSource(device string) (scenario.ImageSource, func(), error) {
	switch device {
	case "memory":
		return scenario.MemorySource{}, func() {}, nil
	case "noop":
		dev, cleanup, err := gpu.NewNoopDevice()
		if err != nil {
			return nil, nil, err
		}
		alloc, err := gpu.NewAllocator(dev)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		return scenario.TextureSource{Alloc: alloc}, cleanup, nil
	default:
		return nil, nil, fmt.Errorf("unknown device %q", device)
	}
}
