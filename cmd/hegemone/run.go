package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/hegemone/cmd/hegemone/console"
	"github.com/mklimuk/hegemone/monitor"
	"github.com/mklimuk/hegemone/pkg/config"
	"github.com/mklimuk/hegemone/report"
	"github.com/mklimuk/hegemone/selftest"
	"github.com/mklimuk/hegemone/sink"
)

var runCmd = cli.Command{
	Name:  "run",
	Usage: "poll all sensors and submit readings until interrupted",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "http-url",
			Usage: "post every reading as JSON to this endpoint",
		},
		&cli.DurationFlag{
			Name:  "interval",
			Usage: "time between two readings",
		},
		&cli.BoolFlag{
			Name:  "skip-selftest",
			Usage: "start without verifying the host",
		},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return console.Fail("configuration error", err)
		}
		if c.IsSet("http-url") {
			cfg.Sinks.HTTP.URL = c.String("http-url")
		}
		if c.IsSet("interval") {
			cfg.Interval = config.Duration(c.Duration("interval"))
		}
		ctx, stop := signal.NotifyContext(newContext(c), os.Interrupt, syscall.SIGTERM)
		defer stop()

		slog.Info("hegemone starting", "version", config.Version, "adapter", cfg.I2C.Adapter)
		if cfg.SelfTest && !c.Bool("skip-selftest") {
			if _, err := selftest.Run(ctx, selfTestChecks(c, cfg)...); err != nil {
				return console.Fail("errors were encountered during self test, refusing to proceed", err)
			}
		}

		var collector *report.Collector
		if cfg.I2C.Adapter == config.AdapterMock {
			collector = newSimulatedCollector(cfg)
		} else {
			bus, closeBus, err := openBus(c, cfg)
			if err != nil {
				return console.Fail("adapter initialization error", err)
			}
			defer func() {
				if err := closeBus(); err != nil {
					console.Errorf("error closing bus: %s", console.Red(err))
				}
			}()
			collector, err = newCollector(ctx, cfg, bus)
			if err != nil {
				return console.Fail("sensor initialization error", err)
			}
		}

		submitter, prom, err := newSubmitter(ctx, cfg)
		if err != nil {
			return console.Fail("sink initialization error", err)
		}
		defer func() {
			if err := submitter.Close(); err != nil {
				console.Errorf("error closing sinks: %s", console.Red(err))
			}
		}()
		if prom != nil {
			srv := serveMetrics(cfg.Sinks.Prometheus.Listen, prom)
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()
		}

		m := monitor.New(collector, submitter,
			monitor.WithInterval(cfg.Interval.Std()),
			monitor.WithCycleTimeout(cfg.CycleTimeout.Std()),
		)
		if err := m.Run(ctx); err != nil {
			return console.Fail("monitor error", err)
		}
		return nil
	},
}

func newSubmitter(ctx context.Context, cfg config.Config) (*sink.Submitter, *sink.Prometheus, error) {
	s := sink.NewSubmitter()
	if cfg.Sinks.Log.Enabled {
		level := slog.LevelDebug
		if err := level.UnmarshalText([]byte(cfg.Sinks.Log.Level)); err != nil {
			return nil, nil, err
		}
		s.Register(sink.NewLog(nil).WithLevel(level))
	}
	if cfg.Sinks.File.Path != "" {
		s.Register(sink.NewFile(cfg.Sinks.File.Path, sink.FileOpts{
			MaxSizeMB:  cfg.Sinks.File.MaxSizeMB,
			MaxBackups: cfg.Sinks.File.MaxBackups,
			MaxAgeDays: cfg.Sinks.File.MaxAgeDays,
			Compress:   cfg.Sinks.File.Compress,
		}))
	}
	if cfg.Sinks.HTTP.URL != "" {
		s.Register(sink.NewHTTP(cfg.Sinks.HTTP.URL, cfg.Sinks.HTTP.Timeout.Std()))
	}
	if cfg.Sinks.QuestDB.Conf != "" {
		q, err := sink.NewQuestDB(ctx, cfg.Sinks.QuestDB.Conf, cfg.Sinks.QuestDB.Table)
		if err != nil {
			_ = s.Close()
			return nil, nil, err
		}
		s.Register(q)
	}
	var prom *sink.Prometheus
	if cfg.Sinks.Prometheus.Listen != "" {
		prom = sink.NewPrometheus()
		s.Register(prom)
	}
	for _, registered := range s.Sinks() {
		slog.Info("sink registered", "sink", registered.Name())
	}
	return s, prom, nil
}

func serveMetrics(addr string, prom *sink.Prometheus) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", prom.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		slog.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "error", err)
		}
	}()
	return srv
}
