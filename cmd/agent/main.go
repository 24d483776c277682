// Command agent runs the hostguard monitoring agent: it samples host metrics
// on an interval, flags statistical anomalies and threshold violations, and
// optionally dispatches automated remediation.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bc-dunia/hostguard/internal/agent"
	"github.com/bc-dunia/hostguard/internal/config"
	"github.com/bc-dunia/hostguard/internal/detect"
	"github.com/bc-dunia/hostguard/internal/events"
	"github.com/bc-dunia/hostguard/internal/journal"
	"github.com/bc-dunia/hostguard/internal/otel"
	"github.com/bc-dunia/hostguard/internal/remedy"
	"github.com/bc-dunia/hostguard/internal/retention"
	"github.com/bc-dunia/hostguard/internal/sampler"
	"github.com/bc-dunia/hostguard/internal/window"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the configuration file")
	interval := flag.Duration("interval", 0, "Override the monitoring interval (e.g. 30s)")
	dryRun := flag.Bool("dry-run", false, "Force remediation dry-run mode regardless of config")
	once := flag.Bool("once", false, "Run a single cycle and exit")
	flag.Parse()

	bootstrap := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	cfg := config.Load(*configPath, bootstrap)
	if *interval > 0 {
		secs := int(interval.Seconds())
		if secs < 1 {
			secs = 1
		}
		cfg.Monitoring.IntervalSeconds = secs
	}

	hostname, _ := os.Hostname()
	logger := events.NewEventLogger(hostname, parseLevel(cfg.Logging.Level))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics, err := otel.NewMetrics(ctx, &otel.MetricsConfig{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "hostguard",
		ServiceVersion: version,
		ExporterType:   otel.ExporterType(exporterOrNone(cfg.Telemetry.Exporter)),
		OTLPEndpoint:   cfg.Telemetry.Endpoint,
		OTLPInsecure:   cfg.Telemetry.Insecure,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize metrics: %v\n", err)
		os.Exit(1)
	}

	tracer, err := otel.NewTracer(ctx, &otel.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "hostguard",
		ServiceVersion: version,
		ExporterType:   otel.ExporterType(exporterOrNone(cfg.Telemetry.Exporter)),
		OTLPEndpoint:   cfg.Telemetry.Endpoint,
		OTLPInsecure:   cfg.Telemetry.Insecure,
		SampleRate:     1.0,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
		os.Exit(1)
	}

	var collector *journal.Collector
	var retentionMgr *retention.Manager
	if cfg.Journal.Path != "" {
		emitter, err := journal.NewEmitter(&journal.EmitterConfig{
			OutputPath: cfg.Journal.Path,
			BufferSize: 64 * 1024,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open journal: %v\n", err)
			os.Exit(1)
		}
		collector = journal.NewCollector(&journal.CollectorConfig{
			QueueSize: cfg.Journal.QueueSize,
		}, emitter)
		if err := collector.Start(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to start journal collector: %v\n", err)
			os.Exit(1)
		}

		retentionMgr = retention.NewManager(retention.Config{
			JournalDir:      filepath.Dir(cfg.Journal.Path),
			JournalSuffix:   filepath.Ext(cfg.Journal.Path),
			JournalTTLHours: cfg.Journal.RetentionHours,
		})
		retentionMgr.Start()
	}

	store := window.NewStore(cfg.Detection.WindowSize)
	detector := detect.NewDetector(store, cfg.Detection.WindowSize, cfg.Detection.Sensitivity)
	systemSampler := sampler.NewSystem(cfg.Monitoring.Metrics)

	var dispatcher remedy.Dispatcher
	if cfg.Resolution.Enabled {
		dispatcher = remedy.NewSystemDispatcher(remedy.Config{
			CPUKillThreshold: cfg.Resolution.CPUKillThreshold,
			DryRun:           cfg.Resolution.DryRunEnabled() || *dryRun,
		}, logger.Slog())
	}

	loop := agent.NewLoop(agent.Options{
		Interval:         cfg.Interval(),
		Thresholds:       cfg.Monitoring.Thresholds,
		StaticCheck:      cfg.Checks.StaticEnabled(),
		StatisticalCheck: cfg.Checks.StatisticalEnabled(),
		Remediate:        cfg.Resolution.Enabled,
	}, detector, systemSampler, dispatcher, logger, collector, metrics, tracer)

	logger.LogStartup(cfg.Monitoring.IntervalSeconds, cfg.Detection.WindowSize,
		cfg.Detection.Sensitivity, cfg.Monitoring.Metrics)

	if *once {
		loop.RunCycle(ctx)
		shutdown(cancel, collector, retentionMgr, metrics, tracer)
		return
	}

	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\nShutting down agent...")
	cancel()
	<-done
	shutdown(cancel, collector, retentionMgr, metrics, tracer)
	fmt.Println("Agent stopped")
}

func shutdown(cancel context.CancelFunc, collector *journal.Collector, retentionMgr *retention.Manager, metrics *otel.Metrics, tracer *otel.Tracer) {
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if retentionMgr != nil {
		retentionMgr.Stop()
	}
	if collector != nil {
		if err := collector.Stop(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to flush journal: %v\n", err)
		}
	}
	if err := metrics.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to shut down metrics: %v\n", err)
	}
	if err := tracer.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to shut down tracer: %v\n", err)
	}
}

// parseLevel maps a config logging level to a slog level, defaulting to info.
func parseLevel(level string) slog.Level {
	switch level {
	case "debug", "DEBUG":
		return slog.LevelDebug
	case "warn", "WARN", "warning", "WARNING":
		return slog.LevelWarn
	case "error", "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// exporterOrNone normalizes an empty exporter name to "none".
func exporterOrNone(name string) string {
	if name == "" {
		return string(otel.ExporterNone)
	}
	return name
}
