// Package sampler collects host resource metrics via gopsutil.
package sampler

import (
	"context"
	"errors"
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	psnet "github.com/shirou/gopsutil/v3/net"
)

// Metric names produced by the system sampler.
const (
	MetricCPU     = "cpu"
	MetricMemory  = "memory"
	MetricNetwork = "network"
	MetricLoad    = "load"
)

var errNoData = errors.New("no data")

// Sampler produces a mapping from metric name to current scalar value.
// A metric absent from the result means "no observation this cycle".
type Sampler interface {
	Sample(ctx context.Context) (map[string]float64, error)
}

// Func adapts a function to the Sampler interface.
type Func func(ctx context.Context) (map[string]float64, error)

// Sample calls f.
func (f Func) Sample(ctx context.Context) (map[string]float64, error) {
	return f(ctx)
}

// System samples host counters for a configured set of metrics:
//
//	cpu     - overall CPU usage percent (0-100)
//	memory  - virtual memory used percent (0-100)
//	network - total MB sent+received since boot
//	load    - 1-minute load average (Unix only)
type System struct {
	metrics []string
}

// NewSystem creates a sampler for the given metric names. Unknown names are
// ignored at sample time.
func NewSystem(metrics []string) *System {
	return &System{metrics: metrics}
}

// Sample reads the configured host counters. A counter whose read fails is
// reported as a missing key, not an error; Sample returns an error only when
// every requested metric failed.
func (s *System) Sample(ctx context.Context) (map[string]float64, error) {
	result := make(map[string]float64, len(s.metrics))
	var errs []error

	fail := func(metric string, err error) {
		if err == nil {
			err = errNoData
		}
		errs = append(errs, fmt.Errorf("%s: %w", metric, err))
	}

	for _, metric := range s.metrics {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		switch metric {
		case MetricCPU:
			percents, err := cpu.PercentWithContext(ctx, 0, false)
			if err != nil || len(percents) == 0 {
				fail(metric, err)
				continue
			}
			result[MetricCPU] = percents[0]

		case MetricMemory:
			vm, err := mem.VirtualMemoryWithContext(ctx)
			if err != nil || vm == nil {
				fail(metric, err)
				continue
			}
			result[MetricMemory] = vm.UsedPercent

		case MetricNetwork:
			counters, err := psnet.IOCountersWithContext(ctx, false)
			if err != nil || len(counters) == 0 {
				fail(metric, err)
				continue
			}
			total := counters[0].BytesSent + counters[0].BytesRecv
			result[MetricNetwork] = float64(total) / 1024.0 / 1024.0

		case MetricLoad:
			avg, err := load.AvgWithContext(ctx)
			if err != nil || avg == nil {
				fail(metric, err)
				continue
			}
			result[MetricLoad] = avg.Load1
		}
	}

	if len(result) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return result, nil
}
