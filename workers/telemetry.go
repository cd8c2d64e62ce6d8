package workers

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/process"
)

// PresenceSource exposes the registry counters the reporter logs.
type PresenceSource interface {
	Size() (users, connections int)
}

// TelemetryReporter periodically logs presence counters together with
// process-level resource usage. Observability only; it has no effect on
// routing.
type TelemetryReporter struct {
	log      *slog.Logger
	presence PresenceSource
	interval time.Duration
}

func NewTelemetryReporter(log *slog.Logger, presence PresenceSource, interval time.Duration) *TelemetryReporter {
	return &TelemetryReporter{log: log, presence: presence, interval: interval}
}

// Run emits one report per interval until the context is canceled.
func (w *TelemetryReporter) Run(ctx context.Context) error {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.report(proc)
		}
	}
}

func (w *TelemetryReporter) report(proc *process.Process) {
	users, connections := w.presence.Size()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	fields := []any{
		"users", users,
		"connections", connections,
		"goroutines", runtime.NumGoroutine(),
		"alloc_mb", memStats.Alloc / 1024 / 1024,
	}

	if memInfo, err := proc.MemoryInfo(); err == nil {
		fields = append(fields, "rss_mb", memInfo.RSS/1024/1024)
	}
	if cpuPercent, err := proc.CPUPercent(); err == nil {
		fields = append(fields, "cpu_percent", cpuPercent)
	}

	w.log.Info("presence telemetry", fields...)
}
