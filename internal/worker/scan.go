// Package worker consumes queue messages: scan jobs become detection runs,
// notification envelopes become delivery attempts. It is the failure domain
// on the far side of the queue from the scheduler and the dispatcher.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"vigil/internal/platform/kafka"
)

// ScanJob is the payload a scheduler trigger puts on the queue. It carries
// only the trigger timestamp; the detection windows are derived from it so a
// delayed consumer still scans the intended day.
type ScanJob struct {
	TriggeredAt time.Time `json:"triggered_at"`
}

// DetectionRunner executes one full detection run. Satisfied by
// detection.Runner.
type DetectionRunner interface {
	Run(ctx context.Context, now time.Time)
}

// ScanJobHandler turns scan-job messages into detection runs.
type ScanJobHandler struct {
	runner DetectionRunner
	logger *slog.Logger
}

func NewScanJobHandler(runner DetectionRunner, logger *slog.Logger) *ScanJobHandler {
	return &ScanJobHandler{runner: runner, logger: logger}
}

// Handle runs detection for the job's trigger time. A malformed payload falls
// back to the current time rather than dropping the scan.
func (h *ScanJobHandler) Handle(ctx context.Context, msg *kafka.Message) error {
	var job ScanJob
	if err := json.Unmarshal(msg.Value, &job); err != nil || job.TriggeredAt.IsZero() {
		h.logger.WarnContext(ctx, "malformed scan job payload, scanning relative to now",
			"error", err,
		)
		job.TriggeredAt = time.Now()
	}

	h.logger.InfoContext(ctx, "scan job received", "triggered_at", job.TriggeredAt)
	h.runner.Run(ctx, job.TriggeredAt)
	return nil
}
