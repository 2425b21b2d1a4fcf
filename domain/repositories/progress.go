package repositories

// ProgressSink receives per-stage progress events and a terminal signal for
// one analysis run. Implementations must tolerate events for runs nobody is
// watching.
type ProgressSink interface {
	Progress(runID, stage string, percent float64)
	Finished(runID, reportID string, err error)
}
