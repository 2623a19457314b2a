package fatx

import "time"

// ProgressFunc receives the progress of a long running pass.
// It is called from the goroutine running the pass.
type ProgressFunc func(done, total int64)

// Clock returns the observation instant used to bound timestamps.
type Clock func() time.Time
