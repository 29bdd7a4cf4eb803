package frame

import "time"

// Rate counts frames and reports the average frame rate once per Interval.
// Times are monotonic offsets such as those from hrtime.Now. Rate is for
// logging only; the animation never reads it.
type Rate struct {
	Interval time.Duration

	start  time.Duration
	frames int
	begun  bool
}

// Observe records one frame at now. When at least Interval has passed since
// the last report it returns the frames per second over that span and
// starts a new span.
func (r *Rate) Observe(now time.Duration) (fps float64, ok bool) {
	if !r.begun {
		r.start, r.begun = now, true
		return 0, false
	}
	r.frames++
	elapsed := now - r.start
	if r.Interval <= 0 || elapsed < r.Interval {
		return 0, false
	}
	fps = float64(r.frames) / elapsed.Seconds()
	r.start, r.frames = now, 0
	return fps, true
}
