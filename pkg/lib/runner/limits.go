package runner

// Limits are the cgroup v2 settings every pea of the agent gets when the
// agent runs as root. Zero fields leave the kernel default in place.
type Limits struct {
	CPUWeight  int
	IOWeight   int
	MemoryHigh int64
}

// DefaultLimits gives each pea an equal share and a 512 MiB soft memory cap.
func DefaultLimits() Limits {
	return Limits{CPUWeight: 100, IOWeight: 100, MemoryHigh: 512 << 20}
}

// Option configures a Runner.
type Option func(*Runner)

func WithLimits(l Limits) Option {
	return func(r *Runner) { r.limits = l }
}
