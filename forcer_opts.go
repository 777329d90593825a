package capdec

// ForceOption configures a forcing search.
type ForceOption func(*forceConfig)

type forceConfig struct {
	workers int
}

// ForceWithWorkers sets the number of workers evaluating candidates.
// Values < 0 force serial search. Zero uses one worker per CPU.
// The accepted candidate is the same for any worker count.
func ForceWithWorkers(n int) ForceOption {
	return func(c *forceConfig) {
		c.workers = n
	}
}
