package ranking

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithTieBreaker sets the rule applied to fully tied participants.
func WithTieBreaker(tb TieBreaker) Option {
	return func(e *Engine) {
		if tb != nil {
			e.tieBreaker = tb
		}
	}
}
