package bus

// settings collects the optional knobs applied at construction.
type settings struct {
	onActive   func()
	onInactive func()
}

// Option configures a Bus at construction time.
type Option func(*settings)

// WithOnActive registers a hook invoked every time the active-observer
// count rises from zero to one. Meant for acquiring resources that are
// only needed while someone is listening.
func WithOnActive(fn func()) Option {
	return func(s *settings) {
		s.onActive = fn
	}
}

// WithOnInactive registers a hook invoked every time the active-observer
// count drops back to zero.
func WithOnInactive(fn func()) Option {
	return func(s *settings) {
		s.onInactive = fn
	}
}
