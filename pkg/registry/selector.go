package registry

// Provider supplies the current registry selection signal. It is read
// fresh on every call; the selector never caches its value.
type Provider func() string

// Selector resolves which registry is active for the current context.
// The selection signal comes from an injected provider (a config value,
// a request header, an environment variable), keeping the core free of
// any host-environment dependency.
type Selector struct {
	provider Provider
}

// NewSelector creates a selector backed by the given provider.
// A nil provider always selects npm.
func NewSelector(p Provider) *Selector {
	return &Selector{provider: p}
}

// Active returns the currently selected registry kind.
// A missing or unrecognized signal resolves to npm.
func (s *Selector) Active() Kind {
	if s == nil || s.provider == nil {
		return Npm
	}
	return KindOf(s.provider())
}
