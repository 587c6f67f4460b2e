package bind

import "log/slog"

// RegistryOption is a modifier for registries.
type RegistryOption func(*Registry)

// WithLogger returns an option that routes the registry's diagnostics, and
// those of every manager it creates, to the given logger.
func WithLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}
