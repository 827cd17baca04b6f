// Package logctx centralizes the slog.Logger default used across binout,
// d3plot, and keyfile handles (spec.md expansion §4.1a).
package logctx

import "log/slog"

// Or returns log if non-nil, else the process default logger.
func Or(log *slog.Logger) *slog.Logger {
	if log != nil {
		return log
	}
	return slog.Default()
}
