package application

import "log/slog"

// ModuleName is the value of the "module" key on every log line emitted by
// this service.
const ModuleName = "campaign-operations/campaign-service"

// ResolveLogger guarantees a non-nil logger for application/worker code paths.
func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
