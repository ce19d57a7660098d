package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyStep       = "step"
	KeyPath       = "path"
	KeyRepo       = "repository"
	KeyAccount    = "account"
	KeyBranch     = "branch"
	KeyRunID      = "run_id"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Step(name string) slog.Attr      { return slog.String(KeyStep, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Repository(r string) slog.Attr   { return slog.String(KeyRepo, r) }
func Account(a string) slog.Attr      { return slog.String(KeyAccount, a) }
func Branch(b string) slog.Attr       { return slog.String(KeyBranch, b) }
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
