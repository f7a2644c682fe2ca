package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field names shared by every package.
const (
	KeyPath       = "path"
	KeyRunID      = "run_id"
	KeyMatches    = "matches"
	KeyCategory   = "category"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyRequestID  = "request_id"
	KeyRemoteAddr = "remote_addr"
	KeyUserAgent  = "user_agent"
	KeyEvent      = "event"
	KeyBranch     = "branch"
)

func Path(p string) slog.Attr       { return slog.String(KeyPath, p) }
func RunID(id string) slog.Attr     { return slog.String(KeyRunID, id) }
func Matches(n int) slog.Attr       { return slog.Int(KeyMatches, n) }
func Category(c string) slog.Attr   { return slog.String(KeyCategory, c) }
func Method(m string) slog.Attr     { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr     { return slog.Int(KeyStatus, code) }
func RequestID(id string) slog.Attr { return slog.String(KeyRequestID, id) }
func RemoteAddr(a string) slog.Attr { return slog.String(KeyRemoteAddr, a) }
func UserAgent(ua string) slog.Attr { return slog.String(KeyUserAgent, ua) }
func Event(op string) slog.Attr     { return slog.String(KeyEvent, op) }
func Branch(name string) slog.Attr  { return slog.String(KeyBranch, name) }

// Duration reports d in fractional milliseconds.
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
