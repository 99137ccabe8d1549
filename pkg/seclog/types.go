package seclog

import "time"

// Level partitions entries; each level has its own daily file.
type Level string

const (
	LevelInfo     Level = "INFO"
	LevelWarn     Level = "WARN"
	LevelError    Level = "ERROR"
	LevelSecurity Level = "SECURITY"
	LevelAudit    Level = "AUDIT"
)

// Event classifies SECURITY and AUDIT entries.
type Event string

const (
	EventLoginSuccess        Event = "LOGIN_SUCCESS"
	EventLoginFailure        Event = "LOGIN_FAILURE"
	EventLogout              Event = "LOGOUT"
	EventRegister            Event = "REGISTER"
	EventPasswordChange      Event = "PASSWORD_CHANGE"
	EventRateLimitExceeded   Event = "RATE_LIMIT_EXCEEDED"
	EventSuspiciousActivity  Event = "SUSPICIOUS_ACTIVITY"
	EventSQLInjectionAttempt Event = "SQL_INJECTION_ATTEMPT"
	EventXSSAttempt          Event = "XSS_ATTEMPT"
	EventUnauthorizedAccess  Event = "UNAUTHORIZED_ACCESS"
	EventPermissionDenied    Event = "PERMISSION_DENIED"
	EventFileUpload          Event = "FILE_UPLOAD"
	EventDataModification    Event = "DATA_MODIFICATION"
	EventAPIKeyUsage         Event = "API_KEY_USAGE"
)

// Entry is one append-only log record.
type Entry struct {
	ID         string         `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	Level      Level          `json:"level"`
	Event      Event          `json:"event,omitempty"`
	Message    string         `json:"message"`
	UserID     int64          `json:"userId,omitempty"`
	UserEmail  string         `json:"userEmail,omitempty"`
	IP         string         `json:"ip,omitempty"`
	UserAgent  string         `json:"userAgent,omitempty"`
	Endpoint   string         `json:"endpoint,omitempty"`
	Method     string         `json:"method,omitempty"`
	StatusCode int            `json:"statusCode,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// Context carries the actor and request details of an entry.
type Context struct {
	UserID    int64
	UserEmail string
	IP        string
	UserAgent string
	Endpoint  string
	Method    string
	Data      map[string]any
}

// Config holds configuration for the security logger
type Config struct {
	Dir         string // Directory for {level}-{YYYY-MM-DD}.log files
	Development bool   // Console only, no files
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{Dir: "logs"}
}
