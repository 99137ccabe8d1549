package logging

import "time"

// Field constructors. Values are stored as-is and encoded by zap.

func String(key, value string) Field      { return Field{Key: key, Value: value} }
func Int(key string, value int) Field     { return Field{Key: key, Value: value} }
func Int64(key string, value int64) Field { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field   { return Field{Key: key, Value: value} }
func Any(key string, value any) Field     { return Field{Key: key, Value: value} }

// Duration renders value with time.Duration.String so logs stay readable.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

// Error stores err's message under "error"; a nil error logs null.
func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Keys shared by every log the shop writes.

func Component(name string) Field   { return String("component", name) }
func Operation(op string) Field     { return String("operation", op) }
func Latency(d time.Duration) Field { return Duration("latency", d) }
func Path(p string) Field           { return String("path", p) }
func Method(m string) Field         { return String("method", m) }
func Status(code int) Field         { return Int("status", code) }
func IP(ip string) Field            { return String("ip", ip) }
func UserID(id int64) Field         { return Int64("user_id", id) }
func RequestID(id string) Field     { return String("request_id", id) }
