package logger

import (
	"log/slog"
	"time"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Error records err under the key "error".
// A nil error yields an empty Attr, which slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records the recipient or actor under the key "user_id".
func UserID(id int64) slog.Attr {
	return slog.Int64("user_id", id)
}

// RequestID records the request identifier under the key "request_id".
// An empty id yields an empty Attr.
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

func NotificationID(id int64) slog.Attr {
	return slog.Int64("notification_id", id)
}

func JobID(id int64) slog.Attr {
	return slog.Int64("job_id", id)
}

func DeviceID(id int64) slog.Attr {
	return slog.Int64("device_id", id)
}

// Channel records a delivery channel name (web, email, push).
func Channel(name string) slog.Attr {
	return slog.String("channel", name)
}

// NotificationType records a catalog type key such as "task.assigned".
func NotificationType(key string) slog.Attr {
	return slog.String("notification_type", key)
}

// Cursor records a live stream position.
func Cursor(id int64) slog.Attr {
	return slog.Int64("cursor", id)
}

func Count(name string, n int) slog.Attr {
	return slog.Int(name, n)
}

func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Component records the subsystem emitting the record.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}
