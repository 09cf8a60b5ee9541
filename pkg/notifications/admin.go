package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dmitrymomot/notifyhub/pkg/logger"
)

// TypeSystemAlert is the type of administrator alerts.
const TypeSystemAlert = "system.alert"

// AdminAlerter broadcasts alerts to every administrator.
type AdminAlerter struct {
	emitter   *Emitter
	directory Directory
	logger    *slog.Logger
}

func NewAdminAlerter(emitter *Emitter, directory Directory, l *slog.Logger) *AdminAlerter {
	if l == nil {
		l = logger.Nop()
	}
	return &AdminAlerter{emitter: emitter, directory: directory, logger: l}
}

// Alert emits one notification per administrator. No administrators is
// not an error.
func (a *AdminAlerter) Alert(ctx context.Context, typ, title, body, url string, data map[string]any) ([]int64, error) {
	ids, err := a.directory.AdminIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list administrators: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return a.emitter.Broadcast(ctx, ids, Event{
		Type:  typ,
		Title: title,
		Body:  body,
		URL:   url,
		Data:  data,
	})
}

// AuditEvent is an entry from the host application's audit log.
type AuditEvent struct {
	Action     string
	EntityType string
	EntityID   int64
	Meta       map[string]any
	ActorEmail string
	IP         string
}

// HandleAuditEvent turns the audit actions administrators care about into
// alerts. Other actions are ignored.
func (a *AdminAlerter) HandleAuditEvent(ctx context.Context, ev AuditEvent) error {
	if ev.EntityID <= 0 {
		return nil
	}
	action := strings.ToLower(ev.Action)
	id := strconv.FormatInt(ev.EntityID, 10)

	var (
		title, body, url, entityType string
	)
	switch action {
	case "task.delete":
		entityType = "task"
		title = "Task #" + id + " deleted"
		body = "Task #" + id + " was removed."
		var parts []string
		if ev.ActorEmail != "" {
			parts = append(parts, "by "+ev.ActorEmail)
		}
		if ev.IP != "" {
			parts = append(parts, "IP "+ev.IP)
		}
		if len(parts) > 0 {
			body += " " + strings.Join(parts, " • ")
		}
		url = "/tasks/" + id
	case "user.create":
		entityType = "user"
		title = "New user provisioned"
		body = "A new account was created (user #" + id + ")."
		if role, _ := ev.Meta["role"].(string); role != "" {
			body += " Role: " + role + "."
		}
		url = "/admin/users"
	default:
		return nil
	}

	_, err := a.Alert(ctx, TypeSystemAlert, title, body, url, map[string]any{
		"entity_type": entityType,
		"entity_id":   ev.EntityID,
		"action":      action,
	})
	if err != nil {
		a.logger.LogAttrs(ctx, slog.LevelError, "admin alert failed",
			slog.String("action", action), logger.Error(err))
	}
	return err
}
