package delivery

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"github.com/dmitrymomot/notifyhub/pkg/catalog"
	"github.com/dmitrymomot/notifyhub/pkg/email"
	"github.com/dmitrymomot/notifyhub/pkg/email/templates"
	"github.com/dmitrymomot/notifyhub/pkg/logger"
	"github.com/dmitrymomot/notifyhub/pkg/notifications"
	"github.com/dmitrymomot/notifyhub/pkg/preferences"
	"github.com/dmitrymomot/notifyhub/pkg/queue"
)

// EmailWorker renders claimed email jobs and hands them to the mail
// transport.
type EmailWorker struct {
	jobs      queue.Repository
	store     notifications.Store
	resolver  *preferences.Resolver
	directory notifications.Directory
	sender    email.EmailSender
	appName   string
	baseURL   string
	logger    *slog.Logger
}

// EmailOption configures an EmailWorker.
type EmailOption func(*EmailWorker)

// WithAppName sets the product name shown in the footer.
func WithAppName(name string) EmailOption {
	return func(w *EmailWorker) { w.appName = name }
}

// WithBaseURL makes relative notification links absolute.
func WithBaseURL(u string) EmailOption {
	return func(w *EmailWorker) { w.baseURL = strings.TrimRight(u, "/") }
}

func WithEmailLogger(l *slog.Logger) EmailOption {
	return func(w *EmailWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

func NewEmailWorker(jobs queue.Repository, store notifications.Store, resolver *preferences.Resolver, dir notifications.Directory, sender email.EmailSender, opts ...EmailOption) *EmailWorker {
	w := &EmailWorker{
		jobs:      jobs,
		store:     store,
		resolver:  resolver,
		directory: dir,
		sender:    sender,
		appName:   "notifyhub",
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With(logger.Component("delivery.email"))
	return w
}

func (w *EmailWorker) Name() string { return "email" }

func (w *EmailWorker) RunBatch(ctx context.Context, limit int) (queue.Summary, error) {
	return runBatch(ctx, w.jobs, catalog.Email, limit, w.logger, w.resolver, w.process)
}

func (w *EmailWorker) process(ctx context.Context, res *preferences.Resolver, job queue.Job) outcome {
	n, err := w.store.Get(ctx, job.NotificationID)
	if errors.Is(err, notifications.ErrNotificationNotFound) {
		return skip(queue.ReasonNotificationMissing)
	}
	if err != nil {
		return fail(err)
	}

	if !res.Type(ctx, n.UserID, n.Type).AllowEmail {
		return skip(queue.ReasonEmailDisabled)
	}

	rcpt, err := w.directory.Recipient(ctx, n.UserID)
	if errors.Is(err, notifications.ErrRecipientNotFound) || (err == nil && strings.TrimSpace(rcpt.Email) == "") {
		return skip(queue.ReasonNoRecipient)
	}
	if err != nil {
		return fail(err)
	}

	title := n.Title
	if title == "" {
		title = res.Catalog().Resolve(n.Type).Label
	}
	body, err := templates.Render(ctx, templates.Notification(templates.NotificationEmail{
		AppName:   w.appName,
		TypeLabel: res.Catalog().Resolve(n.Type).Label,
		Title:     title,
		Body:      n.Body,
		Link:      w.absolute(n.URL),
	}))
	if err != nil {
		return fail(err)
	}

	if err := w.sender.SendEmail(ctx, email.SendEmailParams{
		SendTo:   rcpt.Email,
		Subject:  title,
		BodyHTML: body,
		Tag:      n.Type,
	}); err != nil {
		w.logger.LogAttrs(ctx, slog.LevelWarn, "email delivery failed",
			logger.JobID(job.ID), logger.UserID(n.UserID), logger.Error(err))
		return fail(err)
	}
	return sent()
}

// absolute resolves link against the base URL. Absolute links pass through.
func (w *EmailWorker) absolute(link string) string {
	if link == "" || w.baseURL == "" {
		return link
	}
	u, err := url.Parse(link)
	if err != nil || u.IsAbs() {
		return link
	}
	base, err := url.Parse(w.baseURL + "/")
	if err != nil {
		return link
	}
	return base.ResolveReference(u).String()
}
