package delivery_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifyhub/pkg/catalog"
	"github.com/dmitrymomot/notifyhub/pkg/delivery"
	"github.com/dmitrymomot/notifyhub/pkg/email"
	"github.com/dmitrymomot/notifyhub/pkg/notifications"
	"github.com/dmitrymomot/notifyhub/pkg/queue"
)

func TestEmailWorker_Sends(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.optIn(t, 1)
	f.emit(t, notifications.Event{UserID: 1, Type: "system.alert", Title: "Disk full", Body: "95% used", URL: "/ops/disks"})

	mailer := &mockMailer{}
	mailer.On("SendEmail", mock.Anything, mock.MatchedBy(func(p email.SendEmailParams) bool {
		return p.SendTo == "ada@example.com" &&
			p.Subject == "Disk full" &&
			p.Tag == "system.alert" &&
			strings.Contains(p.BodyHTML, "https://app.example.com/ops/disks") &&
			strings.Contains(p.BodyHTML, "95% used")
	})).Return(nil).Once()

	w := delivery.NewEmailWorker(f.jobs, f.store, f.resolver, f.directory, mailer,
		delivery.WithAppName("Acme"), delivery.WithBaseURL("https://app.example.com/"))
	sum, err := w.RunBatch(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, queue.Summary{Checked: 1, Sent: 1}, sum)
	assert.Equal(t, queue.StatusSent, f.job(t, catalog.Email).Status)
	mailer.AssertExpectations(t)
}

func TestEmailWorker_TransportFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.optIn(t, 1)
	f.emit(t, notifications.Event{UserID: 1, Type: "system.alert", Title: "x"})

	mailer := &mockMailer{}
	mailer.On("SendEmail", mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	w := delivery.NewEmailWorker(f.jobs, f.store, f.resolver, f.directory, mailer)
	sum, err := w.RunBatch(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Failed)
	job := f.job(t, catalog.Email)
	assert.Equal(t, queue.StatusFailed, job.Status)
	assert.Equal(t, "smtp down", job.LastError)
}

func TestEmailWorker_NoRecipient(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.optIn(t, 2)
	f.emit(t, notifications.Event{UserID: 2, Type: "system.alert", Title: "x"})

	mailer := &mockMailer{}
	w := delivery.NewEmailWorker(f.jobs, f.store, f.resolver, f.directory, mailer)
	sum, err := w.RunBatch(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, queue.ReasonNoRecipient, f.job(t, catalog.Email).LastError)
	mailer.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything)
}

func TestEmailWorker_PanicIsContained(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.optIn(t, 1)
	f.emit(t, notifications.Event{UserID: 1, Type: "system.alert", Title: "x"})

	mailer := &mockMailer{}
	mailer.On("SendEmail", mock.Anything, mock.Anything).Run(func(mock.Arguments) { panic("boom") })

	w := delivery.NewEmailWorker(f.jobs, f.store, f.resolver, f.directory, mailer)
	sum, err := w.RunBatch(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, "panic: boom", f.job(t, catalog.Email).LastError)
}
