package email

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// EmailSender delivers one rendered message.
type EmailSender interface {
	SendEmail(ctx context.Context, params SendEmailParams) error
}

type SendEmailParams struct {
	SendTo   string `json:"send_to"`
	Subject  string `json:"subject"`
	BodyHTML string `json:"body_html"`
	Tag      string `json:"tag,omitempty"`
}

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+$`)

// Validate checks the fields every transport needs.
func (p SendEmailParams) Validate() error {
	switch {
	case strings.TrimSpace(p.SendTo) == "":
		return fmt.Errorf("%w: SendTo is required", ErrInvalidParams)
	case !emailRegex.MatchString(strings.TrimSpace(p.SendTo)):
		return fmt.Errorf("%w: SendTo must be a valid email address", ErrInvalidParams)
	case strings.TrimSpace(p.Subject) == "":
		return fmt.Errorf("%w: Subject is required", ErrInvalidParams)
	case strings.TrimSpace(p.BodyHTML) == "":
		return fmt.Errorf("%w: BodyHTML is required", ErrInvalidParams)
	}
	return nil
}

// NewSender returns a Postmark sender when tokens are configured and a
// DevSender otherwise.
func NewSender(cfg Config) (EmailSender, error) {
	if cfg.UsePostmark() {
		return NewPostmarkClient(cfg)
	}
	return NewDevSender(cfg.DevDir), nil
}
