package webpush

import (
	"strings"
	"time"
)

// Config holds the VAPID identity used to sign push requests.
type Config struct {
	Subject    string        `env:"VAPID_SUBJECT" envDefault:"mailto:support@example.com"`
	PublicKey  string        `env:"VAPID_PUBLIC_KEY"`
	PrivateKey string        `env:"VAPID_PRIVATE_KEY"`
	TTL        time.Duration `env:"WEBPUSH_TTL" envDefault:"900s"`
}

// Ready reports whether both VAPID keys are configured.
func (c Config) Ready() bool {
	return strings.TrimSpace(c.PublicKey) != "" && strings.TrimSpace(c.PrivateKey) != ""
}
