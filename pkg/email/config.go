package email

// Config holds email transport settings. Without Postmark tokens the
// service writes rendered messages to DevDir instead of sending them.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL" envDefault:"notifications@localhost"`
	SupportEmail         string `env:"SUPPORT_EMAIL" envDefault:"support@localhost"`
	DevDir               string `env:"EMAIL_DEV_DIR" envDefault:"./tmp/emails"`
	// BaseURL turns relative notification links into absolute ones.
	BaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`
}

// UsePostmark reports whether both Postmark tokens are configured.
func (c Config) UsePostmark() bool {
	return c.PostmarkServerToken != "" && c.PostmarkAccountToken != ""
}
