package cli

import (
	"time"

	notifmodule "github.com/dmitrymomot/notifyhub/modules/notifications"
	"github.com/dmitrymomot/notifyhub/pkg/catalog"
	"github.com/dmitrymomot/notifyhub/pkg/email"
	"github.com/dmitrymomot/notifyhub/pkg/httpserver"
	"github.com/dmitrymomot/notifyhub/pkg/jwt"
	"github.com/dmitrymomot/notifyhub/pkg/logger"
	"github.com/dmitrymomot/notifyhub/pkg/pg"
	"github.com/dmitrymomot/notifyhub/pkg/preferences"
	"github.com/dmitrymomot/notifyhub/pkg/queue"
	"github.com/dmitrymomot/notifyhub/pkg/redis"
	"github.com/dmitrymomot/notifyhub/pkg/stream"
	"github.com/dmitrymomot/notifyhub/pkg/webpush"
)

// coreConfig is what every command touching the database needs.
type coreConfig struct {
	Log     logger.Config
	PG      pg.Config
	Redis   redis.Config
	Prefs   preferences.Config
	Catalog catalog.Config
	// RedisPrefix namespaces the preference version keys.
	RedisPrefix string `env:"REDIS_PREFIX" envDefault:"notifyhub:prefs:v:"`
}

// deliveryConfig adds the channel transports.
type deliveryConfig struct {
	Email email.Config
	Push  webpush.Config
	Queue queue.Config
}

// serveConfig adds the HTTP surface.
type serveConfig struct {
	HTTP           httpserver.Config
	JWT            jwt.Config
	Stream         stream.Config
	Module         notifmodule.Config
	CSRFSecret     string        `env:"CSRF_SECRET,required"`
	CSRFTTL        time.Duration `env:"CSRF_TTL" envDefault:"2h"`
	FingerprintKey string        `env:"FINGERPRINT_KEY,required"`
	// RunWorkers runs the delivery workers inside the serve process.
	RunWorkers bool `env:"RUN_WORKERS" envDefault:"true"`
}
