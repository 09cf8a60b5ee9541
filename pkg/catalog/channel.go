package catalog

import "fmt"

// Channel is a delivery surface for a notification.
type Channel string

const (
	Web   Channel = "web"
	Email Channel = "email"
	Push  Channel = "push"
)

// OutOfBand lists the channels delivered by background workers.
var OutOfBand = []Channel{Email, Push}

// ParseChannel validates s.
func ParseChannel(s string) (Channel, error) {
	switch c := Channel(s); c {
	case Web, Email, Push:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownChannel, s)
}

// Channels is a set of per-channel flags.
type Channels struct {
	Web   bool `yaml:"web" json:"web"`
	Email bool `yaml:"email" json:"email"`
	Push  bool `yaml:"push" json:"push"`
}

// Has reports the flag for ch.
func (c Channels) Has(ch Channel) bool {
	switch ch {
	case Web:
		return c.Web
	case Email:
		return c.Email
	case Push:
		return c.Push
	}
	return false
}

// Any reports whether at least one channel is enabled.
func (c Channels) Any() bool {
	return c.Web || c.Email || c.Push
}

// And returns the channel-wise conjunction.
func (c Channels) And(o Channels) Channels {
	return Channels{Web: c.Web && o.Web, Email: c.Email && o.Email, Push: c.Push && o.Push}
}

// List returns the enabled channels in web, email, push order.
func (c Channels) List() []Channel {
	out := make([]Channel, 0, 3)
	for _, ch := range []Channel{Web, Email, Push} {
		if c.Has(ch) {
			out = append(out, ch)
		}
	}
	return out
}
