package preferences

import (
	"maps"
	"time"

	"github.com/dmitrymomot/notifyhub/pkg/catalog"
)

// Global holds a user's account-wide channel switches and category opt-ins.
type Global struct {
	AllowInApp bool                      `json:"allow_in_app"`
	AllowEmail bool                      `json:"allow_email"`
	AllowPush  bool                      `json:"allow_push"`
	Categories map[catalog.Category]bool `json:"categories"`
}

// DefaultGlobal is used for users without a stored record: in-app only,
// every category enabled except marketing.
func DefaultGlobal() Global {
	cats := make(map[catalog.Category]bool, len(catalog.Categories()))
	for _, c := range catalog.Categories() {
		cats[c] = defaultCategoryEnabled(c)
	}
	return Global{AllowInApp: true, Categories: cats}
}

func defaultCategoryEnabled(c catalog.Category) bool {
	return c != catalog.CategoryMarketing
}

// CategoryEnabled reports the opt-in for c, falling back to the default
// for categories missing from the record.
func (g Global) CategoryEnabled(c catalog.Category) bool {
	if v, ok := g.Categories[c]; ok {
		return v
	}
	return defaultCategoryEnabled(c)
}

// Channels returns the global switches as channel flags.
func (g Global) Channels() catalog.Channels {
	return catalog.Channels{Web: g.AllowInApp, Email: g.AllowEmail, Push: g.AllowPush}
}

func (g Global) clone() Global {
	g.Categories = maps.Clone(g.Categories)
	return g
}

// GlobalUpdate is a partial change; nil fields and absent categories keep
// their current value.
type GlobalUpdate struct {
	AllowInApp *bool
	AllowEmail *bool
	AllowPush  *bool
	Categories map[catalog.Category]bool
}

func (u GlobalUpdate) apply(g Global) Global {
	g = g.clone()
	if g.Categories == nil {
		g.Categories = make(map[catalog.Category]bool)
	}
	if u.AllowInApp != nil {
		g.AllowInApp = *u.AllowInApp
	}
	if u.AllowEmail != nil {
		g.AllowEmail = *u.AllowEmail
	}
	if u.AllowPush != nil {
		g.AllowPush = *u.AllowPush
	}
	for c, v := range u.Categories {
		if c.Valid() {
			g.Categories[c] = v
		}
	}
	return g
}

// TypeOverride is a stored per-type preference row.
type TypeOverride struct {
	AllowWeb   bool       `json:"allow_web"`
	AllowEmail bool       `json:"allow_email"`
	AllowPush  bool       `json:"allow_push"`
	MuteUntil  *time.Time `json:"mute_until,omitempty"`
}

func (o TypeOverride) channels() catalog.Channels {
	return catalog.Channels{Web: o.AllowWeb, Email: o.AllowEmail, Push: o.AllowPush}
}

// Effective is the resolved permission set for a (user, type) pair.
type Effective struct {
	AllowWeb   bool       `json:"allow_web"`
	AllowEmail bool       `json:"allow_email"`
	AllowPush  bool       `json:"allow_push"`
	MuteUntil  *time.Time `json:"mute_until,omitempty"`
}

// Channels returns the allowed channels as flags.
func (e Effective) Channels() catalog.Channels {
	return catalog.Channels{Web: e.AllowWeb, Email: e.AllowEmail, Push: e.AllowPush}
}

// Muted reports whether the mute window is still open at now.
func (e Effective) Muted(now time.Time) bool {
	return e.MuteUntil != nil && e.MuteUntil.After(now)
}

// Allows reports whether ch is allowed.
func (e Effective) Allows(ch catalog.Channel) bool {
	return e.Channels().Has(ch)
}

// Compute derives the effective permissions: the override's flags, or the
// catalog defaults without one, ANDed with the global switches and the
// category opt-in. The mute window comes only from the override.
func Compute(t catalog.Type, g Global, o *TypeOverride) Effective {
	base := t.Defaults
	var mute *time.Time
	if o != nil {
		base = o.channels()
		mute = o.MuteUntil
	}

	allowed := base.And(g.Channels())
	if !g.CategoryEnabled(t.Category) {
		allowed = catalog.Channels{}
	}

	return Effective{
		AllowWeb:   allowed.Web,
		AllowEmail: allowed.Email,
		AllowPush:  allowed.Push,
		MuteUntil:  mute,
	}
}
