package session

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Carrier is the durable per-browser state a session token travels in.
// Every core operation takes one explicitly instead of reading ambient
// request state.
type Carrier interface {
	Token() (string, bool)
	SetToken(token string, expiresAt time.Time)
	ClearToken()
}

// MemoryCarrier keeps the token in a struct field. It serves tests and
// callers that have no HTTP request.
type MemoryCarrier struct {
	token     string
	expiresAt time.Time
}

func (m *MemoryCarrier) Token() (string, bool) {
	return m.token, m.token != ""
}

func (m *MemoryCarrier) SetToken(token string, expiresAt time.Time) {
	m.token = token
	m.expiresAt = expiresAt
}

func (m *MemoryCarrier) ClearToken() {
	m.token = ""
	m.expiresAt = time.Time{}
}

func (m *MemoryCarrier) ExpiresAt() time.Time {
	return m.expiresAt
}

// CookieOptions configures the session cookie.
type CookieOptions struct {
	Name   string
	Secure bool
}

// CookieCarrier stores the token in an HttpOnly cookie on a gin request.
// Writes are mirrored locally so later reads in the same request see them.
type CookieCarrier struct {
	c    *gin.Context
	opts CookieOptions

	overridden bool
	token      string
}

func NewCookieCarrier(c *gin.Context, opts CookieOptions) *CookieCarrier {
	if opts.Name == "" {
		opts.Name = DefaultCookieName
	}
	return &CookieCarrier{c: c, opts: opts}
}

// DefaultCookieName is used when CookieOptions.Name is empty.
const DefaultCookieName = "feedback_session"

func (cc *CookieCarrier) Token() (string, bool) {
	if cc.overridden {
		return cc.token, cc.token != ""
	}
	value, err := cc.c.Cookie(cc.opts.Name)
	if err != nil || value == "" {
		return "", false
	}
	return value, true
}

func (cc *CookieCarrier) SetToken(token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}
	cc.c.SetSameSite(http.SameSiteLaxMode)
	cc.c.SetCookie(cc.opts.Name, token, maxAge, "/", "", cc.opts.Secure, true)
	cc.overridden = true
	cc.token = token
}

func (cc *CookieCarrier) ClearToken() {
	cc.c.SetSameSite(http.SameSiteLaxMode)
	cc.c.SetCookie(cc.opts.Name, "", -1, "/", "", cc.opts.Secure, true)
	cc.overridden = true
	cc.token = ""
}

var (
	_ Carrier = (*MemoryCarrier)(nil)
	_ Carrier = (*CookieCarrier)(nil)
)
