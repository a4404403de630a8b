package workspace

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/dunning/internal/config"
)

const DefaultCookieName = "_wsid"

// CookieManager binds a browser to its workspace through a cookie.
type CookieManager struct {
	cookieName string
	secure     bool
	maxAge     time.Duration
}

func NewCookieManager(cfg config.Config, janitor JanitorConfig) *CookieManager {
	return &CookieManager{
		cookieName: DefaultCookieName,
		secure:     cfg.AuthCookieSecure,
		maxAge:     janitor.withDefaults().IdleTTL,
	}
}

func (m *CookieManager) CookieName() string {
	return m.cookieName
}

func (m *CookieManager) ReadID(c *gin.Context) (string, bool) {
	id, err := c.Cookie(m.cookieName)
	if err != nil {
		return "", false
	}
	if strings.TrimSpace(id) == "" {
		return "", false
	}
	return id, true
}

// Set refreshes the cookie so it outlives the workspace idle window.
func (m *CookieManager) Set(c *gin.Context, id string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookieName, id, int(m.maxAge.Seconds()), "/", "", m.secure, true)
}

func (m *CookieManager) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookieName, "", -1, "/", "", m.secure, true)
}
