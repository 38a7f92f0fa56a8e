package httpserver

import (
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"
	"time"

	"perfumeshop/internal/domain"
	buyersvc "perfumeshop/internal/service/buyer"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	userCtxKey     = "perfumeshop.user"
	buyerCtxKey    = "perfumeshop.buyer"
	staleBasketKey = "perfumeshop.stale_basket"
	flashCookie    = "PerfumeShop.Flash"
)

// authMiddleware loads the signed-in user from the session cookie. Invalid
// or expired tokens are cleared and the request continues anonymously.
func (h *handlers) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(h.opts.AuthCookie)
		if err != nil || token == "" {
			c.Next()
			return
		}
		user, err := h.deps.IdentitySvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			// The basket cookie was pointed at that session's user on login.
			h.logger.Debug("discarding session cookie", zap.Error(err))
			h.clearCookie(c, h.opts.AuthCookie)
			h.clearCookie(c, h.opts.BasketCookie)
			c.Set(staleBasketKey, true)
			c.Next()
			return
		}
		c.Set(userCtxKey, user)
		c.Next()
	}
}

// buyerMiddleware resolves the basket owner and writes a fresh anonymous id
// to the basket cookie when one was issued.
func (h *handlers) buyerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := ""
		if u := currentUser(c); u != nil {
			userID = u.ID
		}
		cookieValue, _ := c.Cookie(h.opts.BasketCookie)
		if c.GetBool(staleBasketKey) {
			cookieValue = ""
		}
		id := h.deps.BuyerSvc.Resolve(userID, cookieValue)
		if id.Issued {
			h.setBasketCookie(c, id.ID)
		}
		c.Set(buyerCtxKey, id)
		c.Next()
	}
}

func (h *handlers) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentUser(c) != nil {
			c.Next()
			return
		}
		target := "/identity/account/login?returnUrl=" + url.QueryEscape(c.Request.URL.RequestURI())
		c.Redirect(http.StatusSeeOther, target)
		c.Abort()
	}
}

func (h *handlers) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if u := currentUser(c); u == nil || !u.IsAdmin {
			h.renderError(c, http.StatusForbidden, "Access denied.")
			c.Abort()
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) *domain.User {
	v, ok := c.Get(userCtxKey)
	if !ok {
		return nil
	}
	u, _ := v.(*domain.User)
	return u
}

func currentBuyer(c *gin.Context) buyersvc.Identity {
	v, _ := c.Get(buyerCtxKey)
	id, _ := v.(buyersvc.Identity)
	return id
}

func (h *handlers) setBasketCookie(c *gin.Context, value string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.opts.BasketCookie,
		Value:    value,
		Path:     "/",
		Expires:  h.deps.BuyerSvc.CookieExpiry(h.now()),
		HttpOnly: true,
		Secure:   h.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *handlers) setAuthCookie(c *gin.Context, token string, expires time.Time, persistent bool) {
	ck := &http.Cookie{
		Name:     h.opts.AuthCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if persistent {
		ck.Expires = expires
	}
	http.SetCookie(c.Writer, ck)
}

func (h *handlers) clearCookie(c *gin.Context, name string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// flash is a one-shot message shown on the next rendered page.
type flash struct {
	Kind    string
	Message string
}

func (h *handlers) setFlash(c *gin.Context, kind, message string) {
	value := kind + "." + base64.RawURLEncoding.EncodeToString([]byte(message))
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     flashCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash reads and clears the flash cookie.
func (h *handlers) popFlash(c *gin.Context) *flash {
	raw, err := c.Cookie(flashCookie)
	if err != nil || raw == "" {
		return nil
	}
	h.clearCookie(c, flashCookie)
	kind, encoded, ok := strings.Cut(raw, ".")
	if !ok {
		return nil
	}
	msg, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil
	}
	return &flash{Kind: kind, Message: string(msg)}
}

// localRedirectTarget returns raw when it is a same-site path, else fallback.
func localRedirectTarget(raw, fallback string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return fallback
	}
	return raw
}

// refererTarget turns the Referer header into a local path when it points
// at this host.
func refererTarget(c *gin.Context, fallback string) string {
	ref := c.Request.Referer()
	if ref == "" {
		return fallback
	}
	u, err := url.Parse(ref)
	if err != nil {
		return fallback
	}
	if u.Host != "" && u.Host != c.Request.Host {
		return fallback
	}
	return localRedirectTarget(u.RequestURI(), fallback)
}
