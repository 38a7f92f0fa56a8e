package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"perfumeshop/internal/domain"
	buyersvc "perfumeshop/internal/service/buyer"
	identitysvc "perfumeshop/internal/service/identity"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *handlers) loginPage(c *gin.Context) {
	h.render(c, http.StatusOK, "login", gin.H{
		"Title":  "Log in",
		"Form":   loginForm{ReturnURL: localRedirectTarget(c.Query("returnUrl"), "/")},
		"Errors": map[string]string{},
	})
}

// login signs the user in, moves the anonymous basket to the account and
// points the basket cookie at the user id.
func (h *handlers) login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		form.Password = ""
		h.render(c, http.StatusUnprocessableEntity, "login", gin.H{"Title": "Log in", "Form": form, "Errors": fieldErrors(err)})
		return
	}
	returnURL := localRedirectTarget(form.ReturnURL, "/")

	ctx := c.Request.Context()
	user, session, err := h.deps.IdentitySvc.PasswordSignIn(ctx, form.Email, form.Password, form.RememberMe)
	switch {
	case errors.Is(err, identitysvc.ErrLockedOut):
		h.logger.Warn("user account locked out")
		c.Redirect(http.StatusSeeOther, "/identity/account/lockout")
		return
	case errors.Is(err, identitysvc.ErrInvalidCredentials):
		form.Password = ""
		h.render(c, http.StatusOK, "login", gin.H{
			"Title":  "Log in",
			"Form":   form,
			"Errors": map[string]string{"": "Invalid login attempt."},
		})
		return
	case err != nil:
		h.serverError(c, "password sign-in", err)
		return
	}

	anonymousID, _ := c.Cookie(h.opts.BasketCookie)
	if buyersvc.IsAnonymousID(anonymousID) && anonymousID != user.ID {
		if err := h.deps.BasketSvc.TransferBasket(ctx, anonymousID, user.ID); err != nil {
			// Leave both cookies alone so the next attempt can still merge.
			if serr := h.deps.IdentitySvc.SignOut(ctx, session.Token); serr != nil {
				h.logger.Warn("revoke session after failed transfer", zap.Error(serr))
			}
			h.serverError(c, "basket transfer", fmt.Errorf("transfer basket %s to %s: %w", anonymousID, user.ID, err))
			return
		}
	}
	if anonymousID != user.ID {
		h.setBasketCookie(c, user.ID)
		h.logger.Info("basket cookie set to user id", zap.String("user_id", user.ID))
	}
	h.setAuthCookie(c, session.Token, session.ExpiresAt, session.Persistent)
	h.logger.Info("user logged in", zap.String("user_id", user.ID))
	c.Redirect(http.StatusSeeOther, returnURL)
}

func (h *handlers) lockoutPage(c *gin.Context) {
	h.render(c, http.StatusOK, "lockout", gin.H{"Title": "Locked out"})
}

func (h *handlers) logout(c *gin.Context) {
	if token, err := c.Cookie(h.opts.AuthCookie); err == nil {
		if err := h.deps.IdentitySvc.SignOut(c.Request.Context(), token); err != nil {
			h.logger.Warn("sign out failed", zap.Error(err))
		}
	}
	h.clearCookie(c, h.opts.AuthCookie)
	h.clearCookie(c, h.opts.BasketCookie)
	h.redirectWithFlash(c, "/", "success", "You have been logged out.")
}

func (h *handlers) registerPage(c *gin.Context) {
	h.render(c, http.StatusOK, "register", gin.H{"Title": "Register", "Form": registerForm{}, "Errors": map[string]string{}})
}

func (h *handlers) register(c *gin.Context) {
	var form registerForm
	rerender := func(status int, errs map[string]string) {
		form.Password, form.ConfirmPassword = "", ""
		h.render(c, status, "register", gin.H{"Title": "Register", "Form": form, "Errors": errs})
	}
	if err := c.ShouldBind(&form); err != nil {
		rerender(http.StatusUnprocessableEntity, fieldErrors(err))
		return
	}
	_, err := h.deps.IdentitySvc.Register(c.Request.Context(), identitysvc.RegisterInput{
		Email:    form.Email,
		UserName: form.UserName,
		Password: form.Password,
	})
	switch {
	case errors.Is(err, domain.ErrAlreadyExists):
		rerender(http.StatusConflict, map[string]string{"Email": "An account with this e-mail already exists."})
		return
	case errors.Is(err, identitysvc.ErrWeakPassword), errors.Is(err, identitysvc.ErrInvalidEmail):
		rerender(http.StatusUnprocessableEntity, map[string]string{"": err.Error()})
		return
	case err != nil:
		h.serverError(c, "register", err)
		return
	}
	h.redirectWithFlash(c, "/identity/account/login", "success", "Account created. You can now log in.")
}
