package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// render executes a page template with the common layout data merged in.
func (h *handlers) render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["User"] = currentUser(c)
	data["Flash"] = h.popFlash(c)
	if _, ok := data["Title"]; !ok {
		data["Title"] = "PerfumeShop"
	}
	c.HTML(status, name, data)
}

func (h *handlers) renderError(c *gin.Context, status int, message string) {
	h.render(c, status, "error", gin.H{"Title": http.StatusText(status), "Status": status, "Message": message})
}

// serverError logs err and renders the generic failure page.
func (h *handlers) serverError(c *gin.Context, msg string, err error) {
	_ = c.Error(err)
	h.logger.Error(msg, zap.String("path", c.Request.URL.Path), zap.Error(err))
	h.renderError(c, http.StatusInternalServerError, "Something went wrong. Please try again later.")
}

// redirectWithFlash sets a flash message and answers with 303 See Other.
func (h *handlers) redirectWithFlash(c *gin.Context, target, kind, message string) {
	h.setFlash(c, kind, message)
	c.Redirect(http.StatusSeeOther, target)
}
