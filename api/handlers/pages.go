package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// indexHTML is the demo form page. The field names line up with the
// submit binding and the ids give automation stable selectors.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Account Safety Check</title>
  <style>
    body { font-family: sans-serif; max-width: 480px; margin: 4rem auto; padding: 0 1rem; }
    label { display: block; margin-top: 1rem; font-weight: bold; }
    input { width: 100%; padding: 0.5rem; margin-top: 0.25rem; box-sizing: border-box; }
    button { margin-top: 1.5rem; padding: 0.5rem 1.5rem; }
  </style>
</head>
<body>
  <h1>Account Safety Check</h1>
  <p>Enter an account below. The fill configuration is stored for the
  target site and the browser is redirected there.</p>
  <form id="config-form" method="POST" action="/submit">
    <label for="email">Email</label>
    <input type="email" id="email" name="email" placeholder="you@example.com">

    <label for="phone">Phone</label>
    <input type="tel" id="phone" name="phone" placeholder="+1 555 0100">

    <label for="target">Target domain</label>
    <input type="text" id="target" name="target" placeholder="haveibeenpwned.com">

    <button type="submit" id="submit-btn">Check</button>
  </form>
</body>
</html>
`

// PageHandler serves the demo pages.
type PageHandler struct{}

// NewPageHandler creates a new page handler.
func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

// RegisterRoutes registers the page routes.
func (h *PageHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/", h.Index)
	r.GET("/healthz", h.Healthz)
}

// Index handles GET /
func (h *PageHandler) Index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexHTML))
}

// Healthz handles GET /healthz
func (h *PageHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
