package kbengine

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/mobiuskb/kbengine/knowledge"
	"github.com/mobiuskb/kbengine/markdown"
)

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

// renderBody renders the Markdown body of art. Content the renderer
// rejects comes back as the error placeholder together with the error.
func (a *App) renderBody(art knowledge.Article) (markdown.Result, error) {
	res, err := a.Renderer.RenderOrFallback(knowledge.Body(art))
	if err != nil {
		a.Logger.Warnf("render %s: %v", art.ID, err)
	}
	return res, err
}
