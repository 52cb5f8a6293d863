package docs

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/labstack/echo/v5"

	applog "github.com/janisto/linkglyph/internal/platform/logging"
	"github.com/janisto/linkglyph/internal/platform/respond"
)

//go:embed swagger-ui.html
var swaggerUI []byte

// Register mounts GET /api-docs (Swagger UI) and GET /api-docs/openapi.json.
// The document at docPath is read once; when it is missing or not JSON the
// document route answers 404 and the UI still loads.
func Register(e *echo.Echo, docPath string) {
	doc, err := loadDocument(docPath)
	if err != nil {
		applog.Logger().Warn("openapi document unavailable",
			slog.String("path", docPath), slog.String("error", err.Error()))
	}
	etag := ""
	if doc != nil {
		sum := sha256.Sum256(doc)
		etag = `"` + hex.EncodeToString(sum[:8]) + `"`
	}

	e.GET("/api-docs/openapi.json", func(c *echo.Context) error {
		if doc == nil {
			return respond.Error404("openapi document not found")
		}
		h := c.Response().Header()
		h.Set("ETag", etag)
		h.Set("Cache-Control", "no-cache")
		if c.Request().Header.Get("If-None-Match") == etag {
			return c.NoContent(http.StatusNotModified)
		}
		return c.Blob(http.StatusOK, "application/json", doc)
	})

	e.GET("/api-docs", func(c *echo.Context) error {
		return c.HTMLBlob(http.StatusOK, swaggerUI)
	})
}

func loadDocument(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !json.Valid(b) {
		return nil, fmt.Errorf("%s is not valid JSON", path)
	}
	return b, nil
}
