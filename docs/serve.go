package docs

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/annazecevic/catalog-service/logger"
	"github.com/gin-gonic/gin"
	"github.com/go-openapi/spec"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"
)

const (
	UIPath    = "/swagger/spec.html"
	IndexPath = "/swagger/index.html"
	SpecPath  = "/swagger/swagger.json"
)

// SwaggerInfo is the document swag hands out. swag.Register panics on a
// second registration, so it is registered once and its template replaced.
var (
	SwaggerInfo = &swag.Spec{
		Version:          "1.0.0",
		InfoInstanceName: swag.Name,
	}
	registerOnce sync.Once
)

// Publish makes doc the served Swagger document and, when outputFile is set,
// also writes it to disk.
func Publish(doc *spec.Swagger, outputFile string) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	registerOnce.Do(func() { swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo) })
	SwaggerInfo.Title = doc.Info.Title
	SwaggerInfo.SwaggerTemplate = string(raw)

	if outputFile == "" {
		return nil
	}
	if dir := filepath.Dir(outputFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(outputFile, raw, 0o644); err != nil {
		return err
	}
	logger.Info(logger.EventGeneral, "API documentation written", logger.Fields("file", outputFile))
	return nil
}

type Handler struct {
	ui gin.HandlerFunc
}

func NewHandler() *Handler {
	return &Handler{ui: ginSwagger.WrapHandler(swaggerFiles.Handler,
		ginSwagger.URL(SpecPath),
		ginSwagger.InstanceName(SwaggerInfo.InstanceName()),
		ginSwagger.DocExpansion("list"),
	)}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/swagger/*any", h.Serve)
}

// Serve keeps the old spec.html address working and hands the UI assets to
// gin-swagger.
func (h *Handler) Serve(c *gin.Context) {
	switch c.Param("any") {
	case "", "/", "/spec.html":
		c.Redirect(http.StatusFound, IndexPath)
	case "/swagger.json":
		h.Spec(c)
	default:
		h.ui(c)
	}
}

func (h *Handler) Spec(c *gin.Context) {
	doc, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	if err != nil || doc == "" {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "documentation not generated"})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(doc))
}
