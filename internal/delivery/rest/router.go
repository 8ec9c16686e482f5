package rest

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pavel13595/Baranchik-Inventory/internal/domain/repository"
	"github.com/pavel13595/Baranchik-Inventory/internal/infrastructure/metrics"
	"github.com/pavel13595/Baranchik-Inventory/internal/usecase"
)

const requestIDHeader = "X-Request-ID"

// Deps are the collaborators the HTTP API serves. Sheets and Metrics may be nil.
type Deps struct {
	Inventory      usecase.InventoryUseCase
	Export         usecase.ExportUseCase
	Sheets         repository.SheetStore
	Metrics        *metrics.Metrics
	AllowedOrigins []string
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(deps Deps) *gin.Engine {
	h := &Handler{
		inventory: deps.Inventory,
		export:    deps.Export,
		sheets:    deps.Sheets,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(accessLog())
	r.Use(observe(deps.Metrics))

	corsCfg := cors.Config{
		AllowOrigins:     deps.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", requestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", requestIDHeader},
		AllowCredentials: len(deps.AllowedOrigins) > 0,
		MaxAge:           12 * time.Hour,
	}
	if len(deps.AllowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowOrigins = nil
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		api.GET("/status", h.GetStatus)
		api.POST("/status/check", h.CheckStatus)

		api.GET("/cities", h.ListCities)
		api.PUT("/cities/selected", h.SelectCity)

		city := api.Group("/cities/:city")
		{
			city.GET("/state", h.GetState)
			city.POST("/items", h.AddItem)
			city.POST("/export", h.Export)

			dept := city.Group("/departments/:dept")
			{
				dept.PUT("/items/:item/count", h.UpdateCount)
				dept.POST("/items/:item/adjust", h.AdjustCount)
				dept.DELETE("/items/:item", h.DeleteItem)
				dept.GET("/items", h.SearchItems)
				dept.POST("/reset", h.ResetDepartment)
				dept.GET("/total", h.DepartmentTotal)
				dept.GET("/export.xlsx", h.DownloadWorkbook)
			}
		}

		api.GET("/inventory", h.RemoteInventory)
		api.DELETE("/storage", h.ClearStorage)
	}
	return r
}

// requestID tags every request with an id, reusing the caller's when given.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestID", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Printf("[http] %s %s -> %d (%s) id=%s",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(),
			time.Since(start).Round(time.Millisecond), c.GetString("requestID"))
	}
}

func observe(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequest(route, strconv.Itoa(c.Writer.Status()))
	}
}
