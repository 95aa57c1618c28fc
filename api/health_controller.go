package api

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"polling-backend/database"
)

const pingTimeout = 2 * time.Second

// SystemInfo is the body of GET /api/status.
type SystemInfo struct {
	Status       string    `json:"status"`
	Version      string    `json:"version"`
	Uptime       string    `json:"uptime"`
	StartTime    time.Time `json:"start_time"`
	CurrentTime  time.Time `json:"current_time"`
	GoVersion    string    `json:"go_version"`
	NumGoroutine int       `json:"num_goroutine"`
	NumCPU       int       `json:"num_cpu"`
	DBStatus     string    `json:"db_status"`
}

type HealthController struct {
	db        *gorm.DB
	version   string
	startTime time.Time
}

func NewHealthController(db *gorm.DB, version string) *HealthController {
	return &HealthController{
		db:        db,
		version:   version,
		startTime: time.Now(),
	}
}

func (hc *HealthController) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/health", hc.Health)
	api.GET("/status", hc.Status)
}

// Health GET /api/health
func (hc *HealthController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// Status GET /api/status
func (hc *HealthController) Status(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
	defer cancel()

	info := SystemInfo{
		Status:       "ok",
		Version:      hc.version,
		Uptime:       time.Since(hc.startTime).Round(time.Second).String(),
		StartTime:    hc.startTime,
		CurrentTime:  time.Now(),
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		DBStatus:     "ok",
	}

	code := http.StatusOK
	if err := database.Ping(ctx, hc.db); err != nil {
		_ = c.Error(err)
		info.Status = "degraded"
		info.DBStatus = "error"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, info)
}
