// Package api exposes the assistant over a local JSON HTTP API.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/pathakanu/lifesync/internal/assistant"
	"github.com/pathakanu/lifesync/internal/broadcast"
	"github.com/pathakanu/lifesync/internal/model"
)

// Service is the assistant surface the handlers call.
type Service interface {
	Login(ctx context.Context, profile model.UserProfile) (model.UserProfile, error)
	Logout(ctx context.Context) error
	Profile(ctx context.Context) (model.UserProfile, error)
	Ask(ctx context.Context, prompt string) (string, error)
	PlanStudy(ctx context.Context, req assistant.PlanRequest) ([]model.StudyScheduleItem, error)
	ActiveStudyPlan(ctx context.Context) ([]model.StudyScheduleItem, error)
	AddMedicine(ctx context.Context, entry model.MedicineEntry, setReminder bool) (model.MedicineEntry, error)
	Medicines(ctx context.Context) ([]model.MedicineEntry, error)
	Reminders(ctx context.Context) ([]model.ReminderRecord, error)
	RemoveReminder(ctx context.Context, id string) error
	NotificationsGranted(ctx context.Context) (bool, error)
	GrantNotifications(ctx context.Context) error
	RevokeNotifications(ctx context.Context) error
}

// Config holds the dependencies for the router.
type Config struct {
	Service Service
	Events  broadcast.Subscriber
	Logger  *slog.Logger
}

// NewRouter creates and configures the Echo router.
func NewRouter(cfg Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				cfg.Logger.Warn("request", append(attrs, "error", v.Error)...)
				return nil
			}
			cfg.Logger.Info("request", attrs...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		MaxAge:       300,
	}))

	h := &handler{svc: cfg.Service, events: cfg.Events, log: cfg.Logger}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	g := e.Group("/api")
	g.POST("/login", h.login)
	g.POST("/logout", h.logout)
	g.GET("/profile", h.profile)
	g.POST("/ask", h.ask)
	g.POST("/study-plan", h.planStudy)
	g.GET("/study-plan", h.activeStudyPlan)
	g.POST("/medicines", h.addMedicine)
	g.GET("/medicines", h.medicines)
	g.GET("/reminders", h.reminders)
	g.DELETE("/reminders/:id", h.removeReminder)
	g.GET("/notifications/permission", h.permission)
	g.POST("/notifications/permission", h.grantPermission)
	g.DELETE("/notifications/permission", h.revokePermission)
	g.GET("/events", h.streamEvents)

	return e
}
