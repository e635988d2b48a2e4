package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pathakanu/lifesync/internal/assistant"
	"github.com/pathakanu/lifesync/internal/broadcast"
	"github.com/pathakanu/lifesync/internal/model"
	"github.com/pathakanu/lifesync/internal/store"
)

type handler struct {
	svc    Service
	events broadcast.Subscriber
	log    *slog.Logger
}

type errorResponse struct {
	Error string `json:"error"`
}

type askRequest struct {
	Prompt string `json:"prompt"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

// studyPlanRequest mirrors the study form: topics arrive comma separated.
type studyPlanRequest struct {
	Subject      string `json:"subject"`
	Topics       string `json:"topics"`
	Hours        int    `json:"hours"`
	ExamTomorrow bool   `json:"examTomorrow"`
	SetReminder  bool   `json:"setReminder"`
}

type scheduleResponse struct {
	Schedule []model.StudyScheduleItem `json:"schedule"`
}

type medicineRequest struct {
	model.MedicineEntry
	SetReminder bool `json:"setReminder"`
}

type permissionResponse struct {
	Granted bool `json:"granted"`
}

func (h *handler) login(c echo.Context) error {
	var profile model.UserProfile
	if err := c.Bind(&profile); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	saved, err := h.svc.Login(c.Request().Context(), profile)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, saved)
}

func (h *handler) logout(c echo.Context) error {
	if err := h.svc.Logout(c.Request().Context()); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handler) profile(c echo.Context) error {
	profile, err := h.svc.Profile(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, profile)
}

func (h *handler) ask(c echo.Context) error {
	var req askRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	answer, err := h.svc.Ask(c.Request().Context(), req.Prompt)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, askResponse{Answer: answer})
}

func (h *handler) planStudy(c echo.Context) error {
	var req studyPlanRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	items, err := h.svc.PlanStudy(c.Request().Context(), assistant.PlanRequest{
		StudyPlanRequest: model.StudyPlanRequest{
			Subject:      req.Subject,
			Topics:       assistant.SplitTopics(req.Topics),
			Hours:        req.Hours,
			ExamTomorrow: req.ExamTomorrow,
		},
		SetReminder: req.SetReminder,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, scheduleResponse{Schedule: items})
}

func (h *handler) activeStudyPlan(c echo.Context) error {
	items, err := h.svc.ActiveStudyPlan(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, scheduleResponse{Schedule: items})
}

func (h *handler) addMedicine(c echo.Context) error {
	var req medicineRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	entry, err := h.svc.AddMedicine(c.Request().Context(), req.MedicineEntry, req.SetReminder)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, entry)
}

func (h *handler) medicines(c echo.Context) error {
	medicines, err := h.svc.Medicines(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, medicines)
}

func (h *handler) reminders(c echo.Context) error {
	records, err := h.svc.Reminders(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, records)
}

func (h *handler) removeReminder(c echo.Context) error {
	if err := h.svc.RemoveReminder(c.Request().Context(), c.Param("id")); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handler) permission(c echo.Context) error {
	granted, err := h.svc.NotificationsGranted(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, permissionResponse{Granted: granted})
}

func (h *handler) grantPermission(c echo.Context) error {
	if err := h.svc.GrantNotifications(c.Request().Context()); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, permissionResponse{Granted: true})
}

func (h *handler) revokePermission(c echo.Context) error {
	if err := h.svc.RevokeNotifications(c.Request().Context()); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, permissionResponse{Granted: false})
}

// streamEvents relays change events as server-sent events until the client goes away.
func (h *handler) streamEvents(c echo.Context) error {
	if h.events == nil {
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "event stream unavailable"})
	}
	ctx := c.Request().Context()
	events, err := h.events.Subscribe(ctx)
	if err != nil {
		return h.fail(c, err)
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprint(res, ": connected\n\n"); err != nil {
		return nil
	}
	res.Flush()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			data, err := json.Marshal(event)
			if err != nil {
				h.log.Warn("encode event", "topic", event.Topic, "error", err)
				continue
			}
			if _, err := fmt.Fprintf(res, "event: %s\ndata: %s\n\n", event.Topic, data); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}

// fail maps domain errors onto status codes.
func (h *handler) fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, model.ErrIncompleteProfile),
		errors.Is(err, assistant.ErrEmptyPrompt),
		errors.Is(err, assistant.ErrInvalidPlanRequest),
		errors.Is(err, assistant.ErrInvalidMedicine):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, store.ErrNoProfile):
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.Is(err, store.ErrReminderNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, assistant.ErrAIUnavailable):
		return c.JSON(http.StatusBadGateway, errorResponse{Error: assistant.AIErrorMessage})
	}
	h.log.Error("request failed", "path", c.Path(), "error", err)
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
}
