package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"willtank/internal/model"
	"willtank/internal/service"
)

// ReminderHandler serves reminders and notifications.
type ReminderHandler struct {
	reminders     service.ReminderService
	notifications service.NotificationService
}

// NewReminderHandler creates a reminder handler.
func NewReminderHandler(reminders service.ReminderService, notifications service.NotificationService) *ReminderHandler {
	return &ReminderHandler{reminders: reminders, notifications: notifications}
}

// ReminderRequest creates or replaces a reminder.
type ReminderRequest struct {
	Title       string              `json:"title" validate:"required,max=255"`
	Description string              `json:"description"`
	Date        string              `json:"date" validate:"required,date_ymd"`
	Time        string              `json:"time" validate:"omitempty,time_hm"`
	Repeat      model.RepeatCadence `json:"repeat" validate:"omitempty,repeat"`
	Completed   bool                `json:"completed"`
}

// UnreadCountResponse is the unread notification badge.
type UnreadCountResponse struct {
	Count int64 `json:"count"`
}

func (r ReminderRequest) input() service.ReminderInput {
	return service.ReminderInput{
		Title:       r.Title,
		Description: r.Description,
		Date:        r.Date,
		Time:        r.Time,
		Repeat:      r.Repeat,
		Completed:   r.Completed,
	}
}

// List godoc
// @Summary List reminders
// @Tags reminders
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Reminder
// @Router /reminders [get]
func (h *ReminderHandler) List(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	reminders, err := h.reminders.List(c.Request().Context(), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, reminders)
}

// Create godoc
// @Summary Create a reminder
// @Tags reminders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ReminderRequest true "Reminder"
// @Success 201 {object} model.Reminder
// @Failure 400 {object} errors.ErrorResponse
// @Router /reminders [post]
func (h *ReminderHandler) Create(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req ReminderRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	r, err := h.reminders.Create(c.Request().Context(), userID, req.input())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, r)
}

// Update godoc
// @Summary Replace a reminder
// @Tags reminders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reminder ID"
// @Param request body ReminderRequest true "Reminder"
// @Success 200 {object} model.Reminder
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /reminders/{id} [put]
func (h *ReminderHandler) Update(c echo.Context) error {
	userID, id, err := ownedPath(c, "id")
	if err != nil {
		return err
	}
	var req ReminderRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	r, err := h.reminders.Update(c.Request().Context(), userID, id, req.input())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

// Delete godoc
// @Summary Delete a reminder
// @Tags reminders
// @Security BearerAuth
// @Param id path string true "Reminder ID"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Router /reminders/{id} [delete]
func (h *ReminderHandler) Delete(c echo.Context) error {
	userID, id, err := ownedPath(c, "id")
	if err != nil {
		return err
	}
	if err := h.reminders.Delete(c.Request().Context(), userID, id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Toggle godoc
// @Summary Flip a reminder's completed flag
// @Tags reminders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reminder ID"
// @Success 200 {object} model.Reminder
// @Failure 404 {object} errors.ErrorResponse
// @Router /reminders/{id}/toggle [post]
func (h *ReminderHandler) Toggle(c echo.Context) error {
	userID, id, err := ownedPath(c, "id")
	if err != nil {
		return err
	}
	r, err := h.reminders.Toggle(c.Request().Context(), userID, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

// Notifications godoc
// @Summary List notifications
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Notification
// @Router /notifications [get]
func (h *ReminderHandler) Notifications(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	list, err := h.notifications.List(c.Request().Context(), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// UnreadCount godoc
// @Summary Count unread notifications
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UnreadCountResponse
// @Router /notifications/unread-count [get]
func (h *ReminderHandler) UnreadCount(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	n, err := h.notifications.UnreadCount(c.Request().Context(), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, UnreadCountResponse{Count: n})
}

// MarkRead godoc
// @Summary Mark a notification as read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /notifications/mark-read/{id} [post]
func (h *ReminderHandler) MarkRead(c echo.Context) error {
	userID, id, err := ownedPath(c, "id")
	if err != nil {
		return err
	}
	if err := h.notifications.MarkRead(c.Request().Context(), userID, id); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "notification marked as read"})
}

// MarkAllRead godoc
// @Summary Mark every notification as read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} MessageResponse
// @Router /notifications/mark-all-read [post]
func (h *ReminderHandler) MarkAllRead(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.notifications.MarkAllRead(c.Request().Context(), userID); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "all notifications marked as read"})
}

// DeleteNotification godoc
// @Summary Delete a notification
// @Tags notifications
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Router /notifications/{id} [delete]
func (h *ReminderHandler) DeleteNotification(c echo.Context) error {
	userID, id, err := ownedPath(c, "id")
	if err != nil {
		return err
	}
	if err := h.notifications.Delete(c.Request().Context(), userID, id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
