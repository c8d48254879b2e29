package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/datatypes"

	apperrors "willtank/internal/errors"
	"willtank/internal/model"
	"willtank/internal/progress"
	"willtank/internal/service"
)

// WillHandler serves will CRUD, locking and wizard progress.
type WillHandler struct {
	svc service.WillService
}

// NewWillHandler creates a will handler.
func NewWillHandler(svc service.WillService) *WillHandler {
	return &WillHandler{svc: svc}
}

// CreateWillRequest starts a new draft.
type CreateWillRequest struct {
	Title      string  `json:"title" validate:"max=255"`
	TemplateID *string `json:"templateId" validate:"omitempty,max=64"`
}

// UpdateWillRequest is a partial update; absent fields are left untouched.
type UpdateWillRequest struct {
	Title       *string           `json:"title" validate:"omitempty,min=1,max=255"`
	Content     *string           `json:"content"`
	ContactInfo datatypes.JSON    `json:"contactInfo" swaggertype:"object"`
	Status      *model.WillStatus `json:"status" validate:"omitempty,will_status"`
	VideoURL    *string           `json:"videoUrl" validate:"omitempty,max=1024"`
}

// ProgressRequest sets the wizard step explicitly or moves one step.
type ProgressRequest struct {
	Step   progress.Step `json:"step" validate:"omitempty,progress_step"`
	Action string        `json:"action" validate:"omitempty,oneof=next back"`
}

// List godoc
// @Summary List the caller's wills
// @Tags wills
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Will
// @Failure 401 {object} errors.ErrorResponse
// @Router /wills [get]
func (h *WillHandler) List(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	wills, err := h.svc.List(c.Request().Context(), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, wills)
}

// Create godoc
// @Summary Create a will
// @Tags wills
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateWillRequest true "Will"
// @Success 201 {object} model.Will
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /wills [post]
func (h *WillHandler) Create(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req CreateWillRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	will, err := h.svc.Create(c.Request().Context(), userID, service.CreateWillInput{
		Title:      req.Title,
		TemplateID: req.TemplateID,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, will)
}

// Get godoc
// @Summary Get a will
// @Tags wills
// @Produce json
// @Security BearerAuth
// @Param id path string true "Will ID"
// @Success 200 {object} model.Will
// @Failure 404 {object} errors.ErrorResponse
// @Router /wills/{id} [get]
func (h *WillHandler) Get(c echo.Context) error {
	userID, id, err := ownedPath(c, "id")
	if err != nil {
		return err
	}
	will, err := h.svc.Get(c.Request().Context(), userID, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, will)
}

// Update godoc
// @Summary Update a will
// @Tags wills
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Will ID"
// @Param request body UpdateWillRequest true "Fields to change"
// @Success 200 {object} model.Will
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /wills/{id} [put]
func (h *WillHandler) Update(c echo.Context) error {
	userID, id, err := ownedPath(c, "id")
	if err != nil {
		return err
	}
	var req UpdateWillRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	will, err := h.svc.Update(c.Request().Context(), userID, id, service.UpdateWillInput{
		Title:       req.Title,
		Content:     req.Content,
		ContactInfo: req.ContactInfo,
		Status:      req.Status,
		VideoURL:    req.VideoURL,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, will)
}

// Delete godoc
// @Summary Delete a will and everything attached to it
// @Tags wills
// @Security BearerAuth
// @Param id path string true "Will ID"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /wills/{id} [delete]
func (h *WillHandler) Delete(c echo.Context) error {
	userID, id, err := ownedPath(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), userID, id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Lock godoc
// @Summary Lock a will against edits
// @Tags wills
// @Produce json
// @Security BearerAuth
// @Param id path string true "Will ID"
// @Success 200 {object} model.Will
// @Failure 404 {object} errors.ErrorResponse
// @Router /wills/{id}/lock [post]
func (h *WillHandler) Lock(c echo.Context) error {
	userID, id, err := ownedPath(c, "id")
	if err != nil {
		return err
	}
	will, err := h.svc.Lock(c.Request().Context(), userID, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, will)
}

// Unlock godoc
// @Summary Unlock a will
// @Tags wills
// @Produce json
// @Security BearerAuth
// @Param id path string true "Will ID"
// @Success 200 {object} model.Will
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /wills/{id}/unlock [post]
func (h *WillHandler) Unlock(c echo.Context) error {
	userID, id, err := ownedPath(c, "id")
	if err != nil {
		return err
	}
	will, err := h.svc.Unlock(c.Request().Context(), userID, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, will)
}

// Progress godoc
// @Summary Get a will's wizard position
// @Tags progress
// @Produce json
// @Security BearerAuth
// @Param id path string true "Will ID"
// @Success 200 {object} progress.Position
// @Failure 404 {object} errors.ErrorResponse
// @Router /wills/{id}/progress [get]
func (h *WillHandler) Progress(c echo.Context) error {
	userID, id, err := ownedPath(c, "id")
	if err != nil {
		return err
	}
	pos, err := h.svc.Progress(c.Request().Context(), userID, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, pos)
}

// SetProgress godoc
// @Summary Move a will through the wizard
// @Description Send either a step to jump to or an action of next or back.
// @Tags progress
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Will ID"
// @Param request body ProgressRequest true "Step or action"
// @Success 200 {object} model.Will
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /wills/{id}/progress [post]
func (h *WillHandler) SetProgress(c echo.Context) error {
	userID, id, err := ownedPath(c, "id")
	if err != nil {
		return err
	}
	var req ProgressRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	var will *model.Will
	switch {
	case req.Step != "":
		will, err = h.svc.SetProgress(ctx, userID, id, req.Step)
	case req.Action == "next":
		will, err = h.svc.Advance(ctx, userID, id)
	case req.Action == "back":
		will, err = h.svc.Back(ctx, userID, id)
	default:
		return fail(c, apperrors.ErrInvalidStep)
	}
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, will)
}

// Resume godoc
// @Summary Where to re-enter the wizard
// @Description Without a will id, or for an unknown will, the first step is returned with redirect set.
// @Tags progress
// @Produce json
// @Security BearerAuth
// @Param willId query string false "Will ID"
// @Success 200 {object} progress.Position
// @Router /progress/resume [get]
func (h *WillHandler) Resume(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	pos, err := h.svc.Resume(c.Request().Context(), userID, c.QueryParam("willId"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, pos)
}

// Templates godoc
// @Summary List will templates
// @Tags wills
// @Produce json
// @Success 200 {array} service.WillTemplate
// @Router /templates [get]
func (h *WillHandler) Templates(c echo.Context) error {
	return c.JSON(http.StatusOK, service.Templates())
}
