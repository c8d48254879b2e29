package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"willtank/internal/service"
)

// EstateHandler serves the beneficiaries and assets listed in a will.
type EstateHandler struct {
	beneficiaries service.BeneficiaryService
	assets        service.AssetService
}

// NewEstateHandler creates an estate handler.
func NewEstateHandler(beneficiaries service.BeneficiaryService, assets service.AssetService) *EstateHandler {
	return &EstateHandler{beneficiaries: beneficiaries, assets: assets}
}

// BeneficiaryRequest creates or replaces a beneficiary.
type BeneficiaryRequest struct {
	Name            string           `json:"name" validate:"required,max=255"`
	Relationship    string           `json:"relationship" validate:"max=100"`
	Email           string           `json:"email" validate:"omitempty,email"`
	Phone           string           `json:"phone" validate:"max=50"`
	SharePercentage *decimal.Decimal `json:"sharePercentage" validate:"omitempty,percentage" swaggertype:"string"`
	Location        string           `json:"location" validate:"max=255"`
}

func (r BeneficiaryRequest) input() service.BeneficiaryInput {
	return service.BeneficiaryInput{
		Name:            r.Name,
		Relationship:    r.Relationship,
		Email:           r.Email,
		Phone:           r.Phone,
		SharePercentage: r.SharePercentage,
		Location:        r.Location,
	}
}

// AssetRequest creates or replaces an asset.
type AssetRequest struct {
	Name           string          `json:"name" validate:"required,max=255"`
	Type           string          `json:"type" validate:"max=64"`
	Description    string          `json:"description"`
	EstimatedValue decimal.Decimal `json:"estimatedValue" swaggertype:"string"`
	Location       string          `json:"location" validate:"max=255"`
}

func (r AssetRequest) input() service.AssetInput {
	return service.AssetInput{
		Name:           r.Name,
		Type:           r.Type,
		Description:    r.Description,
		EstimatedValue: r.EstimatedValue,
		Location:       r.Location,
	}
}

// ListBeneficiaries godoc
// @Summary List a will's beneficiaries with the share total
// @Tags beneficiaries
// @Produce json
// @Security BearerAuth
// @Param id path string true "Will ID"
// @Success 200 {object} service.BeneficiaryList
// @Failure 404 {object} errors.ErrorResponse
// @Router /wills/{id}/beneficiaries [get]
func (h *EstateHandler) ListBeneficiaries(c echo.Context) error {
	userID, willID, err := ownedPath(c, "id")
	if err != nil {
		return err
	}
	list, err := h.beneficiaries.List(c.Request().Context(), userID, willID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// CreateBeneficiary godoc
// @Summary Add a beneficiary
// @Tags beneficiaries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Will ID"
// @Param request body BeneficiaryRequest true "Beneficiary"
// @Success 201 {object} model.Beneficiary
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /wills/{id}/beneficiaries [post]
func (h *EstateHandler) CreateBeneficiary(c echo.Context) error {
	userID, willID, err := ownedPath(c, "id")
	if err != nil {
		return err
	}
	var req BeneficiaryRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	b, err := h.beneficiaries.Create(c.Request().Context(), userID, willID, req.input())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// UpdateBeneficiary godoc
// @Summary Replace a beneficiary
// @Tags beneficiaries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Beneficiary ID"
// @Param request body BeneficiaryRequest true "Beneficiary"
// @Success 200 {object} model.Beneficiary
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /beneficiaries/{id} [put]
func (h *EstateHandler) UpdateBeneficiary(c echo.Context) error {
	userID, id, err := ownedPath(c, "id")
	if err != nil {
		return err
	}
	var req BeneficiaryRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	b, err := h.beneficiaries.Update(c.Request().Context(), userID, id, req.input())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// DeleteBeneficiary godoc
// @Summary Remove a beneficiary
// @Tags beneficiaries
// @Security BearerAuth
// @Param id path string true "Beneficiary ID"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Router /beneficiaries/{id} [delete]
func (h *EstateHandler) DeleteBeneficiary(c echo.Context) error {
	userID, id, err := ownedPath(c, "id")
	if err != nil {
		return err
	}
	if err := h.beneficiaries.Delete(c.Request().Context(), userID, id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListAssets godoc
// @Summary List a will's assets
// @Tags assets
// @Produce json
// @Security BearerAuth
// @Param id path string true "Will ID"
// @Success 200 {array} model.Asset
// @Failure 404 {object} errors.ErrorResponse
// @Router /wills/{id}/assets [get]
func (h *EstateHandler) ListAssets(c echo.Context) error {
	userID, willID, err := ownedPath(c, "id")
	if err != nil {
		return err
	}
	assets, err := h.assets.List(c.Request().Context(), userID, willID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, assets)
}

// CreateAsset godoc
// @Summary Add an asset
// @Tags assets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Will ID"
// @Param request body AssetRequest true "Asset"
// @Success 201 {object} model.Asset
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /wills/{id}/assets [post]
func (h *EstateHandler) CreateAsset(c echo.Context) error {
	userID, willID, err := ownedPath(c, "id")
	if err != nil {
		return err
	}
	var req AssetRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	a, err := h.assets.Create(c.Request().Context(), userID, willID, req.input())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, a)
}

// UpdateAsset godoc
// @Summary Replace an asset
// @Tags assets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Asset ID"
// @Param request body AssetRequest true "Asset"
// @Success 200 {object} model.Asset
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /assets/{id} [put]
func (h *EstateHandler) UpdateAsset(c echo.Context) error {
	userID, id, err := ownedPath(c, "id")
	if err != nil {
		return err
	}
	var req AssetRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	a, err := h.assets.Update(c.Request().Context(), userID, id, req.input())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

// DeleteAsset godoc
// @Summary Remove an asset
// @Tags assets
// @Security BearerAuth
// @Param id path string true "Asset ID"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Router /assets/{id} [delete]
func (h *EstateHandler) DeleteAsset(c echo.Context) error {
	userID, id, err := ownedPath(c, "id")
	if err != nil {
		return err
	}
	if err := h.assets.Delete(c.Request().Context(), userID, id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
