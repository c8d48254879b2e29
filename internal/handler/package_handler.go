package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"willtank/internal/service"
)

// Headers describing a degraded package download.
const (
	HeaderPackageFallback = "X-Package-Fallback"
	HeaderPackageMessage  = "X-Package-Message"
)

// PackageHandler serves the downloadable will package and the dashboard.
type PackageHandler struct {
	packages  service.PackageService
	dashboard service.DashboardService
}

// NewPackageHandler creates a package handler.
func NewPackageHandler(packages service.PackageService, dashboard service.DashboardService) *PackageHandler {
	return &PackageHandler{packages: packages, dashboard: dashboard}
}

// Download godoc
// @Summary Download the will package
// @Description A ZIP with the will text, attachments and a video note. When the archive cannot be
// @Description built the will text is returned as text/plain with X-Package-Fallback: basic.
// @Tags wills
// @Produce application/zip
// @Produce text/plain
// @Security BearerAuth
// @Param id path string true "Will ID"
// @Success 200 {file} file
// @Failure 404 {object} errors.ErrorResponse
// @Router /wills/{id}/package [get]
func (h *PackageHandler) Download(c echo.Context) error {
	userID, willID, err := ownedPath(c, "id")
	if err != nil {
		return err
	}
	pkg, err := h.packages.Build(c.Request().Context(), userID, willID)
	if err != nil {
		return fail(c, err)
	}

	header := c.Response().Header()
	header.Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", pkg.FileName))
	if pkg.Fallback {
		header.Set(HeaderPackageFallback, "basic")
		header.Set(HeaderPackageMessage, pkg.Message)
	}
	return c.Blob(http.StatusOK, pkg.ContentType, pkg.Body)
}

// Summary godoc
// @Summary Dashboard summary
// @Description Counts, the checklist and trust score, and where to resume the wizard.
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.DashboardSummary
// @Router /dashboard/summary [get]
func (h *PackageHandler) Summary(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	summary, err := h.dashboard.Summary(c.Request().Context(), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}
