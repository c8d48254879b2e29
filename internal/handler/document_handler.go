package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "willtank/internal/errors"
	"willtank/internal/service"
)

// DocumentHandler serves will attachments and the video testimony.
type DocumentHandler struct {
	svc service.DocumentService
}

// NewDocumentHandler creates a document handler.
func NewDocumentHandler(svc service.DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

// upload reads the multipart "file" field and passes it to fn.
func upload(c echo.Context, fn func(in service.UploadInput) error) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
			Error: "multipart field \"file\" is required",
			Code:  "INVALID_REQUEST",
		})
	}
	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
			Error: "could not read upload",
			Code:  "INVALID_REQUEST",
		})
	}
	defer f.Close()

	return fn(service.UploadInput{FileName: fh.Filename, Size: fh.Size, Reader: f})
}

// List godoc
// @Summary List a will's documents
// @Tags documents
// @Produce json
// @Security BearerAuth
// @Param id path string true "Will ID"
// @Success 200 {array} model.WillDocument
// @Failure 404 {object} errors.ErrorResponse
// @Router /wills/{id}/documents [get]
func (h *DocumentHandler) List(c echo.Context) error {
	userID, willID, err := ownedPath(c, "id")
	if err != nil {
		return err
	}
	docs, err := h.svc.List(c.Request().Context(), userID, willID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, docs)
}

// Upload godoc
// @Summary Attach a document to a will
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Will ID"
// @Param file formData file true "Document"
// @Success 201 {object} model.WillDocument
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 413 {object} errors.ErrorResponse
// @Failure 415 {object} errors.ErrorResponse
// @Router /wills/{id}/documents [post]
func (h *DocumentHandler) Upload(c echo.Context) error {
	userID, willID, err := ownedPath(c, "id")
	if err != nil {
		return err
	}
	return upload(c, func(in service.UploadInput) error {
		doc, err := h.svc.Upload(c.Request().Context(), userID, willID, in)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(http.StatusCreated, doc)
	})
}

// Delete godoc
// @Summary Delete a document
// @Tags documents
// @Security BearerAuth
// @Param id path string true "Document ID"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /documents/{id} [delete]
func (h *DocumentHandler) Delete(c echo.Context) error {
	userID, id, err := ownedPath(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), userID, id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Download godoc
// @Summary Download a document
// @Description Redirects to a short-lived signed URL when the store supports it, otherwise streams the file.
// @Tags documents
// @Produce octet-stream
// @Security BearerAuth
// @Param id path string true "Document ID"
// @Success 200 {file} file
// @Success 302
// @Failure 404 {object} errors.ErrorResponse
// @Router /documents/{id}/download [get]
func (h *DocumentHandler) Download(c echo.Context) error {
	userID, id, err := ownedPath(c, "id")
	if err != nil {
		return err
	}
	dl, err := h.svc.Download(c.Request().Context(), userID, id)
	if err != nil {
		return fail(c, err)
	}
	if dl.URL != "" {
		return c.Redirect(http.StatusFound, dl.URL)
	}
	defer dl.Body.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", dl.Document.FileName))
	return c.Stream(http.StatusOK, dl.Document.MimeType, dl.Body)
}

// UploadVideo godoc
// @Summary Upload the video testimony for a will
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Will ID"
// @Param file formData file true "Video"
// @Success 200 {object} model.Will
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 415 {object} errors.ErrorResponse
// @Router /wills/{id}/video [post]
func (h *DocumentHandler) UploadVideo(c echo.Context) error {
	userID, willID, err := ownedPath(c, "id")
	if err != nil {
		return err
	}
	return upload(c, func(in service.UploadInput) error {
		will, err := h.svc.UploadVideo(c.Request().Context(), userID, willID, in)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(http.StatusOK, will)
	})
}
