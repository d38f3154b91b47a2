package handler

import (
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ojt-portal-api/internal/dto"
	"github.com/noah-isme/ojt-portal-api/internal/models"
	"github.com/noah-isme/ojt-portal-api/internal/service"
	"github.com/noah-isme/ojt-portal-api/pkg/config"
	appErrors "github.com/noah-isme/ojt-portal-api/pkg/errors"
	"github.com/noah-isme/ojt-portal-api/pkg/response"
	"github.com/noah-isme/ojt-portal-api/pkg/storage"
)

// DailyLogHandler wires HTTP endpoints to the daily log service.
type DailyLogHandler struct {
	service *service.DailyLogService
	photos  *storage.LocalStorage
	uploads config.UploadsConfig
}

// NewDailyLogHandler creates a new handler.
func NewDailyLogHandler(svc *service.DailyLogService, photos *storage.LocalStorage, uploads config.UploadsConfig) *DailyLogHandler {
	return &DailyLogHandler{service: svc, photos: photos, uploads: uploads}
}

// Create godoc
// @Summary Submit a daily activity log
// @Description Create a daily log with an optional photo as multipart form data
// @Tags Daily Logs
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param log_date formData string true "Log date (YYYY-MM-DD)"
// @Param time_in formData string true "Time in (HH:MM)"
// @Param time_out formData string true "Time out (HH:MM)"
// @Param tasks_accomplished formData string true "Tasks accomplished"
// @Param photo formData file false "Photo evidence"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /logs [post]
func (h *DailyLogHandler) Create(c *gin.Context) {
	var req dto.CreateLogRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid log payload"))
		return
	}

	photo, err := h.readPhoto(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	log, err := h.service.Create(c.Request.Context(), claimsFromContext(c), req, photo)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, log)
}

// ListOwn godoc
// @Summary List the caller's daily logs
// @Tags Daily Logs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /logs [get]
func (h *DailyLogHandler) ListOwn(c *gin.Context) {
	logs, err := h.service.ListOwn(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}

// ListForIntern godoc
// @Summary List an intern's daily logs for review
// @Tags Daily Logs
// @Produce json
// @Security BearerAuth
// @Param internId path string true "Intern ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /interns/{internId}/logs [get]
func (h *DailyLogHandler) ListForIntern(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	internID := c.Param("internId")

	var (
		logs []models.DailyLog
		err  error
	)
	if claims.Role == models.RoleSupervisor {
		logs, err = h.service.ListForSupervisor(c.Request.Context(), claims, internID)
	} else {
		logs, err = h.service.ListForAdviser(c.Request.Context(), claims, internID)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}

// Update godoc
// @Summary Edit a daily log
// @Description Partially update a log owned by the caller; supplying a photo replaces the old one
// @Tags Daily Logs
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param id path string true "Log ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /logs/{id} [patch]
func (h *DailyLogHandler) Update(c *gin.Context) {
	var req dto.UpdateLogRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid log payload"))
		return
	}

	photo, err := h.readPhoto(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	log, err := h.service.Update(c.Request.Context(), claimsFromContext(c), c.Param("id"), req, photo)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, log, nil)
}

// Delete godoc
// @Summary Delete a daily log
// @Tags Daily Logs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Log ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /logs/{id} [delete]
func (h *DailyLogHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ReviewByAdviser godoc
// @Summary Record the adviser's review of a log
// @Tags Daily Logs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Log ID"
// @Param payload body dto.ReviewRequest true "Review payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /logs/{id}/review/adviser [post]
func (h *DailyLogHandler) ReviewByAdviser(c *gin.Context) {
	var req dto.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}
	log, err := h.service.ReviewByAdviser(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, log, nil)
}

// ReviewBySupervisor godoc
// @Summary Record the supervisor's review of a log
// @Tags Daily Logs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Log ID"
// @Param payload body dto.ReviewRequest true "Review payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /logs/{id}/review/supervisor [post]
func (h *DailyLogHandler) ReviewBySupervisor(c *gin.Context) {
	var req dto.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}
	log, err := h.service.ReviewBySupervisor(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, log, nil)
}

// Summary godoc
// @Summary Progress summary for an intern
// @Description Interns get their own summary; staff pass an intern id
// @Tags Daily Logs
// @Produce json
// @Security BearerAuth
// @Param internId query string false "Intern ID (staff only)"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /logs/summary [get]
func (h *DailyLogHandler) Summary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context(), claimsFromContext(c), c.Query("internId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Photo godoc
// @Summary Serve a log's photo evidence
// @Tags Daily Logs
// @Produce octet-stream
// @Security BearerAuth
// @Param filename path string true "Photo filename"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /photos/{filename} [get]
func (h *DailyLogHandler) Photo(c *gin.Context) {
	name := storage.CanonicalName(c.Param("filename"))
	if name == "" || strings.Contains(name, "/") || strings.Contains(name, "..") {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid photo name"))
		return
	}
	file, err := h.photos.Open(name)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "photo not found"))
		return
	}
	defer file.Close()
	c.File(h.photos.Path(name))
}

func (h *DailyLogHandler) readPhoto(c *gin.Context) (*dto.PhotoUpload, error) {
	fileHeader, err := c.FormFile("photo")
	if err != nil {
		if err == http.ErrMissingFile || err == http.ErrNotMultipart {
			return nil, nil
		}
		// No multipart body at all means no photo was attached.
		if strings.Contains(err.Error(), "missing form body") {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid photo upload")
	}

	if h.uploads.MaxFileSizeBytes > 0 && fileHeader.Size > h.uploads.MaxFileSizeBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation, "photo exceeds the maximum allowed size")
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if !h.allowedMIME(contentType) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "photo must be a jpeg or png image")
	}

	data, err := readAll(fileHeader)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to read photo upload")
	}

	return &dto.PhotoUpload{
		OriginalName: fileHeader.Filename,
		ContentType:  contentType,
		Data:         data,
	}, nil
}

func (h *DailyLogHandler) allowedMIME(contentType string) bool {
	if len(h.uploads.AllowedMIMEs) == 0 {
		return true
	}
	for _, allowed := range h.uploads.AllowedMIMEs {
		if strings.EqualFold(allowed, contentType) {
			return true
		}
	}
	return false
}

func readAll(fileHeader *multipart.FileHeader) ([]byte, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}
