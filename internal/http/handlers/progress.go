package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/coursemarket-backend/internal/http/response"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
	"github.com/yungbote/coursemarket-backend/internal/services"
)

type ProgressHandler struct {
	log      *logger.Logger
	progress services.ProgressService
}

func NewProgressHandler(log *logger.Logger, progress services.ProgressService) *ProgressHandler {
	return &ProgressHandler{
		log:      log.With("handler", "ProgressHandler"),
		progress: progress,
	}
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_"+name, fmt.Errorf("invalid %s", name))
		return uuid.Nil, false
	}
	return id, true
}

// POST /api/courses/:id/enroll
func (h *ProgressHandler) Enroll(c *gin.Context) {
	courseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	res, err := h.progress.Enroll(c.Request.Context(), courseID)
	if err != nil {
		h.log.Warn("Enroll failed", "error", err, "course_id", courseID)
		response.RespondServiceError(c, err)
		return
	}
	payload := gin.H{"enrollment": res.Enrollment, "created": res.Created}
	if res.Created {
		response.RespondCreated(c, payload)
		return
	}
	response.RespondOK(c, payload)
}

// GET /api/enrollments
func (h *ProgressHandler) ListEnrollments(c *gin.Context) {
	rows, err := h.progress.ListEnrollments(c.Request.Context())
	if err != nil {
		h.log.Error("ListEnrollments failed", "error", err)
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"enrollments": rows})
}

// GET /api/courses/:id/progress
func (h *ProgressHandler) GetProgress(c *gin.Context) {
	courseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	res, err := h.progress.GetProgress(c.Request.Context(), courseID)
	if err != nil {
		h.log.Warn("GetProgress failed", "error", err, "course_id", courseID)
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, res)
}

// POST /api/lessons/:id/toggle
func (h *ProgressHandler) ToggleLesson(c *gin.Context) {
	lessonID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	res, err := h.progress.ToggleLesson(c.Request.Context(), lessonID)
	if err != nil {
		h.log.Warn("ToggleLesson failed", "error", err, "lesson_id", lessonID)
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, res)
}

// GET /api/courses/:id/certificate
func (h *ProgressHandler) GetCertificate(c *gin.Context) {
	courseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	res, err := h.progress.GetCertificate(c.Request.Context(), courseID)
	if err != nil {
		h.log.Warn("GetCertificate failed", "error", err, "course_id", courseID)
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"certificate": res.Certificate})
}

// GET /api/me/streak
func (h *ProgressHandler) GetStreak(c *gin.Context) {
	res, err := h.progress.GetStreak(c.Request.Context())
	if err != nil {
		h.log.Error("GetStreak failed", "error", err)
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, res)
}
