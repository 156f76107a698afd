package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/stars-api/internal/models"
	"github.com/noah-isme/stars-api/internal/service"
	appErrors "github.com/noah-isme/stars-api/pkg/errors"
	"github.com/noah-isme/stars-api/pkg/response"
)

// StudentHandler wires HTTP endpoints to the student service.
type StudentHandler struct {
	service       *service.StudentService
	notifications *service.NotificationService
}

// NewStudentHandler creates a new handler.
func NewStudentHandler(svc *service.StudentService, notifications *service.NotificationService) *StudentHandler {
	return &StudentHandler{service: svc, notifications: notifications}
}

// Create godoc
// @Summary Admit a student
// @Description Creates the student record and provisions their login.
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body service.CreateStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req service.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid student payload"))
		return
	}

	student, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Param search query string false "Match against name or matric number"
// @Param course_code query string false "Only students enrolled in this course"
// @Param index query int false "Only students enrolled in this index"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	var filter models.StudentFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid student filter"))
		return
	}
	response.OK(c, h.service.List(filter))
}

// Get godoc
// @Summary Get one student
// @Tags Students
// @Produce json
// @Param matricNo path string true "Matric number"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{matricNo} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.service.Get(targetMatric(c, claimsFromContext(c)))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, student)
}

// SetContact godoc
// @Summary Update notification channel preference
// @Tags Students
// @Accept json
// @Produce json
// @Param matricNo path string true "Matric number"
// @Param payload body service.UpdateContactRequest true "Contact payload"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{matricNo}/contact [put]
func (h *StudentHandler) SetContact(c *gin.Context) {
	var req service.UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid contact payload"))
		return
	}

	if err := h.service.SetContact(c.Request.Context(), targetMatric(c, claimsFromContext(c)), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Courses godoc
// @Summary List a student's registrations grouped by status
// @Tags Students
// @Produce json
// @Param matricNo path string true "Matric number"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{matricNo}/courses [get]
func (h *StudentHandler) Courses(c *gin.Context) {
	courses, err := h.service.Courses(targetMatric(c, claimsFromContext(c)))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, courses)
}

// Timetable godoc
// @Summary Get a student's weekly timetable with clash reporting
// @Tags Students
// @Produce json
// @Param matricNo path string true "Matric number"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{matricNo}/timetable [get]
func (h *StudentHandler) Timetable(c *gin.Context) {
	tt, err := h.service.Timetable(targetMatric(c, claimsFromContext(c)))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, tt)
}

// ExportTimetable godoc
// @Summary Download a student's timetable as CSV or PDF
// @Tags Students
// @Produce application/octet-stream
// @Param matricNo path string true "Matric number"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /students/{matricNo}/timetable/export [get]
func (h *StudentHandler) ExportTimetable(c *gin.Context) {
	matricNo := targetMatric(c, claimsFromContext(c))
	format := c.DefaultQuery("format", "csv")

	switch format {
	case "csv":
		data, err := h.service.ExportTimetableCSV(matricNo)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=timetable-%s.csv", matricNo))
		c.Data(http.StatusOK, "text/csv", data)
	case "pdf":
		data, err := h.service.ExportTimetablePDF(matricNo)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=timetable-%s.pdf", matricNo))
		c.Data(http.StatusOK, "application/pdf", data)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
	}
}

// Notifications godoc
// @Summary List recent registration notifications for a student
// @Tags Students
// @Produce json
// @Param matricNo path string true "Matric number"
// @Success 200 {object} response.Envelope
// @Router /students/{matricNo}/notifications [get]
func (h *StudentHandler) Notifications(c *gin.Context) {
	matricNo := targetMatric(c, claimsFromContext(c))
	response.OK(c, h.notifications.History(matricNo))
}
