package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/stars-api/internal/models"
	"github.com/noah-isme/stars-api/internal/service"
	appErrors "github.com/noah-isme/stars-api/pkg/errors"
	"github.com/noah-isme/stars-api/pkg/response"
)

// SectionHandler wires HTTP endpoints to the section service.
type SectionHandler struct {
	service *service.SectionService
}

// NewSectionHandler creates a new handler.
func NewSectionHandler(svc *service.SectionService) *SectionHandler {
	return &SectionHandler{service: svc}
}

func sectionIndexParam(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid section index"))
		return 0, false
	}
	return index, true
}

// Create godoc
// @Summary Create a section
// @Tags Sections
// @Accept json
// @Produce json
// @Param payload body service.CreateSectionRequest true "Section payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sections [post]
func (h *SectionHandler) Create(c *gin.Context) {
	var req service.CreateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid section payload"))
		return
	}

	sec, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, sec)
}

// Update godoc
// @Summary Update a section
// @Description Edits an offering. Capacity below the enrolled count is rejected; growth promotes waitlisted students.
// @Tags Sections
// @Accept json
// @Produce json
// @Param courseCode path string true "Course code"
// @Param index path int true "Section index"
// @Param payload body service.UpdateSectionRequest true "Section payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sections/{courseCode}/{index} [put]
func (h *SectionHandler) Update(c *gin.Context) {
	index, ok := sectionIndexParam(c)
	if !ok {
		return
	}

	var req service.UpdateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid section payload"))
		return
	}

	sec, err := h.service.Update(c.Request.Context(), c.Param("courseCode"), index, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, sec)
}

// List godoc
// @Summary List sections
// @Tags Sections
// @Produce json
// @Param course_code query string false "Filter by course code"
// @Param school query string false "Filter by school"
// @Param sort_by query string false "Sort by code or index"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /sections [get]
func (h *SectionHandler) List(c *gin.Context) {
	var page models.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid paging parameters"))
		return
	}
	filter := models.SectionFilter{
		CourseCode: c.Query("course_code"),
		School:     c.Query("school"),
		SortBy:     c.Query("sort_by"),
	}
	sections, meta := h.service.List(filter, page)
	response.Paginated(c, sections, meta)
}

// Get godoc
// @Summary Get one section
// @Tags Sections
// @Produce json
// @Param courseCode path string true "Course code"
// @Param index path int true "Section index"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sections/{courseCode}/{index} [get]
func (h *SectionHandler) Get(c *gin.Context) {
	index, ok := sectionIndexParam(c)
	if !ok {
		return
	}
	sec, err := h.service.Get(c.Param("courseCode"), index)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, sec)
}

// Vacancy godoc
// @Summary Check section vacancy
// @Tags Sections
// @Produce json
// @Param courseCode path string true "Course code"
// @Param index path int true "Section index"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sections/{courseCode}/{index}/vacancy [get]
func (h *SectionHandler) Vacancy(c *gin.Context) {
	index, ok := sectionIndexParam(c)
	if !ok {
		return
	}
	v, err := h.service.Vacancy(c.Request.Context(), c.Param("courseCode"), index)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, v)
}

// CourseVacancies godoc
// @Summary Check vacancies across a course
// @Tags Sections
// @Produce json
// @Param courseCode path string true "Course code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{courseCode}/vacancies [get]
func (h *SectionHandler) CourseVacancies(c *gin.Context) {
	vs, err := h.service.CourseVacancies(c.Request.Context(), c.Param("courseCode"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, vs)
}

// Roster godoc
// @Summary List enrolled students of a section
// @Tags Sections
// @Produce json
// @Param courseCode path string true "Course code"
// @Param index path int true "Section index"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sections/{courseCode}/{index}/roster [get]
func (h *SectionHandler) Roster(c *gin.Context) {
	index, ok := sectionIndexParam(c)
	if !ok {
		return
	}
	students, err := h.service.Roster(c.Param("courseCode"), index)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, students)
}

// Waitlist godoc
// @Summary List waitlisted students of a section in promotion order
// @Tags Sections
// @Produce json
// @Param courseCode path string true "Course code"
// @Param index path int true "Section index"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sections/{courseCode}/{index}/waitlist [get]
func (h *SectionHandler) Waitlist(c *gin.Context) {
	index, ok := sectionIndexParam(c)
	if !ok {
		return
	}
	students, err := h.service.Waitlist(c.Param("courseCode"), index)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, students)
}

// ExportRoster godoc
// @Summary Download the enrolled roster of a section as CSV
// @Tags Sections
// @Produce application/octet-stream
// @Param courseCode path string true "Course code"
// @Param index path int true "Section index"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /sections/{courseCode}/{index}/roster/export [get]
func (h *SectionHandler) ExportRoster(c *gin.Context) {
	index, ok := sectionIndexParam(c)
	if !ok {
		return
	}
	courseCode := c.Param("courseCode")
	data, err := h.service.ExportRosterCSV(courseCode, index)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=roster-%s-%d.csv", courseCode, index))
	c.Data(http.StatusOK, "text/csv", data)
}
