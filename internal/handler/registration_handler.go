package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/stars-api/internal/service"
	appErrors "github.com/noah-isme/stars-api/pkg/errors"
	"github.com/noah-isme/stars-api/pkg/response"
)

// RegistrationHandler wires HTTP endpoints to the registration service.
type RegistrationHandler struct {
	service *service.RegistrationService
}

// NewRegistrationHandler creates a new handler.
func NewRegistrationHandler(svc *service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{service: svc}
}

// Add godoc
// @Summary Register for a course section
// @Description Join the section. The student enrolls immediately when a seat is free, otherwise joins the waitlist.
// @Tags Registrations
// @Accept json
// @Produce json
// @Param payload body service.CourseRequest true "Section to add"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /registrations [post]
func (h *RegistrationHandler) Add(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid add payload"))
		return
	}

	res, err := h.service.AddCourse(c.Request.Context(), targetMatric(c, claims), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// Drop godoc
// @Summary Drop a course section
// @Description Release a held seat or withdraw a waitlist entry. A freed seat promotes the waitlist head.
// @Tags Registrations
// @Accept json
// @Produce json
// @Param payload body service.CourseRequest true "Section to drop"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /registrations/drop [post]
func (h *RegistrationHandler) Drop(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid drop payload"))
		return
	}

	res, err := h.service.DropCourse(c.Request.Context(), targetMatric(c, claims), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// ChangeIndex godoc
// @Summary Change section index within a course
// @Description Drops the held index and re-requests the target. Not atomic: a full target leaves the student waitlisted.
// @Tags Registrations
// @Accept json
// @Produce json
// @Param payload body service.ChangeIndexRequest true "Index change"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /registrations/change-index [post]
func (h *RegistrationHandler) ChangeIndex(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.ChangeIndexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid change payload"))
		return
	}

	res, err := h.service.ChangeIndex(c.Request.Context(), targetMatric(c, claims), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// Swap godoc
// @Summary Swap section indexes with a peer
// @Description Trades held indexes of the same course. The peer must re-authenticate with their password.
// @Tags Registrations
// @Accept json
// @Produce json
// @Param payload body service.SwapIndexRequest true "Swap request"
// @Success 204 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /registrations/swap [post]
func (h *RegistrationHandler) Swap(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.SwapIndexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid swap payload"))
		return
	}

	if err := h.service.SwapIndex(c.Request.Context(), targetMatric(c, claims), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
