package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/stars-api/internal/middleware"
	"github.com/noah-isme/stars-api/internal/models"
	"github.com/noah-isme/stars-api/internal/registration"
	"github.com/noah-isme/stars-api/internal/service"
	appErrors "github.com/noah-isme/stars-api/pkg/errors"
)

type fakeEngine struct {
	addResult *registration.AddResult
	addErr    error
	addMatric string
	dropRes   *registration.DropResult
}

func (f *fakeEngine) Add(_ context.Context, matricNo, _ string, _ int) (*registration.AddResult, error) {
	f.addMatric = matricNo
	return f.addResult, f.addErr
}

func (f *fakeEngine) Drop(_ context.Context, _, _ string, _ int) (*registration.DropResult, error) {
	return f.dropRes, nil
}

func (f *fakeEngine) ChangeIndex(_ context.Context, _, _ string, _, _ int) (*registration.AddResult, error) {
	return f.addResult, f.addErr
}

func (f *fakeEngine) Swap(_ context.Context, _ registration.SwapRequest) error {
	return nil
}

func newRegContext(t *testing.T, body interface{}, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	payload, err := json.Marshal(body)
	require.NoError(t, err)
	c.Request = httptest.NewRequest(http.MethodPost, "/registrations", bytes.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, rec
}

func newRegHandler(engine *fakeEngine) *RegistrationHandler {
	svc := service.NewRegistrationService(engine, nil, nil, nil, zap.NewNop())
	return NewRegistrationHandler(svc)
}

func TestRegistrationHandlerAddRequiresAuth(t *testing.T) {
	h := newRegHandler(&fakeEngine{})
	c, rec := newRegContext(t, service.CourseRequest{CourseCode: "CZ2001", Index: 10001}, nil)

	h.Add(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegistrationHandlerAddUsesTokenIdentity(t *testing.T) {
	engine := &fakeEngine{addResult: &registration.AddResult{Status: models.RegistrationEnrolled}}
	h := newRegHandler(engine)
	claims := &models.JWTClaims{MatricNo: "U001", Role: models.RoleStudent}
	c, rec := newRegContext(t, service.CourseRequest{CourseCode: "CZ2001", Index: 10001}, claims)

	h.Add(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "U001", engine.addMatric)

	var envelope struct {
		Data registration.AddResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, models.RegistrationEnrolled, envelope.Data.Status)
}

func TestRegistrationHandlerAddMapsDomainError(t *testing.T) {
	engine := &fakeEngine{addErr: appErrors.Clone(appErrors.ErrOverload, "credit ceiling exceeded")}
	h := newRegHandler(engine)
	claims := &models.JWTClaims{MatricNo: "U001", Role: models.RoleStudent}
	c, rec := newRegContext(t, service.CourseRequest{CourseCode: "CZ2001", Index: 10001}, claims)

	h.Add(c)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "OVERLOAD", envelope.Error.Code)
}

func TestRegistrationHandlerAddRejectsMalformedBody(t *testing.T) {
	h := newRegHandler(&fakeEngine{})
	claims := &models.JWTClaims{MatricNo: "U001", Role: models.RoleStudent}

	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/registrations", bytes.NewReader([]byte("{not json")))
	c.Set(middleware.ContextUserKey, claims)

	h.Add(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
