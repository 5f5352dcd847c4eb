// controller/access_controller_test.go
package controller_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	testify_mock "github.com/stretchr/testify/mock"

	"github.com/aria7-op/schoolguard/audit"
	"github.com/aria7-op/schoolguard/controller"
	sg_errors "github.com/aria7-op/schoolguard/errors"
	pdp_model "github.com/aria7-op/schoolguard/pdp/model"
	"github.com/aria7-op/schoolguard/test/mock"
)

func setupRouter(accessService *mock.MockAccessService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/")
	controller.NewAccessController(accessService).RegisterRoutes(api)
	return r
}

func TestEvaluateAccess_Success(t *testing.T) {
	accessService := new(mock.MockAccessService)
	router := setupRouter(accessService)

	accessService.On("EvaluateAccess", testify_mock.Anything, testify_mock.Anything).
		Return(&pdp_model.Decision{
			Allowed:      true,
			Reason:       "Access granted",
			EvaluationID: "eval-1",
		}, nil)

	body := strings.NewReader(`{
		"subject": {"id": "teacher-1"},
		"resource": {"type": "student", "id": "10"},
		"action": "view"
	}`)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/access/evaluate", body)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var decision pdp_model.Decision
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &decision))
	assert.True(t, decision.Allowed)
	assert.Equal(t, "eval-1", decision.EvaluationID)
}

func TestEvaluateAccess_MalformedBody(t *testing.T) {
	accessService := new(mock.MockAccessService)
	router := setupRouter(accessService)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/access/evaluate", strings.NewReader("{not json"))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	accessService.AssertNotCalled(t, "EvaluateAccess")
}

func TestEvaluateAccess_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"missing resource type", sg_errors.ErrMissingResourceType},
		{"missing action", sg_errors.ErrMissingAction},
		{"invalid request", sg_errors.ErrInvalidAccessRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			accessService := new(mock.MockAccessService)
			router := setupRouter(accessService)

			accessService.On("EvaluateAccess", testify_mock.Anything, testify_mock.Anything).
				Return(nil, tc.err)

			body := strings.NewReader(`{"subject": {"id": "teacher-1"}}`)
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("POST", "/access/evaluate", body)
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestEvaluateAccess_InternalError(t *testing.T) {
	accessService := new(mock.MockAccessService)
	router := setupRouter(accessService)

	accessService.On("EvaluateAccess", testify_mock.Anything, testify_mock.Anything).
		Return(nil, sg_errors.ErrInternalServer)

	body := strings.NewReader(`{"subject": {"id": "teacher-1"}}`)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/access/evaluate", body)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestQueryDecisions_DefaultsAndFilters(t *testing.T) {
	accessService := new(mock.MockAccessService)
	router := setupRouter(accessService)

	accessService.On("QueryDecisions",
		testify_mock.Anything, testify_mock.Anything, testify_mock.Anything, "teacher-1", "10").
		Return([]audit.AccessLog{{EvaluationID: "eval-1", SubjectID: "teacher-1"}}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/access/decisions?subject_id=teacher-1&resource_id=10", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var logs []audit.AccessLog
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &logs))
	assert.Len(t, logs, 1)
	assert.Equal(t, "eval-1", logs[0].EvaluationID)
}

func TestQueryDecisions_BadTimestamp(t *testing.T) {
	accessService := new(mock.MockAccessService)
	router := setupRouter(accessService)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/access/decisions?from=yesterday", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	accessService.AssertNotCalled(t, "QueryDecisions")
}

func TestEffectivePermissions_Success(t *testing.T) {
	accessService := new(mock.MockAccessService)
	router := setupRouter(accessService)

	accessService.On("EffectivePermissions", testify_mock.Anything, "teacher-1").
		Return([]string{"class:5:edit", "student:10:view"}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/access/subjects/teacher-1/permissions", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		SubjectID   string   `json:"subject_id"`
		Permissions []string `json:"permissions"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "teacher-1", response.SubjectID)
	assert.Equal(t, []string{"class:5:edit", "student:10:view"}, response.Permissions)
}

func TestEffectivePermissions_SubjectNotFound(t *testing.T) {
	accessService := new(mock.MockAccessService)
	router := setupRouter(accessService)

	accessService.On("EffectivePermissions", testify_mock.Anything, "ghost").
		Return(nil, sg_errors.ErrSubjectNotFound)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/access/subjects/ghost/permissions", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
