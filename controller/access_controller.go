// controller/access_controller.go
package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	sg_errors "github.com/aria7-op/schoolguard/errors"
	pdp_model "github.com/aria7-op/schoolguard/pdp/model"
	"github.com/aria7-op/schoolguard/service"
	"github.com/aria7-op/schoolguard/util"
)

// defaultDecisionWindow bounds decision queries when the caller gives no
// time frame.
const defaultDecisionWindow = 24 * time.Hour

type AccessController struct {
	accessService service.IAccessService
}

func NewAccessController(accessService service.IAccessService) *AccessController {
	return &AccessController{
		accessService: accessService,
	}
}

// RegisterRoutes registers the API routes
func (ac *AccessController) RegisterRoutes(r *gin.RouterGroup) {
	access := r.Group("/access")
	{
		access.POST("/evaluate", ac.EvaluateAccess)
		access.GET("/decisions", ac.QueryDecisions)
		access.GET("/subjects/:id/permissions", ac.EffectivePermissions)
	}
}

// EvaluateAccess endpoint
func (ac *AccessController) EvaluateAccess(c *gin.Context) {
	var request pdp_model.AccessRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid access request", sg_errors.ErrInvalidAccessRequest)
		return
	}

	decision, err := ac.accessService.EvaluateAccess(c, request)
	if err != nil {
		switch {
		case errors.Is(err, sg_errors.ErrMissingResourceType):
			util.RespondWithError(c, http.StatusBadRequest, "Resource type is required", err)
		case errors.Is(err, sg_errors.ErrMissingAction):
			util.RespondWithError(c, http.StatusBadRequest, "Action is required", err)
		case errors.Is(err, sg_errors.ErrInvalidAccessRequest):
			util.RespondWithError(c, http.StatusBadRequest, "Invalid access request", err)
		default:
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to evaluate access", sg_errors.ErrInternalServer)
		}
		return
	}

	c.JSON(http.StatusOK, decision)
}

// QueryDecisions endpoint
func (ac *AccessController) QueryDecisions(c *gin.Context) {
	now := time.Now()
	from, err := parseTimeParam(c, "from", now.Add(-defaultDecisionWindow))
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid 'from' timestamp", err)
		return
	}
	to, err := parseTimeParam(c, "to", now)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid 'to' timestamp", err)
		return
	}

	subjectID := c.Query("subject_id")
	resourceID := c.Query("resource_id")

	logs, err := ac.accessService.QueryDecisions(c, from, to, subjectID, resourceID)
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to query decisions", err)
		return
	}

	c.JSON(http.StatusOK, logs)
}

// EffectivePermissions endpoint
func (ac *AccessController) EffectivePermissions(c *gin.Context) {
	subjectID := c.Param("id")

	permissions, err := ac.accessService.EffectivePermissions(c, subjectID)
	if err != nil {
		if errors.Is(err, sg_errors.ErrSubjectNotFound) {
			util.RespondWithError(c, http.StatusNotFound, "Subject not found", err)
		} else {
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to resolve permissions", err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"subject_id":  subjectID,
		"permissions": permissions,
	})
}

func parseTimeParam(c *gin.Context, name string, fallback time.Time) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	return time.Parse(time.RFC3339, raw)
}
