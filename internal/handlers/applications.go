package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clivefinesse/jobtracker/internal/models"
	"github.com/clivefinesse/jobtracker/internal/services"
	appErrors "github.com/clivefinesse/jobtracker/pkg/errors"
	"github.com/clivefinesse/jobtracker/pkg/response"
)

const dateLayout = "2006-01-02"

// ApplicationHandler exposes the job-application CRUD endpoints.
type ApplicationHandler struct {
	applications *services.ApplicationService
}

// NewApplicationHandler configures a job-application handler.
func NewApplicationHandler(applications *services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{applications: applications}
}

// applicationRequest is shared between create and update; absent fields stay
// untouched on update.
type applicationRequest struct {
	JobPost             *string `json:"job_post" validate:"omitempty,max=255"`
	JobDescription      *string `json:"job_description"`
	Applied             *bool   `json:"applied"`
	DateApplied         *string `json:"date_applied"`
	ReceivedFeedback    *bool   `json:"received_feedback"`
	FeedbackDescription *string `json:"feedback_description"`
	SecuredJob          *bool   `json:"secured_job"`
}

// GET /api/job-applications
func (h *ApplicationHandler) List(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	page := parseIntQuery(c, "page", 1)
	pageSize := parseIntQuery(c, "page_size", 10)

	apps, total, err := h.applications.List(requestContext(c), caller, services.ListApplicationsOptions{
		Page:     page,
		PageSize: pageSize,
		Ordering: c.Query("ordering"),
		Filters: services.ApplicationFilters{
			Applied:          parseBoolQuery(c, "applied"),
			ReceivedFeedback: parseBoolQuery(c, "received_feedback"),
			SecuredJob:       parseBoolQuery(c, "secured_job"),
			Search:           c.Query("search"),
		},
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	results := make([]gin.H, 0, len(apps))
	for i := range apps {
		results = append(results, applicationPayload(&apps[i]))
	}

	next, previous := pageLinks(c, page, pageSize, total)
	response.Paginated(c, total, next, previous, results)
}

// POST /api/job-applications
func (h *ApplicationHandler) Create(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	input, ok := h.bindApplication(c)
	if !ok {
		return
	}

	app, err := h.applications.Create(requestContext(c), caller, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusCreated, "Job application created successfully", applicationPayload(app))
}

// GET /api/job-applications/:id
func (h *ApplicationHandler) Get(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	app, err := h.applications.Get(requestContext(c), caller, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, "Job application retrieved successfully", applicationPayload(app))
}

// PUT /api/job-applications/:id
func (h *ApplicationHandler) Update(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	input, ok := h.bindApplication(c)
	if !ok {
		return
	}

	app, err := h.applications.Update(requestContext(c), caller, c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, "Job application updated successfully", applicationPayload(app))
}

// DELETE /api/job-applications/:id
func (h *ApplicationHandler) Delete(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.applications.Delete(requestContext(c), caller, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, "Job application deleted successfully", nil)
}

// POST /api/job-applications/:id/mark_as_secured
func (h *ApplicationHandler) MarkAsSecured(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	app, err := h.applications.MarkSecured(requestContext(c), caller, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, "Job application marked as secured", applicationPayload(app))
}

func (h *ApplicationHandler) bindApplication(c *gin.Context) (services.ApplicationInput, bool) {
	var req applicationRequest
	if !bindAndValidate(c, &req) {
		return services.ApplicationInput{}, false
	}

	input := services.ApplicationInput{
		JobPost:             req.JobPost,
		JobDescription:      req.JobDescription,
		Applied:             req.Applied,
		ReceivedFeedback:    req.ReceivedFeedback,
		FeedbackDescription: req.FeedbackDescription,
		SecuredJob:          req.SecuredJob,
	}

	if req.DateApplied != nil && *req.DateApplied != "" {
		parsed, err := time.Parse(dateLayout, *req.DateApplied)
		if err != nil {
			response.Error(c, appErrors.NewValidation("Validation failed", map[string]string{
				"date_applied": "Date has wrong format. Use one of these formats instead: YYYY-MM-DD.",
			}))
			return services.ApplicationInput{}, false
		}
		input.DateApplied = &parsed
	}

	return input, true
}

func applicationPayload(app *models.JobApplication) gin.H {
	var dateApplied *string
	if app.DateApplied != nil {
		formatted := time.Time(*app.DateApplied).Format(dateLayout)
		dateApplied = &formatted
	}

	return gin.H{
		"id":                   app.ID,
		"job_post":             app.JobPost,
		"job_description":      app.JobDescription,
		"applied":              app.Applied,
		"date_applied":         dateApplied,
		"received_feedback":    app.ReceivedFeedback,
		"feedback_description": app.FeedbackDescription,
		"secured_job":          app.SecuredJob,
		"created_at":           app.CreatedAt,
		"updated_at":           app.UpdatedAt,
	}
}

// pageLinks builds next/previous URLs from the current request by rewriting
// the page query parameter.
func pageLinks(c *gin.Context, page, pageSize int, total int64) (next, previous *string) {
	if int64(page*pageSize) < total {
		next = pageLink(c, page+1)
	}
	if page > 1 {
		previous = pageLink(c, page-1)
	}
	return next, previous
}

func pageLink(c *gin.Context, target int) *string {
	u := *c.Request.URL
	q := u.Query()
	q.Set("page", strconv.Itoa(target))
	u.RawQuery = q.Encode()
	link := u.String()
	return &link
}
