package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/clivefinesse/jobtracker/internal/models"
	apperrors "github.com/clivefinesse/jobtracker/pkg/errors"
)

// ErrApplicationNotFound covers both unknown ids and records owned by someone
// else, so existence is never revealed across users.
var ErrApplicationNotFound = apperrors.New("APPLICATION_NOT_FOUND", "Job application not found", http.StatusNotFound)

const maxJobPostLength = 255

// Caller identifies the authenticated principal a request acts on behalf of.
// Staff callers see every record; everyone else only their own.
type Caller struct {
	UserID  string
	IsStaff bool
}

// ApplicationInput carries create/update fields. Nil pointers mean "leave
// unchanged" on update and "use the default" on create.
type ApplicationInput struct {
	JobPost             *string
	JobDescription      *string
	Applied             *bool
	DateApplied         *time.Time
	ReceivedFeedback    *bool
	FeedbackDescription *string
	SecuredJob          *bool
}

// ApplicationFilters captures exact-match and search filters for listing.
type ApplicationFilters struct {
	Applied          *bool
	ReceivedFeedback *bool
	SecuredJob       *bool
	Search           string
}

// ListApplicationsOptions controls filtering, ordering and pagination.
type ListApplicationsOptions struct {
	Page     int
	PageSize int
	Ordering string
	Filters  ApplicationFilters
}

// Columns the list endpoint may order by.
var applicationOrderColumns = map[string]string{
	"date_applied": "date_applied",
	"created_at":   "created_at",
	"updated_at":   "updated_at",
}

// ApplicationService owns the per-user collection of job-application records.
type ApplicationService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewApplicationService constructs an ApplicationService.
func NewApplicationService(db *gorm.DB, clock func() time.Time) (*ApplicationService, error) {
	if db == nil {
		return nil, errors.New("application service: db is required")
	}
	if clock == nil {
		clock = time.Now
	}
	return &ApplicationService{db: db, now: clock}, nil
}

// Create validates the payload, forces ownership to the caller, applies the
// date_applied auto-fill, and persists the record.
func (s *ApplicationService) Create(ctx context.Context, caller Caller, input ApplicationInput) (*models.JobApplication, error) {
	app := &models.JobApplication{UserID: caller.UserID}
	applyInput(app, input)

	if fields := validateApplication(app); len(fields) > 0 {
		return nil, apperrors.NewValidation("Validation failed", fields)
	}

	s.autofillDateApplied(app)

	if err := s.db.WithContext(ctx).Create(app).Error; err != nil {
		return nil, fmt.Errorf("application service: create: %w", err)
	}

	return app, nil
}

// Get loads a record visible to the caller.
func (s *ApplicationService) Get(ctx context.Context, caller Caller, id string) (*models.JobApplication, error) {
	var app models.JobApplication
	err := s.scoped(ctx, caller).First(&app, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrApplicationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("application service: load: %w", err)
	}
	return &app, nil
}

// List returns the caller's records with filters, search, ordering and
// pagination applied, plus the unpaginated total.
func (s *ApplicationService) List(ctx context.Context, caller Caller, opts ListApplicationsOptions) ([]models.JobApplication, int64, error) {
	page := opts.Page
	if page <= 0 {
		page = 1
	}
	perPage := opts.PageSize
	if perPage <= 0 || perPage > 100 {
		perPage = 10
	}

	query := s.scoped(ctx, caller).Model(&models.JobApplication{})

	if opts.Filters.Applied != nil {
		query = query.Where("applied = ?", *opts.Filters.Applied)
	}
	if opts.Filters.ReceivedFeedback != nil {
		query = query.Where("received_feedback = ?", *opts.Filters.ReceivedFeedback)
	}
	if opts.Filters.SecuredJob != nil {
		query = query.Where("secured_job = ?", *opts.Filters.SecuredJob)
	}
	if search := strings.TrimSpace(opts.Filters.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(job_post) LIKE ? OR LOWER(job_description) LIKE ? OR LOWER(feedback_description) LIKE ?",
			pattern, pattern, pattern,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("application service: count: %w", err)
	}

	var apps []models.JobApplication
	if err := query.
		Order(orderClause(opts.Ordering)).
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&apps).Error; err != nil {
		return nil, 0, fmt.Errorf("application service: list: %w", err)
	}

	return apps, total, nil
}

// Update applies a full or partial update to an owned record. Ownership is
// immutable and validation runs before anything is written.
func (s *ApplicationService) Update(ctx context.Context, caller Caller, id string, input ApplicationInput) (*models.JobApplication, error) {
	app, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	applyInput(app, input)

	if fields := validateApplication(app); len(fields) > 0 {
		return nil, apperrors.NewValidation("Validation failed", fields)
	}

	s.autofillDateApplied(app)

	if err := s.db.WithContext(ctx).Save(app).Error; err != nil {
		return nil, fmt.Errorf("application service: update: %w", err)
	}

	return app, nil
}

// Delete removes an owned record. Deleting an unknown or foreign id reports
// not-found.
func (s *ApplicationService) Delete(ctx context.Context, caller Caller, id string) error {
	result := s.scoped(ctx, caller).Where("id = ?", id).Delete(&models.JobApplication{})
	if result.Error != nil {
		return fmt.Errorf("application service: delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrApplicationNotFound
	}
	return nil
}

// MarkSecured flips secured_job on an owned record without touching any other
// field.
func (s *ApplicationService) MarkSecured(ctx context.Context, caller Caller, id string) (*models.JobApplication, error) {
	app, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(app).Update("secured_job", true).Error; err != nil {
		return nil, fmt.Errorf("application service: mark secured: %w", err)
	}
	app.SecuredJob = true

	return app, nil
}

// scoped restricts queries to the caller's own records unless the caller is
// staff.
func (s *ApplicationService) scoped(ctx context.Context, caller Caller) *gorm.DB {
	query := s.db.WithContext(ctx)
	if caller.IsStaff {
		return query
	}
	return query.Where("user_id = ?", caller.UserID)
}

// autofillDateApplied sets date_applied to the current date when applied is
// true and no date is present. Once set it is never overwritten here.
func (s *ApplicationService) autofillDateApplied(app *models.JobApplication) {
	if !app.Applied || app.DateApplied != nil {
		return
	}

	now := s.now()
	today := datatypes.Date(time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()))
	app.DateApplied = &today
}

func applyInput(app *models.JobApplication, input ApplicationInput) {
	if input.JobPost != nil {
		app.JobPost = strings.TrimSpace(*input.JobPost)
	}
	if input.JobDescription != nil {
		app.JobDescription = *input.JobDescription
	}
	if input.Applied != nil {
		app.Applied = *input.Applied
	}
	if input.DateApplied != nil {
		d := *input.DateApplied
		date := datatypes.Date(time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location()))
		app.DateApplied = &date
	}
	if input.ReceivedFeedback != nil {
		app.ReceivedFeedback = *input.ReceivedFeedback
	}
	if input.FeedbackDescription != nil {
		app.FeedbackDescription = *input.FeedbackDescription
	}
	if input.SecuredJob != nil {
		app.SecuredJob = *input.SecuredJob
	}
}

func validateApplication(app *models.JobApplication) map[string]string {
	fields := map[string]string{}

	if app.JobPost == "" {
		fields["job_post"] = "This field is required."
	} else if len(app.JobPost) > maxJobPostLength {
		fields["job_post"] = fmt.Sprintf("Ensure this field has no more than %d characters.", maxJobPostLength)
	}

	return fields
}

func orderClause(ordering string) string {
	ordering = strings.TrimSpace(ordering)
	desc := strings.HasPrefix(ordering, "-")
	column, ok := applicationOrderColumns[strings.TrimPrefix(ordering, "-")]
	if !ok {
		// Unknown ordering parameters fall back to the default order.
		return "date_applied DESC"
	}
	if desc {
		return column + " DESC"
	}
	return column + " ASC"
}
