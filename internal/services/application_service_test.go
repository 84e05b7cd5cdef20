package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/clivefinesse/jobtracker/internal/database/testutil"
	"github.com/clivefinesse/jobtracker/internal/models"
	apperrors "github.com/clivefinesse/jobtracker/pkg/errors"
)

func newApplicationFixture(t *testing.T) (*ApplicationService, *gorm.DB) {
	t.Helper()

	db := testutil.MustOpenTestDB(t)
	svc, err := NewApplicationService(db, func() time.Time {
		return time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	})
	require.NoError(t, err)
	return svc, db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username:      username,
		Email:         username + "@example.com",
		Password:      "$2a$10$hash",
		EmailVerified: true,
		IsActive:      true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func strptr(s string) *string { return &s }
func boolptr(b bool) *bool    { return &b }

func dateString(d *models.JobApplication) string {
	if d.DateApplied == nil {
		return ""
	}
	return time.Time(*d.DateApplied).Format("2006-01-02")
}

func TestCreateApplicationAutofillsDateApplied(t *testing.T) {
	svc, db := newApplicationFixture(t)
	user := seedUser(t, db, "alice")
	caller := Caller{UserID: user.ID}

	app, err := svc.Create(context.Background(), caller, ApplicationInput{
		JobPost: strptr("Backend Engineer"),
		Applied: boolptr(true),
	})
	require.NoError(t, err)
	require.Equal(t, user.ID, app.UserID)
	require.NotNil(t, app.DateApplied)
	require.Equal(t, "2025-03-10", dateString(app))
}

func TestCreateApplicationKeepsExplicitDate(t *testing.T) {
	svc, db := newApplicationFixture(t)
	user := seedUser(t, db, "alice")
	caller := Caller{UserID: user.ID}

	applied := time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC)
	app, err := svc.Create(context.Background(), caller, ApplicationInput{
		JobPost:     strptr("Backend Engineer"),
		Applied:     boolptr(true),
		DateApplied: &applied,
	})
	require.NoError(t, err)
	require.Equal(t, "2025-01-05", dateString(app))
}

func TestCreateApplicationNotAppliedLeavesDateEmpty(t *testing.T) {
	svc, db := newApplicationFixture(t)
	user := seedUser(t, db, "alice")

	app, err := svc.Create(context.Background(), Caller{UserID: user.ID}, ApplicationInput{
		JobPost: strptr("Backend Engineer"),
	})
	require.NoError(t, err)
	require.Nil(t, app.DateApplied)
}

func TestCreateApplicationValidation(t *testing.T) {
	svc, db := newApplicationFixture(t)
	user := seedUser(t, db, "alice")
	caller := Caller{UserID: user.ID}
	ctx := context.Background()

	_, err := svc.Create(ctx, caller, ApplicationInput{})
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, "This field is required.", appErr.Fields["job_post"])

	long := make([]byte, 256)
	for i := range long {
		long[i] = 'x'
	}
	_, err = svc.Create(ctx, caller, ApplicationInput{JobPost: strptr(string(long))})
	require.Error(t, err)
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, "Ensure this field has no more than 255 characters.", appErr.Fields["job_post"])
}

func TestUpdateApplicationDoesNotOverwriteDate(t *testing.T) {
	svc, db := newApplicationFixture(t)
	user := seedUser(t, db, "alice")
	caller := Caller{UserID: user.ID}
	ctx := context.Background()

	applied := time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC)
	app, err := svc.Create(ctx, caller, ApplicationInput{
		JobPost:     strptr("Backend Engineer"),
		Applied:     boolptr(true),
		DateApplied: &applied,
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, caller, app.ID, ApplicationInput{
		JobDescription: strptr("Updated description"),
	})
	require.NoError(t, err)
	require.Equal(t, "2025-01-05", dateString(updated))
	require.Equal(t, "Updated description", updated.JobDescription)
	require.True(t, updated.Applied)
}

func TestUpdateApplicationAutofillsWhenAppliedFlips(t *testing.T) {
	svc, db := newApplicationFixture(t)
	user := seedUser(t, db, "alice")
	caller := Caller{UserID: user.ID}
	ctx := context.Background()

	app, err := svc.Create(ctx, caller, ApplicationInput{JobPost: strptr("Backend Engineer")})
	require.NoError(t, err)
	require.Nil(t, app.DateApplied)

	updated, err := svc.Update(ctx, caller, app.ID, ApplicationInput{Applied: boolptr(true)})
	require.NoError(t, err)
	require.Equal(t, "2025-03-10", dateString(updated))
}

func TestApplicationsAreScopedToOwner(t *testing.T) {
	svc, db := newApplicationFixture(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	ctx := context.Background()

	app, err := svc.Create(ctx, Caller{UserID: alice.ID}, ApplicationInput{JobPost: strptr("Backend Engineer")})
	require.NoError(t, err)

	_, err = svc.Get(ctx, Caller{UserID: bob.ID}, app.ID)
	require.ErrorIs(t, err, ErrApplicationNotFound)

	_, err = svc.Update(ctx, Caller{UserID: bob.ID}, app.ID, ApplicationInput{JobPost: strptr("stolen")})
	require.ErrorIs(t, err, ErrApplicationNotFound)

	err = svc.Delete(ctx, Caller{UserID: bob.ID}, app.ID)
	require.ErrorIs(t, err, ErrApplicationNotFound)

	_, err = svc.MarkSecured(ctx, Caller{UserID: bob.ID}, app.ID)
	require.ErrorIs(t, err, ErrApplicationNotFound)

	apps, total, err := svc.List(ctx, Caller{UserID: bob.ID}, ListApplicationsOptions{})
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, apps)
}

func TestStaffSeesAllApplications(t *testing.T) {
	svc, db := newApplicationFixture(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	ctx := context.Background()

	_, err := svc.Create(ctx, Caller{UserID: alice.ID}, ApplicationInput{JobPost: strptr("Backend Engineer")})
	require.NoError(t, err)
	_, err = svc.Create(ctx, Caller{UserID: bob.ID}, ApplicationInput{JobPost: strptr("SRE")})
	require.NoError(t, err)

	staff := seedUser(t, db, "admin")
	_, total, err := svc.List(ctx, Caller{UserID: staff.ID, IsStaff: true}, ListApplicationsOptions{})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
}

func TestListApplicationsFiltersAndSearch(t *testing.T) {
	svc, db := newApplicationFixture(t)
	user := seedUser(t, db, "alice")
	caller := Caller{UserID: user.ID}
	ctx := context.Background()

	_, err := svc.Create(ctx, caller, ApplicationInput{
		JobPost: strptr("Backend Engineer"),
		Applied: boolptr(true),
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, caller, ApplicationInput{
		JobPost:             strptr("Security Analyst"),
		ReceivedFeedback:    boolptr(true),
		FeedbackDescription: strptr("Great interview, moving forward"),
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, caller, ApplicationInput{
		JobPost:    strptr("SRE"),
		SecuredJob: boolptr(true),
	})
	require.NoError(t, err)

	apps, total, err := svc.List(ctx, caller, ListApplicationsOptions{
		Filters: ApplicationFilters{Applied: boolptr(true)},
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "Backend Engineer", apps[0].JobPost)

	_, total, err = svc.List(ctx, caller, ListApplicationsOptions{
		Filters: ApplicationFilters{ReceivedFeedback: boolptr(true)},
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)

	_, total, err = svc.List(ctx, caller, ListApplicationsOptions{
		Filters: ApplicationFilters{SecuredJob: boolptr(false)},
	})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)

	apps, total, err = svc.List(ctx, caller, ListApplicationsOptions{
		Filters: ApplicationFilters{Search: "INTERVIEW"},
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "Security Analyst", apps[0].JobPost)
}

func TestListApplicationsOrderingAndPagination(t *testing.T) {
	svc, db := newApplicationFixture(t)
	user := seedUser(t, db, "alice")
	caller := Caller{UserID: user.ID}
	ctx := context.Background()

	dates := []time.Time{
		time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
	}
	for i, d := range dates {
		applied := d
		_, err := svc.Create(ctx, caller, ApplicationInput{
			JobPost:     strptr("Role " + string(rune('A'+i))),
			Applied:     boolptr(true),
			DateApplied: &applied,
		})
		require.NoError(t, err)
	}

	// Default ordering is newest application first.
	apps, total, err := svc.List(ctx, caller, ListApplicationsOptions{})
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Equal(t, "2025-03-01", dateString(&apps[0]))
	require.Equal(t, "2025-01-01", dateString(&apps[2]))

	apps, _, err = svc.List(ctx, caller, ListApplicationsOptions{Ordering: "date_applied"})
	require.NoError(t, err)
	require.Equal(t, "2025-01-01", dateString(&apps[0]))

	// Unknown ordering falls back to the default.
	apps, _, err = svc.List(ctx, caller, ListApplicationsOptions{Ordering: "user_id; DROP TABLE"})
	require.NoError(t, err)
	require.Equal(t, "2025-03-01", dateString(&apps[0]))

	apps, total, err = svc.List(ctx, caller, ListApplicationsOptions{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Len(t, apps, 1)
}

func TestDeleteApplication(t *testing.T) {
	svc, db := newApplicationFixture(t)
	user := seedUser(t, db, "alice")
	caller := Caller{UserID: user.ID}
	ctx := context.Background()

	app, err := svc.Create(ctx, caller, ApplicationInput{JobPost: strptr("Backend Engineer")})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, caller, app.ID))
	require.ErrorIs(t, svc.Delete(ctx, caller, app.ID), ErrApplicationNotFound)
}

func TestMarkSecuredOnlyFlipsSecuredJob(t *testing.T) {
	svc, db := newApplicationFixture(t)
	user := seedUser(t, db, "alice")
	caller := Caller{UserID: user.ID}
	ctx := context.Background()

	applied := time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC)
	app, err := svc.Create(ctx, caller, ApplicationInput{
		JobPost:     strptr("Backend Engineer"),
		Applied:     boolptr(true),
		DateApplied: &applied,
	})
	require.NoError(t, err)
	require.False(t, app.SecuredJob)

	secured, err := svc.MarkSecured(ctx, caller, app.ID)
	require.NoError(t, err)
	require.True(t, secured.SecuredJob)

	var stored models.JobApplication
	require.NoError(t, db.First(&stored, "id = ?", app.ID).Error)
	require.True(t, stored.SecuredJob)
	require.Equal(t, "Backend Engineer", stored.JobPost)
	require.Equal(t, "2025-01-05", dateString(&stored))

	// Idempotent.
	secured, err = svc.MarkSecured(ctx, caller, app.ID)
	require.NoError(t, err)
	require.True(t, secured.SecuredJob)
}
