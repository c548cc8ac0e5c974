package actions

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"launchkit/internal/apperr"
	"launchkit/internal/audit"
	"launchkit/internal/authprovider"
	"launchkit/internal/models"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB, PreferSimpleProtocol: true}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func newOrgActions(db *gorm.DB, sd *authprovider.SessionData, member *models.Member, mailer *recordingMailer) *Actions {
	return New(Deps{
		DB:        db,
		Guard:     guardFor(sd, member),
		Audit:     newWriter(audit.NewGormRepository(db)),
		Mailer:    mailer,
		PublicURL: "https://app.example.com",
	})
}

func ownerOf(orgID string) *models.Member {
	return &models.Member{Base: models.Base{ID: "m-owner"}, OrganizationID: orgID, UserID: "u1", Role: models.OrgRoleOwner}
}

func TestCreateOrganizationCommitsWithAudit(t *testing.T) {
	db, mock := newMockDB(t)
	a := newOrgActions(db, sessionFor("u1", models.SystemRoleUser), nil, nil)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "organizations" WHERE slug = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "organizations"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "members"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "audit_logs"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	org, err := a.CreateOrganization(context.Background(), request(), CreateOrganizationInput{Name: "Acme", Slug: "acme"})
	require.NoError(t, err)
	assert.NotEmpty(t, org.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrganizationRollsBackWhenAuditFails(t *testing.T) {
	db, mock := newMockDB(t)
	a := newOrgActions(db, sessionFor("u1", models.SystemRoleUser), nil, nil)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "organizations" WHERE slug = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "organizations"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "members"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "audit_logs"`)).WillReturnError(errors.New("audit table locked"))
	mock.ExpectRollback()
	// The failure entry is written after the rollback.
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "audit_logs"`)).WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := a.CreateOrganization(context.Background(), request(), CreateOrganizationInput{Name: "Acme", Slug: "acme"})
	assert.True(t, apperr.IsKind(err, apperr.KindInternal))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrganizationRejectsTakenSlug(t *testing.T) {
	db, mock := newMockDB(t)
	a := newOrgActions(db, sessionFor("u1", models.SystemRoleUser), nil, nil)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "organizations" WHERE slug = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "slug"}).AddRow("org-1", "acme"))

	_, err := a.CreateOrganization(context.Background(), request(), CreateOrganizationInput{Name: "Acme", Slug: "acme"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrganizationValidatesSlug(t *testing.T) {
	db, mock := newMockDB(t)
	a := newOrgActions(db, sessionFor("u1", models.SystemRoleUser), nil, nil)

	_, err := a.CreateOrganization(context.Background(), request(), CreateOrganizationInput{Name: "Acme", Slug: "Acme Inc"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrganizationActionsCheckPermissions(t *testing.T) {
	db, mock := newMockDB(t)
	member := &models.Member{OrganizationID: "org-1", UserID: "u1", Role: models.OrgRoleMember}
	a := newOrgActions(db, sessionFor("u1", models.SystemRoleUser), member, &recordingMailer{})
	ctx := context.Background()

	_, err := a.UpdateOrganization(ctx, request(), UpdateOrganizationInput{OrganizationID: "org-1", Name: "New"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	assert.ErrorIs(t, a.DeleteOrganization(ctx, request(), "org-1"), apperr.ErrForbidden)

	_, err = a.InviteMember(ctx, request(), InviteMemberInput{OrganizationID: "org-1", Email: "x@y.com", Role: models.OrgRoleMember})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	assert.ErrorIs(t, a.RemoveMember(ctx, request(), RemoveMemberInput{OrganizationID: "org-1", MemberID: "m2"}), apperr.ErrForbidden)

	_, err = a.UpdateMemberRole(ctx, request(), UpdateMemberRoleInput{OrganizationID: "org-1", MemberID: "m2", Role: models.OrgRoleAdmin})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInviteMemberQueuesEmail(t *testing.T) {
	db, mock := newMockDB(t)
	mailer := &recordingMailer{}
	admin := &models.Member{OrganizationID: "org-1", UserID: "u1", Role: models.OrgRoleAdmin}
	a := newOrgActions(db, sessionFor("u1", models.SystemRoleUser), admin, mailer)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "organizations" WHERE id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "slug", "created_at", "updated_at"}).
			AddRow("org-1", "Acme", "acme", now, now))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "invitations"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "audit_logs"`)).WillReturnResult(sqlmock.NewResult(0, 1))

	inv, err := a.InviteMember(context.Background(), request(), InviteMemberInput{OrganizationID: "org-1", Email: " New@Example.com ", Role: models.OrgRoleMember})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", inv.Email)
	assert.Equal(t, models.InvitationStatusPending, inv.Status)
	assert.Equal(t, []string{"new@example.com"}, mailer.sent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInviteMemberRejectsOwnerRole(t *testing.T) {
	db, _ := newMockDB(t)
	a := newOrgActions(db, sessionFor("u1", models.SystemRoleAdmin), nil, &recordingMailer{})

	_, err := a.InviteMember(context.Background(), request(), InviteMemberInput{OrganizationID: "org-1", Email: "x@y.com", Role: models.OrgRoleOwner})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestLastOwnerKeepsOwnerRole(t *testing.T) {
	db, mock := newMockDB(t)
	a := newOrgActions(db, sessionFor("u1", models.SystemRoleUser), ownerOf("org-1"), nil)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "members" WHERE id = $1 AND organization_id = $2`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "user_id", "role"}).
			AddRow("m-owner", "org-1", "u1", "owner"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "members"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, err := a.UpdateMemberRole(context.Background(), request(), UpdateMemberRoleInput{OrganizationID: "org-1", MemberID: "m-owner", Role: models.OrgRoleAdmin})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMemberRoleIsAudited(t *testing.T) {
	db, mock := newMockDB(t)
	a := newOrgActions(db, sessionFor("u1", models.SystemRoleUser), ownerOf("org-1"), nil)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "members" WHERE id = $1 AND organization_id = $2`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "user_id", "role"}).
			AddRow("m2", "org-1", "u2", "member"))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "members" SET "role"=$1`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "audit_logs"`)).WillReturnResult(sqlmock.NewResult(0, 1))

	m, err := a.UpdateMemberRole(context.Background(), request(), UpdateMemberRoleInput{OrganizationID: "org-1", MemberID: "m2", Role: models.OrgRoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, models.OrgRoleAdmin, m.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}
