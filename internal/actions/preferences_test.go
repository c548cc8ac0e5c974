package actions

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchkit/internal/apperr"
	"launchkit/internal/models"
)

func expectPreferenceWrite(mock sqlmock.Sqlmock) {
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "preferences" WHERE scope = $1 AND owner_id = $2 AND key = $3`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "preferences"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func TestUpdatePreferencesWritesInOneTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	a := newOrgActions(db, sessionFor("u1", models.SystemRoleUser), nil, nil)

	mock.ExpectBegin()
	expectPreferenceWrite(mock)
	expectPreferenceWrite(mock)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "audit_logs"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := a.UpdatePreferences(context.Background(), request(), models.PreferenceScopeUser, "u1", map[string]string{
		"theme":    "dark",
		"language": "en",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePreferencesRollsBackOnAuditFailure(t *testing.T) {
	db, mock := newMockDB(t)
	a := newOrgActions(db, sessionFor("u1", models.SystemRoleUser), nil, nil)

	mock.ExpectBegin()
	expectPreferenceWrite(mock)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "audit_logs"`)).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := a.UpdatePreferences(context.Background(), request(), models.PreferenceScopeUser, "u1", map[string]string{"theme": "dark"})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePreferencesAuthorization(t *testing.T) {
	db, mock := newMockDB(t)
	ctx := context.Background()
	values := map[string]string{"theme": "dark"}

	a := newOrgActions(db, sessionFor("u1", models.SystemRoleUser), nil, nil)
	err := a.UpdatePreferences(ctx, request(), models.PreferenceScopeUser, "u2", values)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	admin := &models.Member{OrganizationID: "org-1", UserID: "u1", Role: models.OrgRoleAdmin}
	a = newOrgActions(db, sessionFor("u1", models.SystemRoleUser), admin, nil)
	err = a.UpdatePreferences(ctx, request(), models.PreferenceScopeOrganization, "org-1", values)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	err = a.UpdatePreferences(ctx, request(), "team", "org-1", values)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	a = newOrgActions(db, sessionFor("u1", models.SystemRoleUser), nil, nil)
	err = a.UpdatePreferences(ctx, request(), models.PreferenceScopeUser, "u1", nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPreferences(t *testing.T) {
	db, mock := newMockDB(t)
	a := newOrgActions(db, sessionFor("u1", models.SystemRoleUser), nil, nil)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "preferences" WHERE scope = $1 AND owner_id = $2`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "scope", "owner_id", "key", "value"}).
			AddRow("p1", "user", "u1", "theme", "dark"))

	prefs, err := a.GetPreferences(context.Background(), request(), models.PreferenceScopeUser, "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"theme": "dark"}, prefs)
	assert.NoError(t, mock.ExpectationsWereMet())
}
