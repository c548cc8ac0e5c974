package authprovider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchkit/internal/apperr"
	"launchkit/internal/models"
)

func TestNormalizeBothShapesAgree(t *testing.T) {
	user := &models.User{Name: "Ada"}

	cases := []struct {
		name string
		resp Response[models.User]
		kind apperr.Kind
		ok   bool
	}{
		{"provider data", ProviderResponse[models.User]{Data: user}, 0, true},
		{"envelope data", APIEnvelope[models.User]{Status: http.StatusOK, Data: user}, 0, true},
		{"provider forbidden", ProviderResponse[models.User]{Error: &ProviderError{Status: 403, Message: "no"}}, apperr.KindForbidden, false},
		{"envelope forbidden", APIEnvelope[models.User]{Status: 403, Code: "FORBIDDEN", Message: "no"}, apperr.KindForbidden, false},
		{"provider rate limited", ProviderResponse[models.User]{Error: &ProviderError{Status: 429}}, apperr.KindRateLimited, false},
		{"envelope not found", APIEnvelope[models.User]{Status: 404}, apperr.KindNotFound, false},
		{"provider empty", ProviderResponse[models.User]{}, apperr.KindInternal, false},
		{"envelope empty 200", APIEnvelope[models.User]{Status: 200}, apperr.KindInternal, false},
		{"envelope 500", APIEnvelope[models.User]{Status: 500, Message: "db down"}, apperr.KindInternal, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := Normalize(tc.resp).Unwrap()
			if tc.ok {
				require.NoError(t, err)
				assert.Equal(t, "Ada", v.Name)
				return
			}
			require.Error(t, err)
			assert.Nil(t, v)
			assert.True(t, apperr.IsKind(err, tc.kind), err.Error())
		})
	}
}

func TestNormalizeNil(t *testing.T) {
	_, err := Normalize[models.User](nil).Unwrap()
	assert.True(t, apperr.IsKind(err, apperr.KindInternal))
}

func TestRemoteAdmin(t *testing.T) {
	var banBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/admin/users/u1/ban":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&banBody))
			_ = json.NewEncoder(w).Encode(models.User{Base: models.Base{ID: "u1"}, Banned: true})
		case r.Method == http.MethodGet && r.URL.Path == "/api/admin/users":
			assert.Equal(t, "moderator", r.URL.Query().Get("role"))
			_ = json.NewEncoder(w).Encode(UserList{Total: 0, Users: []models.User{}, Limit: 10})
		default:
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(map[string]string{"code": "FORBIDDEN", "message": "insufficient permissions"})
		}
	}))
	defer srv.Close()

	r := NewRemoteAdmin(srv.URL, "tok")
	ctx := context.Background()

	u, err := Normalize(r.BanUser(ctx, BanUserRequest{UserID: "u1", Reason: "spam", ExpiresIn: 2 * time.Hour})).Unwrap()
	require.NoError(t, err)
	assert.True(t, u.Banned)
	assert.Equal(t, "spam", banBody["reason"])
	assert.Equal(t, float64(7200), banBody["expiresIn"])

	list, err := Normalize(r.ListUsers(ctx, ListUsersQuery{Role: models.SystemRoleModerator})).Unwrap()
	require.NoError(t, err)
	assert.Equal(t, 10, list.Limit)

	_, err = Normalize(r.UnbanUser(ctx, "u2")).Unwrap()
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
	assert.Equal(t, "insufficient permissions", apperr.As(err).Message)
}
