package authprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"launchkit/internal/apperr"
	"launchkit/internal/models"
)

// RemoteAdmin calls the admin endpoints of a running server with a bearer token.
type RemoteAdmin struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewRemoteAdmin(baseURL, token string) *RemoteAdmin {
	return &RemoteAdmin{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func doJSON[T any](ctx context.Context, r *RemoteAdmin, method, path string, body any) APIEnvelope[T] {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return transportFailure[T](err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reader)
	if err != nil {
		return transportFailure[T](err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return transportFailure[T](err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return transportFailure[T](err)
	}

	env := APIEnvelope[T]{Status: resp.StatusCode}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var data T
		if err := json.Unmarshal(raw, &data); err != nil {
			return transportFailure[T](err)
		}
		env.Data = &data
		return env
	}

	var errBody struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(raw, &errBody)
	env.Code = errBody.Code
	env.Message = errBody.Message
	if env.Message == "" {
		env.Message = http.StatusText(resp.StatusCode)
	}
	return env
}

func transportFailure[T any](err error) APIEnvelope[T] {
	return APIEnvelope[T]{Status: http.StatusBadGateway, Code: apperr.CodeInternal, Message: err.Error()}
}

func (r *RemoteAdmin) CreateUser(ctx context.Context, req CreateUserRequest) Response[models.User] {
	return doJSON[models.User](ctx, r, http.MethodPost, "/api/admin/users", req)
}

func (r *RemoteAdmin) BanUser(ctx context.Context, req BanUserRequest) Response[models.User] {
	body := map[string]any{"reason": req.Reason}
	if req.ExpiresIn > 0 {
		body["expiresIn"] = int64(req.ExpiresIn / time.Second)
	}
	return doJSON[models.User](ctx, r, http.MethodPost, "/api/admin/users/"+url.PathEscape(req.UserID)+"/ban", body)
}

func (r *RemoteAdmin) UnbanUser(ctx context.Context, userID string) Response[models.User] {
	return doJSON[models.User](ctx, r, http.MethodPost, "/api/admin/users/"+url.PathEscape(userID)+"/unban", nil)
}

func (r *RemoteAdmin) SetRole(ctx context.Context, userID string, role models.SystemRole) Response[models.User] {
	return doJSON[models.User](ctx, r, http.MethodPost, "/api/admin/users/"+url.PathEscape(userID)+"/role", map[string]string{"role": string(role)})
}

func (r *RemoteAdmin) ListUsers(ctx context.Context, q ListUsersQuery) Response[UserList] {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Role != "" {
		v.Set("role", string(q.Role))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	path := "/api/admin/users"
	if len(v) > 0 {
		path += "?" + v.Encode()
	}
	return doJSON[UserList](ctx, r, http.MethodGet, path, nil)
}
