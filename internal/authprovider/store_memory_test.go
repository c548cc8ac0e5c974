package authprovider

import (
	"context"
	"strconv"
	"sync"

	"launchkit/internal/models"
)

type memStore struct {
	mu            sync.Mutex
	seq           int
	users         map[string]*models.User
	sessions      map[string]*models.Session
	verifications map[string]*models.Verification
}

func newMemStore() *memStore {
	return &memStore{
		users:         map[string]*models.User{},
		sessions:      map[string]*models.Session{},
		verifications: map[string]*models.Verification{},
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return prefix + "-" + strconv.Itoa(s.seq)
}

func (s *memStore) FindUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (s *memStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == "" {
		user.ID = s.nextID("user")
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *memStore) SaveUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *memStore) ListUsers(_ context.Context, q ListUsersQuery) ([]models.User, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, u := range s.users {
		if q.Role != "" && u.Role != q.Role {
			continue
		}
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

func (s *memStore) CreateSession(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session.ID == "" {
		session.ID = s.nextID("session")
	}
	cp := *session
	s.sessions[session.ID] = &cp
	return nil
}

func (s *memStore) FindSession(_ context.Context, id string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *sess
	if u, ok := s.users[sess.UserID]; ok {
		uc := *u
		cp.User = &uc
	}
	return &cp, nil
}

func (s *memStore) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *memStore) DeleteUserSessions(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if sess.UserID == userID {
			delete(s.sessions, id)
		}
	}
	return nil
}

func (s *memStore) CreateVerification(_ context.Context, v *models.Verification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *v
	s.verifications[v.Value] = &cp
	return nil
}

func (s *memStore) ConsumeVerification(_ context.Context, hash string) (*models.Verification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.verifications[hash]
	if !ok {
		return nil, nil
	}
	delete(s.verifications, hash)
	return v, nil
}
