package memory

import (
	"context"
	"sync"

	domainauth "kavholm/internal/domain/auth"
	domainuser "kavholm/internal/domain/user"
)

type UserRepository struct {
	mu         sync.RWMutex
	byID       map[domainuser.ID]*domainuser.User
	byUsername map[string]*domainuser.User
	byEmail    map[string]*domainuser.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:       make(map[domainuser.ID]*domainuser.User),
		byUsername: make(map[string]*domainuser.User),
		byEmail:    make(map[string]*domainuser.User),
	}
}

func (r *UserRepository) ByID(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	usr, ok := r.byID[id]
	if !ok {
		return nil, domainuser.ErrNotFound
	}
	return usr, nil
}

func (r *UserRepository) ByUsername(ctx context.Context, username string) (*domainuser.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	usr, ok := r.byUsername[username]
	if !ok {
		return nil, domainuser.ErrNotFound
	}
	return usr, nil
}

func (r *UserRepository) ByEmail(ctx context.Context, email string) (*domainuser.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	usr, ok := r.byEmail[email]
	if !ok {
		return nil, domainuser.ErrNotFound
	}
	return usr, nil
}

func (r *UserRepository) Save(ctx context.Context, usr *domainuser.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[usr.ID] = usr
	r.byUsername[usr.Username] = usr
	r.byEmail[usr.Email] = usr
	return nil
}

var _ domainuser.Repository = (*UserRepository)(nil)

type SessionStore struct {
	mu    sync.RWMutex
	items map[domainauth.Token]*domainauth.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{items: make(map[domainauth.Token]*domainauth.Session)}
}

func (s *SessionStore) Save(ctx context.Context, session *domainauth.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[session.Token] = session
	return nil
}

func (s *SessionStore) Get(ctx context.Context, token domainauth.Token) (*domainauth.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.items[token]
	if !ok {
		return nil, domainauth.ErrSessionNotFound
	}
	return session, nil
}

func (s *SessionStore) Delete(ctx context.Context, token domainauth.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, token)
	return nil
}

func (s *SessionStore) DeleteByUser(ctx context.Context, userID domainuser.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, session := range s.items {
		if session.UserID == userID {
			delete(s.items, token)
		}
	}
	return nil
}

var _ domainauth.SessionStore = (*SessionStore)(nil)
