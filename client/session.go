package client

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/taskdesk/taskdesk/internal/models"
)

// Session is the immutable snapshot handed to subscribers and the gate.
// Loading is true only until the initial LoadSession resolves.
type Session struct {
	Loading bool
	Profile *models.Profile
}

func (s Session) Authenticated() bool { return s.Profile != nil }

// TokenStore persists the bearer token between runs. A nil store means
// sessions do not survive a restart.
type TokenStore interface {
	Load() string
	Save(token string)
	Clear()
}

// Store owns the current session and notifies subscribers on every
// identity change.
type Store struct {
	api    *API
	tokens TokenStore
	logger *zap.Logger

	mu      sync.Mutex
	session Session
	subs    map[int]func(Session)
	nextSub int
}

func NewStore(api *API, tokens TokenStore, logger *zap.Logger) *Store {
	return &Store{
		api:     api,
		tokens:  tokens,
		logger:  logger,
		session: Session{Loading: true},
		subs:    make(map[int]func(Session)),
	}
}

// Current returns the latest session snapshot.
func (s *Store) Current() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Subscribe registers fn for session changes and returns an
// unsubscribe function. fn is invoked immediately with the current
// session so subscribers never start from a blank state.
func (s *Store) Subscribe(fn func(Session)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	current := s.session
	s.mu.Unlock()

	fn(current)
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) set(session Session) {
	s.mu.Lock()
	s.session = session
	subs := make([]func(Session), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(session)
	}
}

// LoadSession restores the persisted token and fetches the profile
// behind it. It never returns an error: a missing or rejected token
// simply resolves to a signed-out session, and the loading flag is
// cleared either way.
func (s *Store) LoadSession(ctx context.Context) {
	token := ""
	if s.tokens != nil {
		token = s.tokens.Load()
	}
	if token == "" {
		s.set(Session{})
		return
	}

	s.api.SetToken(token)
	profile, err := s.api.Session(ctx)
	if err != nil {
		s.logger.Info("stored session rejected", zap.Error(err))
		s.api.SetToken("")
		if s.tokens != nil {
			s.tokens.Clear()
		}
		s.set(Session{})
		return
	}
	s.set(Session{Profile: profile})
}

func (s *Store) SignIn(ctx context.Context, email, password string) error {
	token, profile, err := s.api.Login(ctx, email, password)
	if err != nil {
		return err
	}
	s.api.SetToken(token)
	if s.tokens != nil {
		s.tokens.Save(token)
	}
	s.set(Session{Profile: profile})
	return nil
}

// SignUp creates the account. It does not authenticate: the caller
// signs in afterwards.
func (s *Store) SignUp(ctx context.Context, email, password, fullName string) (*models.Profile, error) {
	return s.api.Signup(ctx, email, password, fullName)
}

func (s *Store) SignOut() {
	s.api.SetToken("")
	if s.tokens != nil {
		s.tokens.Clear()
	}
	s.set(Session{})
}

func (s *Store) UpdateProfile(ctx context.Context, fullName string) error {
	profile, err := s.api.UpdateProfile(ctx, fullName)
	if err != nil {
		return err
	}
	s.set(Session{Profile: profile})
	return nil
}
