package bot

import (
	"github.com/maxaizer/tutor-bot/internal/domain/models"
	"sync"
)

type step string

const (
	stepRole              step = "role"
	stepAction            step = "action"
	stepSubject           step = "subject"
	stepClass             step = "class"
	stepNickname          step = "nickname"
	stepPhone             step = "phone"
	stepFinalized         step = "finalized"
	stepMaterialsListed   step = "materials_listed"
	stepMaterialDelivered step = "material_delivered"
	stepTerminal          step = "terminal"
)

// userSession is the registration progress of one user. It lives in memory only.
type userSession struct {
	id        string
	chatID    int64
	role      models.Role
	action    models.Action
	subject   models.Subject
	class     string
	nickname  string
	phone     string
	step      step
	finalized bool
}

func newUserSession(id string, sender Sender) *userSession {
	return &userSession{id: id, chatID: sender.ChatID, nickname: sender.Username, step: stepRole}
}

// sessionStore holds sessions by user id. Each user also gets a mutex, so events
// of one user are handled one at a time while different users proceed in parallel.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[int64]*userSession
	locks    map[int64]*sync.Mutex
}

func newSessionStore() *sessionStore {
	return &sessionStore{
		sessions: make(map[int64]*userSession),
		locks:    make(map[int64]*sync.Mutex),
	}
}

// lock acquires the user's mutex and returns the function releasing it.
func (s *sessionStore) lock(userID int64) func() {
	s.mu.Lock()
	userLock, ok := s.locks[userID]
	if !ok {
		userLock = &sync.Mutex{}
		s.locks[userID] = userLock
	}
	s.mu.Unlock()

	userLock.Lock()
	return userLock.Unlock
}

func (s *sessionStore) get(userID int64) *userSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[userID]
}

func (s *sessionStore) set(userID int64, session *userSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = session
}

func (s *sessionStore) delete(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}
