package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/DRSN-tech/storefront-catalog/pkg/e"
	"github.com/DRSN-tech/storefront-catalog/pkg/logger"
)

type SessionOpts struct {
	IdleTimeout time.Duration
	MaxSessions int
	Clock       Clock
}

type session struct {
	ctrl     *QueryController
	lastSeen time.Time
}

// SessionRegistry хранит контроллеры выдачи по id сессии и закрывает простаивающие.
type SessionRegistry struct {
	newController func() *QueryController
	logger        logger.Logger
	idle          time.Duration
	max           int
	now           Clock

	mu       sync.Mutex
	sessions map[string]*session
	closed   bool
}

func NewSessionRegistry(newController func() *QueryController, logger logger.Logger, opts SessionOpts) *SessionRegistry {
	const (
		defaultIdle        = 30 * time.Minute
		defaultMaxSessions = 10000
	)

	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = defaultIdle
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = defaultMaxSessions
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &SessionRegistry{
		newController: newController,
		logger:        logger,
		idle:          opts.IdleTimeout,
		max:           opts.MaxSessions,
		now:           opts.Clock,
		sessions:      make(map[string]*session),
	}
}

// Acquire возвращает контроллер сессии, создавая его при первом обращении.
func (r *SessionRegistry) Acquire(id string) (*QueryController, error) {
	const op = "SessionRegistry.Acquire"

	if id == "" {
		return nil, e.Wrap(op, e.ErrSessionRequired)
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, e.Wrap(op, e.ErrInternalServerError)
	}
	if s, ok := r.sessions[id]; ok {
		s.lastSeen = r.now()
		r.mu.Unlock()
		return s.ctrl, nil
	}
	full := len(r.sessions) >= r.max
	r.mu.Unlock()

	if full {
		// места нет: сначала пробуем освободить простаивающие
		r.Sweep()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		s.lastSeen = r.now()
		return s.ctrl, nil
	}
	if len(r.sessions) >= r.max {
		return nil, e.Wrap(op, e.ErrTooManySessions)
	}

	s := &session{ctrl: r.newController(), lastSeen: r.now()}
	r.sessions[id] = s
	return s.ctrl, nil
}

// Sweep закрывает сессии, простаивающие дольше IdleTimeout, и возвращает их кол-во.
func (r *SessionRegistry) Sweep() int {
	now := r.now()

	r.mu.Lock()
	var expired []*QueryController
	for id, s := range r.sessions {
		if now.Sub(s.lastSeen) >= r.idle {
			expired = append(expired, s.ctrl)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, ctrl := range expired {
		ctrl.Close()
	}
	if len(expired) > 0 {
		r.logger.Debugf("closed %d idle catalog sessions", len(expired))
	}

	return len(expired)
}

// Run периодически вызывает Sweep до отмены ctx.
func (r *SessionRegistry) Run(ctx context.Context) {
	interval := r.idle / 4
	if interval < time.Second {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close закрывает все контроллеры; новые сессии после этого не создаются.
func (r *SessionRegistry) Close() {
	r.mu.Lock()
	r.closed = true
	sessions := r.sessions
	r.sessions = make(map[string]*session)
	r.mu.Unlock()

	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.ctrl.Close()
		}()
	}
	wg.Wait()
}
