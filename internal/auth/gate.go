package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"storefront/web/internal/client"
	"storefront/web/internal/domain"
	"storefront/web/internal/metrics"

	log "github.com/sirupsen/logrus"
)

// SessionChecker resolves the current session.
type SessionChecker interface {
	CheckSession(ctx context.Context) (*domain.User, error)
}

// Gate performs one session check and holds the outcome. It starts Pending
// and moves to Authenticated or Anonymous exactly once; there is no refresh.
type Gate struct {
	checker SessionChecker
	timeout time.Duration

	once     sync.Once
	doneOnce sync.Once
	done     chan struct{}

	mu    sync.RWMutex
	state domain.AuthState
}

// NewGate returns a Pending gate. A positive timeout bounds the session
// check; running out of time counts as a failed check.
func NewGate(checker SessionChecker, timeout time.Duration) *Gate {
	return &Gate{
		checker: checker,
		timeout: timeout,
		done:    make(chan struct{}),
		state:   domain.Pending(),
	}
}

// Start runs the session check. Only the first call does anything; later
// calls return immediately. If ctx is cancelled before the check completes
// the state stays Pending.
func (g *Gate) Start(ctx context.Context) {
	g.once.Do(func() {
		g.check(ctx)
	})
}

func (g *Gate) check(ctx context.Context) {
	checkCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		checkCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	user, err := g.checker.CheckSession(checkCtx)
	if ctx.Err() != nil {
		log.Debugf("Session check abandoned: %v", ctx.Err())
		return
	}

	switch {
	case err == nil:
		log.Infof("🔐 Session resolved for user %s", user.ID)
		g.resolve(domain.Authenticated(*user))
	case errors.Is(err, client.ErrUnauthorized):
		log.Info("🔐 No active session")
		g.resolve(domain.Anonymous())
	default:
		log.Errorf("❌ Session check failed, continuing anonymous: %v", err)
		g.resolve(domain.Anonymous())
	}
}

// resolve records the check outcome unless an explicit sign in or out got
// there first.
func (g *Gate) resolve(state domain.AuthState) {
	g.mu.Lock()
	if g.state.Status() != domain.AuthPending {
		g.mu.Unlock()
		return
	}
	g.state = state
	g.mu.Unlock()

	metrics.AuthOutcomes.WithLabelValues(state.String()).Inc()
	g.doneOnce.Do(func() { close(g.done) })
}

func (g *Gate) set(state domain.AuthState) {
	g.mu.Lock()
	g.state = state
	g.mu.Unlock()

	metrics.AuthOutcomes.WithLabelValues(state.String()).Inc()
	g.doneOnce.Do(func() { close(g.done) })
}

func (g *Gate) State() domain.AuthState {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// Done is closed once the session check has resolved.
func (g *Gate) Done() <-chan struct{} {
	return g.done
}

// SignIn records a user who logged in explicitly.
func (g *Gate) SignIn(user domain.User) {
	g.set(domain.Authenticated(user))
}

// SignOut records an explicit logout.
func (g *Gate) SignOut() {
	g.set(domain.Anonymous())
}
