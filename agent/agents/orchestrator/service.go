package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Voice-Booking/agent/contract"
	nodex "github.com/tanpawarit/Chative-Voice-Booking/agent/nodes/orchestrator"
	statex "github.com/tanpawarit/Chative-Voice-Booking/agent/state"
	toolx "github.com/tanpawarit/Chative-Voice-Booking/agent/tool"
	workforcex "github.com/tanpawarit/Chative-Voice-Booking/agent/workforce"
)

var (
	ErrInvalidMessage  = nodex.ErrInvalidMessage
	ErrInvalidSession  = nodex.ErrInvalidSession
	ErrSessionNotFound = contractx.ErrSessionNotFound
	ErrSessionClosed   = contractx.ErrSessionClosed
)

const (
	defaultGreeting = "Hi, thanks for calling! How can I help you today?"
	defaultApology  = "Sorry, I ran into a problem on my side. Could you say that again?"

	defaultClosedRetention = 5 * time.Minute
)

type Config struct {
	Greeting     string
	Apology      string
	MaxToolSteps int
	// ClosedRetention is how long a completed call stays addressable when the
	// gateway never hangs up.
	ClosedRetention time.Duration
}

type Deps struct {
	Store     statex.Store
	Decider   contractx.Decider
	Directory workforcex.Directory
	Sink      contractx.RecordSink
	Metrics   *Metrics
}

type liveSession struct {
	mu      sync.Mutex
	sess    *nodex.Session
	dropped bool

	// guarded by Orchestrator.mu
	closedAt time.Time
}

// Orchestrator is the session controller. It owns one record per call and
// serializes the turns of each call.
type Orchestrator struct {
	store     statex.Store
	decider   contractx.Decider
	directory workforcex.Directory
	sink      contractx.RecordSink
	metrics   *Metrics

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	mu       sync.RWMutex
	sessions map[string]*liveSession

	greeting        string
	apology         string
	maxToolSteps    int
	closedRetention time.Duration

	now   func() time.Time
	newID func() string
}

func New(deps Deps, cfg Config) (*Orchestrator, error) {
	if deps.Store == nil {
		return nil, errors.New("state store is required")
	}
	if deps.Decider == nil {
		return nil, errors.New("decider is required")
	}
	if deps.Directory == nil {
		return nil, errors.New("workforce directory is required")
	}
	if deps.Sink == nil {
		return nil, errors.New("record sink is required")
	}
	if deps.Metrics == nil {
		deps.Metrics = NewMetrics(nil)
	}

	greeting := strings.TrimSpace(cfg.Greeting)
	if greeting == "" {
		greeting = defaultGreeting
	}
	apology := strings.TrimSpace(cfg.Apology)
	if apology == "" {
		apology = defaultApology
	}
	maxToolSteps := cfg.MaxToolSteps
	if maxToolSteps <= 0 {
		maxToolSteps = 10
	}
	closedRetention := cfg.ClosedRetention
	if closedRetention <= 0 {
		closedRetention = defaultClosedRetention
	}

	o := &Orchestrator{
		store:           deps.Store,
		decider:         deps.Decider,
		directory:       deps.Directory,
		sink:            deps.Sink,
		metrics:         deps.Metrics,
		sessions:        make(map[string]*liveSession),
		greeting:        greeting,
		apology:         apology,
		maxToolSteps:    maxToolSteps,
		closedRetention: closedRetention,
		now:             time.Now,
		newID:           uuid.NewString,
	}

	graphRunner, err := o.compileHandleTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// Start opens a call with an empty customer record and returns the greeting.
func (o *Orchestrator) Start(ctx context.Context, roomName string) (string, string, error) {
	sessionID := o.newID()
	st := statex.NewSessionState(sessionID, strings.TrimSpace(roomName), o.now())
	st.Sync()

	live := &liveSession{}
	live.sess = &nodex.Session{
		State:   st,
		History: []contractx.Turn{{Role: contractx.RoleAssistant, Content: o.greeting}},
	}
	live.sess.Executor = toolx.NewExecutor(st.Record, toolx.Deps{
		Directory: o.directory,
		SessionID: sessionID,
		// endCall runs inside HandleTurn, which already holds live.mu
		Complete: func(ctx context.Context) error {
			_, err := o.completeLocked(ctx, live)
			return err
		},
	})

	o.mu.Lock()
	o.evictClosedLocked(o.now())
	o.sessions[sessionID] = live
	o.mu.Unlock()

	if err := o.store.Save(ctx, st); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("save initial snapshot failed")
	}

	o.metrics.SessionsStarted.Inc()
	o.metrics.SessionsActive.Inc()
	log.Info().Str("session_id", sessionID).Str("room_name", st.RoomName).Msg("session started")
	return sessionID, o.greeting, nil
}

// HandleTurn runs one customer utterance through the turn graph. Errors the
// caller can act on are returned; anything else becomes a spoken apology.
func (o *Orchestrator) HandleTurn(ctx context.Context, sessionID string, text string) (string, error) {
	out, err := o.handleTurn(ctx, sessionID, text)
	if err == nil {
		o.metrics.Turns.WithLabelValues("ok").Inc()
		return out.Reply, nil
	}

	switch {
	case errors.Is(err, ErrInvalidMessage),
		errors.Is(err, ErrInvalidSession),
		errors.Is(err, ErrSessionNotFound),
		errors.Is(err, ErrSessionClosed),
		errors.Is(err, context.Canceled):
		o.metrics.Turns.WithLabelValues("rejected").Inc()
		return "", err
	}

	o.metrics.Turns.WithLabelValues("apology").Inc()
	log.Error().Err(err).Str("session_id", sessionID).Msg("turn failed")
	return o.apology, nil
}

func (o *Orchestrator) handleTurn(ctx context.Context, sessionID string, text string) (nodex.GraphOutput, error) {
	live, err := o.get(strings.TrimSpace(sessionID))
	if err != nil {
		return nodex.GraphOutput{}, err
	}
	live.mu.Lock()
	defer live.mu.Unlock()

	return o.graphRunner.Invoke(ctx, nodex.GraphInput{
		SessionID: sessionID,
		Text:      text,
	})
}

// Capabilities reports what the decider would be offered right now.
func (o *Orchestrator) Capabilities(sessionID string) ([]toolx.Kind, error) {
	live, err := o.get(sessionID)
	if err != nil {
		return nil, err
	}
	live.mu.Lock()
	defer live.mu.Unlock()
	return toolx.Enabled(live.sess.State.Record), nil
}

// Complete persists the call record once. A sink failure leaves the session
// open so the caller can retry.
func (o *Orchestrator) Complete(ctx context.Context, sessionID string) (contractx.CallRecord, error) {
	live, err := o.get(sessionID)
	if err != nil {
		return contractx.CallRecord{}, err
	}
	live.mu.Lock()
	defer live.mu.Unlock()
	return o.completeLocked(ctx, live)
}

// completeLocked requires live.mu.
func (o *Orchestrator) completeLocked(ctx context.Context, live *liveSession) (contractx.CallRecord, error) {
	st := live.sess.State
	if live.dropped {
		return contractx.CallRecord{}, fmt.Errorf("%w: %s", ErrSessionNotFound, st.SessionID)
	}
	if st.Closed {
		return contractx.CallRecord{}, fmt.Errorf("%w: %s", ErrSessionClosed, st.SessionID)
	}

	rec := contractx.NewCallRecord(st.SessionID, st.RoomName, st.Record.Summarize(), o.now())
	if err := o.sink.Write(ctx, rec); err != nil {
		return contractx.CallRecord{}, fmt.Errorf("persist call record: %w", err)
	}

	st.Closed = true
	st.Touch(o.now())
	o.mu.Lock()
	live.closedAt = o.now()
	o.mu.Unlock()
	if err := o.store.Save(ctx, st); err != nil {
		log.Warn().Err(err).Str("session_id", st.SessionID).Msg("save closed snapshot failed")
	}

	o.metrics.SessionsCompleted.Inc()
	o.metrics.SessionsActive.Dec()
	log.Info().
		Str("session_id", st.SessionID).
		Str("stage", string(st.Record.Stage())).
		Msg("session completed")
	return rec, nil
}

// Hangup drops a session without persisting anything. Nothing is reserved
// before bookSlot succeeds, so there is nothing to release.
func (o *Orchestrator) Hangup(ctx context.Context, sessionID string) error {
	live, err := o.get(sessionID)
	if err != nil {
		return err
	}
	live.mu.Lock()
	defer live.mu.Unlock()
	if live.dropped {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	live.dropped = true
	closed := live.sess.State.Closed

	o.mu.Lock()
	delete(o.sessions, sessionID)
	o.mu.Unlock()

	if !closed {
		o.metrics.SessionsActive.Dec()
	}
	if err := o.store.Delete(ctx, sessionID); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("delete session snapshot failed")
	}
	log.Info().Str("session_id", sessionID).Bool("completed", closed).Msg("session hung up")
	return nil
}

// evictClosedLocked forgets completed calls older than the retention window.
// Callers hold o.mu.
func (o *Orchestrator) evictClosedLocked(now time.Time) {
	for id, live := range o.sessions {
		if live.closedAt.IsZero() || now.Sub(live.closedAt) < o.closedRetention {
			continue
		}
		delete(o.sessions, id)
		log.Debug().Str("session_id", id).Msg("evicted completed session")
	}
}

// Snapshot returns the last state mirrored to the store.
func (o *Orchestrator) Snapshot(ctx context.Context, sessionID string) (*statex.SessionState, error) {
	st, err := o.store.Load(ctx, sessionID)
	if errors.Is(err, statex.ErrStateNotFound) || errors.Is(err, statex.ErrInvalidSession) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return st, err
}

func (o *Orchestrator) get(sessionID string) (*liveSession, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidSession
	}
	o.mu.RLock()
	live, ok := o.sessions[sessionID]
	o.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return live, nil
}

// lookup is used by the graph while the caller holds the session lock.
func (o *Orchestrator) lookup(sessionID string) (*nodex.Session, error) {
	live, err := o.get(sessionID)
	if err != nil {
		return nil, err
	}
	return live.sess, nil
}
