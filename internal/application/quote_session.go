package application

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/logistics-platform/freight-service/internal/domain"
	"github.com/logistics-platform/freight-service/internal/infrastructure/geocode"
	"github.com/logistics-platform/freight-service/pkg/errors"
	"github.com/logistics-platform/freight-service/pkg/logging"
)

// GeocodeRecorder records geocode resolution outcomes.
type GeocodeRecorder interface {
	RecordGeocodeResolution(outcome string)
}

// sessionIdleTTL bounds how long an untouched session survives. Abandoned
// wizard flows never send a DELETE, so idle sessions are swept instead.
const sessionIdleTTL = 30 * time.Minute

// quoteSession tracks one customer's interactive quote flow. Destination
// edits are debounced so a typing customer produces one geocode call, not
// one per keystroke, and only the latest edit's result is kept.
type quoteSession struct {
	id      string
	storeID int64

	mu                 sync.Mutex
	destinationText    string
	destinationCoords  *domain.Coordinates
	destinationPending bool
	originCoords       *domain.Coordinates
	updatedAt          time.Time

	debouncer *geocode.DebouncedResolver
}

// QuoteSessionManager owns the interactive quote sessions. Confirmation
// stays unavailable until both endpoints have resolved coordinates; the
// completeness gate is the session's ReadyToQuote flag.
type QuoteSessionManager struct {
	resolver AddressResolver
	origins  OriginResolver
	debounce time.Duration
	recorder GeocodeRecorder
	logger   *logging.Logger

	idleTTL time.Duration
	done    chan struct{}

	mu       sync.Mutex
	sessions map[string]*quoteSession
}

// NewQuoteSessionManager creates a new QuoteSessionManager
func NewQuoteSessionManager(
	resolver AddressResolver,
	origins OriginResolver,
	debounce time.Duration,
	recorder GeocodeRecorder,
	logger *logging.Logger,
) *QuoteSessionManager {
	m := &QuoteSessionManager{
		resolver: resolver,
		origins:  origins,
		debounce: debounce,
		recorder: recorder,
		logger:   logger,
		idleTTL:  sessionIdleTTL,
		done:     make(chan struct{}),
		sessions: make(map[string]*quoteSession),
	}
	go m.sweepLoop()
	return m
}

// Close stops the idle sweep and discards every remaining session.
func (m *QuoteSessionManager) Close() {
	close(m.done)

	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*quoteSession)
	m.mu.Unlock()

	for _, session := range sessions {
		session.debouncer.Stop()
	}
}

func (m *QuoteSessionManager) sweepLoop() {
	ticker := time.NewTicker(m.idleTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case now := <-ticker.C:
			m.expireIdle(now.UTC())
		}
	}
}

// expireIdle drops sessions untouched for longer than the idle TTL, keyed
// off the session's last update (edit or resolution).
func (m *QuoteSessionManager) expireIdle(now time.Time) {
	var expired []*quoteSession

	m.mu.Lock()
	for id, session := range m.sessions {
		session.mu.Lock()
		idle := now.Sub(session.updatedAt) > m.idleTTL
		session.mu.Unlock()
		if idle {
			delete(m.sessions, id)
			expired = append(expired, session)
		}
	}
	m.mu.Unlock()

	for _, session := range expired {
		session.debouncer.Stop()
		m.logger.Info("Quote session expired", "sessionId", session.id, "storeId", session.storeID)
	}
}

// StartSession opens a session for a store. The store origin is resolved up
// front; stores whose address cannot be located cannot quote at all, so that
// failure surfaces immediately rather than at confirmation.
func (m *QuoteSessionManager) StartSession(ctx context.Context, cmd StartQuoteSessionCommand) (*QuoteSessionDTO, error) {
	origin, err := m.origins.Resolve(ctx, cmd.StoreID)
	if err != nil {
		m.logger.WithError(err).Error("Failed to resolve store origin", "storeId", cmd.StoreID)
		return nil, errors.ErrServiceUnavailable("store origin").Wrap(err)
	}

	session := &quoteSession{
		id:           uuid.New().String(),
		storeID:      cmd.StoreID,
		originCoords: origin,
		updatedAt:    time.Now().UTC(),
	}
	session.debouncer = geocode.NewDebouncedResolver(m.resolver, m.debounce, func(address string, coords *domain.Coordinates, err error) {
		m.applyResolution(session, address, coords, err)
	})

	m.mu.Lock()
	m.sessions[session.id] = session
	m.mu.Unlock()

	m.logger.Info("Quote session started", "sessionId", session.id, "storeId", cmd.StoreID, "originResolved", origin != nil)
	return m.toDTO(session), nil
}

// UpdateDestination registers a destination edit. The previous resolution is
// invalidated immediately; the geocode call itself fires after the debounce
// window so rapid edits coalesce into one request.
func (m *QuoteSessionManager) UpdateDestination(ctx context.Context, cmd UpdateDestinationCommand) (*QuoteSessionDTO, error) {
	session, err := m.session(cmd.SessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	session.destinationText = cmd.Address
	session.destinationCoords = nil
	session.destinationPending = cmd.Address != ""
	session.updatedAt = time.Now().UTC()
	session.mu.Unlock()

	if cmd.Address != "" {
		session.debouncer.Trigger(context.WithoutCancel(ctx), cmd.Address)
	}

	return m.toDTO(session), nil
}

// GetSession reports the current session state.
func (m *QuoteSessionManager) GetSession(sessionID string) (*QuoteSessionDTO, error) {
	session, err := m.session(sessionID)
	if err != nil {
		return nil, err
	}
	return m.toDTO(session), nil
}

// SessionQuoteCommand builds a quote command from a ready session. It fails
// when either endpoint is still unresolved.
func (m *QuoteSessionManager) SessionQuoteCommand(sessionID string, items []domain.ShipmentItem) (*ComputeQuoteCommand, error) {
	session, err := m.session(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.originCoords == nil || session.destinationCoords == nil {
		return nil, errors.ErrBadRequest("quote session is not ready: destination or origin unresolved").
			WithDetail("sessionId", sessionID)
	}

	return &ComputeQuoteCommand{
		StoreID:            session.storeID,
		Items:              items,
		DestinationAddress: session.destinationText,
		DestinationCoords:  session.destinationCoords,
	}, nil
}

// CloseSession discards a session and stops its pending geocode work.
func (m *QuoteSessionManager) CloseSession(sessionID string) {
	m.mu.Lock()
	session, ok := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	m.mu.Unlock()

	if ok {
		session.debouncer.Stop()
	}
}

func (m *QuoteSessionManager) session(sessionID string) (*quoteSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[sessionID]
	if !ok {
		return nil, errors.ErrNotFoundWithID("quote session", sessionID)
	}
	return session, nil
}

// applyResolution stores a debounced geocode result. The debouncer already
// discards superseded resolutions, so whatever arrives here belongs to the
// latest edit.
func (m *QuoteSessionManager) applyResolution(session *quoteSession, address string, coords *domain.Coordinates, err error) {
	session.mu.Lock()
	defer session.mu.Unlock()

	if address != session.destinationText {
		return
	}

	session.destinationPending = false
	session.updatedAt = time.Now().UTC()

	switch {
	case err != nil:
		session.destinationCoords = nil
		m.logger.WithError(err).Warn("Destination geocoding failed", "sessionId", session.id, "address", address)
		if m.recorder != nil {
			m.recorder.RecordGeocodeResolution("failed")
		}
	case coords == nil:
		session.destinationCoords = nil
		if m.recorder != nil {
			m.recorder.RecordGeocodeResolution("empty")
		}
	default:
		session.destinationCoords = coords
		if m.recorder != nil {
			m.recorder.RecordGeocodeResolution("resolved")
		}
	}
}

func (m *QuoteSessionManager) toDTO(session *quoteSession) *QuoteSessionDTO {
	session.mu.Lock()
	defer session.mu.Unlock()

	return &QuoteSessionDTO{
		SessionID:           session.id,
		StoreID:             session.storeID,
		DestinationAddress:  session.destinationText,
		DestinationResolved: session.destinationCoords != nil,
		DestinationPending:  session.destinationPending,
		OriginResolved:      session.originCoords != nil,
		ReadyToQuote:        session.originCoords != nil && session.destinationCoords != nil,
		UpdatedAt:           session.updatedAt,
	}
}
