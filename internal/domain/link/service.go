package link

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/gitlink/internal/credentials"
	"github.com/rpggio/gitlink/internal/deviceauth"
)

const (
	// DefaultInterval is used when the provider does not suggest one.
	DefaultInterval = 5 * time.Second
	// DefaultMaxAttempts bounds how many pending answers a flow tolerates.
	DefaultMaxAttempts = 180

	slowDownStep = 5 * time.Second
)

// Config tunes the poll loop.
type Config struct {
	Interval    time.Duration
	MaxAttempts int
}

// Service owns device link flows. The device auth client is stateless; which
// code is in flight, how often it was polled and when to stop live here.
type Service struct {
	auth     Authorizer
	projects Projects
	tokens   TokenStore
	identity IdentityLookup
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time

	mu    sync.Mutex
	flows map[string]*Flow
}

// NewService creates a link service. identity may be nil to skip the login lookup.
func NewService(auth Authorizer, projects Projects, tokens TokenStore, identity IdentityLookup, cfg Config, logger *slog.Logger) *Service {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		auth:     auth,
		projects: projects,
		tokens:   tokens,
		identity: identity,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		flows:    make(map[string]*Flow),
	}
}

// Start requests a verification code pair for projectID and opens a flow
// awaiting the user.
func (s *Service) Start(ctx context.Context, projectID string) (Flow, error) {
	if projectID == "" {
		return Flow{}, fmt.Errorf("%w: project id is required", ErrInvalidInput)
	}
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return Flow{}, err
	}

	verification, err := s.auth.InitDeviceOAuth(ctx)
	if err != nil {
		return Flow{}, fmt.Errorf("requesting device code: %w", err)
	}

	now := s.now()
	flow := &Flow{
		ID:              uuid.NewString(),
		ProjectID:       projectID,
		State:           StateAwaitingUser,
		UserCode:        verification.UserCode,
		VerificationURI: verification.VerificationURI,
		Interval:        s.cfg.Interval,
		StartedAt:       now,
		deviceCode:      verification.DeviceCode,
	}
	if verification.Interval > 0 {
		flow.Interval = time.Duration(verification.Interval) * time.Second
	}
	if verification.ExpiresIn > 0 {
		flow.ExpiresAt = now.Add(time.Duration(verification.ExpiresIn) * time.Second)
	}

	s.mu.Lock()
	s.flows[flow.ID] = flow
	s.pruneLocked()
	s.mu.Unlock()

	s.logger.Info("link flow started", "flow_id", flow.ID, "project_id", projectID)
	return *flow, nil
}

// Get returns a snapshot of a flow.
func (s *Service) Get(flowID string) (Flow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	flow, ok := s.flows[flowID]
	if !ok {
		return Flow{}, ErrFlowNotFound
	}
	return *flow, nil
}

// Latest returns the most recently started flow of a project, or a
// not-started flow when none exists.
func (s *Service) Latest(projectID string) Flow {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest *Flow
	for _, flow := range s.flows {
		if flow.ProjectID != projectID {
			continue
		}
		if latest == nil || flow.StartedAt.After(latest.StartedAt) {
			latest = flow
		}
	}
	if latest == nil {
		return Flow{ProjectID: projectID, State: StateNotStarted}
	}
	return *latest
}

// Poll performs one token check. Granted tokens are handed to the token store
// and the flow becomes linked; terminal provider answers and exhausted or
// expired flows become abandoned. Polling a terminal flow is a no-op.
func (s *Service) Poll(ctx context.Context, flowID string) (Flow, error) {
	s.mu.Lock()
	flow, ok := s.flows[flowID]
	if !ok {
		s.mu.Unlock()
		return Flow{}, ErrFlowNotFound
	}
	if flow.State.Terminal() {
		snapshot := *flow
		s.mu.Unlock()
		return snapshot, nil
	}
	if !flow.ExpiresAt.IsZero() && s.now().After(flow.ExpiresAt) {
		s.abandonLocked(flow, "device code expired")
		snapshot := *flow
		s.mu.Unlock()
		return snapshot, nil
	}
	deviceCode := flow.deviceCode
	s.mu.Unlock()

	grant, checkErr := s.auth.CheckAuthStatus(ctx, deviceCode)
	if checkErr != nil && ctx.Err() != nil {
		return Flow{}, ctx.Err()
	}

	s.mu.Lock()
	if flow.State.Terminal() {
		snapshot := *flow
		s.mu.Unlock()
		return snapshot, nil
	}
	flow.Attempts++

	switch {
	case checkErr != nil:
		s.abandonLocked(flow, checkErr.Error())
	case grant.State == deviceauth.Granted:
		// Linked before the token is stored; a late Abandon is then a no-op.
		flow.State = StateLinked
		flow.deviceCode = ""
	default:
		switch {
		case grant.Interval > 0:
			flow.Interval = grant.Interval
		case grant.SlowDown:
			flow.Interval += slowDownStep
		}
		if flow.Attempts >= s.cfg.MaxAttempts {
			s.abandonLocked(flow, fmt.Sprintf("still pending after %d attempts", flow.Attempts))
		}
	}
	snapshot := *flow
	s.mu.Unlock()

	if snapshot.State != StateLinked {
		return snapshot, nil
	}
	return s.completeLink(ctx, flow, grant.Token.AccessToken)
}

func (s *Service) completeLink(ctx context.Context, flow *Flow, token string) (Flow, error) {
	if err := s.tokens.Save(flow.ProjectID, token); err != nil {
		s.mu.Lock()
		s.abandonLocked(flow, "storing token failed")
		s.mu.Unlock()
		return Flow{}, fmt.Errorf("storing token: %w", err)
	}

	var login string
	if s.identity != nil {
		var err error
		login, err = s.identity.Login(ctx, token)
		if err != nil {
			s.logger.Warn("token owner lookup failed", "flow_id", flow.ID, "error", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	flow.Login = login
	s.logger.Info("project linked", "flow_id", flow.ID, "project_id", flow.ProjectID, "login", login, "attempts", flow.Attempts)
	return *flow, nil
}

// Wait polls until the flow is terminal. Cancelling ctx abandons the flow.
func (s *Service) Wait(ctx context.Context, flowID string) (Flow, error) {
	for {
		flow, err := s.Poll(ctx, flowID)
		if err != nil {
			if ctx.Err() != nil {
				return s.cancel(flowID, ctx.Err())
			}
			return flow, err
		}
		if flow.State.Terminal() {
			return flow, nil
		}

		timer := time.NewTimer(flow.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return s.cancel(flowID, ctx.Err())
		case <-timer.C:
		}
	}
}

// Abandon gives up on a flow and forgets its device code.
func (s *Service) Abandon(flowID string) (Flow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	flow, ok := s.flows[flowID]
	if !ok {
		return Flow{}, ErrFlowNotFound
	}
	if !flow.State.Terminal() {
		s.abandonLocked(flow, "abandoned by caller")
	}
	return *flow, nil
}

// Linked reports whether a token is stored for projectID.
func (s *Service) Linked(ctx context.Context, projectID string) (bool, error) {
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return false, err
	}
	if _, err := s.tokens.Load(projectID); err != nil {
		if errors.Is(err, credentials.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("loading token: %w", err)
	}
	return true, nil
}

// Unlink removes the stored token of a project.
func (s *Service) Unlink(ctx context.Context, projectID string) error {
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return err
	}
	if err := s.tokens.Delete(projectID); err != nil {
		return fmt.Errorf("removing token: %w", err)
	}
	s.logger.Info("project unlinked", "project_id", projectID)
	return nil
}

func (s *Service) cancel(flowID string, cause error) (Flow, error) {
	flow, err := s.Abandon(flowID)
	if err != nil && !errors.Is(err, ErrFlowNotFound) {
		return flow, err
	}
	return flow, cause
}

// pruneLocked drops terminal flows that are not the latest of their project.
func (s *Service) pruneLocked() {
	latest := make(map[string]*Flow)
	for _, flow := range s.flows {
		if cur, ok := latest[flow.ProjectID]; !ok || flow.StartedAt.After(cur.StartedAt) {
			latest[flow.ProjectID] = flow
		}
	}
	for id, flow := range s.flows {
		if flow.State.Terminal() && latest[flow.ProjectID] != flow {
			delete(s.flows, id)
		}
	}
}

func (s *Service) abandonLocked(flow *Flow, reason string) {
	flow.State = StateAbandoned
	flow.Reason = reason
	flow.deviceCode = ""
	s.logger.Info("link flow abandoned", "flow_id", flow.ID, "project_id", flow.ProjectID, "reason", reason, "attempts", flow.Attempts)
}
