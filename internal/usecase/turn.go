package usecase

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"shop-assistant/internal/domain"
)

type SessionStore interface {
	Get(ctx context.Context, userID string) (domain.SessionState, error)
	Put(ctx context.Context, userID string, state domain.SessionState) error
}

type UserLocker interface {
	Lock(key string) func()
}

type turnResolver interface {
	Resolve(ctx context.Context, in ResolveInput) (ResolveOutput, error)
}

// TurnService runs one turn per utterance: load the user's session, resolve,
// save the session. Turns of the same user are serialized.
type TurnService struct {
	resolver turnResolver
	sessions SessionStore
	locks    UserLocker
	logger   *zap.Logger
}

type TurnInput struct {
	UserID string
	Text   string
}

type TurnOutput struct {
	Replies []domain.Reply
}

func NewTurnService(r turnResolver, s SessionStore, l UserLocker, logger *zap.Logger) (*TurnService, error) {
	if r == nil {
		return nil, errors.New("usecase: resolver must not be nil")
	}
	if s == nil {
		return nil, errors.New("usecase: session store must not be nil")
	}
	if l == nil {
		return nil, errors.New("usecase: user locker must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TurnService{resolver: r, sessions: s, locks: l, logger: logger}, nil
}

func (s *TurnService) HandleTurn(ctx context.Context, in TurnInput) (TurnOutput, error) {
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return TurnOutput{}, newError(ErrorInvalidInput, "empty_user_id", nil)
	}
	if strings.TrimSpace(in.Text) == "" {
		return TurnOutput{}, newError(ErrorInvalidInput, "empty_text", nil)
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	state, err := s.sessions.Get(ctx, userID)
	if err != nil {
		// A lost session only restarts the search flow.
		s.logger.Warn("session load failed",
			zap.String("user_id", userID),
			zap.String("stage", "session_get"),
			zap.Error(err),
		)
		state = domain.SessionState{}
	}

	out, err := s.resolver.Resolve(ctx, ResolveInput{UserID: userID, Text: in.Text, Session: state})
	if err != nil {
		var ue *Error
		if errors.As(err, &ue) {
			return TurnOutput{}, ue
		}
		return TurnOutput{}, newError(ErrorInternal, "resolve_error", err)
	}

	if err := s.sessions.Put(ctx, userID, out.Session); err != nil {
		s.logger.Warn("session save failed",
			zap.String("user_id", userID),
			zap.String("stage", "session_put"),
			zap.Error(err),
		)
	}
	return TurnOutput{Replies: out.Replies}, nil
}
