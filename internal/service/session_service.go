package service

import (
	"context"
	"encoding/hex"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/noah-isme/lhu-dashboard-api/internal/dto"
	"github.com/noah-isme/lhu-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/lhu-dashboard-api/pkg/errors"
)

const defaultMaxSessionsPerUser = 5

// SessionConfig bounds the multi-session store.
type SessionConfig struct {
	MaxPerUser int
}

// SessionService keeps several signed-in accounts side by side. Sessions are stored under a
// hash of their access token and indexed per user so a device can switch between accounts.
type SessionService struct {
	sessions  *ExpiringStore[models.Session]
	index     *ExpiringStore[models.UserSessions]
	validator *validator.Validate
	logger    *zap.Logger
	cfg       SessionConfig
	now       func() time.Time
}

// NewSessionService constructs a SessionService.
func NewSessionService(sessions *ExpiringStore[models.Session], index *ExpiringStore[models.UserSessions], validate *validator.Validate, logger *zap.Logger, cfg SessionConfig) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxPerUser <= 0 {
		cfg.MaxPerUser = defaultMaxSessionsPerUser
	}
	return &SessionService{
		sessions:  sessions,
		index:     index,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// TokenKey derives the storage key of an access token.
func TokenKey(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Add registers token as a session. Identity fields missing from the request are taken from the
// token's claims; the signature is not checked because the token is issued upstream.
func (s *SessionService) Add(ctx context.Context, req dto.AddSessionRequest) (*dto.SessionView, error) {
	req.Token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(req.Token), "Bearer "))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}

	now := s.now().UTC()
	session := models.Session{
		ID:          uuid.NewString(),
		UserID:      strings.TrimSpace(req.UserID),
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Token:       req.Token,
		CreatedAt:   now,
	}
	applyTokenClaims(&session, req.Token)

	if session.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user id missing from payload and token")
	}
	if !session.TokenExpiry.IsZero() && !now.Before(session.TokenExpiry) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "token already expired")
	}

	key := TokenKey(session.Token)
	if existing, ok := s.sessions.Get(ctx, key, true); ok && existing.UserID == session.UserID {
		session.ID = existing.ID
		session.CreatedAt = existing.CreatedAt
	}
	s.sessions.Set(ctx, key, session)
	s.attach(ctx, session.UserID, key)

	s.logger.Info("session added", zap.String("user_id", session.UserID), zap.String("session_id", session.ID))
	view := sessionView(session)
	return &view, nil
}

// Get returns the live session for token.
func (s *SessionService) Get(ctx context.Context, token string) (*models.Session, error) {
	session, ok := s.lookup(ctx, TokenKey(strings.TrimSpace(token)))
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
	}
	return &session, nil
}

// ListForUser returns the user's live sessions, most recently added last. Dead index entries are pruned.
func (s *SessionService) ListForUser(ctx context.Context, userID string) ([]dto.SessionView, error) {
	userID = strings.TrimSpace(userID)
	if err := s.validator.Var(userID, "required,max=64"); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user id")
	}

	idx, ok := s.index.GetStale(ctx, userID)
	if !ok {
		return []dto.SessionView{}, nil
	}

	views := make([]dto.SessionView, 0, len(idx.TokenKeys))
	live := make([]string, 0, len(idx.TokenKeys))
	for _, key := range idx.TokenKeys {
		session, ok := s.lookup(ctx, key)
		if !ok || session.UserID != userID {
			continue
		}
		live = append(live, key)
		views = append(views, sessionView(session))
	}
	if len(live) != len(idx.TokenKeys) {
		s.index.Set(ctx, userID, models.UserSessions{UserID: userID, TokenKeys: live})
	}
	return views, nil
}

// Remove signs the session out. Removing an unknown token is not an error.
func (s *SessionService) Remove(ctx context.Context, token string) error {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return appErrors.Clone(appErrors.ErrValidation, "token is required")
	}
	key := TokenKey(token)
	session, ok := s.sessions.GetStale(ctx, key)
	s.sessions.Delete(ctx, key)
	if ok {
		s.detach(ctx, session.UserID, key)
		s.logger.Info("session removed", zap.String("user_id", session.UserID), zap.String("session_id", session.ID))
	}
	return nil
}

func (s *SessionService) lookup(ctx context.Context, key string) (models.Session, bool) {
	session, ok := s.sessions.Get(ctx, key, true)
	if !ok {
		return models.Session{}, false
	}
	if !session.TokenExpiry.IsZero() && !s.now().Before(session.TokenExpiry) {
		return models.Session{}, false
	}
	return session, true
}

func (s *SessionService) attach(ctx context.Context, userID, key string) {
	idx, _ := s.index.GetStale(ctx, userID)
	keys := make([]string, 0, len(idx.TokenKeys)+1)
	for _, existing := range idx.TokenKeys {
		if existing != key {
			keys = append(keys, existing)
		}
	}
	keys = append(keys, key)

	for len(keys) > s.cfg.MaxPerUser {
		evicted := keys[0]
		keys = keys[1:]
		s.sessions.Delete(ctx, evicted)
		s.logger.Info("session evicted", zap.String("user_id", userID))
	}
	s.index.Set(ctx, userID, models.UserSessions{UserID: userID, TokenKeys: keys})
}

func (s *SessionService) detach(ctx context.Context, userID, key string) {
	idx, ok := s.index.GetStale(ctx, userID)
	if !ok {
		return
	}
	keys := make([]string, 0, len(idx.TokenKeys))
	for _, existing := range idx.TokenKeys {
		if existing != key {
			keys = append(keys, existing)
		}
	}
	if len(keys) == 0 {
		s.index.Delete(ctx, userID)
		return
	}
	s.index.Set(ctx, userID, models.UserSessions{UserID: userID, TokenKeys: keys})
}

// applyTokenClaims fills identity gaps from an unverified JWT. Opaque tokens are left alone.
func applyTokenClaims(session *models.Session, token string) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return
	}
	if session.UserID == "" {
		if sub, err := claims.GetSubject(); err == nil {
			session.UserID = sub
		}
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		session.TokenExpiry = exp.Time.UTC()
	}
	if session.DisplayName == "" {
		if name, ok := claims["name"].(string); ok {
			session.DisplayName = name
		}
	}
	if session.Email == "" {
		if email, ok := claims["email"].(string); ok {
			session.Email = email
		}
	}
}

func sessionView(session models.Session) dto.SessionView {
	view := dto.SessionView{
		ID:          session.ID,
		UserID:      session.UserID,
		DisplayName: session.DisplayName,
		Email:       session.Email,
		TokenHint:   tokenHint(session.Token),
		CreatedAt:   session.CreatedAt,
	}
	if !session.TokenExpiry.IsZero() {
		expiry := session.TokenExpiry
		view.TokenExpiry = &expiry
	}
	return view
}

func tokenHint(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return "****" + token[len(token)-6:]
}
