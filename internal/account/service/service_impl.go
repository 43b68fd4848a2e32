package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/smallbiznis/roomwatt/internal/account/domain"
	"github.com/smallbiznis/roomwatt/internal/clock"
	"github.com/smallbiznis/roomwatt/internal/config"
	"github.com/smallbiznis/roomwatt/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	sessionTokenBytes = 32
	defaultSessionTTL = 24 * time.Hour

	minPasswordLength = 8
	maxUsernameLength = 64
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Config config.Config
	Repo   accountdomain.Repository
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       accountdomain.Repository
	sessionTTL time.Duration
	hashCost   int
}

func New(p Params) accountdomain.Service {
	ttl := p.Config.Auth.SessionTTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("account.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		sessionTTL: ttl,
		hashCost:   bcrypt.DefaultCost,
	}
}

func (s *Service) Login(ctx context.Context, req accountdomain.LoginRequest) (*accountdomain.LoginResult, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		username = strings.TrimSpace(req.Name)
	}
	if username == "" || req.Password == "" {
		return nil, accountdomain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByUsername(ctx, s.db, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, accountdomain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, accountdomain.ErrInvalidCredentials
	}

	rawToken, err := newSessionToken()
	if err != nil {
		return nil, err
	}
	now := s.clock.Now().UTC()
	session := &accountdomain.Session{
		ID:        s.genID.Generate(),
		UserID:    user.ID,
		TokenHash: hashToken(rawToken),
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
	}
	if err := s.repo.InsertSession(ctx, s.db, session); err != nil {
		return nil, err
	}

	s.log.Info("user logged in", zap.String("user_id", user.ID.String()), zap.String("role", user.Role.String()))
	return &accountdomain.LoginResult{
		User:      toView(user),
		RawToken:  rawToken,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

func (s *Service) Logout(ctx context.Context, rawToken string) error {
	session, err := s.lookupSession(ctx, rawToken)
	if err != nil {
		return err
	}
	return s.repo.RevokeSession(ctx, s.db, session.ID, s.clock.Now().UTC())
}

func (s *Service) Authenticate(ctx context.Context, rawToken string) (*accountdomain.Principal, error) {
	session, err := s.lookupSession(ctx, rawToken)
	if err != nil {
		return nil, err
	}
	if session.RevokedAt != nil {
		return nil, accountdomain.ErrInvalidSession
	}
	if !s.clock.Now().Before(session.ExpiresAt) {
		return nil, accountdomain.ErrSessionExpired
	}

	user, err := s.repo.FindByID(ctx, s.db, session.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, accountdomain.ErrInvalidSession
	}

	return &accountdomain.Principal{
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		SessionID: session.ID,
	}, nil
}

func (s *Service) lookupSession(ctx context.Context, rawToken string) (*accountdomain.Session, error) {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return nil, accountdomain.ErrInvalidSession
	}
	session, err := s.repo.FindSessionByTokenHash(ctx, s.db, hashToken(token))
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, accountdomain.ErrInvalidSession
	}
	return session, nil
}

func (s *Service) Create(ctx context.Context, req accountdomain.CreateRequest) (*accountdomain.UserView, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		username = strings.TrimSpace(req.Name)
	}
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if len(req.Password) < minPasswordLength {
		return nil, accountdomain.ErrInvalidPassword
	}
	role, err := resolveRole(req.Role, req.RoleID, req.IsAdmin)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByUsername(ctx, s.db, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, accountdomain.ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, accountdomain.ErrInvalidPassword
		}
		return nil, err
	}

	now := s.clock.Now().UTC()
	user := &accountdomain.User{
		ID:           s.genID.Generate(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Insert(ctx, s.db, user); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, accountdomain.ErrUserExists
		}
		return nil, err
	}

	s.log.Info("user created", zap.String("user_id", user.ID.String()), zap.String("role", role.String()))
	view := toView(user)
	return &view, nil
}

func (s *Service) List(ctx context.Context) ([]accountdomain.UserView, error) {
	users, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}
	views := make([]accountdomain.UserView, 0, len(users))
	for i := range users {
		views = append(views, toView(&users[i]))
	}
	return views, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*accountdomain.UserView, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	view := toView(user)
	return &view, nil
}

func (s *Service) Update(ctx context.Context, id string, req accountdomain.UpdateRequest) (*accountdomain.UserView, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if username := strings.TrimSpace(req.Username); username != "" && username != user.Username {
		if err := validateUsername(username); err != nil {
			return nil, err
		}
		other, err := s.repo.FindByUsername(ctx, s.db, username)
		if err != nil {
			return nil, err
		}
		if other != nil {
			return nil, accountdomain.ErrUserExists
		}
		user.Username = username
	}
	if strings.TrimSpace(req.Email) != "" {
		email, err := normalizeEmail(req.Email)
		if err != nil {
			return nil, err
		}
		user.Email = email
	}
	if strings.TrimSpace(req.Role) != "" || req.RoleID != 0 {
		role, err := resolveRole(req.Role, req.RoleID, false)
		if err != nil {
			return nil, err
		}
		user.Role = role
	}
	user.UpdatedAt = s.clock.Now().UTC()

	if err := s.repo.Update(ctx, s.db, user); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, accountdomain.ErrUserExists
		}
		return nil, err
	}
	view := toView(user)
	return &view, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	userID, err := accountdomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, s.db, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return accountdomain.ErrNotFound
	}
	s.log.Info("user deleted", zap.String("user_id", userID.String()))
	return nil
}

func (s *Service) EnsureAdmin(ctx context.Context, req accountdomain.CreateRequest) (bool, error) {
	count, err := s.repo.CountByRole(ctx, s.db, accountdomain.RoleAdmin)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	req.Role = accountdomain.RoleAdmin.String()
	if _, err := s.Create(ctx, req); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) find(ctx context.Context, id string) (*accountdomain.User, error) {
	userID, err := accountdomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	user, err := s.repo.FindByID(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, accountdomain.ErrNotFound
	}
	return user, nil
}

func resolveRole(name string, id int, isAdmin bool) (accountdomain.Role, error) {
	switch {
	case strings.TrimSpace(name) != "":
		role, ok := accountdomain.ParseRole(name)
		if !ok {
			return 0, accountdomain.ErrInvalidRole
		}
		return role, nil
	case id != 0:
		role := accountdomain.Role(id)
		if !role.Valid() {
			return 0, accountdomain.ErrInvalidRole
		}
		return role, nil
	case isAdmin:
		return accountdomain.RoleAdmin, nil
	default:
		return accountdomain.RoleResident, nil
	}
}

func validateUsername(username string) error {
	if username == "" || len(username) > maxUsernameLength || strings.ContainsAny(username, " \t\r\n") {
		return accountdomain.ErrInvalidUsername
	}
	return nil
}

// normalizeEmail allows an empty address.
func normalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return "", accountdomain.ErrInvalidEmail
	}
	return strings.ToLower(addr.Address), nil
}

func toView(user *accountdomain.User) accountdomain.UserView {
	return accountdomain.UserView{
		ID:        user.ID.String(),
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role.String(),
		RoleID:    int(user.Role),
		CreatedAt: user.CreatedAt,
	}
}

func newSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
