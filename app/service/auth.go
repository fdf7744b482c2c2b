package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vibast-solutions/ms-go-jobtracker/app/dto"
	"github.com/vibast-solutions/ms-go-jobtracker/app/entity"
	"github.com/vibast-solutions/ms-go-jobtracker/app/repository"
	"github.com/vibast-solutions/ms-go-jobtracker/config"

	"github.com/go-sql-driver/mysql"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid or expired session")
	ErrTokenInvalid       = errors.New("invalid reset token")
	ErrTokenExpired       = errors.New("reset token has expired")
	ErrTokenAlreadyUsed   = errors.New("reset token has already been used")
	ErrWeakPassword       = errors.New("password does not meet policy requirements")
	ErrMailDelivery       = errors.New("could not send email")
)

const (
	SessionAudience   = "session"
	ResetTokenPurpose = "password-reset"

	resetTokenSalt    = "jobtracker-password-reset-salt"
	mysqlDuplicateKey = 1062
)

type Claims struct {
	UserID   uint64 `json:"user_id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Remember bool   `json:"remember,omitempty"`
	jwt.RegisteredClaims
}

type resetMailer interface {
	SendPasswordReset(ctx context.Context, to, name, link string) error
}

type sessionRevoker interface {
	Revoke(ctx context.Context, sessionID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

type AuthServiceOption func(*AuthService)

type AuthService struct {
	db          *sql.DB
	userRepo    *repository.UserRepository
	sessionRepo sessionRevoker
	mailer      resetMailer
	cfg         *config.Config
	now         func() time.Time
}

func NewAuthService(
	db *sql.DB,
	userRepo *repository.UserRepository,
	mailer resetMailer,
	cfg *config.Config,
	opts ...AuthServiceOption,
) *AuthService {
	svc := &AuthService{
		db:       db,
		userRepo: userRepo,
		mailer:   mailer,
		cfg:      cfg,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// WithSessionRevoker enables server-side logout. Without it a logout only
// clears the client cookie.
func WithSessionRevoker(revoker sessionRevoker) AuthServiceOption {
	return func(s *AuthService) {
		if revoker != nil {
			s.sessionRepo = revoker
		}
	}
}

func WithAuthClock(now func() time.Time) AuthServiceOption {
	return func(s *AuthService) {
		if now != nil {
			s.now = now
		}
	}
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) (*dto.SessionResult, error) {
	canonicalEmail := NormalizeEmail(email)

	existing, err := s.userRepo.FindByCanonicalEmail(ctx, canonicalEmail)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	if err = s.cfg.Password.Policy.Validate(password); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &entity.User{
		Name:           name,
		Email:          email,
		CanonicalEmail: canonicalEmail,
		PasswordHash:   string(hashedPassword),
		ResetTokenUsed: false,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err = s.userRepo.WithTx(tx).Create(ctx, user); err != nil {
		if isDuplicateKey(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return s.issueSession(user, false)
}

func (s *AuthService) Login(ctx context.Context, email, password string, remember bool) (*dto.SessionResult, error) {
	user, err := s.userRepo.FindByCanonicalEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueSession(user, remember)
}

func (s *AuthService) Logout(ctx context.Context, claims *Claims) error {
	if s.sessionRepo == nil || claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	return s.sessionRepo.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

func (s *AuthService) ValidateSession(ctx context.Context, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, s.keyFunc([]byte(s.cfg.Session.Secret)),
		jwt.WithAudience(SessionAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, ErrInvalidSession
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidSession
	}

	if s.sessionRepo != nil {
		revoked, err := s.sessionRepo.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, ErrInvalidSession
		}
	}

	return claims, nil
}

// RequestPasswordReset mails a signed reset link to the account owner. Each
// request arms a new token id on the user, which supersedes every earlier
// link.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByCanonicalEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	token, tokenID, err := s.issueResetToken(user)
	if err != nil {
		return err
	}

	user.ResetTokenID = entity.NullString(tokenID)
	user.ResetTokenUsed = false
	if err = s.userRepo.Update(ctx, user, s.now()); err != nil {
		return err
	}

	link := s.cfg.App.PublicURL + "/reset/" + token
	if err = s.mailer.SendPasswordReset(ctx, user.Email, user.Name, link); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("Failed to send password reset email")
		return ErrMailDelivery
	}

	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, s.keyFunc(s.resetSigningKey()),
		jwt.WithAudience(ResetTokenPurpose),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(time.Second),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}
	if !parsed.Valid || claims.IssuedAt == nil || claims.Subject == "" || claims.ID == "" {
		return ErrTokenInvalid
	}
	// The leeway above only widens the exp check by a second; a token is
	// expired once it is strictly older than ResetTTL.
	if s.now().Sub(claims.IssuedAt.Time) > s.cfg.Tokens.ResetTTL {
		return ErrTokenExpired
	}

	user, err := s.userRepo.FindByCanonicalEmail(ctx, NormalizeEmail(claims.Subject))
	if err != nil {
		return err
	}
	if user == nil {
		return ErrTokenInvalid
	}
	if user.ResetTokenUsed || !user.ResetTokenID.Valid || user.ResetTokenID.String != claims.ID {
		return ErrTokenAlreadyUsed
	}

	if err = s.cfg.Password.Policy.Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	rows, err := s.userRepo.ConsumeResetToken(ctx, user.ID, claims.ID, string(hashedPassword), s.now())
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrTokenAlreadyUsed
	}

	return nil
}

func (s *AuthService) issueSession(user *entity.User, remember bool) (*dto.SessionResult, error) {
	ttl := s.cfg.Session.TTL
	if remember {
		ttl = s.cfg.Session.RememberTTL
	}

	now := s.now()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		UserID:   user.ID,
		Email:    user.Email,
		Name:     user.Name,
		Remember: remember,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Audience:  jwt.ClaimStrings{SessionAudience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   user.Email,
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Session.Secret))
	if err != nil {
		return nil, err
	}

	return &dto.SessionResult{
		User:      user,
		Token:     token,
		ExpiresAt: expiresAt,
		Remember:  remember,
	}, nil
}

func (s *AuthService) issueResetToken(user *entity.User) (string, string, error) {
	now := s.now()
	claims := &jwt.RegisteredClaims{
		ID:        uuid.New().String(),
		Audience:  jwt.ClaimStrings{ResetTokenPurpose},
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.Tokens.ResetTTL)),
		IssuedAt:  jwt.NewNumericDate(now),
		Subject:   user.Email,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.resetSigningKey())
	if err != nil {
		return "", "", err
	}
	return token, claims.ID, nil
}

// resetSigningKey derives a purpose-bound key so a session token can never be
// replayed as a reset token.
func (s *AuthService) resetSigningKey() []byte {
	mac := hmac.New(sha256.New, []byte(s.cfg.Session.Secret))
	mac.Write([]byte(resetTokenSalt))
	return mac.Sum(nil)
}

func (s *AuthService) keyFunc(key []byte) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return key, nil
	}
}

func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDuplicateKey
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}

	return false
}
