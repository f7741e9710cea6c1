package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/levelup-backend/internal/data/repos"
	types "github.com/yungbote/levelup-backend/internal/domain"
	domainagg "github.com/yungbote/levelup-backend/internal/domain/aggregates"
	"github.com/yungbote/levelup-backend/internal/domain/user"
	"github.com/yungbote/levelup-backend/internal/pkg/dbctx"
	"github.com/yungbote/levelup-backend/internal/platform/apierr"
	"github.com/yungbote/levelup-backend/internal/platform/ctxutil"
	"github.com/yungbote/levelup-backend/internal/platform/logger"
)

const minPasswordLength = 6

type JWTClaims struct {
	Role      string `json:"role"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type AuthService interface {
	RegisterUser(ctx context.Context, in RegisterInput) (*types.User, error)
	// LoginUser opens a session and advances the login streak.
	LoginUser(ctx context.Context, email, password string) (*TokenPair, *types.User, error)
	RefreshUser(ctx context.Context, refreshToken string) (*TokenPair, error)
	LogoutUser(ctx context.Context) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
	SweepExpired(ctx context.Context) (int64, error)
	RunSessionSweeper(ctx context.Context, interval time.Duration) error
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	avatarService AvatarService
	ledger        LedgerService
	jwtSecretKey  string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	avatarService AvatarService,
	ledger LedgerService,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	return &authService{
		db:            db,
		log:           log.With("service", "AuthService"),
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		avatarService: avatarService,
		ledger:        ledger,
		jwtSecretKey:  jwtSecretKey,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (as *authService) RegisterUser(ctx context.Context, in RegisterInput) (*types.User, error) {
	email := user.NormalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, apierr.BadRequest("invalid_email", "a valid email is required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, apierr.BadRequest("invalid_password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	role := types.RoleStudent
	if strings.TrimSpace(in.Role) != "" {
		parsed, ok := user.ParseRole(in.Role)
		if !ok {
			return nil, apierr.BadRequest("invalid_role", "role must be student or teacher")
		}
		role = parsed
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &types.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  string(hash),
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Role:      role,
		Level:     user.LevelForXP(0),
	}
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		exists, err := as.userRepo.EmailExists(dbc, email)
		if err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if exists {
			return apierr.Conflict("email_taken", "email is already registered")
		}
		if _, err := as.userRepo.Create(dbc, []*types.User{u}); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if as.avatarService != nil {
		if err := as.avatarService.CreateAndUploadUserAvatar(ctx, u); err != nil {
			as.log.Warn("avatar generation failed (ignored)", "user_id", u.ID, "error", err)
		}
	}
	as.log.Info("user registered", "user_id", u.ID, "role", u.Role)
	return u, nil
}

func (as *authService) LoginUser(ctx context.Context, email, password string) (*TokenPair, *types.User, error) {
	email = user.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, nil, apierr.BadRequest("invalid_credentials", "email and password are required")
	}
	u, err := as.userRepo.GetByEmail(dbctx.Context{Ctx: ctx}, email)
	if err != nil {
		return nil, nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return nil, nil, apierr.Unauthorized("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, nil, apierr.Unauthorized("invalid email or password")
	}

	var pair *TokenPair
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		pair, err = as.openSession(dbctx.Context{Ctx: ctx, Tx: tx}, u)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	if as.ledger != nil {
		res, err := as.ledger.RecordStreak(ctx, u.ID, domainagg.StreakLogin)
		if err != nil {
			as.log.Warn("login streak update failed", "user_id", u.ID, "error", err)
		} else {
			u = &res.After
		}
	}
	return pair, u, nil
}

func (as *authService) RefreshUser(ctx context.Context, refreshToken string) (*TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, apierr.BadRequest("missing_refresh_token", "refresh_token is required")
	}
	found, err := as.userTokenRepo.GetByRefreshTokens(dbctx.Context{Ctx: ctx}, []string{refreshToken})
	if err != nil {
		return nil, fmt.Errorf("load refresh token: %w", err)
	}
	if len(found) == 0 || found[0] == nil {
		return nil, apierr.Unauthorized("unknown refresh token")
	}
	existing := found[0]
	if existing.ExpiresAt.Before(as.now()) {
		if err := as.userTokenRepo.SoftDeleteByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{existing.ID}); err != nil {
			as.log.Warn("revoke expired session failed", "error", err)
		}
		return nil, apierr.Unauthorized("refresh token expired")
	}

	var pair *TokenPair
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		u, err := as.userRepo.GetByID(dbc, existing.UserID)
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		if u == nil {
			return apierr.Unauthorized("account no longer exists")
		}
		if pair, err = as.openSession(dbc, u); err != nil {
			return err
		}
		if err := as.userTokenRepo.SoftDeleteByIDs(dbc, []uuid.UUID{existing.ID}); err != nil {
			return fmt.Errorf("revoke old session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

func (as *authService) LogoutUser(ctx context.Context) error {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.TokenString == "" {
		return apierr.Unauthorized("not authenticated")
	}
	dbc := dbctx.Context{Ctx: ctx}
	found, err := as.userTokenRepo.GetByAccessTokens(dbc, []string{rd.TokenString})
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if len(found) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(found))
	for _, t := range found {
		ids = append(ids, t.ID)
	}
	if err := as.userTokenRepo.SoftDeleteByIDs(dbc, ids); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (as *authService) openSession(dbc dbctx.Context, u *types.User) (*TokenPair, error) {
	sessionID := uuid.New()
	access, err := as.generateAccessToken(u, sessionID)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	row := &types.UserToken{
		ID:           sessionID,
		UserID:       u.ID,
		AccessToken:  access,
		RefreshToken: uuid.New().String(),
		ExpiresAt:    as.now().Add(as.refreshTTL),
	}
	if _, err := as.userTokenRepo.Create(dbc, []*types.UserToken{row}); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: row.RefreshToken,
		ExpiresIn:    int64(as.accessTTL.Seconds()),
	}, nil
}

func (as *authService) generateAccessToken(u *types.User, sessionID uuid.UUID) (string, error) {
	now := as.now()
	claims := JWTClaims{
		Role:      string(u.Role),
		SessionID: sessionID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			ID:        sessionID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, apierr.Unauthorized("missing token")
	}
	claims := &JWTClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(as.now))
	if err != nil || !parsed.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ctx, apierr.Unauthorized("token expired")
		}
		return ctx, apierr.Unauthorized("invalid token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, apierr.Unauthorized("invalid token subject")
	}
	found, err := as.userTokenRepo.GetByAccessTokens(dbctx.Context{Ctx: ctx}, []string{tokenString})
	if err != nil {
		return ctx, fmt.Errorf("load session: %w", err)
	}
	if len(found) == 0 || found[0] == nil || found[0].UserID != userID {
		return ctx, apierr.Unauthorized("session revoked")
	}
	rd := &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      userID,
		SessionID:   found[0].ID,
		Role:        claims.Role,
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}

func (as *authService) SweepExpired(ctx context.Context) (int64, error) {
	n, err := as.userTokenRepo.DeleteExpired(dbctx.Context{Ctx: ctx}, as.now())
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}
	if n > 0 {
		as.log.Info("expired sessions removed", "count", n)
	}
	return n, nil
}

// RunSessionSweeper blocks until ctx is done.
func (as *authService) RunSessionSweeper(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := as.SweepExpired(ctx); err != nil {
				as.log.Warn("session sweep failed", "error", err)
			}
		}
	}
}
