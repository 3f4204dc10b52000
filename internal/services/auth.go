package services

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ortoqbank/ortoqbank-backend/internal/platform/apierr"
	"github.com/ortoqbank/ortoqbank-backend/internal/platform/envutil"
	"github.com/ortoqbank/ortoqbank-backend/internal/platform/logger"
	"github.com/ortoqbank/ortoqbank-backend/internal/repos"
	"github.com/ortoqbank/ortoqbank-backend/internal/types"
)

// TokenClaims is what the service extracts from a verified access token.
type TokenClaims struct {
	Subject string
	Email   string
	Name    string
	Admin   bool
}

type AuthService interface {
	VerifyToken(ctx context.Context, tokenString string) (*TokenClaims, error)
	// EnsureUser provisions an account the first time a subject shows up.
	EnsureUser(ctx context.Context, claims *TokenClaims) (*types.User, error)
	IsEntitled(ctx context.Context, user *types.User) (bool, error)
}

type authService struct {
	db           *gorm.DB
	log          *logger.Logger
	userRepo     repos.UserRepo
	purchaseRepo repos.PurchaseRepo
	secret       []byte
}

func NewAuthService(db *gorm.DB, baseLog *logger.Logger, userRepo repos.UserRepo, purchaseRepo repos.PurchaseRepo) AuthService {
	return &authService{
		db:           db,
		log:          baseLog.With("service", "AuthService"),
		userRepo:     userRepo,
		purchaseRepo: purchaseRepo,
		secret:       []byte(envutil.String("JWT_SECRET", "")),
	}
}

func (s *authService) VerifyToken(ctx context.Context, tokenString string) (*TokenClaims, error) {
	if len(s.secret) == 0 {
		return nil, apierr.New(500, apierr.CodeInternal, jwt.ErrTokenUnverifiable)
	}
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired(), jwt.WithLeeway(30*time.Second))
	if err != nil || !token.Valid {
		return nil, apierr.New(401, apierr.CodeUnauthorized, err)
	}
	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apierr.New(401, apierr.CodeUnauthorized, jwt.ErrTokenInvalidClaims)
	}
	sub, _ := mc["sub"].(string)
	if sub == "" {
		return nil, apierr.New(401, apierr.CodeUnauthorized, jwt.ErrTokenRequiredClaimMissing)
	}
	claims := &TokenClaims{Subject: sub}
	claims.Email, _ = mc["email"].(string)
	claims.Name, _ = mc["name"].(string)
	claims.Admin, _ = mc["admin"].(bool)
	return claims, nil
}

func (s *authService) EnsureUser(ctx context.Context, claims *TokenClaims) (*types.User, error) {
	user, err := s.userRepo.GetByExternalID(ctx, nil, claims.Subject)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}
	now := time.Now().UTC()
	user = &types.User{
		ID:         uuid.New(),
		ExternalID: claims.Subject,
		Email:      claims.Email,
		Name:       claims.Name,
		IsAdmin:    claims.Admin,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.userRepo.Create(ctx, nil, user); err != nil {
		// A concurrent first request may have won the unique index race.
		existing, gerr := s.userRepo.GetByExternalID(ctx, nil, claims.Subject)
		if gerr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}
	s.log.Info("user provisioned", "id", user.ID, "external_id", user.ExternalID)
	return user, nil
}

func (s *authService) IsEntitled(ctx context.Context, user *types.User) (bool, error) {
	if user.IsAdmin {
		return true, nil
	}
	return s.purchaseRepo.HasSettled(ctx, nil, user.ID)
}
