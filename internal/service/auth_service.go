package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"digitalmaturity/internal/event"
	"digitalmaturity/internal/logger"
	"digitalmaturity/internal/model"
	"digitalmaturity/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessCodeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	accessCodeLen   = 8
)

// AuthService handles organization and admin authentication
type AuthService struct {
	orgRepo     repository.OrganizationRepo
	notify      notifier
	jwtSecret   []byte
	adminSecret string
	tokenTTL    time.Duration
	log         *logger.Logger
}

// AuthConfig carries the secrets of an AuthService
type AuthConfig struct {
	JWTSecret   string
	AdminSecret string
	TokenTTL    time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(orgRepo repository.OrganizationRepo, publisher event.Publisher, cfg AuthConfig, log *logger.Logger) *AuthService {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 8 * time.Hour
	}
	return &AuthService{
		orgRepo:     orgRepo,
		notify:      notifier{publisher: publisher, log: log},
		jwtSecret:   []byte(cfg.JWTSecret),
		adminSecret: cfg.AdminSecret,
		tokenTTL:    cfg.TokenTTL,
		log:         log,
	}
}

// Register creates an organization with a fresh access code and signs it in
func (s *AuthService) Register(ctx context.Context, req *model.RegisterRequest) (*model.TokenResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, validationError("name is required")
	}
	if !req.Type.Valid() {
		return nil, validationError("type must be %q or %q", model.OrgCompany, model.OrgPA)
	}
	if req.Password == "" {
		return nil, validationError("password is required")
	}
	if req.Email != "" {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			return nil, validationError("invalid email address")
		}
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	org := &model.Organization{
		Name:           req.Name,
		Type:           req.Type,
		Sector:         req.Sector,
		Size:           req.Size,
		Email:          req.Email,
		FiscalCode:     req.FiscalCode,
		Phone:          req.Phone,
		AdminName:      req.AdminName,
		HashedPassword: hash,
	}

	// collisions are caught by the unique index
	for attempts := 0; ; attempts++ {
		code, err := generateAccessCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate access code: %w", err)
		}
		org.ID = ""
		org.AccessCode = code
		err = s.orgRepo.Create(ctx, org)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrDuplicateAccessCode) || attempts >= 9 {
			return nil, fmt.Errorf("failed to create organization: %w", err)
		}
	}

	s.log.Info("organization registered", "organization_id", org.ID, "type", org.Type)
	s.notify.publish(ctx, event.OrganizationRegistered, event.OrganizationPayload{
		OrganizationID: org.ID,
		Name:           org.Name,
		Type:           string(org.Type),
	})

	return s.tokenResponse(org)
}

// Login signs an organization in with its access code. The code is case-insensitive.
func (s *AuthService) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	code := strings.ToUpper(strings.TrimSpace(req.AccessCode))
	if code == "" || req.Password == "" {
		return nil, ErrInvalidCredentials
	}

	org, err := s.orgRepo.GetByAccessCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	if org == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(org.HashedPassword), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.tokenResponse(org)
}

// Me returns the organization behind a token
func (s *AuthService) Me(ctx context.Context, orgID string) (*model.Organization, error) {
	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	if org == nil {
		return nil, ErrOrganizationNotFound
	}
	return org, nil
}

// UpdateOrganization applies the non-nil fields of req
func (s *AuthService) UpdateOrganization(ctx context.Context, orgID string, req *model.UpdateOrganizationRequest) (*model.Organization, error) {
	org, err := s.Me(ctx, orgID)
	if err != nil {
		return nil, err
	}

	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&org.Sector, req.Sector)
	set(&org.Size, req.Size)
	set(&org.FiscalCode, req.FiscalCode)
	set(&org.Phone, req.Phone)
	set(&org.AdminName, req.AdminName)

	if err := s.orgRepo.UpdateProfile(ctx, org); err != nil {
		return nil, fmt.Errorf("failed to update organization: %w", err)
	}
	return org, nil
}

// ValidateToken validates an organization JWT and returns claims
func (s *AuthService) ValidateToken(tokenString string) (*model.OrganizationClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.OrganizationClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.OrganizationClaims)
	if !ok || !token.Valid || claims.OrganizationID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// CheckAdminKey compares key with the configured admin secret
func (s *AuthService) CheckAdminKey(key string) error {
	if key == "" || s.adminSecret == "" {
		return ErrInvalidAdminKey
	}
	if subtle.ConstantTimeCompare([]byte(key), []byte(s.adminSecret)) != 1 {
		return ErrInvalidAdminKey
	}
	return nil
}

func (s *AuthService) tokenResponse(org *model.Organization) (*model.TokenResponse, error) {
	token, err := s.generateToken(org)
	if err != nil {
		return nil, err
	}
	return &model.TokenResponse{
		AccessToken:  token,
		TokenType:    "bearer",
		AccessCode:   org.AccessCode,
		Organization: org,
	}, nil
}

func (s *AuthService) generateToken(org *model.Organization) (string, error) {
	now := time.Now()
	claims := &model.OrganizationClaims{
		OrganizationID: org.ID,
		AccessCode:     org.AccessCode,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   org.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// generateAccessCode creates an 8-char uppercase alphanumeric code
func generateAccessCode() (string, error) {
	b := make([]byte, accessCodeLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = accessCodeChars[int(b[i])%len(accessCodeChars)]
	}
	return string(b), nil
}
