package auth

import (
	"CaseLink/entity"
	"CaseLink/internal/lib/sl"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const lookupTimeout = 3 * time.Second

// Claims is the payload of tokens issued by the identity service.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id,omitempty"`
	Role   string `json:"role,omitempty"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
}

// GetUserID prefers the explicit user_id claim over the subject.
func (c *Claims) GetUserID() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

type Repository interface {
	GetUser(ctx context.Context, userID string) (*entity.User, error)
}

// Service verifies bearer tokens. Token issuance lives elsewhere.
type Service struct {
	secretKey  []byte
	issuer     string
	repository Repository
	log        *slog.Logger
}

func NewAuthService(secret, issuer string, logger *slog.Logger) *Service {
	return &Service{
		secretKey: []byte(secret),
		issuer:    issuer,
		log:       logger.With(sl.Module("auth-service")),
	}
}

// SetRepository enables filling role and name from the user directory
// when the token does not carry them.
func (s *Service) SetRepository(repository Repository) {
	s.repository = repository
}

func (s *Service) AuthenticateByToken(tokenString string) (*entity.UserAuth, error) {
	claims, err := s.verify(tokenString)
	if err != nil {
		return nil, err
	}

	user := &entity.UserAuth{
		UserID: claims.GetUserID(),
		Role:   claims.Role,
		Name:   claims.Name,
		Email:  claims.Email,
	}
	if user.UserID == "" {
		return nil, fmt.Errorf("token without subject: %w", entity.ErrUnauthenticated)
	}

	if s.repository != nil && (user.Role == "" || user.Name == "") {
		s.fillFromDirectory(user)
	}
	return user, nil
}

func (s *Service) fillFromDirectory(user *entity.UserAuth) {
	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()

	u, err := s.repository.GetUser(ctx, user.UserID)
	if err != nil {
		s.log.With(
			slog.String("user_id", user.UserID),
			sl.Err(err),
		).Debug("user lookup")
		return
	}
	if user.Role == "" {
		user.Role = u.Role
	}
	if user.Name == "" {
		user.Name = u.Name
	}
	if user.Email == "" {
		user.Email = u.Email
	}
}

func (s *Service) verify(tokenString string) (*Claims, error) {
	var opts []jwt.ParserOption
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secretKey, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("token expired: %w", entity.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("invalid token: %w", entity.ErrUnauthenticated)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token: %w", entity.ErrUnauthenticated)
}
