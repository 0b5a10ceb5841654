package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"bloodlink/internal/domain"
	"bloodlink/internal/repository"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims are issued by the external identity service. The engine only verifies them.
type Claims struct {
	ActorID uuid.UUID   `json:"actor_id"`
	Name    string      `json:"name"`
	Email   string      `json:"email,omitempty"`
	Role    domain.Role `json:"role"`
	jwt.RegisteredClaims
}

type Service interface {
	ValidateAccessToken(token string) (*Claims, error)
	// Authenticate verifies the token and makes sure the actor row exists and
	// carries the name, email and role from the token.
	Authenticate(ctx context.Context, token string) (*domain.Actor, error)
	GenerateAccessToken(actor *domain.Actor, ttl time.Duration) (string, error)
}

type service struct {
	actorRepo repository.ActorRepository
	secret    []byte
}

func NewService(actorRepo repository.ActorRepository, secret string) Service {
	return &service{
		actorRepo: actorRepo,
		secret:    []byte(secret),
	}
}

func (s *service) ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.ActorID == uuid.Nil || !claims.Role.IsValid() {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (s *service) Authenticate(ctx context.Context, token string) (*domain.Actor, error) {
	claims, err := s.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}

	actor := &domain.Actor{
		ID:   claims.ActorID,
		Name: claims.Name,
		Role: claims.Role,
	}
	if claims.Email != "" {
		email := claims.Email
		actor.Email = &email
	}

	if err := s.actorRepo.Upsert(ctx, actor); err != nil {
		return nil, fmt.Errorf("sync actor: %w", err)
	}
	return actor, nil
}

func (s *service) GenerateAccessToken(actor *domain.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		ActorID: actor.ID,
		Name:    actor.Name,
		Role:    actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}
	if actor.Email != nil {
		claims.Email = *actor.Email
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}
