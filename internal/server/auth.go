package server

import (
	"context"
	"errors"
	"strconv"
	"time"

	"blackdonut/internal/middleware"
	"blackdonut/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	userCookie    = "userToken"
	partnerCookie = "foodPartnerToken"

	tokenIssuer   = "blackdonut-api"
	tokenAudience = "blackdonut-client"

	defaultSessionTTL = 7 * 24 * time.Hour
)

var errUnauthenticated = models.NewUnauthorizedError("Unauthenticated")

// sessionClaims are the claims carried by both session cookies. Type tells
// which account table Subject refers to.
type sessionClaims struct {
	Type models.ActorKind `json:"type"`
	jwt.RegisteredClaims
}

func cookieName(kind models.ActorKind) string {
	if kind == models.ActorFoodPartner {
		return partnerCookie
	}
	return userCookie
}

func (s *Server) sessionTTL() time.Duration {
	if s.config.SessionTTL > 0 {
		return s.config.SessionTTL
	}
	return defaultSessionTTL
}

// generateToken signs a session token for actor.
func (s *Server) generateToken(actor models.Actor) (string, error) {
	if s.config.JWTSecret == "" {
		return "", errors.New("JWT secret not configured")
	}

	now := time.Now()
	claims := sessionClaims{
		Type: actor.Kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(actor.ID), 10),
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL())),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.JWTSecret))
}

// parseToken validates a session token and returns the actor it names.
func (s *Server) parseToken(raw string, want models.ActorKind) (models.Actor, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return []byte(s.config.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return models.Actor{}, err
	}
	if claims.Type != want {
		return models.Actor{}, errors.New("session type mismatch")
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return models.Actor{}, errors.New("invalid subject")
	}
	return models.Actor{ID: uint(id), Kind: want}, nil
}

func (s *Server) setSessionCookie(c *fiber.Ctx, name, value string, expires time.Time) {
	cookie := &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
	if s.config.IsProduction() {
		cookie.Secure = true
		cookie.SameSite = fiber.CookieSameSiteNoneMode
	}
	c.Cookie(cookie)
}

// startSession issues the cookie for actor and clears the other kind's
// cookie, so a browser holds at most one identity.
func (s *Server) startSession(c *fiber.Ctx, actor models.Actor) error {
	token, err := s.generateToken(actor)
	if err != nil {
		return err
	}
	s.setSessionCookie(c, cookieName(actor.Kind), token, time.Now().Add(s.sessionTTL()))

	other := models.ActorUser
	if actor.Kind == models.ActorUser {
		other = models.ActorFoodPartner
	}
	s.endSession(c, other)
	return nil
}

func (s *Server) endSession(c *fiber.Ctx, kind models.ActorKind) {
	s.setSessionCookie(c, cookieName(kind), "", time.Unix(0, 0))
}

// UserRequired authenticates the user cookie and checks the user still exists.
func (s *Server) UserRequired() fiber.Handler {
	return s.sessionRequired(models.ActorUser, func(ctx context.Context, id uint) error {
		_, err := s.userRepo.GetByID(ctx, id)
		return err
	})
}

// PartnerRequired authenticates the food partner cookie and checks the partner
// still exists.
func (s *Server) PartnerRequired() fiber.Handler {
	return s.sessionRequired(models.ActorFoodPartner, func(ctx context.Context, id uint) error {
		_, err := s.partnerRepo.GetByID(ctx, id)
		return err
	})
}

func (s *Server) sessionRequired(kind models.ActorKind, exists func(context.Context, uint) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Cookies(cookieName(kind))
		if raw == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized, errUnauthenticated)
		}

		actor, err := s.parseToken(raw, kind)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, errUnauthenticated)
		}
		if err := exists(c.UserContext(), actor.ID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.RespondWithError(c, fiber.StatusUnauthorized, errUnauthenticated)
			}
			return respondError(c, models.NewInternalError(err))
		}

		middleware.WithActor(c, actor)
		return c.Next()
	}
}

// optionalActor returns whichever valid session the request carries.
func (s *Server) optionalActor(c *fiber.Ctx) (models.Actor, bool) {
	for _, kind := range []models.ActorKind{models.ActorFoodPartner, models.ActorUser} {
		if raw := c.Cookies(cookieName(kind)); raw != "" {
			if actor, err := s.parseToken(raw, kind); err == nil {
				return actor, true
			}
		}
	}
	return models.Actor{}, false
}
