package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"blackdonut/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionToken(t *testing.T) {
	s := &Server{config: testConfig()}
	partner := models.Actor{ID: 12, Kind: models.ActorFoodPartner}

	token, err := s.generateToken(partner)
	require.NoError(t, err)

	got, err := s.parseToken(token, models.ActorFoodPartner)
	require.NoError(t, err)
	assert.Equal(t, partner, got)

	_, err = s.parseToken(token, models.ActorUser)
	assert.Error(t, err, "a partner token is not a user session")

	other := &Server{config: testConfig()}
	other.config.JWTSecret = "a-different-secret-a-different-secret"
	_, err = other.parseToken(token, models.ActorFoodPartner)
	assert.Error(t, err)
}

func TestSessionToken_RejectsForeignClaims(t *testing.T) {
	s := &Server{config: testConfig()}
	claims := sessionClaims{
		Type: models.ActorUser,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			Issuer:    "someone-else",
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.JWTSecret))
	require.NoError(t, err)
	_, err = s.parseToken(raw, models.ActorUser)
	assert.Error(t, err)

	claims.Issuer = tokenIssuer
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	raw, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.JWTSecret))
	require.NoError(t, err)
	_, err = s.parseToken(raw, models.ActorUser)
	assert.Error(t, err, "expired")
}

func TestRoleGuards(t *testing.T) {
	env := newTestEnv(t, nil)
	partner, _ := env.registerPartner(t, "owner@donut.test")
	diner := env.registerUser(t, "diner@donut.test")

	resp, body := env.callJSON(t, http.MethodGet, "/api/food", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Unauthenticated", body["message"])

	resp, _ = env.callJSON(t, http.MethodGet, "/api/food", nil, partner)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "partner session on a user route")

	resp, _ = env.callJSON(t, http.MethodGet, "/api/food-partner/me", nil, diner)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "user session on a partner route")

	resp, _ = env.callJSON(t, http.MethodGet, "/api/food", nil, diner)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	token, err := env.srv.generateToken(models.Actor{ID: 4040, Kind: models.ActorUser})
	require.NoError(t, err)
	resp, _ = env.callJSON(t, http.MethodGet, "/api/food", nil, &http.Cookie{Name: userCookie, Value: token})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "deleted account")
}

func TestPartnerRequired_StoresOnlyActor(t *testing.T) {
	env := newTestEnv(t, nil)
	partner, partnerID := env.registerPartner(t, "owner@donut.test")

	var seen models.Actor
	var leftovers []interface{}
	app := fiber.New()
	app.Get("/me", env.srv.PartnerRequired(), func(c *fiber.Ctx) error {
		seen = actorFrom(c)
		leftovers = []interface{}{c.Locals("user"), c.Locals("foodPartner")}
		return c.SendStatus(fiber.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(partner)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, models.Actor{ID: partnerID, Kind: models.ActorFoodPartner}, seen)
	assert.Equal(t, []interface{}{nil, nil}, leftovers)

	token, err := env.srv.generateToken(models.Actor{ID: 4040, Kind: models.ActorFoodPartner})
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: partnerCookie, Value: token})
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "deleted partner")
}

func TestLoginAndLogout(t *testing.T) {
	env := newTestEnv(t, nil)
	env.registerUser(t, "diner@donut.test")

	resp, body := env.callJSON(t, http.MethodPost, "/api/auth/user/login", map[string]string{
		"email": "DINER@donut.test", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid email or password", body["message"])

	resp, body = env.callJSON(t, http.MethodPost, "/api/auth/user/login", map[string]string{
		"email": "diner@donut.test", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	cookie := sessionCookie(t, resp, userCookie)

	resp, _ = env.callJSON(t, http.MethodGet, "/api/auth/user/logout", nil, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cleared := false
	for _, c := range resp.Cookies() {
		if c.Name == userCookie && c.Value == "" {
			cleared = true
		}
	}
	assert.True(t, cleared)

	resp, body = env.callJSON(t, http.MethodPost, "/api/auth/user/register", map[string]string{
		"fullName": "Someone", "email": "diner@donut.test", "password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "User already exists", body["message"])
}

var resetLink = regexp.MustCompile(`token=([0-9a-f]+)&amp;type=foodpartner`)

func TestPartnerPasswordReset(t *testing.T) {
	env := newTestEnv(t, nil)
	_, partnerID := env.registerPartner(t, "owner@donut.test")

	resp, body := env.callJSON(t, http.MethodPost, "/api/auth/food-partner/forgot-password", map[string]string{"email": "nobody@donut.test"})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Empty(t, env.mail.sent)

	resp, _ = env.callJSON(t, http.MethodPost, "/api/auth/food-partner/forgot-password", map[string]string{"email": "owner@donut.test"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, env.mail.sent, 1)
	m := resetLink.FindStringSubmatch(env.mail.sent[0].HTML)
	require.Len(t, m, 2, env.mail.sent[0].HTML)

	reset := func(token string) int {
		resp, _ := env.callJSON(t, http.MethodPost, "/api/auth/food-partner/reset-password", map[string]interface{}{
			"id": partnerID, "token": token, "password": "brand-new-pw",
		})
		return resp.StatusCode
	}
	assert.Equal(t, http.StatusBadRequest, reset("deadbeef"))
	assert.Equal(t, http.StatusOK, reset(m[1]))
	assert.Equal(t, http.StatusBadRequest, reset(m[1]), "tokens are single use")

	resp, _ = env.callJSON(t, http.MethodPost, "/api/auth/food-partner/login", map[string]string{
		"email": "owner@donut.test", "password": "brand-new-pw",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestFeatureFlagsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, body := env.call(t, httptest.NewRequest(http.MethodGet, "/api/feature-flags", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]interface{}{"engagement_events": true}, body["flags"], fmt.Sprint(body))
}
