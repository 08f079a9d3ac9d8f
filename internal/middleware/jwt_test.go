package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func newJWTApp(cfg JWTConfig) *fiber.App {
	app := fiber.New()
	app.Use(JWTProtected(cfg))
	app.Get("/me", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"id": c.Locals("user_id"), "role": c.Locals("user_role")})
	})
	return app
}

func callWithToken(t *testing.T, app *fiber.App, token string) int {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestJWTProtectedAcceptsValidToken(t *testing.T) {
	app := newJWTApp(JWTConfig{Secret: testSecret, Issuer: "gema"})
	token := signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "17",
		"role": "Student",
		"iss":  "gema",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	require.Equal(t, fiber.StatusOK, callWithToken(t, app, token))
}

func TestJWTProtectedRejectsInvalidTokens(t *testing.T) {
	app := newJWTApp(JWTConfig{Secret: testSecret, Issuer: "gema"})
	future := time.Now().Add(time.Hour).Unix()

	cases := map[string]string{
		"missing header": "",
		"expired":        signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "1", "iss": "gema", "exp": time.Now().Add(-time.Hour).Unix()}),
		"no expiry":      signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "1", "iss": "gema"}),
		"wrong issuer":   signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "1", "iss": "other", "exp": future}),
		"no subject":     signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{"iss": "gema", "exp": future}),
		"garbage":        "not-a-token",
	}

	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, fiber.StatusUnauthorized, callWithToken(t, app, token))
		})
	}
}

func TestExtractClaimsNormalizesValues(t *testing.T) {
	id := extractUserIDFromClaims(jwt.MapClaims{"user_id": float64(5)})
	require.NotNil(t, id)
	require.Equal(t, uint(5), *id)

	require.Nil(t, extractUserIDFromClaims(jwt.MapClaims{"sub": "abc"}))
	require.Equal(t, "teacher", extractUserRoleFromClaims(jwt.MapClaims{"roles": []interface{}{" Teacher ", "admin"}}))
}
