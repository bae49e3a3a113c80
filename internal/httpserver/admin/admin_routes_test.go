package admin

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/solutionai/ticket-triage/backend/internal/app"
	"github.com/solutionai/ticket-triage/backend/internal/config"
)

func newAdminApp(key string) *fiber.App {
	container := &app.Container{
		Config: &config.Config{Admin: config.AdminConfig{APIKey: key}},
	}

	router := fiber.New()
	router.Get("/admin/probe", adminAuthMiddleware(container), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return router
}

func TestAdminAuthRequiresHeader(t *testing.T) {
	router := newAdminApp("op-secret")

	resp, err := router.Test(httptest.NewRequest("GET", "/admin/probe", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAdminAuthRejectsWrongKey(t *testing.T) {
	router := newAdminApp("op-secret")

	req := httptest.NewRequest("GET", "/admin/probe", nil)
	req.Header.Set(adminKeyHeader, "guess")
	resp, err := router.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAdminAuthAcceptsConfiguredKey(t *testing.T) {
	router := newAdminApp("op-secret")

	req := httptest.NewRequest("GET", "/admin/probe", nil)
	req.Header.Set(adminKeyHeader, "op-secret")
	resp, err := router.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAdminAuthDisabledWithoutConfiguredKey(t *testing.T) {
	router := newAdminApp("")

	req := httptest.NewRequest("GET", "/admin/probe", nil)
	req.Header.Set(adminKeyHeader, "anything")
	resp, err := router.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestTruncateText(t *testing.T) {
	require.Equal(t, "short", truncateText("short", 100))

	long := strings.Repeat("a", 150)
	got := truncateText(long, 100)
	require.Len(t, []rune(got), 103)
	require.True(t, strings.HasSuffix(got, "..."))

	// Multibyte text must not be cut mid-rune.
	require.Equal(t, "héllo", truncateText("héllo", 5))
}

func TestPageParamsClamping(t *testing.T) {
	router := fiber.New()
	var limit, offset int32
	router.Get("/", func(c *fiber.Ctx) error {
		limit, offset = pageParams(c)
		return c.SendStatus(fiber.StatusOK)
	})

	_, err := router.Test(httptest.NewRequest("GET", "/?limit=9000&offset=-3", nil))
	require.NoError(t, err)
	require.Equal(t, int32(maxPageLimit), limit)
	require.Equal(t, int32(0), offset)

	_, err = router.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	require.Equal(t, int32(defaultPageLimit), limit)
	require.Equal(t, int32(0), offset)
}
