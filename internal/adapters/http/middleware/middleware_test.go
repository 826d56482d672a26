package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"campus-aid-buddy/internal/core/domain"
	"campus-aid-buddy/internal/pkg/jwt"
	"campus-aid-buddy/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type fakeTokens map[string]*domain.Actor

func (f fakeTokens) ValidateAccessToken(token string) (*domain.Actor, error) {
	if token == "expired" {
		return nil, jwt.ErrTokenExpired
	}
	actor, ok := f[token]
	if !ok {
		return nil, jwt.ErrTokenInvalid
	}
	return actor, nil
}

var testTokens = fakeTokens{
	"student-token": {ID: "u1", Role: domain.RoleStudent, Department: "Computer Science"},
	"admin-token":   {ID: "u2", Role: domain.RoleAdmin},
}

func whoAmI(c *fiber.Ctx) error {
	actor := Actor(c)
	if actor == nil {
		return c.SendString("anonymous")
	}
	return c.SendString(actor.ID)
}

func readBody(t *testing.T, r io.Reader) []byte {
	t.Helper()
	body, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return body
}

func decodeError(t *testing.T, body []byte) string {
	t.Helper()
	var r response.Response
	if err := json.Unmarshal(body, &r); err != nil {
		t.Fatalf("decode body %q: %v", body, err)
	}
	return r.Error
}

func TestAuthMiddleware(t *testing.T) {
	app := fiber.New()
	app.Get("/me", AuthMiddleware(testTokens), whoAmI)

	tests := []struct {
		name     string
		header   string
		cookie   string
		wantCode int
		wantBody string
		wantErr  string
	}{
		{name: "missing token", wantCode: fiber.StatusUnauthorized, wantErr: "Access token required"},
		{name: "not bearer", header: "Basic abc", wantCode: fiber.StatusUnauthorized, wantErr: "Access token required"},
		{name: "invalid token", header: "Bearer nope", wantCode: fiber.StatusUnauthorized, wantErr: "Invalid access token"},
		{name: "expired token", header: "Bearer expired", wantCode: fiber.StatusUnauthorized, wantErr: "Access token expired"},
		{name: "bearer header", header: "Bearer student-token", wantCode: fiber.StatusOK, wantBody: "u1"},
		{name: "cookie wins over header", header: "Bearer student-token", cookie: "admin-token", wantCode: fiber.StatusOK, wantBody: "u2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}
			if tt.cookie != "" {
				req.Header.Set(fiber.HeaderCookie, "access_token="+tt.cookie)
			}

			resp, err := app.Test(req)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantCode {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantCode)
			}
			body := readBody(t, resp.Body)
			if tt.wantErr != "" {
				if got := decodeError(t, body); got != tt.wantErr {
					t.Errorf("error = %q, want %q", got, tt.wantErr)
				}
				return
			}
			if string(body) != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}

func TestStreamAuthAcceptsQueryToken(t *testing.T) {
	app := fiber.New()
	app.Get("/stream", StreamAuth(testTokens), whoAmI)

	tests := []struct {
		target   string
		wantCode int
	}{
		{"/stream", fiber.StatusUnauthorized},
		{"/stream?access_token=nope", fiber.StatusUnauthorized},
		{"/stream?access_token=student-token", fiber.StatusOK},
	}

	for _, tt := range tests {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, tt.target, nil))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != tt.wantCode {
			t.Errorf("%s: status = %d, want %d", tt.target, resp.StatusCode, tt.wantCode)
		}
	}
}

func TestRoleMiddleware(t *testing.T) {
	app := fiber.New()
	app.Get("/admin", AuthMiddleware(testTokens), AdminOnly(), whoAmI)
	app.Get("/staff", AuthMiddleware(testTokens), RoleMiddleware(domain.RoleAdmin, domain.RoleStudent), whoAmI)
	app.Get("/no-auth", RoleMiddleware(domain.RoleAdmin), whoAmI)

	tests := []struct {
		path     string
		token    string
		wantCode int
	}{
		{"/admin", "admin-token", fiber.StatusOK},
		{"/admin", "student-token", fiber.StatusForbidden},
		{"/staff", "student-token", fiber.StatusOK},
		{"/no-auth", "", fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(fiber.MethodGet, tt.path, nil)
		if tt.token != "" {
			req.Header.Set(fiber.HeaderAuthorization, "Bearer "+tt.token)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != tt.wantCode {
			t.Errorf("%s as %q: status = %d, want %d", tt.path, tt.token, resp.StatusCode, tt.wantCode)
		}
	}
}

func TestOptionalAuth(t *testing.T) {
	app := fiber.New()
	app.Get("/", OptionalAuth(testTokens), whoAmI)

	tests := []struct {
		header string
		want   string
	}{
		{"", "anonymous"},
		{"Bearer nope", "anonymous"},
		{"Bearer admin-token", "u2"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(fiber.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set(fiber.HeaderAuthorization, tt.header)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatal(err)
		}
		body := readBody(t, resp.Body)
		resp.Body.Close()
		if resp.StatusCode != fiber.StatusOK || string(body) != tt.want {
			t.Errorf("header %q: got %d %q, want 200 %q", tt.header, resp.StatusCode, body, tt.want)
		}
	}
}

func TestCustomErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: CustomErrorHandler})
	app.Get("/teapot", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "short and stout")
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("db exploded")
	})

	tests := []struct {
		path     string
		wantCode int
		wantErr  string
	}{
		{"/teapot", fiber.StatusTeapot, "short and stout"},
		{"/boom", fiber.StatusInternalServerError, "Internal Server Error"},
		{"/missing", fiber.StatusNotFound, "Cannot GET /missing"},
	}

	for _, tt := range tests {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, tt.path, nil))
		if err != nil {
			t.Fatal(err)
		}
		body := readBody(t, resp.Body)
		resp.Body.Close()
		if resp.StatusCode != tt.wantCode {
			t.Errorf("%s: status = %d, want %d", tt.path, resp.StatusCode, tt.wantCode)
		}
		if got := decodeError(t, body); got != tt.wantErr {
			t.Errorf("%s: error = %q, want %q", tt.path, got, tt.wantErr)
		}
	}
}

func TestCacheHeaders(t *testing.T) {
	app := fiber.New()
	app.Get("/public", PublicCache(5*time.Minute), func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/private", PrivateCache(15*time.Second), func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/failing", PublicCache(time.Hour), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNotFound) })
	app.Get("/nocache", NoCache(), func(c *fiber.Ctx) error { return c.SendString("ok") })

	tests := []struct {
		path string
		want string
	}{
		{"/public", "public, max-age=300"},
		{"/private", "private, max-age=15"},
		{"/failing", ""},
		{"/nocache", "no-store, no-cache, must-revalidate"},
	}

	for _, tt := range tests {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, tt.path, nil))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if got := resp.Header.Get(fiber.HeaderCacheControl); got != tt.want {
			t.Errorf("%s: Cache-Control = %q, want %q", tt.path, got, tt.want)
		}
	}
}
