package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"campus-aid-buddy/internal/adapters/http/middleware"
	"campus-aid-buddy/internal/adapters/persistence/models"
	"campus-aid-buddy/internal/config"
	"campus-aid-buddy/internal/core/domain"
	"campus-aid-buddy/internal/core/services"
	"campus-aid-buddy/internal/pkg/logger"
	"campus-aid-buddy/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// fakeTokens maps bearer tokens straight to actors
type fakeTokens map[string]*domain.Actor

func (f fakeTokens) ValidateAccessToken(token string) (*domain.Actor, error) {
	if a, ok := f[token]; ok {
		return a, nil
	}
	return nil, errors.New("invalid token")
}

var testTokens = fakeTokens{
	"student":  {ID: "stu-1", Role: domain.RoleStudent, Department: "Computer Science"},
	"teacher":  {ID: "tch-1", Role: domain.RoleTeachingStaff, Department: "Computer Science"},
	"teacher2": {ID: "tch-2", Role: domain.RoleTeachingStaff, Department: "Mathematics"},
	"admin":    {ID: "adm-1", Role: domain.RoleAdmin},
}

type apiResult struct {
	code int
	body response.Response
	raw  []byte
}

func do(t *testing.T, app *fiber.App, method, target, token string, body interface{}) apiResult {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}

	out := apiResult{code: resp.StatusCode, raw: raw}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out.body); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, target, raw, err)
		}
	}
	return out
}

// dataAs re-decodes the envelope's data field into v
func (r apiResult) dataAs(t *testing.T, v interface{}) {
	t.Helper()
	b, err := json.Marshal(r.body.Data)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		t.Fatalf("decode data %s: %v", b, err)
	}
}

func TestHealthCheck(t *testing.T) {
	cfg := &config.Config{
		AppMode: "dev",
		Storage: config.StorageConfig{Driver: "local"},
	}

	tests := []struct {
		name       string
		ping       func() error
		wantCode   int
		wantStatus string
		wantDB     string
	}{
		{"healthy", func() error { return nil }, fiber.StatusOK, "ok", "healthy"},
		{"database down", func() error { return errors.New("connection refused") }, fiber.StatusServiceUnavailable, "degraded", "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/health", NewHealthHandler(cfg, tt.ping).HealthCheck)

			res := do(t, app, fiber.MethodGet, "/health", "", nil)
			if res.code != tt.wantCode {
				t.Fatalf("status = %d, want %d", res.code, tt.wantCode)
			}

			var got struct {
				Status string            `json:"status"`
				Checks map[string]string `json:"checks"`
			}
			if err := json.Unmarshal(res.raw, &got); err != nil {
				t.Fatal(err)
			}
			if got.Status != tt.wantStatus || got.Checks["database"] != tt.wantDB {
				t.Errorf("got %+v", got)
			}
			if got.Checks["search"] != "disabled" || got.Checks["storage"] != "local" {
				t.Errorf("checks = %v", got.Checks)
			}
		})
	}
}

// memNoticeRepo is an in-memory NoticeRepository
type memNoticeRepo struct {
	mu      sync.Mutex
	notices map[string]*models.Notice
	seq     int
}

func newMemNoticeRepo() *memNoticeRepo {
	return &memNoticeRepo{notices: map[string]*models.Notice{}}
}

func (r *memNoticeRepo) Create(ctx context.Context, n *models.Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	n.ID = fmt.Sprintf("notice-%d", r.seq)
	c := *n
	r.notices[n.ID] = &c
	return nil
}

func (r *memNoticeRepo) GetByID(ctx context.Context, id string) (*models.Notice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notices[id]
	if !ok {
		return nil, domain.ErrNoticeNotFound
	}
	c := *n
	return &c, nil
}

func (r *memNoticeRepo) Update(ctx context.Context, n *models.Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *n
	r.notices[n.ID] = &c
	return nil
}

func (r *memNoticeRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.notices, id)
	return nil
}

func (r *memNoticeRepo) sorted() []*models.Notice {
	out := make([]*models.Notice, 0, len(r.notices))
	for _, n := range r.notices {
		c := *n
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (r *memNoticeRepo) ListActive(ctx context.Context, now time.Time) ([]*models.Notice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Notice
	for _, n := range r.sorted() {
		if n.IsActive && (n.ExpiresAt == nil || n.ExpiresAt.After(now)) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *memNoticeRepo) List(ctx context.Context, offset, limit int) ([]*models.Notice, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.sorted()
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}

func (r *memNoticeRepo) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

func newNoticeApp() *fiber.App {
	h := NewNoticeHandler(services.NewNoticeService(newMemNoticeRepo(), logger.Nop(), nil))
	app := fiber.New()
	g := app.Group("/notices", middleware.AuthMiddleware(testTokens))
	g.Get("/", h.ListNotices)
	g.Get("/all", middleware.AdminOnly(), h.ListAllNotices)
	g.Get("/:id", h.GetNotice)
	g.Post("/", h.CreateNotice)
	g.Put("/:id", h.UpdateNotice)
	g.Patch("/:id/active", h.SetActive)
	g.Delete("/:id", h.DeleteNotice)
	return app
}

func TestNoticeLifecycle(t *testing.T) {
	app := newNoticeApp()

	input := services.NoticeInput{
		Title:       "Mid-term schedule",
		Content:     "Mid-terms start on Monday.",
		TargetRoles: []domain.Role{domain.RoleStudent, domain.RoleStudent},
	}

	res := do(t, app, fiber.MethodPost, "/notices", "teacher", input)
	if res.code != fiber.StatusCreated {
		t.Fatalf("create: status = %d body = %s", res.code, res.raw)
	}
	var created models.Notice
	res.dataAs(t, &created)
	if created.ID == "" || len(created.TargetRoles) != 1 || created.PublishedBy != "tch-1" {
		t.Fatalf("created = %+v", created)
	}

	tests := []struct {
		name     string
		method   string
		target   string
		token    string
		body     interface{}
		wantCode int
	}{
		{"student cannot publish", fiber.MethodPost, "/notices", "student", input, fiber.StatusForbidden},
		{"missing title", fiber.MethodPost, "/notices", "teacher", services.NoticeInput{Content: "x", TargetRoles: []domain.Role{domain.RoleStudent}}, fiber.StatusBadRequest},
		{"unknown role", fiber.MethodPost, "/notices", "admin", services.NoticeInput{Title: "x", Content: "y", TargetRoles: []domain.Role{"wizard"}}, fiber.StatusBadRequest},
		{"student reads targeted notice", fiber.MethodGet, "/notices/" + created.ID, "student", nil, fiber.StatusOK},
		{"unknown notice", fiber.MethodGet, "/notices/missing", "student", nil, fiber.StatusNotFound},
		{"other publisher cannot edit", fiber.MethodPut, "/notices/" + created.ID, "teacher2", input, fiber.StatusForbidden},
		{"list all is admin only", fiber.MethodGet, "/notices/all", "teacher", nil, fiber.StatusForbidden},
		{"admin lists all", fiber.MethodGet, "/notices/all", "admin", nil, fiber.StatusOK},
		{"no token", fiber.MethodGet, "/notices", "", nil, fiber.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := do(t, app, tt.method, tt.target, tt.token, tt.body); got.code != tt.wantCode {
				t.Errorf("status = %d, want %d (body %s)", got.code, tt.wantCode, got.raw)
			}
		})
	}

	var listed []models.Notice
	do(t, app, fiber.MethodGet, "/notices", "student", nil).dataAs(t, &listed)
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Fatalf("student list = %+v", listed)
	}

	// Deactivated notices drop out of the student's list
	if got := do(t, app, fiber.MethodPatch, "/notices/"+created.ID+"/active", "teacher", ActiveRequest{Active: false}); got.code != fiber.StatusOK {
		t.Fatalf("deactivate: status = %d", got.code)
	}
	listed = nil
	do(t, app, fiber.MethodGet, "/notices", "student", nil).dataAs(t, &listed)
	if len(listed) != 0 {
		t.Errorf("after deactivate list = %+v", listed)
	}
	if got := do(t, app, fiber.MethodGet, "/notices/"+created.ID, "student", nil); got.code != fiber.StatusNotFound {
		t.Errorf("inactive notice for student: status = %d, want 404", got.code)
	}

	if got := do(t, app, fiber.MethodDelete, "/notices/"+created.ID, "admin", nil); got.code != fiber.StatusOK {
		t.Errorf("admin delete: status = %d", got.code)
	}
}

// memChatRepo keeps assistant history in memory, oldest first
type memChatRepo struct {
	mu   sync.Mutex
	msgs []*models.ChatMessage
}

func (r *memChatRepo) Create(ctx context.Context, msg *models.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *msg
	r.msgs = append(r.msgs, &c)
	return nil
}

func (r *memChatRepo) ListByUser(ctx context.Context, userID, assistant string, limit int) ([]*models.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ChatMessage
	for i := len(r.msgs) - 1; i >= 0 && len(out) < limit; i-- {
		m := r.msgs[i]
		if m.UserID == userID && (assistant == "" || m.Assistant == assistant) {
			out = append(out, m)
		}
	}
	return out, nil
}

// emptySyllabi is a SyllabusRepository with no uploads
type emptySyllabi struct{}

func (emptySyllabi) Create(ctx context.Context, s *models.Syllabus) error { return nil }
func (emptySyllabi) GetByID(ctx context.Context, id string) (*models.Syllabus, error) {
	return nil, domain.ErrSyllabusNotFound
}
func (emptySyllabi) Update(ctx context.Context, s *models.Syllabus) error { return nil }
func (emptySyllabi) Delete(ctx context.Context, id string) error { return nil }
func (emptySyllabi) ListByDepartment(ctx context.Context, department, subject string) ([]*models.Syllabus, error) {
	return nil, nil
}

func newAssistantApp(t *testing.T) *fiber.App {
	t.Helper()
	kb, err := services.LoadAssistantKnowledge()
	if err != nil {
		t.Fatal(err)
	}
	h := NewAssistantHandler(services.NewAssistantService(kb, nil, &memChatRepo{}, emptySyllabi{}, logger.Nop()))

	app := fiber.New()
	auth := middleware.AuthMiddleware(testTokens)
	app.Get("/assistant/faqs", h.FAQs)
	app.Get("/assistant/subjects", h.Subjects)
	app.Post("/assistant/campus", auth, h.AskCampus)
	app.Post("/assistant/teacher", auth, h.AskTeacher)
	app.Get("/assistant/history", auth, h.History)
	return app
}

func TestAssistantEndpoints(t *testing.T) {
	app := newAssistantApp(t)

	var faqs []services.FAQ
	res := do(t, app, fiber.MethodGet, "/assistant/faqs", "", nil)
	res.dataAs(t, &faqs)
	if res.code != fiber.StatusOK || len(faqs) == 0 {
		t.Fatalf("faqs: status = %d, %d entries", res.code, len(faqs))
	}

	var subjects []string
	do(t, app, fiber.MethodGet, "/assistant/subjects", "", nil).dataAs(t, &subjects)
	if len(subjects) == 0 {
		t.Error("no subjects")
	}

	if got := do(t, app, fiber.MethodPost, "/assistant/campus", "student", AskRequest{Query: "   "}); got.code != fiber.StatusBadRequest {
		t.Errorf("blank query: status = %d, want 400", got.code)
	}

	res = do(t, app, fiber.MethodPost, "/assistant/campus", "student", AskRequest{Query: "cafeteria timings"})
	if res.code != fiber.StatusOK {
		t.Fatalf("ask campus: status = %d body = %s", res.code, res.raw)
	}
	var reply services.CampusReply
	res.dataAs(t, &reply)
	if reply.Type != services.ReplyFacility {
		t.Errorf("reply type = %q, want %q", reply.Type, services.ReplyFacility)
	}

	if got := do(t, app, fiber.MethodPost, "/assistant/teacher", "student", AskRequest{Query: "explain sorting"}); got.code != fiber.StatusOK {
		t.Errorf("ask teacher: status = %d body = %s", got.code, got.raw)
	}

	var history []models.ChatMessage
	res = do(t, app, fiber.MethodGet, "/assistant/history?assistant=campus", "student", nil)
	res.dataAs(t, &history)
	if len(history) != 1 || history[0].Query != "cafeteria timings" {
		t.Errorf("campus history = %+v", history)
	}

	if got := do(t, app, fiber.MethodGet, "/assistant/history?assistant=oracle", "student", nil); got.code != fiber.StatusBadRequest {
		t.Errorf("unknown assistant: status = %d, want 400", got.code)
	}
	if got := do(t, app, fiber.MethodGet, "/assistant/history", "teacher", nil); got.code != fiber.StatusOK {
		t.Errorf("other user's history: status = %d", got.code)
	}
}
