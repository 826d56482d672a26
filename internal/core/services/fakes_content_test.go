package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"campus-aid-buddy/internal/adapters/persistence/models"
	"campus-aid-buddy/internal/core/domain"

	"github.com/google/uuid"
)

var errStoreDown = errors.New("store unavailable")

// memUserRepo is an in-memory UserRepository
type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMemUserRepo() *memUserRepo { return &memUserRepo{users: map[string]*models.User{}} }

func (r *memUserRepo) Create(ctx context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return domain.ErrDuplicateEntry
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = time.Now()
	c := *u
	r.users[u.ID] = &c
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUserRepo) Update(ctx context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	c := *u
	r.users[u.ID] = &c
	return nil
}

func (r *memUserRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *memUserRepo) List(ctx context.Context, offset, limit int) ([]*models.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.User
	for _, u := range r.users {
		c := *u
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	total := int64(len(out))
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

func (r *memUserRepo) ListByRole(ctx context.Context, role domain.Role) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.User
	for _, u := range r.users {
		if u.Role == role && u.IsActive {
			c := *u
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *memUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	return err == nil, nil
}

// memRefreshRepo is an in-memory RefreshTokenRepository
type memRefreshRepo struct {
	mu     sync.Mutex
	nextID uint
	tokens map[uint]*models.RefreshToken
}

func newMemRefreshRepo() *memRefreshRepo {
	return &memRefreshRepo{tokens: map[uint]*models.RefreshToken{}}
}

func (r *memRefreshRepo) Create(ctx context.Context, t *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	t.ID = r.nextID
	c := *t
	r.tokens[t.ID] = &c
	return nil
}

func (r *memRefreshRepo) GetByTokenHash(ctx context.Context, hash string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.TokenHash == hash {
			c := *t
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memRefreshRepo) Revoke(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tokens[id]; ok && t.RevokedAt == nil {
		now := time.Now()
		t.RevokedAt = &now
	}
	return nil
}

func (r *memRefreshRepo) RevokeByTokenHash(ctx context.Context, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.TokenHash == hash && t.RevokedAt == nil {
			now := time.Now()
			t.RevokedAt = &now
		}
	}
	return nil
}

func (r *memRefreshRepo) RevokeAllByUserID(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			now := time.Now()
			t.RevokedAt = &now
		}
	}
	return nil
}

func (r *memRefreshRepo) DeleteExpired(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, t := range r.tokens {
		if time.Now().After(t.ExpiresAt) {
			delete(r.tokens, id)
			n++
		}
	}
	return n, nil
}

func (r *memRefreshRepo) active(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			n++
		}
	}
	return n
}

// memNoticeRepo is an in-memory NoticeRepository
type memNoticeRepo struct {
	mu      sync.Mutex
	notices map[string]*models.Notice
}

func newMemNoticeRepo() *memNoticeRepo { return &memNoticeRepo{notices: map[string]*models.Notice{}} }

func cloneNotice(n *models.Notice) *models.Notice {
	c := *n
	c.TargetRoles = append([]string(nil), n.TargetRoles...)
	return &c
}

func (r *memNoticeRepo) Create(ctx context.Context, n *models.Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	r.notices[n.ID] = cloneNotice(n)
	return nil
}

func (r *memNoticeRepo) GetByID(ctx context.Context, id string) (*models.Notice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notices[id]
	if !ok {
		return nil, domain.ErrNoticeNotFound
	}
	return cloneNotice(n), nil
}

func (r *memNoticeRepo) Update(ctx context.Context, n *models.Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices[n.ID] = cloneNotice(n)
	return nil
}

func (r *memNoticeRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.notices[id]; !ok {
		return domain.ErrNoticeNotFound
	}
	delete(r.notices, id)
	return nil
}

func (r *memNoticeRepo) newestFirst(match func(*models.Notice) bool) []*models.Notice {
	var out []*models.Notice
	for _, n := range r.notices {
		if match(n) {
			out = append(out, cloneNotice(n))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PublishedAt.After(out[j].PublishedAt) })
	return out
}

func (r *memNoticeRepo) ListActive(ctx context.Context, now time.Time) ([]*models.Notice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.newestFirst(func(n *models.Notice) bool {
		return n.IsActive && (n.ExpiresAt == nil || n.ExpiresAt.After(now))
	}), nil
}

func (r *memNoticeRepo) List(ctx context.Context, offset, limit int) ([]*models.Notice, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.newestFirst(func(*models.Notice) bool { return true })
	return all, int64(len(all)), nil
}

func (r *memNoticeRepo) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, notice := range r.notices {
		if notice.IsActive && notice.ExpiresAt != nil && !notice.ExpiresAt.After(now) {
			notice.IsActive = false
			n++
		}
	}
	return n, nil
}

// memLectureRepo is an in-memory LectureRepository
type memLectureRepo struct {
	mu        sync.Mutex
	lectures  map[string]*models.Lecture
	failWrite error
}

func newMemLectureRepo() *memLectureRepo { return &memLectureRepo{lectures: map[string]*models.Lecture{}} }

func (r *memLectureRepo) Create(ctx context.Context, l *models.Lecture) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrite != nil {
		return r.failWrite
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	c := *l
	r.lectures[l.ID] = &c
	return nil
}

func (r *memLectureRepo) GetByID(ctx context.Context, id string) (*models.Lecture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lectures[id]
	if !ok {
		return nil, domain.ErrLectureNotFound
	}
	c := *l
	return &c, nil
}

func (r *memLectureRepo) Update(ctx context.Context, l *models.Lecture) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *l
	r.lectures[l.ID] = &c
	return nil
}

func (r *memLectureRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.lectures[id]; !ok {
		return domain.ErrLectureNotFound
	}
	delete(r.lectures, id)
	return nil
}

func (r *memLectureRepo) filter(match func(*models.Lecture) bool) []*models.Lecture {
	var out []*models.Lecture
	for _, l := range r.lectures {
		if match(l) {
			c := *l
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	return out
}

func (r *memLectureRepo) ListPublishedByDepartment(ctx context.Context, department string) ([]*models.Lecture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filter(func(l *models.Lecture) bool { return l.Department == department && l.IsPublished }), nil
}

func (r *memLectureRepo) ListByUploader(ctx context.Context, uploaderID string) ([]*models.Lecture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filter(func(l *models.Lecture) bool { return l.UploadedBy == uploaderID }), nil
}

func (r *memLectureRepo) List(ctx context.Context, offset, limit int) ([]*models.Lecture, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.filter(func(*models.Lecture) bool { return true })
	return all, int64(len(all)), nil
}

// memSyllabusRepo is an in-memory SyllabusRepository
type memSyllabusRepo struct {
	mu        sync.Mutex
	rows      map[string]*models.Syllabus
	failWrite error
}

func newMemSyllabusRepo() *memSyllabusRepo { return &memSyllabusRepo{rows: map[string]*models.Syllabus{}} }

func (r *memSyllabusRepo) Create(ctx context.Context, s *models.Syllabus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrite != nil {
		return r.failWrite
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	c := *s
	r.rows[s.ID] = &c
	return nil
}

func (r *memSyllabusRepo) GetByID(ctx context.Context, id string) (*models.Syllabus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[id]
	if !ok {
		return nil, domain.ErrSyllabusNotFound
	}
	c := *s
	return &c, nil
}

func (r *memSyllabusRepo) Update(ctx context.Context, s *models.Syllabus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *s
	r.rows[s.ID] = &c
	return nil
}

func (r *memSyllabusRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return domain.ErrSyllabusNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *memSyllabusRepo) ListByDepartment(ctx context.Context, department, subject string) ([]*models.Syllabus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Syllabus
	for _, s := range r.rows {
		if s.Department == department && (subject == "" || s.Subject == subject) {
			c := *s
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	return out, nil
}

// memChatRepo is an in-memory ChatRepository
type memChatRepo struct {
	mu   sync.Mutex
	msgs []*models.ChatMessage
	fail error
}

func (r *memChatRepo) Create(ctx context.Context, m *models.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	c := *m
	c.ID = uuid.NewString()
	c.CreatedAt = time.Date(2024, 1, 1, 0, 0, len(r.msgs), 0, time.UTC)
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
			c := *m
			out = append(out, &c)
		}
	}
	return out, nil
}

// memLocationRepo is an in-memory LocationRepository
type memLocationRepo struct {
	mu   sync.Mutex
	locs map[string]*models.CampusLocation
}

func newMemLocationRepo() *memLocationRepo {
	return &memLocationRepo{locs: map[string]*models.CampusLocation{}}
}

func (r *memLocationRepo) Create(ctx context.Context, l *models.CampusLocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	c := *l
	r.locs[l.ID] = &c
	return nil
}

func (r *memLocationRepo) GetByID(ctx context.Context, id string) (*models.CampusLocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locs[id]
	if !ok {
		return nil, domain.ErrLocationNotFound
	}
	c := *l
	return &c, nil
}

func (r *memLocationRepo) Update(ctx context.Context, l *models.CampusLocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *l
	r.locs[l.ID] = &c
	return nil
}

func (r *memLocationRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.locs[id]; !ok {
		return domain.ErrLocationNotFound
	}
	delete(r.locs, id)
	return nil
}

func (r *memLocationRepo) byName(match func(*models.CampusLocation) bool) []*models.CampusLocation {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.CampusLocation
	for _, l := range r.locs {
		if match(l) {
			c := *l
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *memLocationRepo) List(ctx context.Context) ([]*models.CampusLocation, error) {
	return r.byName(func(*models.CampusLocation) bool { return true }), nil
}

func (r *memLocationRepo) ListByType(ctx context.Context, t domain.LocationType) ([]*models.CampusLocation, error) {
	return r.byName(func(l *models.CampusLocation) bool { return l.Type == t }), nil
}

func (r *memLocationRepo) ListByBuilding(ctx context.Context, building string) ([]*models.CampusLocation, error) {
	return r.byName(func(l *models.CampusLocation) bool { return l.Building == building }), nil
}

func (r *memLocationRepo) Search(ctx context.Context, term string) ([]*models.CampusLocation, error) {
	term = strings.ToLower(term)
	return r.byName(func(l *models.CampusLocation) bool {
		return strings.Contains(strings.ToLower(l.Name), term) ||
			strings.Contains(strings.ToLower(l.Description), term) ||
			strings.Contains(strings.ToLower(l.Building), term)
	}), nil
}

func (r *memLocationRepo) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.locs)), nil
}

// memQRRepo is an in-memory QRCodeRepository
type memQRRepo struct {
	mu    sync.Mutex
	codes map[string]*models.QRCode
}

func newMemQRRepo() *memQRRepo { return &memQRRepo{codes: map[string]*models.QRCode{}} }

func (r *memQRRepo) Create(ctx context.Context, q *models.QRCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.codes {
		if existing.Code == q.Code {
			return domain.ErrDuplicateEntry
		}
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	c := *q
	r.codes[q.ID] = &c
	return nil
}

func (r *memQRRepo) GetActiveByCode(ctx context.Context, code string) (*models.QRCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, q := range r.codes {
		if q.Code == code && q.IsActive {
			c := *q
			return &c, nil
		}
	}
	return nil, domain.ErrQRCodeNotFound
}

func (r *memQRRepo) SetActive(ctx context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.codes[id]
	if !ok {
		return domain.ErrQRCodeNotFound
	}
	q.IsActive = active
	return nil
}

func (r *memQRRepo) ListByLocation(ctx context.Context, locationID string) ([]*models.QRCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.QRCode
	for _, q := range r.codes {
		if q.LocationID == locationID {
			c := *q
			out = append(out, &c)
		}
	}
	return out, nil
}
