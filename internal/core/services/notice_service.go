package services

import (
	"context"
	"strings"
	"time"

	"campus-aid-buddy/internal/adapters/persistence/models"
	"campus-aid-buddy/internal/adapters/persistence/repositories"
	"campus-aid-buddy/internal/core/domain"

	"github.com/rs/zerolog"
)

// NoticeService publishes role-targeted notices
type NoticeService struct {
	repo repositories.NoticeRepository
	log  zerolog.Logger
	now  Clock
}

// NewNoticeService creates a new notice service
func NewNoticeService(repo repositories.NoticeRepository, l zerolog.Logger, now Clock) *NoticeService {
	if now == nil {
		now = systemClock
	}
	return &NoticeService{repo: repo, log: l, now: now}
}

// CanPublishNotices reports whether role may create and edit notices
func CanPublishNotices(role domain.Role) bool {
	switch role {
	case domain.RoleAdmin, domain.RoleHOD, domain.RoleTeachingStaff, domain.RoleDepartmentStaff:
		return true
	}
	return false
}

// NoticeInput carries the writable notice fields
type NoticeInput struct {
	Title       string                `json:"title"`
	Content     string                `json:"content"`
	Category    string                `json:"category"`
	Department  string                `json:"department"`
	TargetRoles []domain.Role         `json:"target_roles"`
	Priority    domain.NoticePriority `json:"priority"`
	ExpiresAt   *time.Time            `json:"expires_at"`
}

func (in *NoticeInput) normalize(now time.Time) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	in.Category = strings.TrimSpace(in.Category)
	in.Department = strings.TrimSpace(in.Department)
	if in.Priority == "" {
		in.Priority = domain.NoticeNormal
	}

	if in.Title == "" || in.Content == "" {
		return domain.Validationf("title and content are required")
	}
	if !in.Priority.Valid() {
		return domain.Validationf("unknown notice priority %q", in.Priority)
	}
	if len(in.TargetRoles) == 0 {
		return domain.Validationf("at least one target role is required")
	}
	for _, r := range in.TargetRoles {
		if !r.Valid() {
			return domain.Validationf("unknown role %q", r)
		}
	}
	if in.ExpiresAt != nil && !in.ExpiresAt.After(now) {
		return domain.Validationf("expiry must be in the future")
	}
	return nil
}

func (in *NoticeInput) roles() []string {
	seen := make(map[domain.Role]bool, len(in.TargetRoles))
	out := make([]string, 0, len(in.TargetRoles))
	for _, r := range in.TargetRoles {
		if !seen[r] {
			seen[r] = true
			out = append(out, string(r))
		}
	}
	return out
}

// CreateNotice publishes a notice
func (s *NoticeService) CreateNotice(ctx context.Context, actor *domain.Actor, input NoticeInput) (*models.Notice, error) {
	if err := actorRequired(actor); err != nil {
		return nil, err
	}
	if !CanPublishNotices(actor.Role) {
		return nil, domain.ErrPermissionDenied
	}
	now := s.now()
	if err := input.normalize(now); err != nil {
		return nil, err
	}

	notice := &models.Notice{
		Title:       input.Title,
		Content:     input.Content,
		Category:    input.Category,
		Department:  input.Department,
		TargetRoles: input.roles(),
		Priority:    input.Priority,
		PublishedBy: actor.ID,
		PublishedAt: now,
		ExpiresAt:   input.ExpiresAt,
		IsActive:    true,
	}
	if err := s.repo.Create(ctx, notice); err != nil {
		return nil, err
	}

	s.log.Info().Str("notice_id", notice.ID).Str("by", actor.ID).Strs("roles", notice.TargetRoles).Msg("notice published")
	return notice, nil
}

// ListForActor returns active, unexpired notices addressed to the actor's
// role, newest first. Admins see every active notice.
func (s *NoticeService) ListForActor(ctx context.Context, actor *domain.Actor) ([]*models.Notice, error) {
	if err := actorRequired(actor); err != nil {
		return nil, err
	}
	notices, err := s.repo.ListActive(ctx, s.now())
	if err != nil {
		return nil, err
	}
	if actor.Role == domain.RoleAdmin {
		return notices, nil
	}

	out := make([]*models.Notice, 0, len(notices))
	for _, n := range notices {
		if n.TargetsRole(actor.Role) {
			out = append(out, n)
		}
	}
	return out, nil
}

// ListAll pages through every notice, including inactive ones
func (s *NoticeService) ListAll(ctx context.Context, offset, limit int) ([]*models.Notice, int64, error) {
	return s.repo.List(ctx, offset, limit)
}

// GetNotice returns a notice the actor may read
func (s *NoticeService) GetNotice(ctx context.Context, actor *domain.Actor, id string) (*models.Notice, error) {
	if err := actorRequired(actor); err != nil {
		return nil, err
	}
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if CanPublishNotices(actor.Role) || (n.IsActive && n.TargetsRole(actor.Role)) {
		return n, nil
	}
	return nil, domain.ErrNoticeNotFound
}

// UpdateNotice replaces a notice's content fields
func (s *NoticeService) UpdateNotice(ctx context.Context, actor *domain.Actor, id string, input NoticeInput) (*models.Notice, error) {
	n, err := s.editable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := input.normalize(s.now()); err != nil {
		return nil, err
	}

	n.Title = input.Title
	n.Content = input.Content
	n.Category = input.Category
	n.Department = input.Department
	n.TargetRoles = input.roles()
	n.Priority = input.Priority
	n.ExpiresAt = input.ExpiresAt
	if err := s.repo.Update(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// SetActive activates or deactivates a notice
func (s *NoticeService) SetActive(ctx context.Context, actor *domain.Actor, id string, active bool) (*models.Notice, error) {
	n, err := s.editable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	n.IsActive = active
	if err := s.repo.Update(ctx, n); err != nil {
		return nil, err
	}
	s.log.Info().Str("notice_id", id).Bool("active", active).Str("by", actor.ID).Msg("notice visibility changed")
	return n, nil
}

// DeleteNotice removes a notice
func (s *NoticeService) DeleteNotice(ctx context.Context, actor *domain.Actor, id string) error {
	if _, err := s.editable(ctx, actor, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// DeactivateExpired switches off notices whose expiry has passed
func (s *NoticeService) DeactivateExpired(ctx context.Context) (int64, error) {
	return s.repo.DeactivateExpired(ctx, s.now())
}

// editable loads a notice the actor may change: admins any, other
// publishers only their own.
func (s *NoticeService) editable(ctx context.Context, actor *domain.Actor, id string) (*models.Notice, error) {
	if err := actorRequired(actor); err != nil {
		return nil, err
	}
	if !CanPublishNotices(actor.Role) {
		return nil, domain.ErrPermissionDenied
	}
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != domain.RoleAdmin && n.PublishedBy != actor.ID {
		return nil, domain.ErrPermissionDenied
	}
	return n, nil
}
