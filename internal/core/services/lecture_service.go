package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"campus-aid-buddy/internal/adapters/persistence/models"
	"campus-aid-buddy/internal/adapters/persistence/repositories"
	"campus-aid-buddy/internal/core/domain"

	"github.com/rs/zerolog"
)

// Blob store folders
const (
	LectureFolder  = "lectures"
	SyllabusFolder = "syllabus"
)

// Upload is a file received from a multipart form
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

func (u *Upload) validate(allowed func(contentType string) bool) error {
	if u == nil || u.Body == nil || strings.TrimSpace(u.Filename) == "" {
		return domain.Validationf("a file is required")
	}
	if !allowed(strings.ToLower(u.ContentType)) {
		return domain.Validationf("unsupported file type %q", u.ContentType)
	}
	return nil
}

// CanManageCourseContent reports whether role may upload lectures and syllabi
func CanManageCourseContent(role domain.Role) bool {
	switch role {
	case domain.RoleTeachingStaff, domain.RoleTutor, domain.RoleHOD, domain.RoleAdmin:
		return true
	}
	return false
}

// LectureService stores lecture videos and their catalogue rows
type LectureService struct {
	repo  repositories.LectureRepository
	blobs BlobStore
	log   zerolog.Logger
	now   Clock
}

// NewLectureService creates a new lecture service
func NewLectureService(repo repositories.LectureRepository, blobs BlobStore, l zerolog.Logger, now Clock) *LectureService {
	if now == nil {
		now = systemClock
	}
	return &LectureService{repo: repo, blobs: blobs, log: l, now: now}
}

// LectureInput carries lecture metadata
type LectureInput struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Department   string `json:"department"`
	Course       string `json:"course"`
	Semester     string `json:"semester"`
	Subject      string `json:"subject"`
	Topic        string `json:"topic"`
	ThumbnailURL string `json:"thumbnail_url"`
	Duration     *int   `json:"duration"`
	Publish      bool   `json:"publish"`
}

func (in *LectureInput) normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Department = strings.TrimSpace(in.Department)
	in.Subject = strings.TrimSpace(in.Subject)
	if in.Title == "" || in.Department == "" || in.Subject == "" {
		return domain.Validationf("title, department and subject are required")
	}
	if in.Duration != nil && *in.Duration < 0 {
		return domain.Validationf("duration cannot be negative")
	}
	return nil
}

func isVideo(ct string) bool { return strings.HasPrefix(ct, "video/") }

// UploadLecture stores the video then records the lecture. If the row
// cannot be written the stored video is removed again.
func (s *LectureService) UploadLecture(ctx context.Context, actor *domain.Actor, input LectureInput, video *Upload) (*models.Lecture, error) {
	if err := actorRequired(actor); err != nil {
		return nil, err
	}
	if !CanManageCourseContent(actor.Role) {
		return nil, domain.ErrPermissionDenied
	}
	if err := input.normalize(); err != nil {
		return nil, err
	}
	if err := video.validate(isVideo); err != nil {
		return nil, err
	}

	path := s.blobs.GeneratePath(LectureFolder, video.Filename)
	url, err := s.blobs.Upload(ctx, path, video.Body, video.ContentType)
	if err != nil {
		return nil, fmt.Errorf("upload lecture video: %w", err)
	}

	lecture := &models.Lecture{
		Title:        input.Title,
		Description:  strings.TrimSpace(input.Description),
		Department:   input.Department,
		Course:       strings.TrimSpace(input.Course),
		Semester:     strings.TrimSpace(input.Semester),
		Subject:      input.Subject,
		Topic:        strings.TrimSpace(input.Topic),
		VideoURL:     url,
		StoragePath:  path,
		ThumbnailURL: strings.TrimSpace(input.ThumbnailURL),
		Duration:     input.Duration,
		UploadedBy:   actor.ID,
		UploadedAt:   s.now(),
		IsPublished:  input.Publish,
	}
	if err := s.repo.Create(ctx, lecture); err != nil {
		discardBlob(ctx, s.blobs, s.log, path)
		return nil, err
	}

	s.log.Info().Str("lecture_id", lecture.ID).Str("path", path).Str("by", actor.ID).Msg("lecture uploaded")
	return lecture, nil
}

// ListForActor lists what the actor may watch: published lectures of their
// department, or every lecture for course staff.
func (s *LectureService) ListForActor(ctx context.Context, actor *domain.Actor, department string, offset, limit int) ([]*models.Lecture, int64, error) {
	if err := actorRequired(actor); err != nil {
		return nil, 0, err
	}
	if CanManageCourseContent(actor.Role) && department == "" {
		return s.repo.List(ctx, offset, limit)
	}
	if department == "" {
		department = actor.Department
	}
	if department == "" {
		return nil, 0, domain.Validationf("department is required")
	}
	lectures, err := s.repo.ListPublishedByDepartment(ctx, department)
	if err != nil {
		return nil, 0, err
	}
	return lectures, int64(len(lectures)), nil
}

// ListMine lists lectures the actor uploaded
func (s *LectureService) ListMine(ctx context.Context, actor *domain.Actor) ([]*models.Lecture, error) {
	if err := actorRequired(actor); err != nil {
		return nil, err
	}
	return s.repo.ListByUploader(ctx, actor.ID)
}

// GetLecture returns a lecture; unpublished ones only to course staff
func (s *LectureService) GetLecture(ctx context.Context, actor *domain.Actor, id string) (*models.Lecture, error) {
	if err := actorRequired(actor); err != nil {
		return nil, err
	}
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !l.IsPublished && !CanManageCourseContent(actor.Role) {
		return nil, domain.ErrLectureNotFound
	}
	return l, nil
}

// UpdateLecture rewrites lecture metadata. The video stays as uploaded.
func (s *LectureService) UpdateLecture(ctx context.Context, actor *domain.Actor, id string, input LectureInput) (*models.Lecture, error) {
	l, err := s.ownedLecture(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := input.normalize(); err != nil {
		return nil, err
	}

	l.Title = input.Title
	l.Description = strings.TrimSpace(input.Description)
	l.Department = input.Department
	l.Course = strings.TrimSpace(input.Course)
	l.Semester = strings.TrimSpace(input.Semester)
	l.Subject = input.Subject
	l.Topic = strings.TrimSpace(input.Topic)
	l.ThumbnailURL = strings.TrimSpace(input.ThumbnailURL)
	l.Duration = input.Duration
	if err := s.repo.Update(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// SetPublished publishes or withdraws a lecture
func (s *LectureService) SetPublished(ctx context.Context, actor *domain.Actor, id string, published bool) (*models.Lecture, error) {
	l, err := s.ownedLecture(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	l.IsPublished = published
	if err := s.repo.Update(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// DeleteLecture removes the row, then the stored video
func (s *LectureService) DeleteLecture(ctx context.Context, actor *domain.Actor, id string) error {
	l, err := s.ownedLecture(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	discardBlob(ctx, s.blobs, s.log, l.StoragePath)
	return nil
}

// ownedLecture loads a lecture the actor may change: its uploader, an HOD
// or an admin.
func (s *LectureService) ownedLecture(ctx context.Context, actor *domain.Actor, id string) (*models.Lecture, error) {
	if err := actorRequired(actor); err != nil {
		return nil, err
	}
	if !CanManageCourseContent(actor.Role) {
		return nil, domain.ErrPermissionDenied
	}
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canEditUpload(actor, l.UploadedBy) {
		return nil, domain.ErrPermissionDenied
	}
	return l, nil
}

func canEditUpload(actor *domain.Actor, uploadedBy string) bool {
	return actor.Role == domain.RoleAdmin || actor.Role == domain.RoleHOD || actor.ID == uploadedBy
}

// discardBlob deletes a stored object. Failures leave an orphan and are
// only logged.
func discardBlob(ctx context.Context, blobs BlobStore, log zerolog.Logger, path string) {
	if path == "" {
		return
	}
	if err := blobs.Delete(ctx, path); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("failed to delete stored file")
	}
}
