package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"campus-aid-buddy/internal/adapters/persistence/models"
	"campus-aid-buddy/internal/adapters/persistence/repositories"
	"campus-aid-buddy/internal/core/domain"

	"github.com/rs/zerolog"
)

// maxExtractedText caps the text kept from plain-text syllabus uploads
const maxExtractedText = 64 << 10

func isSyllabusFile(ct string) bool {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch ct {
	case "application/pdf", "application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"text/plain", "text/markdown":
		return true
	}
	return false
}

// SyllabusService stores syllabus documents and their extracted text
type SyllabusService struct {
	repo  repositories.SyllabusRepository
	blobs BlobStore
	log   zerolog.Logger
	now   Clock
}

// NewSyllabusService creates a new syllabus service
func NewSyllabusService(repo repositories.SyllabusRepository, blobs BlobStore, l zerolog.Logger, now Clock) *SyllabusService {
	if now == nil {
		now = systemClock
	}
	return &SyllabusService{repo: repo, blobs: blobs, log: l, now: now}
}

// SyllabusInput carries syllabus metadata. Content is optional extracted
// text; plain-text uploads fill it from the file when empty.
type SyllabusInput struct {
	Title      string `json:"title"`
	Department string `json:"department"`
	Course     string `json:"course"`
	Semester   string `json:"semester"`
	Subject    string `json:"subject"`
	Content    string `json:"content"`
}

func (in *SyllabusInput) normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Department = strings.TrimSpace(in.Department)
	in.Course = strings.TrimSpace(in.Course)
	in.Semester = strings.TrimSpace(in.Semester)
	in.Subject = strings.TrimSpace(in.Subject)
	in.Content = strings.TrimSpace(in.Content)
	if in.Title == "" || in.Department == "" || in.Subject == "" {
		return domain.Validationf("title, department and subject are required")
	}
	return nil
}

// UploadSyllabus stores the document then records it, removing the stored
// file again when the row cannot be written.
func (s *SyllabusService) UploadSyllabus(ctx context.Context, actor *domain.Actor, input SyllabusInput, file *Upload) (*models.Syllabus, error) {
	if err := actorRequired(actor); err != nil {
		return nil, err
	}
	if !CanManageCourseContent(actor.Role) {
		return nil, domain.ErrPermissionDenied
	}
	if err := input.normalize(); err != nil {
		return nil, err
	}
	if err := file.validate(isSyllabusFile); err != nil {
		return nil, err
	}

	body := file.Body
	var text *bytes.Buffer
	if input.Content == "" && strings.HasPrefix(strings.ToLower(file.ContentType), "text/") {
		text = &bytes.Buffer{}
		body = io.TeeReader(body, &limitedWriter{buf: text, n: maxExtractedText})
	}

	path := s.blobs.GeneratePath(SyllabusFolder, file.Filename)
	url, err := s.blobs.Upload(ctx, path, body, file.ContentType)
	if err != nil {
		return nil, fmt.Errorf("upload syllabus file: %w", err)
	}

	content := input.Content
	if text != nil {
		content = strings.TrimSpace(strings.ToValidUTF8(text.String(), ""))
	}

	syl := &models.Syllabus{
		Title:       input.Title,
		Department:  input.Department,
		Course:      input.Course,
		Semester:    input.Semester,
		Subject:     input.Subject,
		FileURL:     url,
		StoragePath: path,
		Content:     content,
		UploadedBy:  actor.ID,
		UploadedAt:  s.now(),
	}
	if err := s.repo.Create(ctx, syl); err != nil {
		discardBlob(ctx, s.blobs, s.log, path)
		return nil, err
	}

	s.log.Info().Str("syllabus_id", syl.ID).Str("path", path).Str("by", actor.ID).Msg("syllabus uploaded")
	return syl, nil
}

// ListByDepartment lists syllabi of a department, optionally one subject.
// An empty department means the actor's own.
func (s *SyllabusService) ListByDepartment(ctx context.Context, actor *domain.Actor, department, subject string) ([]*models.Syllabus, error) {
	if err := actorRequired(actor); err != nil {
		return nil, err
	}
	if department == "" {
		department = actor.Department
	}
	if department == "" {
		return nil, domain.Validationf("department is required")
	}
	return s.repo.ListByDepartment(ctx, department, strings.TrimSpace(subject))
}

// GetSyllabus returns one syllabus
func (s *SyllabusService) GetSyllabus(ctx context.Context, id string) (*models.Syllabus, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateSyllabus rewrites metadata and extracted text
func (s *SyllabusService) UpdateSyllabus(ctx context.Context, actor *domain.Actor, id string, input SyllabusInput) (*models.Syllabus, error) {
	syl, err := s.ownedSyllabus(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := input.normalize(); err != nil {
		return nil, err
	}

	syl.Title = input.Title
	syl.Department = input.Department
	syl.Course = input.Course
	syl.Semester = input.Semester
	syl.Subject = input.Subject
	if input.Content != "" {
		syl.Content = input.Content
	}
	if err := s.repo.Update(ctx, syl); err != nil {
		return nil, err
	}
	return syl, nil
}

// DeleteSyllabus removes the row, then the stored file
func (s *SyllabusService) DeleteSyllabus(ctx context.Context, actor *domain.Actor, id string) error {
	syl, err := s.ownedSyllabus(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	discardBlob(ctx, s.blobs, s.log, syl.StoragePath)
	return nil
}

func (s *SyllabusService) ownedSyllabus(ctx context.Context, actor *domain.Actor, id string) (*models.Syllabus, error) {
	if err := actorRequired(actor); err != nil {
		return nil, err
	}
	if !CanManageCourseContent(actor.Role) {
		return nil, domain.ErrPermissionDenied
	}
	syl, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canEditUpload(actor, syl.UploadedBy) {
		return nil, domain.ErrPermissionDenied
	}
	return syl, nil
}

// limitedWriter keeps the first n bytes and discards the rest
type limitedWriter struct {
	buf *bytes.Buffer
	n   int
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	if room := w.n - w.buf.Len(); room > 0 {
		if len(p) > room {
			w.buf.Write(p[:room])
		} else {
			w.buf.Write(p)
		}
	}
	return len(p), nil
}
