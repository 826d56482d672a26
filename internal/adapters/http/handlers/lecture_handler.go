package handlers

import (
	"io"
	"strconv"
	"strings"

	"campus-aid-buddy/internal/adapters/http/middleware"
	"campus-aid-buddy/internal/adapters/persistence/models"
	"campus-aid-buddy/internal/core/services"
	"campus-aid-buddy/internal/pkg/pagination"
	"campus-aid-buddy/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// LectureHandler handles lecture video endpoints
type LectureHandler struct {
	lectureService *services.LectureService
}

// NewLectureHandler creates a new lecture handler
func NewLectureHandler(lectureService *services.LectureService) *LectureHandler {
	return &LectureHandler{lectureService: lectureService}
}

// formUpload opens the multipart file under field. The caller closes it.
func formUpload(c *fiber.Ctx, field string) (*services.Upload, io.Closer, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	return &services.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Body:        f,
	}, f, nil
}

func lectureForm(c *fiber.Ctx) (services.LectureInput, error) {
	in := services.LectureInput{
		Title:        c.FormValue("title"),
		Description:  c.FormValue("description"),
		Department:   c.FormValue("department"),
		Course:       c.FormValue("course"),
		Semester:     c.FormValue("semester"),
		Subject:      c.FormValue("subject"),
		Topic:        c.FormValue("topic"),
		ThumbnailURL: c.FormValue("thumbnail_url"),
	}
	if v := strings.TrimSpace(c.FormValue("duration")); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			return in, err
		}
		in.Duration = &d
	}
	if v := c.FormValue("publish"); v != "" {
		in.Publish, _ = strconv.ParseBool(v)
	}
	return in, nil
}

// UploadLecture stores a lecture video with its metadata
// @Summary Upload lecture
// @Tags Lectures
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param video formData file true "Video file"
// @Param title formData string true "Title"
// @Param department formData string true "Department"
// @Param subject formData string true "Subject"
// @Param course formData string false "Course"
// @Param semester formData string false "Semester"
// @Param topic formData string false "Topic"
// @Param description formData string false "Description"
// @Param duration formData int false "Duration in seconds"
// @Param publish formData bool false "Publish immediately"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /lectures [post]
func (h *LectureHandler) UploadLecture(c *fiber.Ctx) error {
	input, err := lectureForm(c)
	if err != nil {
		return response.BadRequest(c, "Invalid duration")
	}
	video, closer, err := formUpload(c, "video")
	if err != nil {
		return response.BadRequest(c, "Video file is required")
	}
	defer closer.Close()

	lecture, err := h.lectureService.UploadLecture(c.Context(), middleware.Actor(c), input, video)
	if err != nil {
		return response.FromError(c, err, "Failed to upload lecture")
	}
	return response.Created(c, "Lecture uploaded successfully", lecture)
}

// ListLectures lists lectures the caller may watch
// @Summary List lectures
// @Description Published lectures of a department. Course staff without a department filter see every lecture.
// @Tags Lectures
// @Produce json
// @Security BearerAuth
// @Param department query string false "Department"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /lectures [get]
func (h *LectureHandler) ListLectures(c *fiber.Ctx) error {
	p := pagination.GetParams(c)
	lectures, total, err := h.lectureService.ListForActor(c.Context(), middleware.Actor(c), c.Query("department"), p.Offset, p.Limit)
	if err != nil {
		return response.FromError(c, err, "Failed to list lectures")
	}
	if lectures == nil {
		lectures = []*models.Lecture{}
	}
	return response.Success(c, "Lectures retrieved successfully", pagination.NewResponse(lectures, p, total))
}

// MyLectures lists lectures the caller uploaded
// @Summary My lectures
// @Tags Lectures
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /lectures/mine [get]
func (h *LectureHandler) MyLectures(c *fiber.Ctx) error {
	lectures, err := h.lectureService.ListMine(c.Context(), middleware.Actor(c))
	if err != nil {
		return response.FromError(c, err, "Failed to list lectures")
	}
	return response.Success(c, "Lectures retrieved successfully", lectures)
}

// GetLecture returns one lecture
// @Summary Get lecture
// @Tags Lectures
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lecture ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /lectures/{id} [get]
func (h *LectureHandler) GetLecture(c *fiber.Ctx) error {
	lecture, err := h.lectureService.GetLecture(c.Context(), middleware.Actor(c), c.Params("id"))
	if err != nil {
		return response.FromError(c, err, "Failed to get lecture")
	}
	return response.Success(c, "Lecture retrieved successfully", lecture)
}

// UpdateLecture rewrites lecture metadata
// @Summary Update lecture
// @Tags Lectures
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lecture ID"
// @Param body body services.LectureInput true "Lecture metadata"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /lectures/{id} [put]
func (h *LectureHandler) UpdateLecture(c *fiber.Ctx) error {
	var req services.LectureInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	lecture, err := h.lectureService.UpdateLecture(c.Context(), middleware.Actor(c), c.Params("id"), req)
	if err != nil {
		return response.FromError(c, err, "Failed to update lecture")
	}
	return response.Success(c, "Lecture updated successfully", lecture)
}

// SetPublished publishes or withdraws a lecture
// @Summary Publish or unpublish lecture
// @Tags Lectures
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lecture ID"
// @Param body body ActiveRequest true "Published flag"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /lectures/{id}/publish [patch]
func (h *LectureHandler) SetPublished(c *fiber.Ctx) error {
	var req ActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	lecture, err := h.lectureService.SetPublished(c.Context(), middleware.Actor(c), c.Params("id"), req.Active)
	if err != nil {
		return response.FromError(c, err, "Failed to update lecture")
	}
	return response.Success(c, "Lecture updated successfully", lecture)
}

// DeleteLecture removes a lecture and its video
// @Summary Delete lecture
// @Tags Lectures
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lecture ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /lectures/{id} [delete]
func (h *LectureHandler) DeleteLecture(c *fiber.Ctx) error {
	if err := h.lectureService.DeleteLecture(c.Context(), middleware.Actor(c), c.Params("id")); err != nil {
		return response.FromError(c, err, "Failed to delete lecture")
	}
	return response.Success(c, "Lecture deleted successfully", nil)
}
