package handler

import (
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/feedbackfortress/backend/internal/crypto"
	"github.com/feedbackfortress/backend/internal/domain"
	"github.com/feedbackfortress/backend/internal/dto"
	"github.com/feedbackfortress/backend/internal/middleware"
	"github.com/feedbackfortress/backend/internal/repository"
	"github.com/feedbackfortress/backend/internal/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	maxAttachmentSize = 5 * 1024 * 1024
	attachmentPrefix  = "grievance_attachments/"
)

var allowedAttachmentExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".xls":  true,
	".xlsx": true,
	".txt":  true,
}

type GrievanceHandler struct {
	grievanceRepo *repository.GrievanceRepository
	codec         *crypto.Codec
	blobs         storage.BlobStore
}

func NewGrievanceHandler(grievanceRepo *repository.GrievanceRepository, codec *crypto.Codec, blobs storage.BlobStore) *GrievanceHandler {
	return &GrievanceHandler{
		grievanceRepo: grievanceRepo,
		codec:         codec,
		blobs:         blobs,
	}
}

// Dashboard - GET /dashboard
//
// The caller's own submissions, newest first, plus their per-status
// counts. Soft-deleted rows never appear here.
func (h *GrievanceHandler) Dashboard(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse("UNAUTHORIZED", "Unauthorized"))
	}

	grievances, err := h.grievanceRepo.ListForOwner(*userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse(
			"FETCH_FAILED", "Failed to fetch grievances",
		))
	}

	counts, total, err := h.grievanceRepo.CountByStatusForOwner(*userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse(
			"FETCH_FAILED", "Failed to fetch stats",
		))
	}

	responses := make([]dto.GrievanceResponse, 0, len(grievances))
	for i := range grievances {
		responses = append(responses, toGrievanceResponse(&grievances[i], false))
	}

	return c.JSON(dto.SuccessResponse(dto.DashboardResponse{
		Grievances: responses,
		Stats: dto.OwnerStats{
			Total:       total,
			Pending:     counts[domain.StatusPending],
			UnderReview: counts[domain.StatusUnderReview],
			Resolved:    counts[domain.StatusResolved],
			Archived:    counts[domain.StatusArchived],
		},
	}, ""))
}

// Create - POST /grievances (multipart)
//
// Validates every field before the codec or storage is touched; a
// failed rule never leaves a partial record or a stray blob behind.
func (h *GrievanceHandler) Create(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse("UNAUTHORIZED", "Unauthorized"))
	}

	subject := strings.TrimSpace(c.FormValue("subject"))
	grievanceType := c.FormValue("type")
	details := strings.TrimSpace(c.FormValue("details"))

	fileHeader, fileErr := c.FormFile("attachment")

	var errs []dto.ErrorDetail
	if n := utf8.RuneCountInString(subject); n < 8 || n > 255 {
		errs = append(errs, dto.ErrorDetail{Field: "subject", Message: "Subject must be between 8 and 255 characters"})
	}
	if t := domain.GrievanceType(grievanceType); t != domain.TypeComplaint && t != domain.TypeFeedback {
		errs = append(errs, dto.ErrorDetail{Field: "type", Message: "Type must be complaint or feedback"})
	}
	if utf8.RuneCountInString(details) < 10 {
		errs = append(errs, dto.ErrorDetail{Field: "details", Message: "Details must be at least 10 characters"})
	}
	if fileErr != nil {
		errs = append(errs, dto.ErrorDetail{Field: "attachment", Message: "An attachment is required"})
	} else {
		if fileHeader.Size > maxAttachmentSize {
			errs = append(errs, dto.ErrorDetail{Field: "attachment", Message: "Attachment must not exceed 5MB"})
		}
		if !allowedAttachmentExts[strings.ToLower(filepath.Ext(fileHeader.Filename))] {
			errs = append(errs, dto.ErrorDetail{Field: "attachment", Message: "Attachment type is not allowed"})
		}
	}
	if len(errs) > 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ValidationErrorResponse(errs...))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse(
			"UPLOAD_FAILED", "Failed to read attachment",
		))
	}
	defer file.Close()

	plaintext, err := io.ReadAll(file)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse(
			"UPLOAD_FAILED", "Failed to read attachment",
		))
	}

	blob, err := h.codec.Encrypt(plaintext)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse(
			"UPLOAD_FAILED", "Failed to store attachment",
		))
	}

	key := attachmentKey(fileHeader.Filename)
	if err := h.blobs.Put(c.Context(), key, blob, "application/octet-stream"); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse(
			"UPLOAD_FAILED", "Failed to store attachment",
		))
	}

	grievance := &domain.Grievance{
		UserID:      *userID,
		Subject:     subject,
		Details:     details,
		Type:        domain.GrievanceType(grievanceType),
		Status:      domain.StatusPending,
		Attachments: domain.StringList{key},
	}

	if err := h.grievanceRepo.Create(grievance); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse(
			"CREATE_FAILED", "Failed to submit grievance",
		))
	}

	resp := toGrievanceResponse(grievance, false)
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse(resp, "Grievance submitted"))
}

// SoftDelete - DELETE /grievances/:id
func (h *GrievanceHandler) SoftDelete(c *fiber.Ctx) error {
	userID, id, errResp := h.ownerAndID(c)
	if errResp != nil {
		return errResp(c)
	}

	if err := h.grievanceRepo.SoftDelete(*userID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse("NOT_FOUND", "Grievance not found"))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse(
			"DELETE_FAILED", "Failed to delete grievance",
		))
	}

	return c.JSON(dto.SuccessResponse(nil, "Grievance moved to trash"))
}

// ListDeleted - GET /grievances/deleted
func (h *GrievanceHandler) ListDeleted(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse("UNAUTHORIZED", "Unauthorized"))
	}

	grievances, err := h.grievanceRepo.ListDeleted(*userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse(
			"FETCH_FAILED", "Failed to fetch deleted grievances",
		))
	}

	responses := make([]dto.GrievanceResponse, 0, len(grievances))
	for i := range grievances {
		responses = append(responses, toGrievanceResponse(&grievances[i], false))
	}

	return c.JSON(dto.SuccessResponse(responses, ""))
}

// Restore - PUT /grievances/restore/:id
func (h *GrievanceHandler) Restore(c *fiber.Ctx) error {
	userID, id, errResp := h.ownerAndID(c)
	if errResp != nil {
		return errResp(c)
	}

	if err := h.grievanceRepo.Restore(*userID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse("NOT_FOUND", "Grievance not found"))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse(
			"RESTORE_FAILED", "Failed to restore grievance",
		))
	}

	return c.JSON(dto.SuccessResponse(nil, "Grievance restored"))
}

// ForceDelete - DELETE /grievances/force-delete/:id
//
// Only soft-deleted rows can be purged. The attachment blob stays in
// storage; see DESIGN.md.
func (h *GrievanceHandler) ForceDelete(c *fiber.Ctx) error {
	userID, id, errResp := h.ownerAndID(c)
	if errResp != nil {
		return errResp(c)
	}

	if err := h.grievanceRepo.ForceDelete(*userID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse("NOT_FOUND", "Grievance not found"))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse(
			"DELETE_FAILED", "Failed to delete grievance",
		))
	}

	return c.JSON(dto.SuccessResponse(nil, "Grievance permanently deleted"))
}

// DownloadAttachment - GET /grievance-attachment/:id
//
// Streams the decrypted attachment with its original filename. Text
// fields fall back to stored values when decryption fails; attachments
// never do.
func (h *GrievanceHandler) DownloadAttachment(c *fiber.Ctx) error {
	userID, id, errResp := h.ownerAndID(c)
	if errResp != nil {
		return errResp(c)
	}

	grievance, err := h.grievanceRepo.FindOwned(*userID, id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse("NOT_FOUND", "Grievance not found"))
	}
	if len(grievance.Attachments) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse("NOT_FOUND", "No attachment on this grievance"))
	}

	key := grievance.Attachments[0]
	exists, err := h.blobs.Exists(c.Context(), key)
	if err != nil || !exists {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse("NOT_FOUND", "Attachment not found in storage"))
	}

	blob, err := h.blobs.Get(c.Context(), key)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse(
			"FETCH_FAILED", "Failed to fetch attachment",
		))
	}

	plaintext, err := h.codec.Decrypt(blob)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse(
			"DECRYPT_FAILED", "Attachment could not be decrypted",
		))
	}

	filename := originalFilename(key)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	c.Set(fiber.HeaderContentType, "application/octet-stream")
	return c.Send(plaintext)
}

func (h *GrievanceHandler) ownerAndID(c *fiber.Ctx) (*uuid.UUID, uuid.UUID, func(*fiber.Ctx) error) {
	userID := middleware.GetUserID(c)
	if userID == nil {
		return nil, uuid.Nil, func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse("UNAUTHORIZED", "Unauthorized"))
		}
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, uuid.Nil, func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse("INVALID_ID", "Invalid grievance ID"))
		}
	}

	return userID, id, nil
}

// attachmentKey builds the storage key, embedding the original
// filename so downloads can recover it by stripping the .enc suffix.
func attachmentKey(filename string) string {
	base := filepath.Base(filename)
	base = strings.ReplaceAll(base, "/", "")
	base = strings.ReplaceAll(base, "\\", "")
	return attachmentPrefix + uuid.New().String() + "_" + base + ".enc"
}

// originalFilename recovers the upload name from a storage key.
func originalFilename(key string) string {
	base := strings.TrimSuffix(path.Base(key), ".enc")
	if _, name, found := strings.Cut(base, "_"); found {
		return name
	}
	return base
}

func toGrievanceResponse(g *domain.Grievance, withOwner bool) dto.GrievanceResponse {
	resp := dto.GrievanceResponse{
		ID:                g.ID.String(),
		GrievanceID:       g.GrievanceID,
		Subject:           g.Subject,
		Details:           g.Details,
		Type:              string(g.Type),
		Priority:          string(g.Priority),
		Status:            string(g.Status),
		StatusLabel:       domain.DisplayStatus(g.Status),
		Attachments:       g.Attachments,
		ResolutionMessage: g.ResolutionMessage,
		ResolvedAt:        g.ResolvedAt,
		CreatedAt:         g.CreatedAt,
		UpdatedAt:         g.UpdatedAt,
	}
	if withOwner && g.User != nil {
		sid := g.User.StudentID
		resp.StudentID = &sid
	}
	return resp
}
