package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/recipevault/recipevault/internal/auth"
	"github.com/recipevault/recipevault/internal/handler/dto"
	"github.com/recipevault/recipevault/internal/service"
)

// AttachmentIssuer produces upload URLs for recipe attachments.
// Satisfied by *storage.Attachments.
type AttachmentIssuer interface {
	UploadURL(ctx context.Context, recipeID string) (string, error)
	ObjectURL(recipeID string) string
}

// RecipeHandler handles HTTP requests for recipe operations.
type RecipeHandler struct {
	svc         *service.RecipeService
	attachments AttachmentIssuer
	logger      *slog.Logger
}

// NewRecipeHandler creates a new RecipeHandler.
func NewRecipeHandler(svc *service.RecipeService, attachments AttachmentIssuer, logger *slog.Logger) *RecipeHandler {
	return &RecipeHandler{
		svc:         svc,
		attachments: attachments,
		logger:      logger,
	}
}

// List handles GET /api/v1/recipes.
func (h *RecipeHandler) List(w http.ResponseWriter, r *http.Request) {
	subject := auth.SubjectFromContext(r.Context())
	if subject == "" {
		h.writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing identity")
		return
	}

	recipes, err := h.svc.List(r.Context(), subject)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToRecipeListResponse(recipes))
}

// Create handles POST /api/v1/recipes.
func (h *RecipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	subject := auth.SubjectFromContext(r.Context())
	if subject == "" {
		h.writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing identity")
		return
	}

	var req dto.CreateRecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	recipe, err := h.svc.Create(r.Context(), subject, service.CreateRecipeInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ToRecipeResponse(recipe))
}

// Update handles PATCH /api/v1/recipes/{recipeId}.
func (h *RecipeHandler) Update(w http.ResponseWriter, r *http.Request) {
	subject := auth.SubjectFromContext(r.Context())
	if subject == "" {
		h.writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing identity")
		return
	}

	recipeID := chi.URLParam(r, "recipeId")
	if recipeID == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_ID", "Recipe ID is required")
		return
	}

	var req dto.UpdateRecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	err := h.svc.Update(r.Context(), subject, recipeID, service.UpdateRecipeInput{
		Name:        req.Name,
		Description: req.Description,
		Favorite:    req.Favorite,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/v1/recipes/{recipeId}.
func (h *RecipeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	subject := auth.SubjectFromContext(r.Context())
	if subject == "" {
		h.writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing identity")
		return
	}

	recipeID := chi.URLParam(r, "recipeId")
	if recipeID == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_ID", "Recipe ID is required")
		return
	}

	if err := h.svc.Delete(r.Context(), subject, recipeID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GenerateUploadURL handles POST /api/v1/recipes/{recipeId}/attachment.
// It issues a time-limited upload URL for the recipe's attachment and
// stores the resulting object location on the record.
func (h *RecipeHandler) GenerateUploadURL(w http.ResponseWriter, r *http.Request) {
	subject := auth.SubjectFromContext(r.Context())
	if subject == "" {
		h.writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing identity")
		return
	}

	recipeID := chi.URLParam(r, "recipeId")
	if recipeID == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_ID", "Recipe ID is required")
		return
	}

	// The upload URL must never be issued for a record the caller
	// does not own.
	exists, err := h.svc.Exists(r.Context(), subject, recipeID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	if !exists {
		h.handleServiceError(w, service.ErrRecipeNotFound)
		return
	}

	uploadURL, err := h.attachments.UploadURL(r.Context(), recipeID)
	if err != nil {
		h.logger.Error("failed to presign upload", "error", err, "recipe_id", recipeID)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	if err := h.svc.AssignAttachment(r.Context(), subject, recipeID, h.attachments.ObjectURL(recipeID)); err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.UploadURLResponse{UploadURL: uploadURL})
}

// handleServiceError maps service errors to HTTP responses.
func (h *RecipeHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrRecipeNotFound):
		h.writeError(w, http.StatusNotFound, "RECIPE_NOT_FOUND", "Recipe not found")
	default:
		h.logger.Error("internal_error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// writeError writes an error response.
func (h *RecipeHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
