// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/recipevault/recipevault/internal/metrics"
	"github.com/recipevault/recipevault/internal/model"
	"github.com/recipevault/recipevault/internal/repository"
)

// Service errors.
var (
	// ErrRecipeNotFound means no recipe exists for the exact
	// (ownerId, recipeId) pair. A record under the same recipeId but
	// a different owner does not satisfy the existence check.
	ErrRecipeNotFound = errors.New("recipe not found")
)

// RecipeStore is the record-store access layer consumed by the
// service. Satisfied by *repository.Repository; substituted with an
// in-memory fake in tests.
type RecipeStore interface {
	ListRecipes(ctx context.Context, userID string) ([]model.Recipe, error)
	CreateRecipe(ctx context.Context, recipe *model.Recipe) error
	GetRecipe(ctx context.Context, userID, recipeID string) (*model.Recipe, error)
	RecipeExists(ctx context.Context, userID, recipeID string) (bool, error)
	UpdateRecipe(ctx context.Context, userID, recipeID string, update model.RecipeUpdate) error
	UpdateAttachmentURL(ctx context.Context, userID, recipeID, url string) error
	DeleteRecipe(ctx context.Context, userID, recipeID string) error
}

// RecipeService handles recipe business logic. Every operation is
// scoped to the owner identity passed in by the caller.
type RecipeService struct {
	store   RecipeStore
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewRecipeService creates a new RecipeService.
func NewRecipeService(store RecipeStore, logger *slog.Logger, recorder metrics.Recorder) *RecipeService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &RecipeService{
		store:   store,
		logger:  logger,
		metrics: recorder,
	}
}

// CreateRecipeInput defines input for creating a recipe.
type CreateRecipeInput struct {
	Name        string
	Description string
}

// UpdateRecipeInput defines input for updating a recipe. All three
// mutable fields are overwritten; absent fields are written as their
// zero values.
type UpdateRecipeInput struct {
	Name        string
	Description string
	Favorite    bool
}

// List returns all recipes for the owner, ordered by creation time
// (oldest first) with the identifier as tiebreaker. The store's
// native return order is unspecified, so the sort happens here.
func (s *RecipeService) List(ctx context.Context, userID string) ([]model.Recipe, error) {
	recipes, err := s.store.ListRecipes(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}

	sort.Slice(recipes, func(i, j int) bool {
		if recipes[i].CreatedAt != recipes[j].CreatedAt {
			return recipes[i].CreatedAt < recipes[j].CreatedAt
		}
		return recipes[i].RecipeID < recipes[j].RecipeID
	})

	return recipes, nil
}

// Create builds and persists a new recipe. The identifier and
// creation timestamp are generated server-side; favorite defaults to
// false and the attachment reference starts empty.
func (s *RecipeService) Create(ctx context.Context, userID string, input CreateRecipeInput) (*model.Recipe, error) {
	recipe := &model.Recipe{
		UserID:        userID,
		RecipeID:      uuid.NewString(),
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
		Name:          input.Name,
		Description:   input.Description,
		Favorite:      false,
		AttachmentURL: "",
	}

	if err := s.store.CreateRecipe(ctx, recipe); err != nil {
		return nil, fmt.Errorf("failed to create recipe: %w", err)
	}

	s.logger.Info("recipe_created",
		slog.String("recipe_id", recipe.RecipeID),
		slog.String("user_id", userID),
	)
	s.metrics.IncRecipeCreated()

	return recipe, nil
}

// Update overwrites the mutable fields of an existing recipe.
// Identifier, creation timestamp and attachment reference are left
// untouched. Returns ErrRecipeNotFound if no recipe exists for the
// (userID, recipeID) pair.
func (s *RecipeService) Update(ctx context.Context, userID, recipeID string, input UpdateRecipeInput) error {
	update := model.RecipeUpdate{
		Name:        input.Name,
		Description: input.Description,
		Favorite:    input.Favorite,
	}

	if err := s.store.UpdateRecipe(ctx, userID, recipeID, update); err != nil {
		if errors.Is(err, repository.ErrRecipeNotFound) {
			return ErrRecipeNotFound
		}
		return fmt.Errorf("failed to update recipe: %w", err)
	}

	s.logger.Info("recipe_updated",
		slog.String("recipe_id", recipeID),
		slog.String("user_id", userID),
	)
	s.metrics.IncRecipeUpdated()

	return nil
}

// Delete removes an existing recipe. Returns ErrRecipeNotFound if no
// recipe exists for the (userID, recipeID) pair.
func (s *RecipeService) Delete(ctx context.Context, userID, recipeID string) error {
	if err := s.store.DeleteRecipe(ctx, userID, recipeID); err != nil {
		if errors.Is(err, repository.ErrRecipeNotFound) {
			return ErrRecipeNotFound
		}
		return fmt.Errorf("failed to delete recipe: %w", err)
	}

	s.logger.Info("recipe_deleted",
		slog.String("recipe_id", recipeID),
		slog.String("user_id", userID),
	)
	s.metrics.IncRecipeDeleted()

	return nil
}

// Exists reports whether a recipe exists for the exact
// (userID, recipeID) pair.
func (s *RecipeService) Exists(ctx context.Context, userID, recipeID string) (bool, error) {
	ok, err := s.store.RecipeExists(ctx, userID, recipeID)
	if err != nil {
		return false, fmt.Errorf("failed to check recipe existence: %w", err)
	}
	return ok, nil
}

// AssignAttachment overwrites the attachment reference of an existing
// recipe. The write carries the same ownership-scoped existence
// condition as update and delete, so an attachment can never be
// assigned to another owner's record or to a record that was deleted
// in the meantime. Assigning the same URL twice is idempotent.
func (s *RecipeService) AssignAttachment(ctx context.Context, userID, recipeID, locationURL string) error {
	if err := s.store.UpdateAttachmentURL(ctx, userID, recipeID, locationURL); err != nil {
		if errors.Is(err, repository.ErrRecipeNotFound) {
			return ErrRecipeNotFound
		}
		return fmt.Errorf("failed to assign attachment: %w", err)
	}

	s.logger.Info("attachment_assigned",
		slog.String("recipe_id", recipeID),
		slog.String("user_id", userID),
		slog.String("attachment_url", locationURL),
	)
	s.metrics.IncAttachmentAssigned()

	return nil
}
