// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import "github.com/recipevault/recipevault/internal/model"

// CreateRecipeRequest represents the request body for creating a recipe.
type CreateRecipeRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UpdateRecipeRequest represents the request body for updating a recipe.
type UpdateRecipeRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Favorite    bool   `json:"favorite"`
}

// RecipeResponse represents a recipe in API responses.
type RecipeResponse struct {
	RecipeID      string `json:"recipeId"`
	CreatedAt     string `json:"createdAt"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Favorite      bool   `json:"favorite"`
	AttachmentURL string `json:"attachmentUrl"`
}

// RecipeListResponse represents the owner's recipe collection.
type RecipeListResponse struct {
	Items []RecipeResponse `json:"items"`
}

// UploadURLResponse carries a time-limited attachment upload URL.
type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ToRecipeResponse converts a domain recipe to its API shape. The
// owner identity is deliberately not exposed.
func ToRecipeResponse(r *model.Recipe) RecipeResponse {
	return RecipeResponse{
		RecipeID:      r.RecipeID,
		CreatedAt:     r.CreatedAt,
		Name:          r.Name,
		Description:   r.Description,
		Favorite:      r.Favorite,
		AttachmentURL: r.AttachmentURL,
	}
}

// ToRecipeListResponse converts a recipe slice to its API shape.
func ToRecipeListResponse(recipes []model.Recipe) RecipeListResponse {
	items := make([]RecipeResponse, 0, len(recipes))
	for i := range recipes {
		items = append(items, ToRecipeResponse(&recipes[i]))
	}
	return RecipeListResponse{Items: items}
}
