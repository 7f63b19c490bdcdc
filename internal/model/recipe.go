// Package model defines domain entities for the application.
package model

import "time"

// Recipe represents a single recipe record owned by a user.
// The (UserID, RecipeID) pair uniquely identifies a record.
type Recipe struct {
	UserID        string `json:"userId" dynamodbav:"userId"`
	RecipeID      string `json:"recipeId" dynamodbav:"recipeId"`
	CreatedAt     string `json:"createdAt" dynamodbav:"createdAt"`
	Name          string `json:"name" dynamodbav:"name"`
	Description   string `json:"description" dynamodbav:"description"`
	Favorite      bool   `json:"favorite" dynamodbav:"favorite"`
	AttachmentURL string `json:"attachmentUrl" dynamodbav:"attachmentUrl"`
}

// RecipeUpdate holds the mutable fields of a recipe.
// Identifier, timestamp and attachment reference are never touched by
// a field update.
type RecipeUpdate struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Favorite    bool   `json:"favorite"`
}

// CreatedTime parses the ISO-8601 creation timestamp.
// Returns the zero time if the stored value is malformed.
func (r *Recipe) CreatedTime() time.Time {
	t, err := time.Parse(time.RFC3339, r.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// HasAttachment reports whether an attachment reference is set.
func (r *Recipe) HasAttachment() bool {
	return r.AttachmentURL != ""
}
