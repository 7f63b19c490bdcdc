package repository

import (
	"context"
	"errors"
	"fmt"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/recipevault/recipevault/internal/model"
)

// Common errors for recipe repository operations.
var (
	// ErrRecipeNotFound means no record exists for the exact
	// (userId, recipeId) pair.
	ErrRecipeNotFound = errors.New("recipe not found")
)

// recordExistsCondition guards mutations so they only apply to an
// existing record. The condition and the mutation are evaluated in a
// single store operation, so there is no window between checking and
// writing.
const recordExistsCondition = "attribute_exists(userId) AND attribute_exists(recipeId)"

// ListRecipes returns all recipes owned by userID via the owner
// secondary index. A valid owner with zero records yields an empty
// slice, not an error.
func (r *Repository) ListRecipes(ctx context.Context, userID string) ([]model.Recipe, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              awsv2.String(r.table),
		IndexName:              awsv2.String(r.ownerIdx),
		KeyConditionExpression: awsv2.String("userId = :userId"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":userId": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query recipes: %w", err)
	}

	recipes := make([]model.Recipe, 0, len(out.Items))
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &recipes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipes: %w", err)
	}

	return recipes, nil
}

// CreateRecipe stores a new recipe record. The write is a full-record
// upsert by primary key.
func (r *Repository) CreateRecipe(ctx context.Context, recipe *model.Recipe) error {
	item, err := attributevalue.MarshalMap(recipe)
	if err != nil {
		return fmt.Errorf("failed to marshal recipe: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: awsv2.String(r.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to put recipe: %w", err)
	}

	return nil
}

// GetRecipe retrieves one recipe by exact primary key.
func (r *Repository) GetRecipe(ctx context.Context, userID, recipeID string) (*model.Recipe, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: awsv2.String(r.table),
		Key:       recipeKey(userID, recipeID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}

	if len(out.Item) == 0 {
		return nil, ErrRecipeNotFound
	}

	var recipe model.Recipe
	if err := attributevalue.UnmarshalMap(out.Item, &recipe); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipe: %w", err)
	}

	return &recipe, nil
}

// RecipeExists reports whether a record exists for the exact
// (userId, recipeId) pair.
func (r *Repository) RecipeExists(ctx context.Context, userID, recipeID string) (bool, error) {
	_, err := r.GetRecipe(ctx, userID, recipeID)
	if errors.Is(err, ErrRecipeNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// UpdateRecipe overwrites the three mutable fields of an existing
// record. Returns ErrRecipeNotFound if no record exists for the pair.
func (r *Repository) UpdateRecipe(ctx context.Context, userID, recipeID string, update model.RecipeUpdate) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           awsv2.String(r.table),
		Key:                 recipeKey(userID, recipeID),
		UpdateExpression:    awsv2.String("SET #namefield = :name, description = :description, favorite = :favorite"),
		ConditionExpression: awsv2.String(recordExistsCondition),
		ExpressionAttributeNames: map[string]string{
			"#namefield": "name",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":name":        &types.AttributeValueMemberS{Value: update.Name},
			":description": &types.AttributeValueMemberS{Value: update.Description},
			":favorite":    &types.AttributeValueMemberBOOL{Value: update.Favorite},
		},
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ErrRecipeNotFound
		}
		return fmt.Errorf("failed to update recipe: %w", err)
	}

	return nil
}

// UpdateAttachmentURL overwrites only the attachment reference of an
// existing record. Returns ErrRecipeNotFound if no record exists for
// the pair.
func (r *Repository) UpdateAttachmentURL(ctx context.Context, userID, recipeID, url string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           awsv2.String(r.table),
		Key:                 recipeKey(userID, recipeID),
		UpdateExpression:    awsv2.String("SET #attachmentURLField = :url"),
		ConditionExpression: awsv2.String(recordExistsCondition),
		ExpressionAttributeNames: map[string]string{
			"#attachmentURLField": "attachmentUrl",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":url": &types.AttributeValueMemberS{Value: url},
		},
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ErrRecipeNotFound
		}
		return fmt.Errorf("failed to update attachment url: %w", err)
	}

	return nil
}

// DeleteRecipe removes one record by exact primary key. Returns
// ErrRecipeNotFound if no record exists for the pair.
func (r *Repository) DeleteRecipe(ctx context.Context, userID, recipeID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           awsv2.String(r.table),
		Key:                 recipeKey(userID, recipeID),
		ConditionExpression: awsv2.String(recordExistsCondition),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ErrRecipeNotFound
		}
		return fmt.Errorf("failed to delete recipe: %w", err)
	}

	return nil
}

// recipeKey builds the (userId, recipeId) primary key. All access
// goes through this helper so a recipeId can never be used without
// its owner constraint.
func recipeKey(userID, recipeID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"userId":   &types.AttributeValueMemberS{Value: userID},
		"recipeId": &types.AttributeValueMemberS{Value: recipeID},
	}
}

// isConditionalCheckFailed reports whether err is the store's
// conditional-write rejection.
func isConditionalCheckFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
