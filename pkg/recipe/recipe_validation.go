package recipe

import (
	"fmt"

	"foodgram/domain"
	"foodgram/entities"
	"foodgram/internal/utils"
	"foodgram/internal/utils/storage"

	"github.com/google/uuid"
)

// validateRecipe checks every rule and reports all failures together. The
// decoded image is returned when one was sent.
func validateRecipe(req *domain.RecipeRequest, requireImage bool) (*storage.File, error) {
	verr := utils.ValidateStruct(req)

	if len(req.Ingredients) < domain.MinIngredientsCount {
		verr.Add("ingredients", fmt.Sprintf("Add at least %d ingredient.", domain.MinIngredientsCount))
	}
	for _, item := range req.Ingredients {
		if item.Amount < domain.MinIngredientAmount {
			verr.Add("ingredients", fmt.Sprintf("Ingredient amount must be at least %d.", domain.MinIngredientAmount))
		}
	}
	if len(req.Tags) == 0 {
		verr.Add("tags", "Add at least one tag.")
	}
	if req.CookingTime < domain.MinCookingTime {
		verr.Add("cooking_time", fmt.Sprintf("Cooking time must be at least %d minute.", domain.MinCookingTime))
	}

	var image *storage.File
	switch {
	case req.Image == "" && requireImage:
		verr.Add("image", "This field is required.")
	case req.Image != "" && len(verr.Fields["image"]) == 0:
		file, err := storage.DecodeDataURI(req.Image)
		if err != nil {
			verr.Add("image", "Must be a base64 encoded data URI.")
			break
		}
		if !file.Allowed(storage.AllowImage...) {
			verr.Add("image", "Unsupported image type.")
			break
		}
		image = file
	}

	if err := verr.Err(); err != nil {
		return nil, err
	}
	return image, nil
}

// buildAssociations prepares the full replacement set in memory. Ids were
// validated already.
func buildAssociations(recipeID uuid.UUID, req *domain.RecipeRequest) ([]*entities.RecipeIngredient, []*entities.RecipeTag) {
	lines := make([]*entities.RecipeIngredient, 0, len(req.Ingredients))
	for i, item := range req.Ingredients {
		lines = append(lines, &entities.RecipeIngredient{
			ID:           uuid.New(),
			RecipeID:     recipeID,
			IngredientID: uuid.MustParse(item.ID),
			Amount:       item.Amount,
			Position:     i,
		})
	}

	tags := make([]*entities.RecipeTag, 0, len(req.Tags))
	for _, id := range req.Tags {
		tags = append(tags, &entities.RecipeTag{
			RecipeID: recipeID,
			TagID:    uuid.MustParse(id),
		})
	}
	return lines, tags
}
