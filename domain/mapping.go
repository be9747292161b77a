package domain

import (
	"foodgram/entities"
)

func NewUserResponse(user *entities.User, isSubscribed bool) UserResponse {
	if user == nil {
		return UserResponse{}
	}
	return UserResponse{
		Email:        user.Email,
		ID:           user.ID.String(),
		Username:     user.Username,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		IsSubscribed: isSubscribed,
		Avatar:       user.AvatarURL,
	}
}

func NewTagResponse(tag *entities.Tag) TagResponse {
	return TagResponse{
		ID:   tag.ID.String(),
		Name: tag.Name,
		Slug: tag.Slug,
	}
}

func NewIngredientResponse(ingredient *entities.Ingredient) IngredientResponse {
	return IngredientResponse{
		ID:              ingredient.ID.String(),
		Name:            ingredient.Name,
		MeasurementUnit: ingredient.MeasurementUnit,
	}
}

func NewRecipeShort(recipe *entities.Recipe) RecipeShort {
	return RecipeShort{
		ID:          recipe.ID.String(),
		Name:        recipe.Name,
		Image:       recipe.ImageURL,
		CookingTime: recipe.CookingTime,
	}
}

// RecipeFlags are the requester relative parts of a rendered recipe.
type RecipeFlags struct {
	IsFavorited      bool
	IsInShoppingCart bool
	IsAuthorFollowed bool
}

// NewRecipeResponse expects Author, Tags.Tag and Ingredients.Ingredient to be
// loaded. Ingredient lines keep the order they were stored in.
func NewRecipeResponse(recipe *entities.Recipe, flags RecipeFlags) RecipeResponse {
	tags := make([]TagResponse, 0, len(recipe.Tags))
	for _, rt := range recipe.Tags {
		if rt.Tag == nil {
			continue
		}
		tags = append(tags, NewTagResponse(rt.Tag))
	}

	ingredients := make([]RecipeIngredientResponse, 0, len(recipe.Ingredients))
	for _, line := range recipe.Ingredients {
		item := RecipeIngredientResponse{
			ID:     line.IngredientID.String(),
			Amount: line.Amount,
		}
		if line.Ingredient != nil {
			item.Name = line.Ingredient.Name
			item.MeasurementUnit = line.Ingredient.MeasurementUnit
		}
		ingredients = append(ingredients, item)
	}

	return RecipeResponse{
		ID:               recipe.ID.String(),
		Tags:             tags,
		Author:           NewUserResponse(recipe.Author, flags.IsAuthorFollowed),
		Ingredients:      ingredients,
		IsFavorited:      flags.IsFavorited,
		IsInShoppingCart: flags.IsInShoppingCart,
		Name:             recipe.Name,
		Image:            recipe.ImageURL,
		Text:             recipe.Text,
		CookingTime:      recipe.CookingTime,
	}
}
