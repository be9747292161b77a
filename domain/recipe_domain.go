package domain

var (
	MessageSuccessGetRecipes         = "success get recipes"
	MessageSuccessGetRecipeDetail    = "success get recipe detail"
	MessageSuccessCreateRecipe       = "recipe created successfully"
	MessageSuccessUpdateRecipe       = "recipe updated successfully"
	MessageSuccessDeleteRecipe       = "recipe deleted successfully"
	MessageSuccessAddFavorite        = "recipe added to favorites"
	MessageSuccessRemoveFavorite     = "recipe removed from favorites"
	MessageSuccessAddShoppingCart    = "recipe added to shopping cart"
	MessageSuccessRemoveShoppingCart = "recipe removed from shopping cart"
	MessageSuccessGetShortLink       = "success get short link"

	MessageFailedGetRecipes         = "failed to get recipes"
	MessageFailedGetRecipeDetail    = "failed to get recipe detail"
	MessageFailedCreateRecipe       = "failed to create recipe"
	MessageFailedUpdateRecipe       = "failed to update recipe"
	MessageFailedDeleteRecipe       = "failed to delete recipe"
	MessageFailedAddFavorite        = "failed to add recipe to favorites"
	MessageFailedRemoveFavorite     = "failed to remove recipe from favorites"
	MessageFailedAddShoppingCart    = "failed to add recipe to shopping cart"
	MessageFailedRemoveShoppingCart = "failed to remove recipe from shopping cart"
	MessageFailedGetShortLink       = "failed to get short link"

	ErrRecipeNotFound          = NewError(KindNotFound, "recipe not found")
	ErrShortLinkNotFound       = NewError(KindNotFound, "short link not found")
	ErrAlreadyInFavorites      = NewError(KindConflict, "recipe already in favorites")
	ErrAlreadyInShoppingCart   = NewError(KindConflict, "recipe already in shopping cart")
	ErrFavoriteNotFound        = NewError(KindConflict, "recipe is not in favorites")
	ErrShoppingCartItemMissing = NewError(KindConflict, "recipe is not in shopping cart")
)

const (
	// MinIngredientsCount is the smallest number of ingredient lines a recipe may have.
	MinIngredientsCount = 1
	// MinIngredientAmount is the smallest amount of a single ingredient line.
	MinIngredientAmount = 1
	// MinCookingTime is in minutes.
	MinCookingTime = 1

	MaxRecipeNameLength = 256
)

type (
	IngredientAmountRequest struct {
		ID     string `json:"id" validate:"required,uuid"`
		Amount int    `json:"amount"`
	}

	// RecipeRequest is the write shape used by create and update.
	RecipeRequest struct {
		Ingredients []IngredientAmountRequest `json:"ingredients" validate:"unique=ID,dive"`
		Tags        []string                  `json:"tags" validate:"unique,dive,uuid"`
		Image       string                    `json:"image" validate:"omitempty,datauri"`
		Name        string                    `json:"name" validate:"required,max=256"`
		Text        string                    `json:"text" validate:"required"`
		CookingTime int                       `json:"cooking_time"`
	}

	RecipeIngredientResponse struct {
		ID              string `json:"id"`
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
		Amount          int    `json:"amount"`
	}

	// RecipeResponse is the read shape, always computed for a given requester.
	RecipeResponse struct {
		ID               string                     `json:"id"`
		Tags             []TagResponse              `json:"tags"`
		Author           UserResponse               `json:"author"`
		Ingredients      []RecipeIngredientResponse `json:"ingredients"`
		IsFavorited      bool                       `json:"is_favorited"`
		IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
		Name             string                     `json:"name"`
		Image            string                     `json:"image"`
		Text             string                     `json:"text"`
		CookingTime      int                        `json:"cooking_time"`
	}

	RecipeShort struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Image       string `json:"image"`
		CookingTime int    `json:"cooking_time"`
	}

	// RecipeFilter is built from the list query string.
	RecipeFilter struct {
		Tags             []string `json:"tags" validate:"dive,slug"`
		AuthorID         string   `json:"author" validate:"omitempty,uuid"`
		IsFavorited      bool     `json:"is_favorited"`
		IsInShoppingCart bool     `json:"is_in_shopping_cart"`
		Page             int      `json:"page"`
		Limit            int      `json:"limit"`
	}

	ShortLinkResponse struct {
		ShortLink string `json:"short-link"`
	}
)
