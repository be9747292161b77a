package recipe

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"foodgram/domain"
	"foodgram/entities"
	"foodgram/internal/utils/storage/storagemock"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRecipeRepository struct {
	mock.Mock
}

func (m *mockRecipeRepository) CreateRecipe(ctx context.Context, recipe *entities.Recipe, lines []*entities.RecipeIngredient, tags []*entities.RecipeTag) error {
	return m.Called(ctx, recipe, lines, tags).Error(0)
}

func (m *mockRecipeRepository) UpdateRecipe(ctx context.Context, recipe *entities.Recipe, lines []*entities.RecipeIngredient, tags []*entities.RecipeTag) error {
	return m.Called(ctx, recipe, lines, tags).Error(0)
}

func (m *mockRecipeRepository) DeleteRecipe(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRecipeRepository) FindRecipe(ctx context.Context, id uuid.UUID) (*entities.Recipe, error) {
	args := m.Called(ctx, id)
	recipe, _ := args.Get(0).(*entities.Recipe)
	return recipe, args.Error(1)
}

func (m *mockRecipeRepository) GetRecipeByID(ctx context.Context, id uuid.UUID, viewerID string) (*entities.Recipe, *RecipeMarks, error) {
	args := m.Called(ctx, id, viewerID)
	recipe, _ := args.Get(0).(*entities.Recipe)
	marks, _ := args.Get(1).(*RecipeMarks)
	return recipe, marks, args.Error(2)
}

func (m *mockRecipeRepository) GetRecipes(ctx context.Context, filter domain.RecipeFilter, viewerID string) ([]*entities.Recipe, int64, *RecipeMarks, error) {
	args := m.Called(ctx, filter, viewerID)
	recipes, _ := args.Get(0).([]*entities.Recipe)
	marks, _ := args.Get(2).(*RecipeMarks)
	return recipes, args.Get(1).(int64), marks, args.Error(3)
}

func (m *mockRecipeRepository) AddFavorite(ctx context.Context, userID, recipeID uuid.UUID) error {
	return m.Called(ctx, userID, recipeID).Error(0)
}

func (m *mockRecipeRepository) RemoveFavorite(ctx context.Context, userID, recipeID uuid.UUID) error {
	return m.Called(ctx, userID, recipeID).Error(0)
}

func (m *mockRecipeRepository) AddToShoppingCart(ctx context.Context, userID, recipeID uuid.UUID) error {
	return m.Called(ctx, userID, recipeID).Error(0)
}

func (m *mockRecipeRepository) RemoveFromShoppingCart(ctx context.Context, userID, recipeID uuid.UUID) error {
	return m.Called(ctx, userID, recipeID).Error(0)
}

var pngDataURI = "data:image/png;base64," + base64.StdEncoding.EncodeToString(
	[]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13, 'I', 'H', 'D', 'R'},
)

func validRequest() domain.RecipeRequest {
	return domain.RecipeRequest{
		Ingredients: []domain.IngredientAmountRequest{
			{ID: saltID.String(), Amount: 10},
			{ID: sugarID.String(), Amount: 5},
		},
		Tags:        []string{tagID.String()},
		Image:       pngDataURI,
		Name:        "Pickles",
		Text:        "Salt the cucumbers.",
		CookingTime: 30,
	}
}

func newTestService(t *testing.T) (*recipeService, *mockRecipeRepository, *storagemock.AwsS3) {
	t.Setenv("APP_URL", "https://foodgram.test/")
	t.Setenv("FRONTEND_URL", "https://app.foodgram.test")
	repo := new(mockRecipeRepository)
	s3 := new(storagemock.AwsS3)
	svc := NewRecipeService(repo, s3).(*recipeService)
	return svc, repo, s3
}

func TestCreateRecipeService(t *testing.T) {
	ctx := context.Background()

	t.Run("every rule is reported before anything is stored", func(t *testing.T) {
		svc, repo, s3 := newTestService(t)

		req := domain.RecipeRequest{
			Ingredients: []domain.IngredientAmountRequest{{ID: saltID.String(), Amount: 0}},
			CookingTime: 0,
		}
		_, err := svc.CreateRecipe(ctx, req, authorID.String())

		verr, ok := domain.AsValidationError(err)
		require.True(t, ok)
		assert.Contains(t, verr.Fields["ingredients"], "Ingredient amount must be at least 1.")
		assert.Contains(t, verr.Fields["tags"], "Add at least one tag.")
		assert.Contains(t, verr.Fields["image"], "This field is required.")
		assert.Contains(t, verr.Fields["cooking_time"], "Cooking time must be at least 1 minute.")
		assert.Contains(t, verr.Fields["name"], "This field is required.")
		assert.Contains(t, verr.Fields["text"], "This field is required.")
		repo.AssertNotCalled(t, "CreateRecipe", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		s3.AssertNotCalled(t, "UploadFile", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("empty ingredient list", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		req := validRequest()
		req.Ingredients = nil
		_, err := svc.CreateRecipe(ctx, req, authorID.String())

		verr, ok := domain.AsValidationError(err)
		require.True(t, ok)
		assert.Equal(t, []string{"Add at least 1 ingredient."}, verr.Fields["ingredients"])
	})

	t.Run("non image payload", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		req := validRequest()
		req.Image = "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("hello there"))
		_, err := svc.CreateRecipe(ctx, req, authorID.String())

		verr, ok := domain.AsValidationError(err)
		require.True(t, ok)
		assert.Equal(t, []string{"Unsupported image type."}, verr.Fields["image"])
	})

	t.Run("stores recipe with every line", func(t *testing.T) {
		svc, repo, s3 := newTestService(t)

		s3.On("UploadFile", ctx, mock.Anything, mock.Anything, recipeImageFolder).Return("recipes/new.png", nil)
		repo.On("CreateRecipe", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		repo.On("GetRecipeByID", ctx, mock.Anything, authorID.String()).Return(newRecipe(), (*RecipeMarks)(nil), nil)

		res, err := svc.CreateRecipe(ctx, validRequest(), authorID.String())
		require.NoError(t, err)
		assert.Equal(t, "Pickles", res.Name)

		call := repo.Calls[0]
		recipe := call.Arguments.Get(1).(*entities.Recipe)
		lines := call.Arguments.Get(2).([]*entities.RecipeIngredient)
		tags := call.Arguments.Get(3).([]*entities.RecipeTag)
		assert.Equal(t, authorID, recipe.AuthorID)
		assert.Equal(t, storagemock.PublicBase+"recipes/new.png", recipe.ImageURL)
		require.Len(t, lines, 2)
		assert.Equal(t, saltID, lines[0].IngredientID)
		assert.Equal(t, 1, lines[1].Position)
		assert.Len(t, tags, 1)
		s3.AssertNotCalled(t, "DeleteFile", mock.Anything, mock.Anything)
	})

	t.Run("failed transaction removes the uploaded image", func(t *testing.T) {
		svc, repo, s3 := newTestService(t)

		s3.On("UploadFile", ctx, mock.Anything, mock.Anything, recipeImageFolder).Return("recipes/new.png", nil)
		s3.On("DeleteFile", ctx, "recipes/new.png").Return(nil)
		repo.On("CreateRecipe", ctx, mock.Anything, mock.Anything, mock.Anything).
			Return(domain.NewFieldError("ingredients", "Unknown ingredient ids: x."))

		_, err := svc.CreateRecipe(ctx, validRequest(), authorID.String())
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
		s3.AssertExpectations(t)
	})

	t.Run("anonymous", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		_, err := svc.CreateRecipe(ctx, validRequest(), "")
		assert.ErrorIs(t, err, domain.ErrAuthenticationRequired)
	})
}

func TestUpdateRecipeService(t *testing.T) {
	ctx := context.Background()

	t.Run("only the author may update", func(t *testing.T) {
		svc, repo, s3 := newTestService(t)
		repo.On("FindRecipe", ctx, recipeID).Return(newRecipe(), nil)

		_, err := svc.UpdateRecipe(ctx, recipeID.String(), validRequest(), viewerID.String())
		assert.ErrorIs(t, err, domain.ErrAuthorizationDenied)
		repo.AssertNotCalled(t, "UpdateRecipe", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		s3.AssertNotCalled(t, "UploadFile", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("keeps the image when none is sent", func(t *testing.T) {
		svc, repo, s3 := newTestService(t)
		existing := newRecipe()
		existing.ImageURL = storagemock.PublicBase + "recipes/old.png"

		repo.On("FindRecipe", ctx, recipeID).Return(existing, nil)
		repo.On("UpdateRecipe", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		repo.On("GetRecipeByID", ctx, recipeID, authorID.String()).Return(existing, (*RecipeMarks)(nil), nil)

		req := validRequest()
		req.Image = ""
		_, err := svc.UpdateRecipe(ctx, recipeID.String(), req, authorID.String())
		require.NoError(t, err)

		updated := repo.Calls[1].Arguments.Get(1).(*entities.Recipe)
		assert.Equal(t, existing.ImageURL, updated.ImageURL)
		s3.AssertNotCalled(t, "DeleteFile", mock.Anything, mock.Anything)
	})

	t.Run("new image replaces the old blob after commit", func(t *testing.T) {
		svc, repo, s3 := newTestService(t)
		existing := newRecipe()
		existing.ImageURL = storagemock.PublicBase + "recipes/old.png"

		repo.On("FindRecipe", ctx, recipeID).Return(existing, nil)
		s3.On("UploadFile", ctx, mock.Anything, mock.Anything, recipeImageFolder).Return("recipes/new.png", nil)
		repo.On("UpdateRecipe", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		s3.On("DeleteFile", ctx, "recipes/old.png").Return(errors.New("bucket unavailable"))
		repo.On("GetRecipeByID", ctx, recipeID, authorID.String()).Return(existing, (*RecipeMarks)(nil), nil)

		_, err := svc.UpdateRecipe(ctx, recipeID.String(), validRequest(), authorID.String())
		require.NoError(t, err)
		s3.AssertExpectations(t)
	})

	t.Run("unknown recipe", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		repo.On("FindRecipe", ctx, recipeID).Return(nil, domain.ErrRecipeNotFound)

		_, err := svc.UpdateRecipe(ctx, recipeID.String(), validRequest(), authorID.String())
		assert.ErrorIs(t, err, domain.ErrRecipeNotFound)
	})
}

func TestDeleteRecipeService(t *testing.T) {
	ctx := context.Background()

	t.Run("anonymous caller", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		repo.On("FindRecipe", ctx, recipeID).Return(newRecipe(), nil)

		err := svc.DeleteRecipe(ctx, recipeID.String(), "")
		assert.ErrorIs(t, err, domain.ErrAuthenticationRequired)
	})

	t.Run("author deletes row then blob", func(t *testing.T) {
		svc, repo, s3 := newTestService(t)
		existing := newRecipe()
		existing.ImageURL = storagemock.PublicBase + "recipes/p.png"

		repo.On("FindRecipe", ctx, recipeID).Return(existing, nil)
		repo.On("DeleteRecipe", ctx, recipeID).Return(nil)
		s3.On("DeleteFile", ctx, "recipes/p.png").Return(nil)

		require.NoError(t, svc.DeleteRecipe(ctx, recipeID.String(), authorID.String()))
		repo.AssertExpectations(t)
		s3.AssertExpectations(t)
	})
}

func TestGetRecipesService(t *testing.T) {
	ctx := context.Background()

	t.Run("anonymous filters are dropped and flags stay false", func(t *testing.T) {
		svc, repo, _ := newTestService(t)

		expected := domain.RecipeFilter{Page: 1, Limit: domain.DefaultPageSize}
		repo.On("GetRecipes", ctx, expected, "").
			Return([]*entities.Recipe{newRecipe()}, int64(1), (*RecipeMarks)(nil), nil)

		res, count, err := svc.GetRecipes(ctx, domain.RecipeFilter{IsFavorited: true, IsInShoppingCart: true}, "")
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
		require.Len(t, res, 1)
		assert.False(t, res[0].IsFavorited)
		assert.False(t, res[0].IsInShoppingCart)
	})

	t.Run("bad author filter", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		_, _, err := svc.GetRecipes(ctx, domain.RecipeFilter{AuthorID: "me"}, "")
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	})
}

func TestMembershipService(t *testing.T) {
	ctx := context.Background()

	t.Run("favorite returns the short form", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		repo.On("AddFavorite", ctx, viewerID, recipeID).Return(nil)
		repo.On("FindRecipe", ctx, recipeID).Return(newRecipe(), nil)

		res, err := svc.AddFavorite(ctx, recipeID.String(), viewerID.String())
		require.NoError(t, err)
		assert.Equal(t, domain.RecipeShort{ID: recipeID.String(), Name: "Pickles", Image: "https://bucket/recipes/p.png", CookingTime: 30}, res)
	})

	t.Run("duplicate add is a conflict", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		repo.On("AddToShoppingCart", ctx, viewerID, recipeID).Return(domain.ErrAlreadyInShoppingCart)

		_, err := svc.AddToShoppingCart(ctx, recipeID.String(), viewerID.String())
		assert.ErrorIs(t, err, domain.ErrAlreadyInShoppingCart)
		repo.AssertNotCalled(t, "FindRecipe", mock.Anything, mock.Anything)
	})

	t.Run("malformed recipe id is not found", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		err := svc.RemoveFavorite(ctx, "42", viewerID.String())
		assert.ErrorIs(t, err, domain.ErrRecipeNotFound)
	})
}

func TestShortLinks(t *testing.T) {
	ctx := context.Background()

	t.Run("code round trip", func(t *testing.T) {
		code := EncodeShortCode(recipeID)
		assert.Len(t, code, 22)

		decoded, err := DecodeShortCode(code)
		require.NoError(t, err)
		assert.Equal(t, recipeID, decoded)
	})

	t.Run("link and redirect", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		repo.On("FindRecipe", ctx, recipeID).Return(newRecipe(), nil)

		link, err := svc.GetShortLink(ctx, recipeID.String())
		require.NoError(t, err)
		assert.Equal(t, "https://foodgram.test/s/"+EncodeShortCode(recipeID), link.ShortLink)

		target, err := svc.ResolveShortLink(ctx, EncodeShortCode(recipeID))
		require.NoError(t, err)
		assert.Equal(t, "https://app.foodgram.test/recipes/"+recipeID.String(), target)
	})

	t.Run("unknown code", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		repo.On("FindRecipe", ctx, recipeID).Return(nil, domain.ErrRecipeNotFound)

		_, err := svc.ResolveShortLink(ctx, EncodeShortCode(recipeID))
		assert.ErrorIs(t, err, domain.ErrShortLinkNotFound)

		_, err = svc.ResolveShortLink(ctx, "!!")
		assert.ErrorIs(t, err, domain.ErrShortLinkNotFound)
	})
}
