package recipe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"foodgram/domain"
	"foodgram/entities"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type (
	RecipeRepository interface {
		CreateRecipe(ctx context.Context, recipe *entities.Recipe, lines []*entities.RecipeIngredient, tags []*entities.RecipeTag) error
		UpdateRecipe(ctx context.Context, recipe *entities.Recipe, lines []*entities.RecipeIngredient, tags []*entities.RecipeTag) error
		DeleteRecipe(ctx context.Context, id uuid.UUID) error
		FindRecipe(ctx context.Context, id uuid.UUID) (*entities.Recipe, error)
		GetRecipeByID(ctx context.Context, id uuid.UUID, viewerID string) (*entities.Recipe, *RecipeMarks, error)
		GetRecipes(ctx context.Context, filter domain.RecipeFilter, viewerID string) ([]*entities.Recipe, int64, *RecipeMarks, error)
		AddFavorite(ctx context.Context, userID, recipeID uuid.UUID) error
		RemoveFavorite(ctx context.Context, userID, recipeID uuid.UUID) error
		AddToShoppingCart(ctx context.Context, userID, recipeID uuid.UUID) error
		RemoveFromShoppingCart(ctx context.Context, userID, recipeID uuid.UUID) error
	}

	// RecipeMarks holds what a single viewer has done with a set of recipes.
	RecipeMarks struct {
		Favorited       map[uuid.UUID]bool
		InShoppingCart  map[uuid.UUID]bool
		FollowedAuthors map[uuid.UUID]bool
	}

	recipeRepository struct {
		db *gorm.DB
	}
)

var readOnlySnapshot = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

func (m *RecipeMarks) Flags(recipe *entities.Recipe) domain.RecipeFlags {
	if m == nil {
		return domain.RecipeFlags{}
	}
	return domain.RecipeFlags{
		IsFavorited:      m.Favorited[recipe.ID],
		IsInShoppingCart: m.InShoppingCart[recipe.ID],
		IsAuthorFollowed: m.FollowedAuthors[recipe.AuthorID],
	}
}

// CreateRecipe inserts the recipe with every ingredient line and tag in one
// transaction. Unknown ingredient or tag ids roll the whole insert back.
func (r *recipeRepository) CreateRecipe(ctx context.Context, recipe *entities.Recipe, lines []*entities.RecipeIngredient, tags []*entities.RecipeTag) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkReferences(tx, lines, tags); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(recipe).Error; err != nil {
			return translateWriteError(err)
		}
		return replaceAssociations(tx, recipe.ID, lines, tags, false)
	})
}

// UpdateRecipe locks the recipe row, rewrites its scalars and swaps the full
// ingredient and tag sets. Lines are never diffed.
func (r *recipeRepository) UpdateRecipe(ctx context.Context, recipe *entities.Recipe, lines []*entities.RecipeIngredient, tags []*entities.RecipeTag) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked entities.Recipe
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", recipe.ID).
			First(&locked).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrRecipeNotFound
			}
			return err
		}

		if err := checkReferences(tx, lines, tags); err != nil {
			return err
		}

		err = tx.Model(&entities.Recipe{ID: recipe.ID}).Updates(map[string]any{
			"name":         recipe.Name,
			"text":         recipe.Text,
			"cooking_time": recipe.CookingTime,
			"image_url":    recipe.ImageURL,
		}).Error
		if err != nil {
			return translateWriteError(err)
		}
		return replaceAssociations(tx, recipe.ID, lines, tags, true)
	})
}

func replaceAssociations(tx *gorm.DB, recipeID uuid.UUID, lines []*entities.RecipeIngredient, tags []*entities.RecipeTag, clear bool) error {
	if clear {
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&entities.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&entities.RecipeTag{}).Error; err != nil {
			return err
		}
	}

	for _, line := range lines {
		line.RecipeID = recipeID
	}
	for _, tag := range tags {
		tag.RecipeID = recipeID
	}

	if len(lines) > 0 {
		if err := tx.Omit(clause.Associations).Create(&lines).Error; err != nil {
			return translateWriteError(err)
		}
	}
	if len(tags) > 0 {
		if err := tx.Omit(clause.Associations).Create(&tags).Error; err != nil {
			return translateWriteError(err)
		}
	}
	return nil
}

func checkReferences(tx *gorm.DB, lines []*entities.RecipeIngredient, tags []*entities.RecipeTag) error {
	verr := domain.NewValidationError()

	ingredientIDs := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ingredientIDs = append(ingredientIDs, line.IngredientID)
	}
	missing, err := missingIDs(tx, &entities.Ingredient{}, ingredientIDs)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		verr.Add("ingredients", fmt.Sprintf("Unknown ingredient ids: %s.", strings.Join(missing, ", ")))
	}

	tagIDs := make([]uuid.UUID, 0, len(tags))
	for _, tag := range tags {
		tagIDs = append(tagIDs, tag.TagID)
	}
	missing, err = missingIDs(tx, &entities.Tag{}, tagIDs)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		verr.Add("tags", fmt.Sprintf("Unknown tag ids: %s.", strings.Join(missing, ", ")))
	}

	return verr.Err()
}

func missingIDs(tx *gorm.DB, model any, ids []uuid.UUID) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []uuid.UUID
	if err := tx.Model(model).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]bool, len(found))
	for _, id := range found {
		seen[id] = true
	}
	var missing []string
	for _, id := range ids {
		if !seen[id] {
			missing = append(missing, id.String())
		}
	}
	return missing, nil
}

// translateWriteError maps constraint violations that slipped past the
// reference check (a concurrent catalog change) to validation errors.
func translateWriteError(err error) error {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return domain.NewFieldError("non_field_errors", "Referenced ingredient, tag or author no longer exists.")
	}
	return err
}

func (r *recipeRepository) DeleteRecipe(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.Recipe{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrRecipeNotFound
	}
	return nil
}

// FindRecipe loads the recipe row alone, without associations.
func (r *recipeRepository) FindRecipe(ctx context.Context, id uuid.UUID) (*entities.Recipe, error) {
	var recipe entities.Recipe
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&recipe).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRecipeNotFound
		}
		return nil, err
	}
	return &recipe, nil
}

func withGraph(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Tags.Tag").
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB {
			return db.Order("position")
		}).
		Preload("Ingredients.Ingredient")
}

// GetRecipeByID reads the recipe graph and the viewer marks from one snapshot
// so a concurrent replace is seen entirely or not at all.
func (r *recipeRepository) GetRecipeByID(ctx context.Context, id uuid.UUID, viewerID string) (*entities.Recipe, *RecipeMarks, error) {
	var (
		recipe entities.Recipe
		marks  *RecipeMarks
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := withGraph(tx).Where("id = ?", id).First(&recipe).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrRecipeNotFound
			}
			return err
		}

		var err error
		marks, err = loadMarks(tx, viewerID, []*entities.Recipe{&recipe})
		return err
	}, readOnlySnapshot)
	if err != nil {
		return nil, nil, err
	}
	return &recipe, marks, nil
}

func (r *recipeRepository) GetRecipes(ctx context.Context, filter domain.RecipeFilter, viewerID string) ([]*entities.Recipe, int64, *RecipeMarks, error) {
	var (
		recipes []*entities.Recipe
		count   int64
		marks   *RecipeMarks
	)
	offset := (filter.Page - 1) * filter.Limit

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		scope := filterScope(tx, filter, viewerID)

		if err := tx.Model(&entities.Recipe{}).Scopes(scope).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return nil
		}

		err := withGraph(tx.Scopes(scope)).
			Order("recipes.name").
			Order("recipes.id").
			Offset(offset).
			Limit(filter.Limit).
			Find(&recipes).Error
		if err != nil {
			return err
		}

		marks, err = loadMarks(tx, viewerID, recipes)
		return err
	}, readOnlySnapshot)
	if err != nil {
		return nil, 0, nil, err
	}
	return recipes, count, marks, nil
}

// filterScope applies the list filters. Favorite and shopping cart filters
// only apply to an identified viewer.
func filterScope(tx *gorm.DB, filter domain.RecipeFilter, viewerID string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		sub := func() *gorm.DB {
			return tx.Session(&gorm.Session{NewDB: true})
		}

		if len(filter.Tags) > 0 {
			tagged := sub().Model(&entities.RecipeTag{}).
				Select("recipe_tags.recipe_id").
				Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
				Where("tags.slug IN ?", filter.Tags)
			db = db.Where("recipes.id IN (?)", tagged)
		}
		if filter.AuthorID != "" {
			db = db.Where("recipes.author_id = ?", filter.AuthorID)
		}
		if viewerID != "" && filter.IsFavorited {
			favorited := sub().Model(&entities.Favorite{}).Select("recipe_id").Where("user_id = ?", viewerID)
			db = db.Where("recipes.id IN (?)", favorited)
		}
		if viewerID != "" && filter.IsInShoppingCart {
			inCart := sub().Model(&entities.ShoppingCart{}).Select("recipe_id").Where("user_id = ?", viewerID)
			db = db.Where("recipes.id IN (?)", inCart)
		}
		return db
	}
}

func loadMarks(tx *gorm.DB, viewerID string, recipes []*entities.Recipe) (*RecipeMarks, error) {
	marks := &RecipeMarks{
		Favorited:       map[uuid.UUID]bool{},
		InShoppingCart:  map[uuid.UUID]bool{},
		FollowedAuthors: map[uuid.UUID]bool{},
	}
	if viewerID == "" || len(recipes) == 0 {
		return marks, nil
	}

	recipeIDs := make([]uuid.UUID, 0, len(recipes))
	authorIDs := make([]uuid.UUID, 0, len(recipes))
	for _, recipe := range recipes {
		recipeIDs = append(recipeIDs, recipe.ID)
		authorIDs = append(authorIDs, recipe.AuthorID)
	}

	var ids []uuid.UUID
	if err := tx.Model(&entities.Favorite{}).
		Where("user_id = ? AND recipe_id IN ?", viewerID, recipeIDs).
		Pluck("recipe_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		marks.Favorited[id] = true
	}

	ids = nil
	if err := tx.Model(&entities.ShoppingCart{}).
		Where("user_id = ? AND recipe_id IN ?", viewerID, recipeIDs).
		Pluck("recipe_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		marks.InShoppingCart[id] = true
	}

	ids = nil
	if err := tx.Model(&entities.Subscription{}).
		Where("user_id = ? AND following_id IN ?", viewerID, authorIDs).
		Pluck("following_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		marks.FollowedAuthors[id] = true
	}
	return marks, nil
}

func (r *recipeRepository) AddFavorite(ctx context.Context, userID, recipeID uuid.UUID) error {
	return addMembership(ctx, r.db, &entities.Favorite{
		ID:       uuid.New(),
		UserID:   userID,
		RecipeID: recipeID,
	}, userID, recipeID, domain.ErrAlreadyInFavorites)
}

func (r *recipeRepository) RemoveFavorite(ctx context.Context, userID, recipeID uuid.UUID) error {
	return removeMembership[entities.Favorite](ctx, r.db, userID, recipeID, domain.ErrFavoriteNotFound)
}

func (r *recipeRepository) AddToShoppingCart(ctx context.Context, userID, recipeID uuid.UUID) error {
	return addMembership(ctx, r.db, &entities.ShoppingCart{
		ID:       uuid.New(),
		UserID:   userID,
		RecipeID: recipeID,
	}, userID, recipeID, domain.ErrAlreadyInShoppingCart)
}

func (r *recipeRepository) RemoveFromShoppingCart(ctx context.Context, userID, recipeID uuid.UUID) error {
	return removeMembership[entities.ShoppingCart](ctx, r.db, userID, recipeID, domain.ErrShoppingCartItemMissing)
}

// addMembership checks before inserting for a friendly error, and relies on
// the unique index when two requests race past the check.
func addMembership[T any](ctx context.Context, db *gorm.DB, row *T, userID, recipeID uuid.UUID, exists error) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := recipeExists(tx, recipeID); err != nil {
			return err
		}

		var count int64
		if err := tx.Model(new(T)).
			Where("user_id = ? AND recipe_id = ?", userID, recipeID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return exists
		}

		if err := tx.Create(row).Error; err != nil {
			switch {
			case errors.Is(err, gorm.ErrDuplicatedKey):
				return exists
			case errors.Is(err, gorm.ErrForeignKeyViolated):
				return domain.ErrRecipeNotFound
			}
			return err
		}
		return nil
	})
}

func removeMembership[T any](ctx context.Context, db *gorm.DB, userID, recipeID uuid.UUID, missing error) error {
	tx := db.WithContext(ctx)
	if err := recipeExists(tx, recipeID); err != nil {
		return err
	}

	res := tx.Where("user_id = ? AND recipe_id = ?", userID, recipeID).Delete(new(T))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return missing
	}
	return nil
}

func recipeExists(tx *gorm.DB, recipeID uuid.UUID) error {
	var count int64
	if err := tx.Model(&entities.Recipe{}).Where("id = ?", recipeID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return domain.ErrRecipeNotFound
	}
	return nil
}
