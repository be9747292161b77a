package recipe

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"foodgram/domain"
	"foodgram/entities"
	"foodgram/internal/metrics"
	"foodgram/internal/utils"
	"foodgram/internal/utils/storage"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

const recipeImageFolder = "recipes"

type (
	RecipeService interface {
		CreateRecipe(ctx context.Context, req domain.RecipeRequest, userID string) (domain.RecipeResponse, error)
		UpdateRecipe(ctx context.Context, recipeID string, req domain.RecipeRequest, userID string) (domain.RecipeResponse, error)
		DeleteRecipe(ctx context.Context, recipeID string, userID string) error
		GetRecipe(ctx context.Context, recipeID string, userID string) (domain.RecipeResponse, error)
		GetRecipes(ctx context.Context, filter domain.RecipeFilter, userID string) ([]domain.RecipeResponse, int64, error)
		AddFavorite(ctx context.Context, recipeID string, userID string) (domain.RecipeShort, error)
		RemoveFavorite(ctx context.Context, recipeID string, userID string) error
		AddToShoppingCart(ctx context.Context, recipeID string, userID string) (domain.RecipeShort, error)
		RemoveFromShoppingCart(ctx context.Context, recipeID string, userID string) error
		GetShortLink(ctx context.Context, recipeID string) (domain.ShortLinkResponse, error)
		ResolveShortLink(ctx context.Context, code string) (string, error)
	}

	recipeService struct {
		recipeRepository RecipeRepository
		s3               storage.AwsS3
		appURL           string
		frontendURL      string
	}
)

func NewRecipeService(recipeRepository RecipeRepository, s3 storage.AwsS3) RecipeService {
	return &recipeService{
		recipeRepository: recipeRepository,
		s3:               s3,
		appURL:           strings.TrimRight(utils.GetConfig("APP_URL"), "/"),
		frontendURL:      strings.TrimRight(utils.GetConfig("FRONTEND_URL"), "/"),
	}
}

func parseRecipeID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, domain.ErrRecipeNotFound
	}
	return parsed, nil
}

func parseUserID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, domain.ErrAuthenticationRequired
	}
	return parsed, nil
}

func (s *recipeService) CreateRecipe(ctx context.Context, req domain.RecipeRequest, userID string) (res domain.RecipeResponse, err error) {
	defer func(started time.Time) { metrics.RecordRecipeWrite("create", started, err) }(time.Now())

	authorID, err := parseUserID(userID)
	if err != nil {
		return res, err
	}
	image, err := validateRecipe(&req, true)
	if err != nil {
		return res, err
	}

	recipe := &entities.Recipe{
		ID:          uuid.New(),
		AuthorID:    authorID,
		Name:        req.Name,
		Text:        req.Text,
		CookingTime: req.CookingTime,
	}
	lines, tags := buildAssociations(recipe.ID, &req)

	objectKey, err := s.s3.UploadFile(ctx, uuid.NewString(), image, recipeImageFolder, storage.AllowImage...)
	if err != nil {
		return res, err
	}
	recipe.ImageURL = s.s3.GetPublicLinkKey(objectKey)

	if err = s.recipeRepository.CreateRecipe(ctx, recipe, lines, tags); err != nil {
		s.discardObject(ctx, objectKey)
		return res, err
	}

	return s.GetRecipe(ctx, recipe.ID.String(), userID)
}

func (s *recipeService) UpdateRecipe(ctx context.Context, recipeID string, req domain.RecipeRequest, userID string) (res domain.RecipeResponse, err error) {
	defer func(started time.Time) { metrics.RecordRecipeWrite("update", started, err) }(time.Now())

	id, err := parseRecipeID(recipeID)
	if err != nil {
		return res, err
	}
	existing, err := s.recipeRepository.FindRecipe(ctx, id)
	if err != nil {
		return res, err
	}
	if err = domain.CheckAuthor(userID, existing.AuthorID.String()); err != nil {
		return res, err
	}

	image, err := validateRecipe(&req, false)
	if err != nil {
		return res, err
	}

	recipe := &entities.Recipe{
		ID:          existing.ID,
		AuthorID:    existing.AuthorID,
		Name:        req.Name,
		ImageURL:    existing.ImageURL,
		Text:        req.Text,
		CookingTime: req.CookingTime,
	}
	lines, tags := buildAssociations(recipe.ID, &req)

	var newKey string
	if image != nil {
		newKey, err = s.s3.UploadFile(ctx, uuid.NewString(), image, recipeImageFolder, storage.AllowImage...)
		if err != nil {
			return res, err
		}
		recipe.ImageURL = s.s3.GetPublicLinkKey(newKey)
	}

	if err = s.recipeRepository.UpdateRecipe(ctx, recipe, lines, tags); err != nil {
		if newKey != "" {
			s.discardObject(ctx, newKey)
		}
		return res, err
	}
	if newKey != "" {
		s.discardObject(ctx, s.s3.GetObjectKeyFromLink(existing.ImageURL))
	}

	return s.GetRecipe(ctx, recipe.ID.String(), userID)
}

func (s *recipeService) DeleteRecipe(ctx context.Context, recipeID string, userID string) (err error) {
	defer func(started time.Time) { metrics.RecordRecipeWrite("delete", started, err) }(time.Now())

	id, err := parseRecipeID(recipeID)
	if err != nil {
		return err
	}
	existing, err := s.recipeRepository.FindRecipe(ctx, id)
	if err != nil {
		return err
	}
	if err = domain.CheckAuthor(userID, existing.AuthorID.String()); err != nil {
		return err
	}

	if err = s.recipeRepository.DeleteRecipe(ctx, id); err != nil {
		return err
	}
	s.discardObject(ctx, s.s3.GetObjectKeyFromLink(existing.ImageURL))
	return nil
}

// discardObject removes a blob that no row points to anymore. Failures only
// leave garbage in the bucket, so they are logged.
func (s *recipeService) discardObject(ctx context.Context, objectKey string) {
	if objectKey == "" {
		return
	}
	if err := s.s3.DeleteFile(ctx, objectKey); err != nil {
		log.Warnf("failed to delete object %s: %v", objectKey, err)
	}
}

func (s *recipeService) GetRecipe(ctx context.Context, recipeID string, userID string) (domain.RecipeResponse, error) {
	id, err := parseRecipeID(recipeID)
	if err != nil {
		return domain.RecipeResponse{}, err
	}
	recipe, marks, err := s.recipeRepository.GetRecipeByID(ctx, id, userID)
	if err != nil {
		return domain.RecipeResponse{}, err
	}
	return domain.NewRecipeResponse(recipe, marks.Flags(recipe)), nil
}

func (s *recipeService) GetRecipes(ctx context.Context, filter domain.RecipeFilter, userID string) ([]domain.RecipeResponse, int64, error) {
	if err := utils.ValidateStruct(&filter).Err(); err != nil {
		return nil, 0, err
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = utils.GetConfigInt("PAGE_SIZE", domain.DefaultPageSize)
	}
	if userID == "" {
		filter.IsFavorited = false
		filter.IsInShoppingCart = false
	}

	recipes, count, marks, err := s.recipeRepository.GetRecipes(ctx, filter, userID)
	if err != nil {
		return nil, 0, err
	}

	res := make([]domain.RecipeResponse, 0, len(recipes))
	for _, recipe := range recipes {
		res = append(res, domain.NewRecipeResponse(recipe, marks.Flags(recipe)))
	}
	return res, count, nil
}

type membershipChange func(ctx context.Context, userID, recipeID uuid.UUID) error

func (s *recipeService) changeMembership(ctx context.Context, set, action, recipeID, userID string, change membershipChange) (err error) {
	defer func() {
		metrics.RecordMembership(set, action, domain.KindOf(err) == domain.KindConflict, err)
	}()

	uid, err := parseUserID(userID)
	if err != nil {
		return err
	}
	id, err := parseRecipeID(recipeID)
	if err != nil {
		return err
	}
	return change(ctx, uid, id)
}

func (s *recipeService) shortRecipe(ctx context.Context, recipeID string) (domain.RecipeShort, error) {
	id, err := parseRecipeID(recipeID)
	if err != nil {
		return domain.RecipeShort{}, err
	}
	recipe, err := s.recipeRepository.FindRecipe(ctx, id)
	if err != nil {
		return domain.RecipeShort{}, err
	}
	return domain.NewRecipeShort(recipe), nil
}

func (s *recipeService) AddFavorite(ctx context.Context, recipeID string, userID string) (domain.RecipeShort, error) {
	if err := s.changeMembership(ctx, "favorite", "add", recipeID, userID, s.recipeRepository.AddFavorite); err != nil {
		return domain.RecipeShort{}, err
	}
	return s.shortRecipe(ctx, recipeID)
}

func (s *recipeService) RemoveFavorite(ctx context.Context, recipeID string, userID string) error {
	return s.changeMembership(ctx, "favorite", "remove", recipeID, userID, s.recipeRepository.RemoveFavorite)
}

func (s *recipeService) AddToShoppingCart(ctx context.Context, recipeID string, userID string) (domain.RecipeShort, error) {
	if err := s.changeMembership(ctx, "shopping_cart", "add", recipeID, userID, s.recipeRepository.AddToShoppingCart); err != nil {
		return domain.RecipeShort{}, err
	}
	return s.shortRecipe(ctx, recipeID)
}

func (s *recipeService) RemoveFromShoppingCart(ctx context.Context, recipeID string, userID string) error {
	return s.changeMembership(ctx, "shopping_cart", "remove", recipeID, userID, s.recipeRepository.RemoveFromShoppingCart)
}

// EncodeShortCode is the unpadded base64url form of the recipe uuid.
func EncodeShortCode(id uuid.UUID) string {
	return base64.RawURLEncoding.EncodeToString(id[:])
}

func DecodeShortCode(code string) (uuid.UUID, error) {
	raw, err := base64.RawURLEncoding.DecodeString(code)
	if err != nil {
		return uuid.Nil, domain.ErrShortLinkNotFound
	}
	id, err := uuid.FromBytes(raw)
	if err != nil {
		return uuid.Nil, domain.ErrShortLinkNotFound
	}
	return id, nil
}

func (s *recipeService) GetShortLink(ctx context.Context, recipeID string) (domain.ShortLinkResponse, error) {
	id, err := parseRecipeID(recipeID)
	if err != nil {
		return domain.ShortLinkResponse{}, err
	}
	if _, err := s.recipeRepository.FindRecipe(ctx, id); err != nil {
		return domain.ShortLinkResponse{}, err
	}
	return domain.ShortLinkResponse{
		ShortLink: fmt.Sprintf("%s/s/%s", s.appURL, EncodeShortCode(id)),
	}, nil
}

// ResolveShortLink returns the frontend page a short code points to.
func (s *recipeService) ResolveShortLink(ctx context.Context, code string) (string, error) {
	id, err := DecodeShortCode(code)
	if err != nil {
		return "", err
	}
	if _, err := s.recipeRepository.FindRecipe(ctx, id); err != nil {
		if errors.Is(err, domain.ErrRecipeNotFound) {
			return "", domain.ErrShortLinkNotFound
		}
		return "", err
	}
	return fmt.Sprintf("%s/recipes/%s", s.frontendURL, id), nil
}
