package catalog

import (
	"context"

	"foodgram/domain"

	"github.com/google/uuid"
)

type (
	CatalogService interface {
		GetTags(ctx context.Context) ([]domain.TagResponse, error)
		GetTag(ctx context.Context, id string) (domain.TagResponse, error)
		GetIngredients(ctx context.Context, name string) ([]domain.IngredientResponse, error)
		GetIngredient(ctx context.Context, id string) (domain.IngredientResponse, error)
	}

	catalogService struct {
		catalogRepository CatalogRepository
	}
)

func NewCatalogService(catalogRepository CatalogRepository) CatalogService {
	return &catalogService{catalogRepository: catalogRepository}
}

func (s *catalogService) GetTags(ctx context.Context) ([]domain.TagResponse, error) {
	tags, err := s.catalogRepository.GetTags(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]domain.TagResponse, 0, len(tags))
	for _, tag := range tags {
		res = append(res, domain.NewTagResponse(tag))
	}
	return res, nil
}

func (s *catalogService) GetTag(ctx context.Context, id string) (domain.TagResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.TagResponse{}, domain.ErrTagNotFound
	}
	tag, err := s.catalogRepository.GetTagByID(ctx, id)
	if err != nil {
		return domain.TagResponse{}, err
	}
	return domain.NewTagResponse(tag), nil
}

func (s *catalogService) GetIngredients(ctx context.Context, name string) ([]domain.IngredientResponse, error) {
	ingredients, err := s.catalogRepository.SearchIngredients(ctx, name)
	if err != nil {
		return nil, err
	}
	res := make([]domain.IngredientResponse, 0, len(ingredients))
	for _, ingredient := range ingredients {
		res = append(res, domain.NewIngredientResponse(ingredient))
	}
	return res, nil
}

func (s *catalogService) GetIngredient(ctx context.Context, id string) (domain.IngredientResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.IngredientResponse{}, domain.ErrIngredientNotFound
	}
	ingredient, err := s.catalogRepository.GetIngredientByID(ctx, id)
	if err != nil {
		return domain.IngredientResponse{}, err
	}
	return domain.NewIngredientResponse(ingredient), nil
}
