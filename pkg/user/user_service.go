package user

import (
	"context"

	"foodgram/domain"
	"foodgram/entities"
	"foodgram/internal/metrics"
	"foodgram/internal/utils"
	"foodgram/internal/utils/storage"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

const avatarFolder = "avatars"

type (
	UserService interface {
		GetUsers(ctx context.Context, page, limit int, viewerID string) ([]domain.UserResponse, int64, error)
		GetUser(ctx context.Context, userID string, viewerID string) (domain.UserResponse, error)
		Me(ctx context.Context, viewerID string) (domain.UserResponse, error)
		UpdateAvatar(ctx context.Context, req domain.AvatarRequest, viewerID string) (domain.AvatarResponse, error)
		DeleteAvatar(ctx context.Context, viewerID string) error
		Subscribe(ctx context.Context, targetID string, viewerID string, recipesLimit int) (domain.SubscriptionResponse, error)
		Unsubscribe(ctx context.Context, targetID string, viewerID string) error
		GetSubscriptions(ctx context.Context, viewerID string, page, limit, recipesLimit int) ([]domain.SubscriptionResponse, int64, error)
	}

	userService struct {
		userRepository UserRepository
		s3             storage.AwsS3
	}
)

func NewUserService(userRepository UserRepository, s3 storage.AwsS3) UserService {
	return &userService{
		userRepository: userRepository,
		s3:             s3,
	}
}

func parseViewer(viewerID string) (uuid.UUID, error) {
	id, err := uuid.Parse(viewerID)
	if err != nil {
		return uuid.Nil, domain.ErrAuthenticationRequired
	}
	return id, nil
}

func parseTarget(userID string) (uuid.UUID, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, domain.ErrUserNotFound
	}
	return id, nil
}

// subscribedTo is empty for anonymous viewers.
func (s *userService) subscribedTo(ctx context.Context, viewerID string, users []*entities.User) (map[uuid.UUID]bool, error) {
	viewer, err := uuid.Parse(viewerID)
	if err != nil {
		return map[uuid.UUID]bool{}, nil
	}
	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return s.userRepository.IsSubscribed(ctx, viewer, ids)
}

func (s *userService) GetUsers(ctx context.Context, page, limit int, viewerID string) ([]domain.UserResponse, int64, error) {
	users, count, err := s.userRepository.GetUsers(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	followed, err := s.subscribedTo(ctx, viewerID, users)
	if err != nil {
		return nil, 0, err
	}

	res := make([]domain.UserResponse, 0, len(users))
	for _, u := range users {
		res = append(res, domain.NewUserResponse(u, followed[u.ID]))
	}
	return res, count, nil
}

func (s *userService) GetUser(ctx context.Context, userID string, viewerID string) (domain.UserResponse, error) {
	id, err := parseTarget(userID)
	if err != nil {
		return domain.UserResponse{}, err
	}
	u, err := s.userRepository.GetUserByID(ctx, id)
	if err != nil {
		return domain.UserResponse{}, err
	}
	followed, err := s.subscribedTo(ctx, viewerID, []*entities.User{u})
	if err != nil {
		return domain.UserResponse{}, err
	}
	return domain.NewUserResponse(u, followed[u.ID]), nil
}

func (s *userService) Me(ctx context.Context, viewerID string) (domain.UserResponse, error) {
	id, err := parseViewer(viewerID)
	if err != nil {
		return domain.UserResponse{}, err
	}
	u, err := s.userRepository.GetUserByID(ctx, id)
	if err != nil {
		return domain.UserResponse{}, err
	}
	return domain.NewUserResponse(u, false), nil
}

func (s *userService) UpdateAvatar(ctx context.Context, req domain.AvatarRequest, viewerID string) (domain.AvatarResponse, error) {
	id, err := parseViewer(viewerID)
	if err != nil {
		return domain.AvatarResponse{}, err
	}
	if err := utils.ValidateStruct(&req).Err(); err != nil {
		return domain.AvatarResponse{}, err
	}
	file, err := storage.DecodeDataURI(req.Avatar)
	if err != nil {
		return domain.AvatarResponse{}, domain.NewFieldError("avatar", "Must be a base64 encoded data URI.")
	}
	if !file.Allowed(storage.AllowImage...) {
		return domain.AvatarResponse{}, domain.NewFieldError("avatar", "Unsupported image type.")
	}

	current, err := s.userRepository.GetUserByID(ctx, id)
	if err != nil {
		return domain.AvatarResponse{}, err
	}

	objectKey, err := s.s3.UploadFile(ctx, uuid.NewString(), file, avatarFolder, storage.AllowImage...)
	if err != nil {
		return domain.AvatarResponse{}, err
	}
	link := s.s3.GetPublicLinkKey(objectKey)

	if err := s.userRepository.UpdateAvatar(ctx, id, link); err != nil {
		s.discardObject(ctx, objectKey)
		return domain.AvatarResponse{}, err
	}
	s.discardObject(ctx, s.s3.GetObjectKeyFromLink(current.AvatarURL))
	return domain.AvatarResponse{Avatar: link}, nil
}

func (s *userService) DeleteAvatar(ctx context.Context, viewerID string) error {
	id, err := parseViewer(viewerID)
	if err != nil {
		return err
	}
	current, err := s.userRepository.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if current.AvatarURL == "" {
		return nil
	}
	if err := s.userRepository.UpdateAvatar(ctx, id, ""); err != nil {
		return err
	}
	s.discardObject(ctx, s.s3.GetObjectKeyFromLink(current.AvatarURL))
	return nil
}

func (s *userService) discardObject(ctx context.Context, objectKey string) {
	if objectKey == "" {
		return
	}
	if err := s.s3.DeleteFile(ctx, objectKey); err != nil {
		log.Warnf("failed to delete object %s: %v", objectKey, err)
	}
}

func (s *userService) Subscribe(ctx context.Context, targetID string, viewerID string, recipesLimit int) (res domain.SubscriptionResponse, err error) {
	defer func() {
		metrics.RecordMembership("subscription", "add", domain.KindOf(err) == domain.KindConflict, err)
	}()

	viewer, err := parseViewer(viewerID)
	if err != nil {
		return res, err
	}
	target, err := parseTarget(targetID)
	if err != nil {
		return res, err
	}
	if viewer == target {
		return res, domain.ErrSelfSubscription
	}

	if err = s.userRepository.Subscribe(ctx, viewer, target); err != nil {
		return res, err
	}

	followed, err := s.userRepository.GetUserByID(ctx, target)
	if err != nil {
		return res, err
	}
	cards, err := s.subscriptionCards(ctx, []*entities.User{followed}, recipesLimit)
	if err != nil {
		return res, err
	}
	return cards[0], nil
}

func (s *userService) Unsubscribe(ctx context.Context, targetID string, viewerID string) (err error) {
	defer func() {
		metrics.RecordMembership("subscription", "remove", domain.KindOf(err) == domain.KindConflict, err)
	}()

	viewer, err := parseViewer(viewerID)
	if err != nil {
		return err
	}
	target, err := parseTarget(targetID)
	if err != nil {
		return err
	}
	return s.userRepository.Unsubscribe(ctx, viewer, target)
}

func (s *userService) GetSubscriptions(ctx context.Context, viewerID string, page, limit, recipesLimit int) ([]domain.SubscriptionResponse, int64, error) {
	viewer, err := parseViewer(viewerID)
	if err != nil {
		return nil, 0, err
	}
	users, count, err := s.userRepository.GetSubscriptions(ctx, viewer, page, limit)
	if err != nil {
		return nil, 0, err
	}
	cards, err := s.subscriptionCards(ctx, users, recipesLimit)
	if err != nil {
		return nil, 0, err
	}
	return cards, count, nil
}

// subscriptionCards renders users the viewer follows, so is_subscribed is
// always true here.
func (s *userService) subscriptionCards(ctx context.Context, users []*entities.User, recipesLimit int) ([]domain.SubscriptionResponse, error) {
	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	recipes, counts, err := s.userRepository.GetAuthorRecipes(ctx, ids, recipesLimit)
	if err != nil {
		return nil, err
	}

	cards := make([]domain.SubscriptionResponse, 0, len(users))
	for _, u := range users {
		short := make([]domain.RecipeShort, 0, len(recipes[u.ID]))
		for _, recipe := range recipes[u.ID] {
			short = append(short, domain.NewRecipeShort(recipe))
		}
		cards = append(cards, domain.SubscriptionResponse{
			UserResponse: domain.NewUserResponse(u, true),
			Recipes:      short,
			RecipesCount: counts[u.ID],
		})
	}
	return cards, nil
}
