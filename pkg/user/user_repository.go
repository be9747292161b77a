package user

import (
	"context"
	"errors"

	"foodgram/domain"
	"foodgram/entities"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	UserRepository interface {
		GetUserByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
		GetUsers(ctx context.Context, page, limit int) ([]*entities.User, int64, error)
		UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) error
		IsSubscribed(ctx context.Context, userID uuid.UUID, followingIDs []uuid.UUID) (map[uuid.UUID]bool, error)
		Subscribe(ctx context.Context, userID, followingID uuid.UUID) error
		Unsubscribe(ctx context.Context, userID, followingID uuid.UUID) error
		GetSubscriptions(ctx context.Context, userID uuid.UUID, page, limit int) ([]*entities.User, int64, error)
		GetAuthorRecipes(ctx context.Context, authorIDs []uuid.UUID, limit int) (map[uuid.UUID][]*entities.Recipe, map[uuid.UUID]int64, error)
	}

	userRepository struct {
		db *gorm.DB
	}
)

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	var user entities.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetUsers(ctx context.Context, page, limit int) ([]*entities.User, int64, error) {
	var users []*entities.User
	var count int64
	offset := (page - 1) * limit

	if err := r.db.WithContext(ctx).Model(&entities.User{}).Count(&count).Error; err != nil {
		return nil, 0, err
	}
	if err := r.db.WithContext(ctx).
		Order("username").
		Offset(offset).
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, count, nil
}

func (r *userRepository) UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) error {
	res := r.db.WithContext(ctx).Model(&entities.User{}).Where("id = ?", id).Update("avatar_url", avatarURL)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) IsSubscribed(ctx context.Context, userID uuid.UUID, followingIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	followed := make(map[uuid.UUID]bool, len(followingIDs))
	if len(followingIDs) == 0 {
		return followed, nil
	}

	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&entities.Subscription{}).
		Where("user_id = ? AND following_id IN ?", userID, followingIDs).
		Pluck("following_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		followed[id] = true
	}
	return followed, nil
}

// Subscribe checks the pair first and falls back on the unique index when two
// requests race.
func (r *userRepository) Subscribe(ctx context.Context, userID, followingID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entities.User{}).Where("id = ?", followingID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domain.ErrUserNotFound
		}

		if err := tx.Model(&entities.Subscription{}).
			Where("user_id = ? AND following_id = ?", userID, followingID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrAlreadySubscribed
		}

		err := tx.Create(&entities.Subscription{
			ID:          uuid.New(),
			UserID:      userID,
			FollowingID: followingID,
		}).Error
		switch {
		case err == nil:
			return nil
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return domain.ErrAlreadySubscribed
		case errors.Is(err, gorm.ErrForeignKeyViolated):
			return domain.ErrUserNotFound
		}
		return err
	})
}

func (r *userRepository) Unsubscribe(ctx context.Context, userID, followingID uuid.UUID) error {
	if _, err := r.GetUserByID(ctx, followingID); err != nil {
		return err
	}

	res := r.db.WithContext(ctx).
		Where("user_id = ? AND following_id = ?", userID, followingID).
		Delete(&entities.Subscription{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrSubscriptionNotFound
	}
	return nil
}

func (r *userRepository) GetSubscriptions(ctx context.Context, userID uuid.UUID, page, limit int) ([]*entities.User, int64, error) {
	var users []*entities.User
	var count int64
	offset := (page - 1) * limit

	followed := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&entities.User{}).
			Joins("JOIN subscriptions ON subscriptions.following_id = users.id").
			Where("subscriptions.user_id = ?", userID)
	}

	if err := followed().Count(&count).Error; err != nil {
		return nil, 0, err
	}
	if err := followed().
		Order("users.username").
		Offset(offset).
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, count, nil
}

type authorRecipeCount struct {
	AuthorID uuid.UUID
	Total    int64
}

// GetAuthorRecipes returns the newest recipes of each author, at most limit
// per author when limit > 0, with the full count per author.
func (r *userRepository) GetAuthorRecipes(ctx context.Context, authorIDs []uuid.UUID, limit int) (map[uuid.UUID][]*entities.Recipe, map[uuid.UUID]int64, error) {
	recipes := make(map[uuid.UUID][]*entities.Recipe, len(authorIDs))
	counts := make(map[uuid.UUID]int64, len(authorIDs))
	if len(authorIDs) == 0 {
		return recipes, counts, nil
	}

	var rows []authorRecipeCount
	if err := r.db.WithContext(ctx).Model(&entities.Recipe{}).
		Select("author_id, COUNT(*) AS total").
		Where("author_id IN ?", authorIDs).
		Group("author_id").
		Scan(&rows).Error; err != nil {
		return nil, nil, err
	}
	for _, row := range rows {
		counts[row.AuthorID] = row.Total
	}

	for _, authorID := range authorIDs {
		if counts[authorID] == 0 {
			continue
		}
		query := r.db.WithContext(ctx).
			Where("author_id = ?", authorID).
			Order("created_at DESC")
		if limit > 0 {
			query = query.Limit(limit)
		}
		var list []*entities.Recipe
		if err := query.Find(&list).Error; err != nil {
			return nil, nil, err
		}
		recipes[authorID] = list
	}
	return recipes, counts, nil
}
