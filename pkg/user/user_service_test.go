package user

import (
	"context"
	"encoding/base64"
	"testing"

	"foodgram/domain"
	"foodgram/entities"
	"foodgram/internal/utils/storage/storagemock"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*entities.User)
	return u, args.Error(1)
}

func (m *mockUserRepository) GetUsers(ctx context.Context, page, limit int) ([]*entities.User, int64, error) {
	args := m.Called(ctx, page, limit)
	users, _ := args.Get(0).([]*entities.User)
	return users, args.Get(1).(int64), args.Error(2)
}

func (m *mockUserRepository) UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) error {
	return m.Called(ctx, id, avatarURL).Error(0)
}

func (m *mockUserRepository) IsSubscribed(ctx context.Context, userID uuid.UUID, followingIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	args := m.Called(ctx, userID, followingIDs)
	followed, _ := args.Get(0).(map[uuid.UUID]bool)
	return followed, args.Error(1)
}

func (m *mockUserRepository) Subscribe(ctx context.Context, userID, followingID uuid.UUID) error {
	return m.Called(ctx, userID, followingID).Error(0)
}

func (m *mockUserRepository) Unsubscribe(ctx context.Context, userID, followingID uuid.UUID) error {
	return m.Called(ctx, userID, followingID).Error(0)
}

func (m *mockUserRepository) GetSubscriptions(ctx context.Context, userID uuid.UUID, page, limit int) ([]*entities.User, int64, error) {
	args := m.Called(ctx, userID, page, limit)
	users, _ := args.Get(0).([]*entities.User)
	return users, args.Get(1).(int64), args.Error(2)
}

func (m *mockUserRepository) GetAuthorRecipes(ctx context.Context, authorIDs []uuid.UUID, limit int) (map[uuid.UUID][]*entities.Recipe, map[uuid.UUID]int64, error) {
	args := m.Called(ctx, authorIDs, limit)
	recipes, _ := args.Get(0).(map[uuid.UUID][]*entities.Recipe)
	counts, _ := args.Get(1).(map[uuid.UUID]int64)
	return recipes, counts, args.Error(2)
}

func author() *entities.User {
	return &entities.User{ID: authorID, Email: "cook@example.com", Username: "cook", FirstName: "Ann", LastName: "Cook"}
}

func TestSubscribeService(t *testing.T) {
	ctx := context.Background()

	t.Run("self subscription always fails", func(t *testing.T) {
		repo := new(mockUserRepository)
		svc := NewUserService(repo, new(storagemock.AwsS3))

		_, err := svc.Subscribe(ctx, followerID.String(), followerID.String(), 0)
		assert.ErrorIs(t, err, domain.ErrSelfSubscription)
		assert.Equal(t, domain.KindConflict, domain.KindOf(err))
		repo.AssertNotCalled(t, "Subscribe", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("returns the followed profile with capped recipes", func(t *testing.T) {
		repo := new(mockUserRepository)
		svc := NewUserService(repo, new(storagemock.AwsS3))
		recipe := &entities.Recipe{ID: uuid.New(), AuthorID: authorID, Name: "Soup", CookingTime: 20}

		repo.On("Subscribe", ctx, followerID, authorID).Return(nil)
		repo.On("GetUserByID", ctx, authorID).Return(author(), nil)
		repo.On("GetAuthorRecipes", ctx, []uuid.UUID{authorID}, 1).Return(
			map[uuid.UUID][]*entities.Recipe{authorID: {recipe}},
			map[uuid.UUID]int64{authorID: 4},
			nil,
		)

		res, err := svc.Subscribe(ctx, authorID.String(), followerID.String(), 1)
		require.NoError(t, err)
		assert.True(t, res.IsSubscribed)
		assert.Equal(t, "cook", res.Username)
		assert.Equal(t, int64(4), res.RecipesCount)
		require.Len(t, res.Recipes, 1)
		assert.Equal(t, "Soup", res.Recipes[0].Name)
	})

	t.Run("unknown target id", func(t *testing.T) {
		svc := NewUserService(new(mockUserRepository), new(storagemock.AwsS3))

		_, err := svc.Subscribe(ctx, "nobody", followerID.String(), 0)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}

func TestGetUserMarksSubscription(t *testing.T) {
	ctx := context.Background()
	repo := new(mockUserRepository)
	svc := NewUserService(repo, new(storagemock.AwsS3))

	repo.On("GetUserByID", ctx, authorID).Return(author(), nil)
	repo.On("IsSubscribed", ctx, followerID, []uuid.UUID{authorID}).Return(map[uuid.UUID]bool{authorID: true}, nil)

	res, err := svc.GetUser(ctx, authorID.String(), followerID.String())
	require.NoError(t, err)
	assert.True(t, res.IsSubscribed)

	anonymous, err := svc.GetUser(ctx, authorID.String(), "")
	require.NoError(t, err)
	assert.False(t, anonymous.IsSubscribed)
	repo.AssertNumberOfCalls(t, "IsSubscribed", 1)
}

func TestUpdateAvatar(t *testing.T) {
	ctx := context.Background()
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13, 'I', 'H', 'D', 'R'}

	t.Run("replaces the previous blob", func(t *testing.T) {
		repo := new(mockUserRepository)
		s3 := new(storagemock.AwsS3)
		svc := NewUserService(repo, s3)

		current := author()
		current.AvatarURL = storagemock.PublicBase + "avatars/old.png"
		repo.On("GetUserByID", ctx, authorID).Return(current, nil)
		s3.On("UploadFile", ctx, mock.Anything, mock.Anything, avatarFolder).Return("avatars/new.png", nil)
		repo.On("UpdateAvatar", ctx, authorID, storagemock.PublicBase+"avatars/new.png").Return(nil)
		s3.On("DeleteFile", ctx, "avatars/old.png").Return(nil)

		res, err := svc.UpdateAvatar(ctx, domain.AvatarRequest{
			Avatar: "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
		}, authorID.String())
		require.NoError(t, err)
		assert.Equal(t, storagemock.PublicBase+"avatars/new.png", res.Avatar)
		s3.AssertExpectations(t)
		repo.AssertExpectations(t)
	})

	t.Run("missing avatar", func(t *testing.T) {
		svc := NewUserService(new(mockUserRepository), new(storagemock.AwsS3))

		_, err := svc.UpdateAvatar(ctx, domain.AvatarRequest{}, authorID.String())
		verr, ok := domain.AsValidationError(err)
		require.True(t, ok)
		assert.Equal(t, []string{"This field is required."}, verr.Fields["avatar"])
	})
}
