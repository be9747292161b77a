package domain

var (
	MessageSuccessGetUsers         = "success get users"
	MessageSuccessGetUser          = "success get user"
	MessageSuccessUpdateAvatar     = "avatar updated successfully"
	MessageSuccessDeleteAvatar     = "avatar deleted successfully"
	MessageSuccessSubscribe        = "subscribed successfully"
	MessageSuccessUnsubscribe      = "unsubscribed successfully"
	MessageSuccessGetSubscriptions = "success get subscriptions"

	MessageFailedGetUsers         = "failed to get users"
	MessageFailedGetUser          = "failed to get user"
	MessageFailedUpdateAvatar     = "failed to update avatar"
	MessageFailedDeleteAvatar     = "failed to delete avatar"
	MessageFailedSubscribe        = "failed to subscribe"
	MessageFailedUnsubscribe      = "failed to unsubscribe"
	MessageFailedGetSubscriptions = "failed to get subscriptions"

	ErrUserNotFound         = NewError(KindNotFound, "user not found")
	ErrSelfSubscription     = NewError(KindConflict, "cannot subscribe to yourself")
	ErrAlreadySubscribed    = NewError(KindConflict, "already subscribed to this user")
	ErrSubscriptionNotFound = NewError(KindConflict, "not subscribed to this user")
)

type (
	// UserResponse is a public profile as seen by the requester.
	UserResponse struct {
		Email        string `json:"email"`
		ID           string `json:"id"`
		Username     string `json:"username"`
		FirstName    string `json:"first_name"`
		LastName     string `json:"last_name"`
		IsSubscribed bool   `json:"is_subscribed"`
		Avatar       string `json:"avatar"`
	}

	AvatarRequest struct {
		Avatar string `json:"avatar" validate:"required,datauri"`
	}

	AvatarResponse struct {
		Avatar string `json:"avatar"`
	}

	SubscriptionResponse struct {
		UserResponse
		Recipes      []RecipeShort `json:"recipes"`
		RecipesCount int64         `json:"recipes_count"`
	}
)
