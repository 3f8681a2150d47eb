package auth

import "time"

// User is the relational account row. PasswordHash never leaves this package
// boundary in responses; use ToResponse for the public projection.
type User struct {
	UserID            int        `json:"user_id"`
	Username          string     `json:"username"`
	Email             string     `json:"email"`
	PasswordHash      string     `json:"-"`
	DisplayName       *string    `json:"display_name"`
	Bio               *string    `json:"bio"`
	ProfilePictureURL *string    `json:"profile_picture_url"`
	WalletAddress     *string    `json:"wallet_address"`
	FollowersCount    int        `json:"followers_count"`
	FollowingCount    int        `json:"following_count"`
	PostsCount        int        `json:"posts_count"`
	IsActive          bool       `json:"is_active"`
	CreatedAt         time.Time  `json:"created_at"`
	LastLoginAt       *time.Time `json:"last_login_at,omitempty"`
}

// UserResponse is the public projection of a user.
type UserResponse struct {
	UserID            int       `json:"user_id"`
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	DisplayName       *string   `json:"display_name"`
	Bio               *string   `json:"bio"`
	ProfilePictureURL *string   `json:"profile_picture_url"`
	WalletAddress     *string   `json:"wallet_address"`
	FollowersCount    int       `json:"followers_count"`
	FollowingCount    int       `json:"following_count"`
	PostsCount        int       `json:"posts_count"`
	CreatedAt         time.Time `json:"created_at"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		UserID:            u.UserID,
		Username:          u.Username,
		Email:             u.Email,
		DisplayName:       u.DisplayName,
		Bio:               u.Bio,
		ProfilePictureURL: u.ProfilePictureURL,
		WalletAddress:     u.WalletAddress,
		FollowersCount:    u.FollowersCount,
		FollowingCount:    u.FollowingCount,
		PostsCount:        u.PostsCount,
		CreatedAt:         u.CreatedAt,
	}
}

type RegisterRequest struct {
	Username      string  `json:"username" validate:"required,min=3,max=50"`
	Email         string  `json:"email" validate:"required,email"`
	Password      string  `json:"password" validate:"required,min=8"`
	DisplayName   *string `json:"display_name"`
	WalletAddress *string `json:"wallet_address"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	DisplayName       *string `json:"display_name"`
	Bio               *string `json:"bio"`
	ProfilePictureURL *string `json:"profile_picture_url"`
}

// AuthResponse is returned by both register and login.
type AuthResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expires_at"`
}
