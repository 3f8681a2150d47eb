package users

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/memestream/memestream-service/internal/memstore"
	"github.com/memestream/memestream-service/internal/types"
	"github.com/memestream/memestream-service/internal/utils/response"
)

// RegisterUser handles the legacy wallet-keyed registration
// @Summary Register a demo user
// @Description Idempotent per (oauth_provider, oauth_id); re-registering returns the existing user
// @Tags users
// @Accept json
// @Produce json
// @Router /users/register [post]
func RegisterUser(store *memstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.RegisterUserRequest

		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		validate := validator.New()
		if err := validate.Struct(req); err != nil {
			if ve, ok := err.(validator.ValidationErrors); ok {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		user, created := store.RegisterUser(req)
		if created {
			slog.Info("new demo user registered", slog.String("wallet", user.WalletAddress))
		}

		response.WriteJSON(w, http.StatusOK, user)
	}
}

// SearchUsers matches users by email, name or wallet
// @Summary Search users
// @Tags users
// @Produce json
// @Param query query string true "Search text"
// @Router /users/search [get]
func SearchUsers(store *memstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("query")
		if query == "" {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("query is required")))
			return
		}

		results := store.SearchUsers(query)
		response.WriteJSON(w, http.StatusOK, results)
	}
}

// ListUsers returns every demo user
// @Summary List users
// @Tags users
// @Produce json
// @Router /users [get]
func ListUsers(store *memstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, store.Users())
	}
}

// GetUserByWallet returns one user
// @Summary Get user by wallet address
// @Tags users
// @Produce json
// @Param wallet path string true "Wallet address"
// @Router /users/{wallet} [get]
func GetUserByWallet(store *memstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wallet := r.PathValue("wallet")

		user, err := store.UserByWallet(wallet)
		if err != nil {
			response.WriteJSON(w, http.StatusNotFound, response.GeneralError(memstore.ErrUserNotFound))
			return
		}

		response.WriteJSON(w, http.StatusOK, user)
	}
}

// UpdateUser applies a partial profile update to a demo user
// @Summary Update demo user profile
// @Tags users
// @Accept json
// @Produce json
// @Param wallet path string true "Wallet address"
// @Router /users/{wallet} [put]
func UpdateUser(store *memstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wallet := r.PathValue("wallet")

		var req types.UpdateUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		user, err := store.UpdateUser(wallet, req)
		if err != nil {
			response.WriteJSON(w, http.StatusNotFound, response.GeneralError(memstore.ErrUserNotFound))
			return
		}

		slog.Info("demo profile updated", slog.String("wallet", wallet))
		response.WriteJSON(w, http.StatusOK, user)
	}
}

// GetUserPosts returns the memes posted by a wallet
// @Summary Get a user's posts
// @Tags users
// @Produce json
// @Param user_id path string true "Wallet address"
// @Router /users/{user_id}/posts [get]
func GetUserPosts(store *memstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, store.PostsByUser(r.PathValue("user_id")))
	}
}

// GetFollowers lists the users following the given wallet
// @Summary List followers
// @Tags follows
// @Produce json
// @Router /users/{user_id}/followers [get]
func GetFollowers(store *memstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, store.Followers(r.PathValue("user_id")))
	}
}

// GetFollowing lists the users the given wallet follows
// @Summary List following
// @Tags follows
// @Produce json
// @Router /users/{user_id}/following [get]
func GetFollowing(store *memstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, store.Following(r.PathValue("user_id")))
	}
}

// FollowUser creates a follow relationship
// @Summary Follow a user
// @Tags follows
// @Accept json
// @Produce json
// @Failure 400 {object} response.Response "Already following"
// @Router /follow [post]
func FollowUser(store *memstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.FollowRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		if err := store.Follow(req.FollowerID, req.FollowingID); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		slog.Info("user followed", slog.String("follower", req.FollowerID), slog.String("following", req.FollowingID))
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Successfully followed", nil))
	}
}

// UnfollowUser removes a follow relationship
// @Summary Unfollow a user
// @Tags follows
// @Accept json
// @Produce json
// @Failure 404 {object} response.Response "Not following"
// @Router /follow [delete]
func UnfollowUser(store *memstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.FollowRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		if err := store.Unfollow(req.FollowerID, req.FollowingID); err != nil {
			response.WriteJSON(w, http.StatusNotFound, response.GeneralError(err))
			return
		}

		slog.Info("user unfollowed", slog.String("follower", req.FollowerID), slog.String("following", req.FollowingID))
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Successfully unfollowed", nil))
	}
}

// CheckFollowing reports whether follower follows following
// @Summary Check follow relationship
// @Tags follows
// @Produce json
// @Router /follow/check/{follower_id}/{following_id} [get]
func CheckFollowing(store *memstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		isFollowing := store.IsFollowing(r.PathValue("follower_id"), r.PathValue("following_id"))

		response.WriteJSON(w, http.StatusOK, map[string]bool{
			"is_following": isFollowing,
		})
	}
}
