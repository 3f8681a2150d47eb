package auth

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/memestream/memestream-service/internal/http/middleware"
	"github.com/memestream/memestream-service/internal/storage"
	authtypes "github.com/memestream/memestream-service/internal/types/auth"
	"github.com/memestream/memestream-service/internal/utils/jwt"
	"github.com/memestream/memestream-service/internal/utils/password"
	"github.com/memestream/memestream-service/internal/utils/response"
)

// Register handles account creation
// @Summary Register a new account
// @Description Create an account and return a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param user body authtypes.RegisterRequest true "Registration details"
// @Success 200 {object} authtypes.AuthResponse "Account created"
// @Failure 400 {object} response.Response "Validation or conflict error"
// @Failure 500 {object} response.Response "Internal server error"
// @Router /auth/register [post]
func Register(userStore storage.UserStore, sessionStore storage.SessionStore, jwtSecret string, tokenTTL time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authtypes.RegisterRequest

		err := json.NewDecoder(r.Body).Decode(&req)
		if errors.Is(err, io.EOF) {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("request body cannot be empty")))
			return
		} else if err != nil {
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

		taken, err := userStore.EmailTaken(req.Email)
		if err != nil {
			slog.Error("email lookup failed", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("database error")))
			return
		}
		if taken {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(storage.ErrDuplicateEmail))
			return
		}

		taken, err = userStore.UsernameTaken(req.Username)
		if err != nil {
			slog.Error("username lookup failed", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("database error")))
			return
		}
		if taken {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(storage.ErrDuplicateUsername))
			return
		}

		passwordHash, err := password.HashPassword(req.Password)
		if err != nil {
			slog.Error("password hashing failed", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to hash password")))
			return
		}

		user, err := userStore.CreateUser(req.Username, req.Email, passwordHash, req.DisplayName, req.WalletAddress)
		if err != nil {
			// The pre-insert checks can race a concurrent registration.
			if errors.Is(err, storage.ErrDuplicateEmail) || errors.Is(err, storage.ErrDuplicateUsername) {
				response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
				return
			}
			slog.Error("user creation failed", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to create user")))
			return
		}

		token, expiresAt, err := jwt.CreateToken(user, jwtSecret, tokenTTL)
		if err != nil {
			slog.Error("token signing failed", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to generate token")))
			return
		}

		// Session bookkeeping is best-effort: registration already succeeded.
		if err := sessionStore.RecordSession(user.UserID, token, expiresAt); err != nil {
			slog.Warn("failed to record session", slog.String("error", err.Error()), slog.Int("user_id", user.UserID))
		}

		slog.Info("new user registered", slog.String("username", user.Username), slog.Int("user_id", user.UserID))

		response.WriteJSON(w, http.StatusOK, authtypes.AuthResponse{
			User:      user.ToResponse(),
			Token:     token,
			ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
		})
	}
}

// Login handles authentication
// @Summary Authenticate and return a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body authtypes.LoginRequest true "Login credentials"
// @Success 200 {object} authtypes.AuthResponse "Authenticated"
// @Failure 401 {object} response.Response "Invalid credentials"
// @Router /auth/login [post]
func Login(userStore storage.UserStore, sessionStore storage.SessionStore, jwtSecret string, tokenTTL time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authtypes.LoginRequest

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

		// Unknown email and wrong password produce the same message so the
		// endpoint cannot be used to enumerate accounts.
		user, err := userStore.GetUserByEmail(req.Email)
		if errors.Is(err, storage.ErrUserNotFound) {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("invalid email or password")))
			return
		}
		if err != nil {
			slog.Error("user lookup failed", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("database error")))
			return
		}

		match, err := password.CheckPasswordHash(req.Password, user.PasswordHash)
		if err != nil {
			slog.Error("password verification failed", slog.String("error", err.Error()), slog.Int("user_id", user.UserID))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to verify password")))
			return
		}
		if !match {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("invalid email or password")))
			return
		}

		if err := userStore.UpdateLastLogin(user.UserID); err != nil {
			slog.Warn("failed to update last login", slog.String("error", err.Error()), slog.Int("user_id", user.UserID))
		}

		token, expiresAt, err := jwt.CreateToken(user, jwtSecret, tokenTTL)
		if err != nil {
			slog.Error("token signing failed", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to generate token")))
			return
		}

		if err := sessionStore.RecordSession(user.UserID, token, expiresAt); err != nil {
			slog.Warn("failed to record session", slog.String("error", err.Error()), slog.Int("user_id", user.UserID))
		}

		slog.Info("user logged in", slog.String("username", user.Username), slog.Int("user_id", user.UserID))

		response.WriteJSON(w, http.StatusOK, authtypes.AuthResponse{
			User:      user.ToResponse(),
			Token:     token,
			ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
		})
	}
}

// Logout invalidates the presented session
// @Summary Log out
// @Description Best-effort session invalidation; always succeeds
// @Tags auth
// @Produce json
// @Success 200 {object} response.Response "Logged out"
// @Router /auth/logout [post]
func Logout(sessionStore storage.SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok && token != "" {
			if err := sessionStore.InvalidateSession(token); err != nil {
				slog.Warn("failed to invalidate session", slog.String("error", err.Error()))
			}
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Logged out successfully", nil))
	}
}

// Me returns the authenticated user's profile
// @Summary Get current user
// @Tags auth
// @Produce json
// @Success 200 {object} authtypes.UserResponse "Current user"
// @Failure 401 {object} response.Response "Unauthorized"
// @Security BearerAuth
// @Router /auth/me [get]
func Me(userStore storage.UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("unauthorized")))
			return
		}

		user, err := userStore.GetUserByID(userID)
		if errors.Is(err, storage.ErrUserNotFound) {
			response.WriteJSON(w, http.StatusNotFound, response.GeneralError(storage.ErrUserNotFound))
			return
		}
		if err != nil {
			slog.Error("user lookup failed", slog.String("error", err.Error()), slog.Int("user_id", userID))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("database error")))
			return
		}

		response.WriteJSON(w, http.StatusOK, user.ToResponse())
	}
}

// UpdateProfile applies a partial profile update
// @Summary Update profile
// @Description Non-null fields overwrite the stored values
// @Tags auth
// @Accept json
// @Produce json
// @Param profile body authtypes.UpdateProfileRequest true "Fields to update"
// @Success 200 {object} authtypes.UserResponse "Updated user"
// @Failure 401 {object} response.Response "Unauthorized"
// @Security BearerAuth
// @Router /auth/profile [put]
func UpdateProfile(userStore storage.UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("unauthorized")))
			return
		}

		var req authtypes.UpdateProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		user, err := userStore.UpdateProfile(userID, req)
		if errors.Is(err, storage.ErrUserNotFound) {
			response.WriteJSON(w, http.StatusNotFound, response.GeneralError(storage.ErrUserNotFound))
			return
		}
		if err != nil {
			slog.Error("profile update failed", slog.String("error", err.Error()), slog.Int("user_id", userID))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to update profile")))
			return
		}

		slog.Info("profile updated", slog.Int("user_id", userID))

		response.WriteJSON(w, http.StatusOK, user.ToResponse())
	}
}
