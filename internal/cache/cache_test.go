package cache

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"github.com/memestream/memestream-service/internal/storage"
	"github.com/memestream/memestream-service/internal/types/auth"
)

type countingStore struct {
	users     map[int]*auth.User
	byIDCalls int
}

func newCountingStore() *countingStore {
	display := "Meme Lord"
	return &countingStore{
		users: map[int]*auth.User{
			1: {
				UserID:       1,
				Username:     "memelord",
				Email:        "memelord@example.com",
				PasswordHash: "$2a$10$notarealhash",
				DisplayName:  &display,
				IsActive:     true,
				CreatedAt:    time.Now().UTC().Truncate(time.Second),
			},
		},
	}
}

func (s *countingStore) GetUserByID(userID int) (*auth.User, error) {
	s.byIDCalls++
	if u, ok := s.users[userID]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, storage.ErrUserNotFound
}

func (s *countingStore) UpdateProfile(userID int, req auth.UpdateProfileRequest) (*auth.User, error) {
	u, ok := s.users[userID]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	if req.DisplayName != nil {
		u.DisplayName = req.DisplayName
	}
	if req.Bio != nil {
		u.Bio = req.Bio
	}
	if req.ProfilePictureURL != nil {
		u.ProfilePictureURL = req.ProfilePictureURL
	}
	copied := *u
	return &copied, nil
}

func (s *countingStore) UpdateLastLogin(userID int) error {
	now := time.Now().UTC()
	if u, ok := s.users[userID]; ok {
		u.LastLoginAt = &now
	}
	return nil
}

func (s *countingStore) CreateUser(username, email, passwordHash string, displayName, walletAddress *string) (*auth.User, error) {
	return nil, nil
}

func (s *countingStore) GetUserByEmail(email string) (*auth.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (s *countingStore) EmailTaken(email string) (bool, error)       { return false, nil }
func (s *countingStore) UsernameTaken(username string) (bool, error) { return false, nil }

func setupCache(t *testing.T) (*UserCache, *countingStore) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := newCountingStore()
	return NewUserCache(store, client), store
}

func TestGetUserByIDReadThrough(t *testing.T) {
	cache, store := setupCache(t)

	first, err := cache.GetUserByID(1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if first.Username != "memelord" {
		t.Fatalf("Unexpected user: %+v", first)
	}

	second, err := cache.GetUserByID(1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if second.Username != "memelord" {
		t.Fatalf("Unexpected cached user: %+v", second)
	}

	if store.byIDCalls != 1 {
		t.Fatalf("Expected 1 store hit, got %d", store.byIDCalls)
	}
}

func TestGetUserByIDNotFound(t *testing.T) {
	cache, _ := setupCache(t)

	if _, err := cache.GetUserByID(404); err != storage.ErrUserNotFound {
		t.Fatalf("Expected ErrUserNotFound, got %v", err)
	}
}

// The cached projection must never carry the bcrypt hash.
func TestCachedUserOmitsPasswordHash(t *testing.T) {
	cache, _ := setupCache(t)

	if _, err := cache.GetUserByID(1); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	cached, err := cache.GetUserByID(1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cached.PasswordHash != "" {
		t.Fatalf("Expected no password hash on the cached row, got %q", cached.PasswordHash)
	}
}

func TestUpdateProfileInvalidates(t *testing.T) {
	cache, store := setupCache(t)

	if _, err := cache.GetUserByID(1); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	bio := "professional memer"
	if _, err := cache.UpdateProfile(1, auth.UpdateProfileRequest{Bio: &bio}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	refreshed, err := cache.GetUserByID(1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if refreshed.Bio == nil || *refreshed.Bio != "professional memer" {
		t.Fatalf("Expected the post-update read to see the new bio, got %+v", refreshed.Bio)
	}
	if store.byIDCalls != 2 {
		t.Fatalf("Expected the invalidated read to hit the store, got %d hits", store.byIDCalls)
	}
}

func TestUpdateLastLoginInvalidates(t *testing.T) {
	cache, store := setupCache(t)

	if _, err := cache.GetUserByID(1); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := cache.UpdateLastLogin(1); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err := cache.GetUserByID(1); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if store.byIDCalls != 2 {
		t.Fatalf("Expected the invalidated read to hit the store, got %d hits", store.byIDCalls)
	}
}
