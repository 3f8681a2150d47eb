// Package cache puts a Redis read-through cache in front of the user
// repository. Only the by-id lookup is cached (it backs every authenticated
// request); writes invalidate before delegating so the next read refills.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/memestream/memestream-service/internal/storage"
	"github.com/memestream/memestream-service/internal/types/auth"
)

const (
	UserByIDKey       = "user:id:%d"
	UserCacheDuration = 2 * time.Minute
)

// UserCache wraps a storage.UserStore with Redis caching. It implements
// storage.UserStore and can be swapped in wherever the raw store is used.
type UserCache struct {
	store storage.UserStore
	redis *redis.Client
}

func NewUserCache(store storage.UserStore, redisClient *redis.Client) *UserCache {
	return &UserCache{
		store: store,
		redis: redisClient,
	}
}

func (c *UserCache) GetUserByID(userID int) (*auth.User, error) {
	ctx := context.Background()
	key := fmt.Sprintf(UserByIDKey, userID)

	// The cached row never carries the password hash (json:"-"); credential
	// checks go through GetUserByEmail, which is not cached.
	cached, err := c.redis.Get(ctx, key).Result()
	if err == nil {
		var user auth.User
		if err := json.Unmarshal([]byte(cached), &user); err == nil {
			return &user, nil
		}
	}

	user, err := c.store.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	data, _ := json.Marshal(user)
	c.redis.Set(ctx, key, data, UserCacheDuration)

	return user, nil
}

func (c *UserCache) UpdateProfile(userID int, req auth.UpdateProfileRequest) (*auth.User, error) {
	c.Invalidate(context.Background(), userID)
	return c.store.UpdateProfile(userID, req)
}

func (c *UserCache) UpdateLastLogin(userID int) error {
	c.Invalidate(context.Background(), userID)
	return c.store.UpdateLastLogin(userID)
}

// Invalidate drops the cached projection for a user.
func (c *UserCache) Invalidate(ctx context.Context, userID int) {
	c.redis.Del(ctx, fmt.Sprintf(UserByIDKey, userID))
}

// Pass-throughs to satisfy storage.UserStore.

func (c *UserCache) CreateUser(username, email, passwordHash string, displayName, walletAddress *string) (*auth.User, error) {
	return c.store.CreateUser(username, email, passwordHash, displayName, walletAddress)
}

func (c *UserCache) GetUserByEmail(email string) (*auth.User, error) {
	return c.store.GetUserByEmail(email)
}

func (c *UserCache) EmailTaken(email string) (bool, error) {
	return c.store.EmailTaken(email)
}

func (c *UserCache) UsernameTaken(username string) (bool, error) {
	return c.store.UsernameTaken(username)
}
