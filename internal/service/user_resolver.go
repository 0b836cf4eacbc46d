package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"docflow/internal/models"
	"docflow/internal/repository"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
)

// UserResolver maps an email to its user, caching hits for a short TTL.
// Misses are never cached so a freshly registered user resolves immediately.
type UserResolver struct {
	users  UserStore
	cache  *expirable.LRU[string, *models.User]
	logger *zap.Logger
}

func NewUserResolver(users UserStore, size int, ttl time.Duration, logger *zap.Logger) *UserResolver {
	if size <= 0 {
		size = 1
	}
	return &UserResolver{
		users:  users,
		cache:  expirable.NewLRU[string, *models.User](size, nil, ttl),
		logger: logger,
	}
}

// Resolve returns ErrUserNotFound for unknown or empty emails.
func (r *UserResolver) Resolve(ctx context.Context, email string) (*models.User, error) {
	key := strings.ToLower(strings.TrimSpace(email))
	if key == "" {
		return nil, ErrUserNotFound
	}

	if user, ok := r.cache.Get(key); ok {
		return user, nil
	}

	user, err := r.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	r.cache.Add(key, user)
	return user, nil
}
