package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/lysyi3m/rss-aggregator/app/database"
)

const (
	userContextKey = "user"

	msgInvalidToken      = "Forbidden: Invalid or missing token"
	msgInsufficientLevel = "Forbidden: Insufficient user level"
)

// authMiddleware resolves the caller from X-API-Key or Authorization
// (raw token or "Bearer <token>") and stores it in the context.
func authMiddleware(users database.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := requestToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": msgInvalidToken})
			return
		}

		user, err := users.GetUserByToken(c.Request.Context(), token)
		if errors.Is(err, database.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": msgInvalidToken})
			return
		}
		if err != nil {
			slog.Error("Database error", "operation", "get_user_by_token", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

func requireLevel(min database.UserLevel) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil || !user.Level.AtLeast(min) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": msgInsufficientLevel})
			return
		}
		c.Next()
	}
}

func requestToken(c *gin.Context) string {
	if key := strings.TrimSpace(c.GetHeader("X-API-Key")); key != "" {
		return key
	}

	auth := strings.TrimSpace(c.GetHeader("Authorization"))
	if rest, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(rest)
	}
	return auth
}

func currentUser(c *gin.Context) *database.User {
	value, ok := c.Get(userContextKey)
	if !ok {
		return nil
	}
	user, _ := value.(*database.User)
	return user
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func NewToken() string {
	return uuid.NewString()
}

// EnsureSuperadmin creates the initial superadmin when no users exist.
// An empty token is replaced by a generated one, which is logged once.
func EnsureSuperadmin(ctx context.Context, users database.UserRepository, username, password, token string) error {
	count, err := users.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}

	generated := token == ""
	if generated {
		token = NewToken()
	}

	if _, err := users.CreateUser(ctx, username, hash, token, database.LevelSuperadmin); err != nil {
		return fmt.Errorf("failed to create superadmin: %w", err)
	}

	if generated {
		slog.Warn("Created superadmin with generated token", "username", username, "token", token)
	} else {
		slog.Info("Created superadmin", "username", username)
	}
	return nil
}
