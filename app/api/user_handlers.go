package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/rss-aggregator/app/database"
)

const defaultUserPageSize = 10

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required"})
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.GetUserByUsername(ctx, req.Username)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		slog.Error("Database error", "operation", "get_user", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to login"})
		return
	}
	if user == nil || !CheckPassword(user.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	if user.Token == "" {
		token := NewToken()
		if err := h.users.UpdateUser(ctx, user.Username, database.UserUpdate{Token: &token}); err != nil {
			slog.Error("Database error", "operation", "update_user_token", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to login"})
			return
		}
		user.Token = token
	}

	c.JSON(http.StatusOK, gin.H{"token": user.Token})
}

// Logout rotates the caller's token so the presented one stops working.
func (h *Handler) Logout(c *gin.Context) {
	user := currentUser(c)

	token := NewToken()
	if err := h.users.UpdateUser(c.Request.Context(), user.Username, database.UserUpdate{Token: &token}); err != nil {
		slog.Error("Database error", "operation", "rotate_token", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not log out"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required"})
		return
	}

	level := database.LevelUser
	if req.UserLevel != "" {
		level = database.UserLevel(strings.ToLower(req.UserLevel))
		if !level.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user level"})
			return
		}
	}
	if level.AtLeast(database.LevelAdmin) && !currentUser(c).Level.AtLeast(database.LevelSuperadmin) {
		c.JSON(http.StatusForbidden, gin.H{"error": msgInsufficientLevel})
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		slog.Error("Password hashing failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	user, err := h.users.CreateUser(c.Request.Context(), req.Username, hash, NewToken(), level)
	if errors.Is(err, database.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": "Username already exists"})
		return
	}
	if err != nil {
		slog.Error("Database error", "operation", "create_user", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "User created successfully",
		"token":      user.Token,
		"user_level": user.Level,
	})
}

// UpdateUser lets users change their own password or token. Changing another
// account or any user level needs admin, and granting superadmin needs superadmin.
func (h *Handler) UpdateUser(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username is required"})
		return
	}

	caller := currentUser(c)
	self := caller.Username == req.Username
	if !self && !caller.Level.AtLeast(database.LevelAdmin) {
		c.JSON(http.StatusForbidden, gin.H{"error": msgInsufficientLevel})
		return
	}

	ctx := c.Request.Context()
	target, err := h.users.GetUserByUsername(ctx, req.Username)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		slog.Error("Database error", "operation", "get_user", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}
	if !self && target.Level == database.LevelSuperadmin && caller.Level != database.LevelSuperadmin {
		c.JSON(http.StatusForbidden, gin.H{"error": msgInsufficientLevel})
		return
	}

	var update database.UserUpdate

	if req.NewPassword != "" || req.Password != "" {
		if req.NewPassword == "" || req.VerifyPassword == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "The new_password and verify_password parameters are required to change the password"})
			return
		}
		if req.NewPassword != req.VerifyPassword {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Passwords do not match"})
			return
		}
		if self && !CheckPassword(target.PasswordHash, req.Password) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid password"})
			return
		}
		hash, err := HashPassword(req.NewPassword)
		if err != nil {
			slog.Error("Password hashing failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
			return
		}
		update.PasswordHash = &hash
	}

	if req.Token != "" {
		token := req.Token
		update.Token = &token
	}

	if req.UserLevel != "" {
		level := database.UserLevel(strings.ToLower(req.UserLevel))
		if !level.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user level"})
			return
		}
		if !caller.Level.AtLeast(database.LevelAdmin) ||
			(level == database.LevelSuperadmin && caller.Level != database.LevelSuperadmin) {
			c.JSON(http.StatusForbidden, gin.H{"error": msgInsufficientLevel})
			return
		}
		update.Level = &level
	}

	if update.PasswordHash == nil && update.Token == nil && update.Level == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No updates provided"})
		return
	}

	if err := h.users.UpdateUser(ctx, req.Username, update); err != nil {
		switch {
		case errors.Is(err, database.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "Token already in use"})
		case errors.Is(err, database.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		default:
			slog.Error("Database error", "operation", "update_user", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User updated successfully"})
}

func (h *Handler) DeleteUser(c *gin.Context) {
	username := c.Param("username")
	ctx := c.Request.Context()

	target, err := h.users.GetUserByUsername(ctx, username)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		slog.Error("Database error", "operation", "get_user", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}
	if target.Level == database.LevelSuperadmin && currentUser(c).Level != database.LevelSuperadmin {
		c.JSON(http.StatusForbidden, gin.H{"error": msgInsufficientLevel})
		return
	}

	if err := h.users.DeleteUser(ctx, username); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		slog.Error("Database error", "operation", "delete_user", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

func (h *Handler) ListUsers(c *gin.Context) {
	page, pageSize, ok := pagination(c, defaultUserPageSize)
	if !ok {
		return
	}

	result, err := h.users.ListUsers(c.Request.Context(), page, pageSize)
	if err != nil {
		slog.Error("Database error", "operation", "list_users", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	views := make([]userView, 0, len(result.Items))
	for _, u := range result.Items {
		views = append(views, userView{ID: u.ID, Username: u.Username, Level: u.Level})
	}

	c.JSON(http.StatusOK, database.Page[userView]{
		Items:      views,
		Page:       result.Page,
		TotalPages: result.TotalPages,
		Total:      result.Total,
	})
}

func (h *Handler) Encrypt(c *gin.Context) {
	var req encryptRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Input == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Input string is required"})
		return
	}

	hash, err := HashPassword(req.Input)
	if err != nil {
		slog.Error("Password hashing failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to encrypt input"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"hash": hash})
}
