package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/AlphaSurf-Browser/WolfPack/internal/logs"
	"github.com/AlphaSurf-Browser/WolfPack/internal/user"
)

const tokenTTL = time.Hour

type Handler struct {
	users     *user.Store
	jwtSecret []byte
}

func NewHandler(users *user.Store, jwtSecret string) *Handler {
	return &Handler{users: users, jwtSecret: []byte(jwtSecret)}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register POST /api/register
func (h *Handler) Register(c *gin.Context) {
	var input credentials
	if err := c.BindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if input.Username == "" || input.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required"})
		return
	}

	exists, err := h.users.ExistsByUsername(c.Request.Context(), input.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error registering user"})
		logs.LogJSON("ERROR", "Username check failed", map[string]interface{}{
			"error": err.Error(),
			"route": c.FullPath(),
		})
		return
	}
	if exists {
		c.JSON(http.StatusConflict, gin.H{"error": "Username already taken"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error registering user"})
		return
	}

	newUser := user.User{
		ID:           uuid.New().String(),
		CreatedAt:    time.Now(),
		Username:     input.Username,
		PasswordHash: string(hash),
		AvatarURL:    fmt.Sprintf("https://api.dicebear.com/6.x/avataaars/svg?seed=%s", input.Username),
	}
	if err := h.users.Create(c.Request.Context(), &newUser); err != nil {
		// The exists-check above races concurrent registrations; the
		// unique index is the real arbiter.
		if errors.Is(err, user.ErrDuplicateUsername) {
			c.JSON(http.StatusConflict, gin.H{"error": "Username already taken"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error registering user"})
		logs.LogJSON("ERROR", "User creation failed", map[string]interface{}{
			"error": err.Error(),
			"route": c.FullPath(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully"})
}

// Login POST /api/login
func (h *Handler) Login(c *gin.Context) {
	var input credentials
	if err := c.BindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	u, err := h.users.FindByUsername(c.Request.Context(), input.Username)
	if err != nil && !errors.Is(err, user.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error logging in"})
		logs.LogJSON("ERROR", "User lookup failed", map[string]interface{}{
			"error": err.Error(),
			"route": c.FullPath(),
		})
		return
	}
	if errors.Is(err, user.ErrNotFound) ||
		bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(input.Password)) != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid credentials"})
		return
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      u.ID,
		"username": u.Username,
		"exp":      time.Now().Add(tokenTTL).Unix(),
	})
	signed, err := token.SignedString(h.jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error logging in"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": signed,
		"user": gin.H{
			"id":         u.ID,
			"username":   u.Username,
			"avatar_url": u.AvatarURL,
		},
	})
}
