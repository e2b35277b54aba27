package api

import (
	"net/http"
	"time"

	"dietflow/internal/auth"
	"dietflow/internal/config"
	"dietflow/internal/db"
	"dietflow/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type RegisterRequest struct {
	Name     string      `json:"name"`
	Phone    string      `json:"phone"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Age      int         `json:"age"`
	Gender   user.Gender `json:"gender"`
	HeightCm float64     `json:"height_cm"`
}

// POST /auth/register
func RegisterHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid request"}})
			return
		}
		if !user.ValidPhone(req.Phone) {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid phone number", "field": "phone"}})
			return
		}
		if req.Password == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Missing password", "field": "password"}})
			return
		}
		phone := user.NormalizePhone(req.Phone)
		var count int64
		db.DB.Model(&user.User{}).Where("phone = ?", phone).Count(&count)
		if count > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": gin.H{"message": "Phone number already registered"}})
			return
		}
		pwHash, err := user.HashPassword(req.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Password hash failed"}})
			return
		}
		u := user.User{
			Name:         req.Name,
			Phone:        phone,
			Email:        req.Email,
			PasswordHash: pwHash,
			Age:          req.Age,
			Gender:       req.Gender,
			HeightCm:     req.HeightCm,
		}
		if err := db.DB.Create(&u).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Create error"}})
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"id":        u.ID,
			"name":      u.Name,
			"phone":     u.Phone,
			"createdAt": u.CreatedAt,
		})
	}
}

type LoginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}
type LoginResponse struct {
	Token  string `json:"token"`
	UserID uint   `json:"userId"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
}

// POST /auth/login
func LoginHandler(cfg *config.Config, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid request"}})
			return
		}
		var u user.User
		if err := db.DB.Where("phone = ?", user.NormalizePhone(req.Phone)).First(&u).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Invalid phone or password"}})
			return
		}
		if err := user.CheckPassword(u.PasswordHash, req.Password); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Invalid phone or password"}})
			return
		}
		token, err := auth.GenerateJWT(cfg.Server.JWTSecret, u.ID, u.Phone, 7*24*time.Hour)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Failed to generate token"}})
			return
		}
		_ = auth.SetSession(rdb, u.ID, token, 7*24*time.Hour)
		c.JSON(http.StatusOK, LoginResponse{
			Token:  token,
			UserID: u.ID,
			Name:   u.Name,
			Phone:  u.Phone,
		})
	}
}

// POST /auth/logout
func LogoutHandler(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, exists := c.Get("userId")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Not authenticated"}})
			return
		}
		_ = auth.DeleteSession(rdb, userId.(uint))
		c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
	}
}

// GET /auth/me
func MeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, _ := c.Get("userId")
		var u user.User
		if err := db.DB.First(&u, userId.(uint)).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": "User not found"}})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"id":        u.ID,
			"name":      u.Name,
			"phone":     u.Phone,
			"email":     u.Email,
			"age":       u.Age,
			"gender":    u.Gender,
			"height_cm": u.HeightCm,
			"createdAt": u.CreatedAt,
		})
	}
}
