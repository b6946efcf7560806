package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"companies-backend/config"
	"companies-backend/middlewares"
	"companies-backend/models"
)

var errInvalidCredentials = fiber.NewError(fiber.StatusUnauthorized, "Invalid credentials")

type LoginDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthController struct {
	db  *gorm.DB
	jwt config.JWTConfig
}

func NewAuthController(db *gorm.DB, cfg config.JWTConfig) *AuthController {
	return &AuthController{db: db, jwt: cfg}
}

// POST /api/v1/login
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var in LoginDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	var user models.User
	err := ac.db.WithContext(c.UserContext()).
		Where("email = ?", strings.ToLower(in.Email)).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errInvalidCredentials
		}
		return err
	}

	if err := user.ComparePassword(in.Password); err != nil {
		return errInvalidCredentials
	}

	token, err := middlewares.GenerateJWT([]byte(ac.jwt.Secret), user.Id, user.Role, ac.jwt.TTL)
	if err != nil {
		return err
	}

	zap.L().Info("user logged in", zap.String("user_id", user.Id))
	return c.JSON(fiber.Map{
		"token":      token,
		"token_type": "Bearer",
		"expires_in": int(ac.jwt.TTL.Seconds()),
		"user": fiber.Map{
			"id":    user.Id,
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}
