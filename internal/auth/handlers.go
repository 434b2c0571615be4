package auth

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"bsm-backend/internal/middleware"
	"bsm-backend/internal/pkg/response"
)

type Handlers struct {
	DB     *gorm.DB
	Rdb    *redis.Client
	Config middleware.SessionConfig
}

// Login POST /api/v1/auth/login — verifies credentials and starts a session.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var input LoginInput
	if err := c.BodyParser(&input); err != nil {
		return response.Error(c, ErrCredentialsRequired.Error(), fiber.StatusBadRequest, nil)
	}

	user, err := LoginUser(h.DB, input)
	if err != nil {
		switch {
		case errors.Is(err, ErrCredentialsRequired):
			return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
		case errors.Is(err, ErrInvalidCredentials):
			return response.Error(c, err.Error(), fiber.StatusUnauthorized, nil)
		default:
			return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
		}
	}

	sid := middleware.RegenerateSessionID(c)
	middleware.SetSessionUser(c, user.UserID.String(), user.Username)

	cookie := middleware.SessionCookie(h.Config)
	cookie.Value = sid
	c.Cookie(&cookie)

	return response.Success(c, "Logged in successfully", Profile{
		UserID:   user.UserID.String(),
		Username: user.Username,
	})
}

// Logout DELETE /api/v1/auth/logout — drops the session.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	if sid := middleware.GetSessionID(c); sid != "" && h.Rdb != nil {
		h.Rdb.Del(context.Background(), middleware.SessionRedisPrefix+sid)
	}
	middleware.DestroySession(c)

	cookie := middleware.SessionCookie(h.Config)
	cookie.MaxAge = -1
	c.Cookie(&cookie)

	return response.Success(c, "Logged out successfully", nil)
}

// Profile GET /api/v1/auth/profile — the logged-in user.
func (h *Handlers) Profile(c *fiber.Ctx) error {
	profile, err := SessionProfile(middleware.GetUser(c))
	if err != nil {
		return response.Unauthorized(c, err.Error())
	}
	return response.Success(c, "Profile fetched", profile)
}
