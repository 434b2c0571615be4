package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"bsm-backend/internal/models"
)

// LoginInput for the login request body.
type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Profile is the session user shape returned by /profile.
type Profile struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// LoginUser finds the user by username and verifies the password with
// bcrypt. Lookup and verification failures collapse into the same error so
// the response does not reveal which usernames exist.
func LoginUser(db *gorm.DB, input LoginInput) (*models.User, error) {
	if input.Username == "" || input.Password == "" {
		return nil, ErrCredentialsRequired
	}
	var u models.User
	if err := db.Where("username = ?", input.Username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if u.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &u, nil
}

// SessionProfile validates the session user from Locals and returns the
// /profile shape.
func SessionProfile(sessionUser interface{}) (*Profile, error) {
	m, ok := sessionUser.(map[string]interface{})
	if !ok {
		return nil, ErrNotAuthenticated
	}
	userID, _ := m["user_id"].(string)
	username, _ := m["username"].(string)
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	return &Profile{UserID: userID, Username: username}, nil
}

// EnsureUser creates an operator account when the username is free; existing
// accounts are left alone. Used by startup seeding.
func EnsureUser(db *gorm.DB, username, password string) error {
	var count int64
	if err := db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return db.Create(&models.User{Username: username, PasswordHash: string(hash)}).Error
}
