package models

import (
	"errors"
	"fmt"
	"time"

	goval "github.com/go-passwd/validator"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/leebenson/conform"
	"golang.org/x/crypto/bcrypt"
)

// User represents a user of the application
type User struct {
	Model
	FirstName      string    `json:"first_name" binding:"required,min=2"`
	LastName       string    `json:"last_name" binding:"required,min=2"`
	Email          string    `json:"email" gorm:"unique;not null" binding:"required,email"`
	Password       string    `json:"password,omitempty" gorm:"-" validate:"omitempty,min=6"`
	HashedPassword string    `json:"-"`
	Active         bool      `json:"active" gorm:"default:true"`
	Status         string    `json:"status,omitempty"`
	ProfilePic     string    `json:"profile_pic,omitempty"`
	ThumbNailURL   string    `json:"thumbnail_url,omitempty"`
	LastSeen       time.Time `json:"last_seen"`
	IsOnline       bool      `json:"is_online" gorm:"default:false"`
}

// UserResponse is the public shape of a user, safe to embed in conversation
// payloads and search results.
type UserResponse struct {
	ID        uint   `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

type SignupRequest struct {
	FirstName string `json:"first_name" binding:"required,min=2" conform:"trim"`
	LastName  string `json:"last_name" binding:"required,min=2" conform:"trim"`
	Email     string `json:"email" binding:"required,email" conform:"trim,lower"`
	Password  string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	UserResponse
	AccessToken string `json:"access_token"`
}

// UpdateProfileRequest carries the fields a user may edit on their own
// profile. All fields are optional; lastSeen is stamped server-side.
type UpdateProfileRequest struct {
	Status     string `json:"status" conform:"trim"`
	ProfilePic string `json:"profile_pic"`
}

type ProfileResponse struct {
	ID         uint      `json:"id"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	ProfilePic string    `json:"profile_pic,omitempty"`
	Status     string    `json:"status,omitempty"`
	LastSeen   time.Time `json:"last_seen"`
	IsOnline   bool      `json:"is_online"`
}

func ValidatePassword(password string) error {
	passwordValidator := goval.New(goval.MinLength(6, errors.New("password cant be less than 6 characters")),
		goval.MaxLength(72, errors.New("password cant be more than 72 characters")))
	err := passwordValidator.Validate(password)
	return err
}

func ValidateWhiteSpaces(data interface{}) error {
	return conform.Strings(data)
}

func TranslateError(err error, trans ut.Translator) (errs []error) {
	if err == nil {
		return nil
	}
	validatorErrs := err.(validator.ValidationErrors)
	for _, e := range validatorErrs {
		translatedErr := fmt.Errorf(e.Translate(trans) + "; ")
		errs = append(errs, translatedErr)
	}
	return errs
}

// VerifyPassword verifies the collected password with the user's hashed password
func (u *User) VerifyPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(password))
}

// PublicResponse strips everything a peer in a conversation should not see.
func (u *User) PublicResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	}
}
