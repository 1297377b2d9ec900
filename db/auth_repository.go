package db

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/duochat/duochat/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type AuthRepository interface {
	CreateUser(user *models.User) (*models.User, error)
	IsEmailExist(email string) error
	FindUserByEmail(email string) (*models.User, error)
	FindUserByID(id uint) (*models.User, error)
	UpdateUserProfile(userID uint, details *models.UpdateProfileRequest) (*models.User, error)
	SearchActiveUsers(query string, excludeUserID uint) ([]models.User, error)
	UpsertUserImage(userID uint, profilePicURL string, thumbnailURL string) error
	SetUserOnline(user *models.User) error
	SetUserOffline(user *models.User) error
	AddToBlackList(blacklist *models.Blacklist) error
	IsTokenInBlacklist(token string) bool
}

type authRepo struct {
	DB *gorm.DB
}

func NewAuthRepo(db *GormDB) AuthRepository {
	return &authRepo{db.DB}
}

func (a *authRepo) CreateUser(user *models.User) (*models.User, error) {
	if user == nil {
		log.Println("CreateUser error: user is nil")
		return nil, errors.New("user is nil")
	}

	result := a.DB.Create(user)
	if result.Error != nil {
		log.Printf("CreateUser error: %v", result.Error)
		return nil, result.Error
	}

	return user, nil
}

func (a *authRepo) IsEmailExist(email string) error {
	var count int64
	err := a.DB.Model(&models.User{}).Where("email = ?", email).Count(&count).Error
	if err != nil {
		return errors.Wrap(err, "gorm count error")
	}
	if count > 0 {
		return fmt.Errorf("email already in use")
	}
	return nil
}

func (a *authRepo) FindUserByEmail(email string) (*models.User, error) {
	user := &models.User{}
	err := a.DB.Where("email = ?", email).First(user).Error
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (a *authRepo) FindUserByID(id uint) (*models.User, error) {
	user := &models.User{}
	err := a.DB.Where("id = ?", id).First(user).Error
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (a *authRepo) UpdateUserProfile(userID uint, details *models.UpdateProfileRequest) (*models.User, error) {
	updates := map[string]interface{}{
		"status":      details.Status,
		"profile_pic": details.ProfilePic,
		"last_seen":   time.Now(),
	}
	result := a.DB.Model(&models.User{}).Where("id = ?", userID).Updates(updates)
	if result.Error != nil {
		log.Printf("UpdateUserProfile error: %v", result.Error)
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return a.FindUserByID(userID)
}

// SearchActiveUsers matches active users whose name or email contains the
// query, excluding the caller. Matching is case-insensitive.
func (a *authRepo) SearchActiveUsers(query string, excludeUserID uint) ([]models.User, error) {
	var users []models.User
	pattern := "%" + strings.ToLower(query) + "%"
	err := a.DB.
		Where("active = ?", true).
		Where("id <> ?", excludeUserID).
		Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern, pattern).
		Find(&users).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not search users")
	}
	return users, nil
}

func (a *authRepo) UpsertUserImage(userID uint, profilePicURL string, thumbnailURL string) error {
	result := a.DB.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"profile_pic":   profilePicURL,
		"thumb_nail_url": thumbnailURL,
	})
	if result.Error != nil {
		return errors.Wrap(result.Error, "could not update user image")
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (a *authRepo) SetUserOnline(user *models.User) error {
	return a.DB.Model(user).Updates(map[string]interface{}{
		"is_online": true,
		"last_seen": time.Now(),
	}).Error
}

func (a *authRepo) SetUserOffline(user *models.User) error {
	return a.DB.Model(user).Updates(map[string]interface{}{
		"is_online": false,
		"last_seen": time.Now(),
	}).Error
}

func (a *authRepo) AddToBlackList(blacklist *models.Blacklist) error {
	result := a.DB.Create(blacklist)
	return result.Error
}

func (a *authRepo) IsTokenInBlacklist(token string) bool {
	var count int64
	if err := a.DB.Model(&models.Blacklist{}).Where("token = ?", token).Count(&count).Error; err != nil {
		log.Printf("IsTokenInBlacklist error: %v", err)
		return false
	}
	return count > 0
}
