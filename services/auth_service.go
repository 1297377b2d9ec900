package services

import (
	"errors"
	"log"
	"net/http"

	"github.com/duochat/duochat/config"
	"github.com/duochat/duochat/db"
	apiError "github.com/duochat/duochat/errors"
	"github.com/duochat/duochat/mailingservices"
	"github.com/duochat/duochat/models"
	"github.com/duochat/duochat/services/jwt"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService interface
type AuthService interface {
	SignupUser(request *models.SignupRequest) (*models.UserResponse, *apiError.Error)
	LoginUser(loginRequest *models.LoginRequest) (*models.LoginResponse, *apiError.Error)
	GetUserProfile(userID uint) (*models.ProfileResponse, *apiError.Error)
	EditUserProfile(userID uint, details *models.UpdateProfileRequest) (*models.ProfileResponse, *apiError.Error)
	SearchUsers(query string, currentUserID uint) ([]models.UserResponse, *apiError.Error)
}

// authService struct
type authService struct {
	Config   *config.Config
	authRepo db.AuthRepository
	mail     mailingservices.Mailer
}

// NewAuthService instantiate an authService
func NewAuthService(authRepo db.AuthRepository, mail mailingservices.Mailer, conf *config.Config) AuthService {
	return &authService{
		Config:   conf,
		authRepo: authRepo,
		mail:     mail,
	}
}

func (a *authService) SignupUser(request *models.SignupRequest) (*models.UserResponse, *apiError.Error) {
	if err := a.authRepo.IsEmailExist(request.Email); err != nil {
		log.Printf("SignupUser error: %v", err)
		return nil, apiError.New("email already in use", http.StatusBadRequest)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(request.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("SignupUser error hashing password: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	user := &models.User{
		FirstName:      request.FirstName,
		LastName:       request.LastName,
		Email:          request.Email,
		HashedPassword: string(hashedPassword),
		Active:         true,
	}

	createdUser, err := a.authRepo.CreateUser(user)
	if err != nil {
		log.Printf("SignupUser error creating user: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	if a.mail != nil {
		if _, err := a.mail.SendWelcomeMessage(createdUser.Email, "Welcome to duochat"); err != nil {
			// mail failure must not interrupt the signup flow
			log.Printf("Error sending welcome email: %v", err)
		}
	}

	response := createdUser.PublicResponse()
	return &response, nil
}

// LoginUser verifies the credentials and issues a session token. An unknown
// email and a wrong password produce the same error, so the response never
// reveals whether an account exists.
func (a *authService) LoginUser(loginRequest *models.LoginRequest) (*models.LoginResponse, *apiError.Error) {
	foundUser, err := a.authRepo.FindUserByEmail(loginRequest.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apiError.ErrInvalidCredentials
		}
		log.Printf("Error finding user by email: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	if err := foundUser.VerifyPassword(loginRequest.Password); err != nil {
		return nil, apiError.ErrInvalidCredentials
	}

	accessToken, err := jwt.GenerateToken(foundUser.ID, foundUser.Email, a.Config.JWTSecret)
	if err != nil {
		log.Printf("Error generating token for user %s: %v", foundUser.Email, err)
		return nil, apiError.ErrInternalServerError
	}

	if err := a.authRepo.SetUserOnline(foundUser); err != nil {
		log.Printf("Error setting user %d online: %v", foundUser.ID, err)
	}

	return &models.LoginResponse{
		UserResponse: foundUser.PublicResponse(),
		AccessToken:  accessToken,
	}, nil
}

func (a *authService) GetUserProfile(userID uint) (*models.ProfileResponse, *apiError.Error) {
	user, err := a.authRepo.FindUserByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apiError.New("user not found", http.StatusNotFound)
		}
		log.Printf("GetUserProfile error: %v", err)
		return nil, apiError.ErrInternalServerError
	}
	return profileResponse(user), nil
}

func (a *authService) EditUserProfile(userID uint, details *models.UpdateProfileRequest) (*models.ProfileResponse, *apiError.Error) {
	if err := models.ValidateWhiteSpaces(details); err != nil {
		return nil, apiError.New(err.Error(), http.StatusBadRequest)
	}

	user, err := a.authRepo.UpdateUserProfile(userID, details)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apiError.New("user not found", http.StatusNotFound)
		}
		log.Printf("EditUserProfile error: %v", err)
		return nil, apiError.ErrInternalServerError
	}
	return profileResponse(user), nil
}

func (a *authService) SearchUsers(query string, currentUserID uint) ([]models.UserResponse, *apiError.Error) {
	users, err := a.authRepo.SearchActiveUsers(query, currentUserID)
	if err != nil {
		log.Printf("SearchUsers error: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	results := make([]models.UserResponse, 0, len(users))
	for i := range users {
		results = append(results, users[i].PublicResponse())
	}
	return results, nil
}

func profileResponse(user *models.User) *models.ProfileResponse {
	return &models.ProfileResponse{
		ID:         user.ID,
		Email:      user.Email,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		ProfilePic: user.ProfilePic,
		Status:     user.Status,
		LastSeen:   user.LastSeen,
		IsOnline:   user.IsOnline,
	}
}
