package server

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	errs "github.com/duochat/duochat/errors"
	"github.com/duochat/duochat/models"
	"github.com/duochat/duochat/server/response"
)

func (s *Server) handleSignup() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request models.SignupRequest
		if err := decode(c, &request); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		if err := models.ValidateWhiteSpaces(&request); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		validate := validator.New()
		if err := validate.Struct(request); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}
		if err := models.ValidatePassword(request.Password); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		userResponse, err := s.AuthService.SignupUser(&request)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}

		response.JSON(c, "Signup successful", http.StatusCreated, userResponse, nil)
	}
}

func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var loginRequest models.LoginRequest
		if err := decode(c, &loginRequest); err != nil {
			response.JSON(c, "", errs.ErrBadRequest.Status, nil, err)
			return
		}

		userResponse, err := s.AuthService.LoginUser(&loginRequest)
		if err != nil {
			response.JSON(c, "", err.Status, nil, err)
			return
		}

		s.setAuthCookie(c, userResponse.AccessToken)
		response.JSON(c, "login successful", http.StatusOK, userResponse, nil)
	}
}

func (s *Server) handleLogout() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, exists := c.Get("access_token")
		if !exists {
			respondAndAbort(c, "access token not found in context", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			return
		}
		accessToken, ok := token.(string)
		if !ok {
			respondAndAbort(c, "access token is not a string", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			return
		}

		if err := s.AuthRepository.AddToBlackList(&models.Blacklist{Token: accessToken}); err != nil {
			log.Printf("Error adding access token to blacklist: %v", err)
			respondAndAbort(c, "logout failed", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			return
		}

		if user, exists := c.Get("user"); exists {
			if u, ok := user.(*models.User); ok {
				if err := s.AuthRepository.SetUserOffline(u); err != nil {
					log.Printf("Failed to set user offline: %v", err)
				}
			}
		}

		s.clearAuthCookie(c)
		response.JSON(c, "Logout successful", http.StatusOK, nil, nil)
	}
}

// handleCurrentUser returns the profile for whoever owns the session token.
func (s *Server) handleCurrentUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		profile, err := s.AuthService.GetUserProfile(userID)
		if err != nil {
			response.JSON(c, "", err.Status, nil, err)
			return
		}
		response.JSON(c, "user retrieved successfully", http.StatusOK, profile, nil)
	}
}

func (s *Server) handleUpdateProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		var details models.UpdateProfileRequest
		if err := decode(c, &details); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		profile, err := s.AuthService.EditUserProfile(userID, &details)
		if err != nil {
			response.JSON(c, "", err.Status, nil, err)
			return
		}
		response.JSON(c, "profile updated successfully", http.StatusOK, profile, nil)
	}
}

func (s *Server) handleSearchUsers() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		query := c.Query("q")
		users, err := s.AuthService.SearchUsers(query, userID)
		if err != nil {
			response.JSON(c, "", err.Status, nil, err)
			return
		}
		response.JSON(c, "users retrieved successfully", http.StatusOK, users, nil)
	}
}

func (s *Server) handleUploadProfilePic() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		file, header, err := c.Request.FormFile("profile_image")
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("missing or invalid file", http.StatusBadRequest))
			return
		}

		url, uploadErr := s.MediaService.UploadProfileImage(userID, file, header)
		if uploadErr != nil {
			response.JSON(c, "", uploadErr.Status, nil, uploadErr)
			return
		}

		response.JSON(c, "profile picture updated successfully", http.StatusOK, gin.H{"url": url}, nil)
	}
}

// setAuthCookie stores the session token in an HTTP-only, same-site-strict
// cookie. Secure is set outside of dev so the cookie only travels over TLS in
// production. The cookie lifetime matches the token's own 24h expiry.
func (s *Server) setAuthCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(AuthCookieName, token, 86400, "/", "", s.Config.Env == "prod", true)
}

func (s *Server) clearAuthCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(AuthCookieName, "", -1, "/", "", s.Config.Env == "prod", true)
}
