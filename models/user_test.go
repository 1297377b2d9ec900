package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestVerifyPassword(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("sw0rdfish"), bcrypt.MinCost)
	require.NoError(t, err)

	user := User{HashedPassword: string(hashed)}
	assert.NoError(t, user.VerifyPassword("sw0rdfish"))
	assert.Error(t, user.VerifyPassword("wrong-password"))
}

func TestValidatePassword(t *testing.T) {
	assert.Error(t, ValidatePassword("short"))
	assert.NoError(t, ValidatePassword("longenough"))
}

func TestValidateWhiteSpacesTrimsFields(t *testing.T) {
	request := SignupRequest{
		FirstName: "  Ada ",
		LastName:  " Lovelace ",
		Email:     " ADA@Example.com ",
		Password:  "sw0rdfish",
	}
	require.NoError(t, ValidateWhiteSpaces(&request))
	assert.Equal(t, "Ada", request.FirstName)
	assert.Equal(t, "Lovelace", request.LastName)
	assert.Equal(t, "ada@example.com", request.Email)
}

func TestPublicResponseOmitsSecrets(t *testing.T) {
	user := User{
		Model:          Model{ID: 7},
		FirstName:      "Ada",
		LastName:       "Lovelace",
		Email:          "ada@example.com",
		HashedPassword: "hash",
	}
	public := user.PublicResponse()
	assert.Equal(t, uint(7), public.ID)
	assert.Equal(t, "ada@example.com", public.Email)
}
