package dto

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validate(t *testing.T, v any) validator.ValidationErrors {
	t.Helper()
	RegisterValidation()
	err := binding.Validator.ValidateStruct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	return verrs
}

func fields(verrs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}

func TestSignupDTO(t *testing.T) {
	ok := SignupDTO{Name: "Jonas", Email: "jonas@example.com", Password: "pass1234", PasswordConfirm: "pass1234"}
	assert.Nil(t, validate(t, &ok))

	bad := SignupDTO{Email: "nope", Password: "short", PasswordConfirm: "other"}
	got := fields(validate(t, &bad))
	assert.Equal(t, map[string]string{
		"name":            "required",
		"email":           "email",
		"password":        "min",
		"passwordConfirm": "eqfield",
	}, got)
}

func TestCreateTourDTO(t *testing.T) {
	tour := CreateTourDTO{
		Name:          "The Forest Hiker",
		Duration:      5,
		MaxGroupSize:  25,
		Difficulty:    "easy",
		Price:         397,
		PriceDiscount: 400,
		Summary:       "Breathtaking hike through the Canadian Banff National Park",
		ImageCover:    "tour-1-cover.jpg",
		Guides:        []string{"not-an-id"},
	}
	got := fields(validate(t, &tour))
	assert.Equal(t, "ltfield", got["priceDiscount"])
	assert.Equal(t, "mongodb", got["guides[0]"])

	tour.PriceDiscount = 50
	tour.Guides = []string{"5c8a21d02f8fb814b56fa190"}
	tour.Difficulty = "extreme"
	got = fields(validate(t, &tour))
	assert.Equal(t, map[string]string{"difficulty": "oneof"}, got)
}

func TestUpdateMeDTO_HasPassword(t *testing.T) {
	pw := "newpass123"
	assert.True(t, UpdateMeDTO{Password: &pw}.HasPassword())
	assert.False(t, UpdateMeDTO{}.HasPassword())
}

func TestCreateReviewDTO(t *testing.T) {
	r := CreateReviewDTO{Review: "Amazing", Rating: 6}
	assert.Equal(t, map[string]string{"rating": "max"}, fields(validate(t, &r)))
}
