package apperrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

var dupKeyPattern = regexp.MustCompile(`dup key: \{ ?[^:]+: "?([^"}]*?)"? ?\}`)

// Normalize rewrites known persistence, binding and token faults into the
// operational taxonomy. Anything unrecognised becomes an Unexpected error.
func Normalize(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}

	var castErr *CastError
	if errors.As(err, &castErr) {
		return BadRequest(fmt.Sprintf("Invalid %s: %s", castErr.Path, castErr.Value)).WithError(err)
	}

	if IsDuplicateKey(err) {
		msg := "Duplicate field value. Please use another value."
		if m := dupKeyPattern.FindStringSubmatch(err.Error()); m != nil {
			msg = fmt.Sprintf("Duplicate field value: %s. Please use another value.", m[1])
		}
		return Conflict(msg).WithError(err)
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return Validation("Invalid input data. " + strings.Join(validationMessages(verrs), ". ")).WithError(err)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return BadRequest("Invalid JSON body.").WithError(err)
	}
	if errors.Is(err, io.EOF) {
		return BadRequest("Request body is required.").WithError(err)
	}

	if errors.Is(err, jwt.ErrTokenExpired) {
		return Unauthorized("Your token has expired! Please log in again.").WithError(err)
	}
	if errors.Is(err, jwt.ErrTokenMalformed) ||
		errors.Is(err, jwt.ErrTokenSignatureInvalid) ||
		errors.Is(err, jwt.ErrTokenUnverifiable) ||
		errors.Is(err, jwt.ErrTokenInvalidClaims) ||
		errors.Is(err, jwt.ErrTokenNotValidYet) {
		return Unauthorized("Invalid token. Please log in again!").WithError(err)
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return New(CodeBadRequest, fmt.Sprintf("Request body too large (max %d bytes).", tooLarge.Limit), http.StatusRequestEntityTooLarge).WithError(err)
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return NotFound("No document found with that ID").WithError(err)
	}

	return Unexpected(err)
}

// IsDuplicateKey reports a unique index violation (E11000).
func IsDuplicateKey(err error) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 || e.Code == 11001 {
				return true
			}
		}
	}

	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) {
		for _, e := range bwe.WriteErrors {
			if e.Code == 11000 || e.Code == 11001 {
				return true
			}
		}
	}

	return strings.Contains(err.Error(), "E11000 duplicate key error")
}

func validationMessages(verrs validator.ValidationErrors) []string {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return msgs
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Please provide %s", field)
	case "email":
		return "Please provide a valid email"
	case "eqfield":
		return "Passwords are not the same"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must have at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must have at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt", "gte":
		return fmt.Sprintf("%s must be greater than%s %s", field, orEqual(fe.Tag()), fe.Param())
	case "lt", "lte":
		return fmt.Sprintf("%s must be less than%s %s", field, orEqual(fe.Tag()), fe.Param())
	case "ltfield":
		return fmt.Sprintf("%s (%v) should be below %s", field, fe.Value(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s is either: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "mongodb":
		return fmt.Sprintf("%s must be a valid id", field)
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}

func orEqual(tag string) string {
	if strings.HasSuffix(tag, "e") {
		return " or equal to"
	}
	return ""
}
