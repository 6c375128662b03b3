package validation

import (
	"errors"
	"regexp"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/slug-swap-api/internal/models"
)

// MaxTitleLength matches the width of the title columns
const MaxTitleLength = 255

var slugRegex = regexp.MustCompile(`^[-\p{L}\p{N}\p{M}_]+$`)

// IsSlug reports whether s only holds characters a derived slug can contain
func IsSlug(s string) bool {
	return slugRegex.MatchString(s)
}

var notBlank = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return validation.NewError("validation_blank", "must not be blank")
	}
	return nil
})

// ValidateCategory validates a category payload
func ValidateCategory(in *models.CategoryInput) []models.ValidationError {
	err := validation.ValidateStruct(in,
		validation.Field(&in.Title, validation.Required, notBlank, validation.RuneLength(1, MaxTitleLength)),
	)
	return toValidationErrors(err, map[string]interface{}{"title": in.Title})
}

// ValidatePost validates a post payload
func ValidatePost(in *models.PostInput) []models.ValidationError {
	err := validation.ValidateStruct(in,
		validation.Field(&in.Title, validation.Required, notBlank, validation.RuneLength(1, MaxTitleLength)),
		validation.Field(&in.CategoryID, validation.Required, validation.Min(int64(1))),
	)
	return toValidationErrors(err, map[string]interface{}{"title": in.Title, "category_id": in.CategoryID})
}

// ValidateRedirectClass validates a redirect class change
func ValidateRedirectClass(in *models.RedirectClassInput) []models.ValidationError {
	err := validation.ValidateStruct(in,
		validation.Field(&in.RedirectClass, validation.Required,
			validation.In(models.RedirectPermanent, models.RedirectTemporary).
				Error("must be one of: permanent, temporary")),
	)
	return toValidationErrors(err, map[string]interface{}{"redirect_class": in.RedirectClass})
}

// toValidationErrors flattens ozzo's field error map into a stable, sorted list
func toValidationErrors(err error, values map[string]interface{}) []models.ValidationError {
	if err == nil {
		return nil
	}

	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return []models.ValidationError{{Field: "", Message: err.Error()}}
	}

	fields := make([]string, 0, len(fieldErrs))
	for field := range fieldErrs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	out := make([]models.ValidationError, 0, len(fields))
	for _, field := range fields {
		out = append(out, models.ValidationError{
			Field:   field,
			Message: fieldErrs[field].Error(),
			Value:   values[field],
		})
	}
	return out
}
