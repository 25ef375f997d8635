// Package validation checks request payloads before they reach the store.
// Rules are declared per payload with ozzo-validation; failures are reported
// as a field → message map so the client sees every violation at once.
package validation

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/iudanet/filmapi/pkg/api"
)

const (
	// MinUsernameLen минимальная длина username
	MinUsernameLen = 5
	// MinPasswordLen минимальная длина нового пароля при обновлении профиля
	MinPasswordLen = 5
	// MaxPasswordLen bcrypt учитывает только первые 72 байта
	MaxPasswordLen = 72
)

var dateRule = validation.Date(api.DateLayout).Error("must be a date in YYYY-MM-DD format")

// Register validates a registration payload.
func Register(r api.RegisterRequest) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username,
			validation.Required.Error("Username is required"),
			validation.Length(MinUsernameLen, 0).Error("Username must be at least 5 characters long"),
			is.Alphanumeric.Error("Username contains non alphanumeric characters - not allowed"),
		),
		validation.Field(&r.Password,
			validation.Required.Error("Password is required"),
			validation.Length(0, MaxPasswordLen).Error("Password must not exceed 72 bytes"),
		),
		validation.Field(&r.Email,
			validation.Required.Error("Email is required"),
			is.Email.Error("Email does not appear to be valid"),
		),
		validation.Field(&r.Birthday, dateRule),
	)
}

// Login checks that both credentials are present. It never reports which
// one is wrong beyond emptiness.
func Login(r api.LoginRequest) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// UpdateUser validates a self-service profile update.
func UpdateUser(r api.UpdateUserRequest) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Password,
			validation.Required.Error("New password is required"),
			validation.Length(MinPasswordLen, MaxPasswordLen).Error("Password must be between 5 and 72 characters"),
		),
		validation.Field(&r.Email,
			validation.Required.Error("Email is required"),
			is.Email.Error("Email does not appear to be valid"),
		),
		validation.Field(&r.Birthday, dateRule),
	)
}

// Movie validates a new movie.
func Movie(r api.MovieRequest) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required.Error("Title is required")),
		validation.Field(&r.Year, validation.Min(0), validation.Max(9999)),
		validation.Field(&r.ImageURL, is.URL),
		validation.Field(&r.Director, validation.By(func(value interface{}) error {
			d, _ := value.(api.DirectorRequest)
			return validation.ValidateStruct(&d,
				validation.Field(&d.Birth, dateRule),
				validation.Field(&d.Death, dateRule),
			)
		})),
	)
}

// Actor validates a new actor.
func Actor(r api.ActorRequest) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required.Error("Name is required")),
		validation.Field(&r.Birth, dateRule),
		validation.Field(&r.Death, dateRule),
	)
}

// ParseDate parses an optional YYYY-MM-DD value; empty input yields nil.
func ParseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(api.DateLayout, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Fields flattens validation errors into "field" or "parent.field" keys.
// ok is false when err is not a validation error.
func Fields(err error) (map[string]string, bool) {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return nil, false
	}
	out := make(map[string]string, len(verrs))
	flatten("", verrs, out)
	return out, true
}

func flatten(prefix string, verrs validation.Errors, out map[string]string) {
	for field, err := range verrs {
		key := field
		if prefix != "" {
			key = prefix + "." + field
		}
		var nested validation.Errors
		if errors.As(err, &nested) {
			flatten(key, nested, out)
			continue
		}
		out[key] = err.Error()
	}
}
