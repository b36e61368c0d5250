package httpauth

import (
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	auth "github.com/goliatone/go-auth-jwt"
	"github.com/nyaruka/phonenumbers"
)

// DefaultPhoneRegion is used for numbers without a country prefix.
const DefaultPhoneRegion = "US"

// CredentialsPayload is the body of register and login.
type CredentialsPayload struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will validate the payload
func (r CredentialsPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 128)),
	)
}

// ProfilePayload is the body of PATCH /me.
type ProfilePayload struct {
	Username    *string `json:"username"`
	Bio         *string `json:"bio"`
	Birthday    *string `json:"birthday"`
	PhoneNumber *string `json:"phone_number"`
}

// Validate will validate the payload
func (r ProfilePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.NilOrNotEmpty, validation.Length(3, 32), is.Alphanumeric),
		validation.Field(&r.Bio, validation.Length(0, 500)),
		validation.Field(&r.Birthday, validation.By(validateDate)),
		validation.Field(&r.PhoneNumber, validation.By(validatePhone)),
	)
}

// ToUpdate converts the payload, normalizing the phone number to E164.
func (r ProfilePayload) ToUpdate() (auth.ProfileUpdate, error) {
	update := auth.ProfileUpdate{
		Username: r.Username,
		Bio:      r.Bio,
	}

	if r.Birthday != nil && *r.Birthday != "" {
		day, err := time.Parse(time.DateOnly, *r.Birthday)
		if err != nil {
			return update, err
		}
		update.Birthday = &day
	}

	if r.PhoneNumber != nil {
		phone, err := NormalizePhone(*r.PhoneNumber)
		if err != nil {
			return update, err
		}
		update.PhoneNumber = &phone
	}

	return update, nil
}

// NormalizePhone parses number and formats it as E164. Empty input clears
// the number.
func NormalizePhone(number string) (string, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return "", nil
	}
	num, err := phonenumbers.Parse(number, DefaultPhoneRegion)
	if err != nil {
		return "", err
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", errors.New("invalid phone number")
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

func stringValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case *string:
		if v != nil {
			return *v
		}
	}
	return ""
}

func validatePhone(value any) error {
	_, err := NormalizePhone(stringValue(value))
	return err
}

func validateDate(value any) error {
	s := stringValue(value)
	if s == "" {
		return nil
	}
	if _, err := time.Parse(time.DateOnly, s); err != nil {
		return errors.New("must be a date in YYYY-MM-DD format")
	}
	return nil
}
