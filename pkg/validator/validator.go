package validator

import (
	"net/mail"
	"strings"
)

// MinPasswordLength is the shortest password accepted anywhere in the API.
const MinPasswordLength = 6

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

func ValidateRegister(email, password string) ValidationErrors {
	errs := make(ValidationErrors)

	validateEmail(email, errs)
	validatePassword("password", password, errs)

	return errs
}

// ValidateProfileUpdate checks a settings change. A password change needs
// both the current and the new password.
func ValidateProfileUpdate(name, email, currentPassword, newPassword string) ValidationErrors {
	errs := make(ValidationErrors)

	if strings.TrimSpace(name) == "" {
		errs.Add("name", "Name is required")
	} else if len(name) > 100 {
		errs.Add("name", "Name is too long")
	}

	validateEmail(email, errs)

	if newPassword != "" || currentPassword != "" {
		if currentPassword == "" {
			errs.Add("currentPassword", "Current password is required to change password")
		}
		validatePassword("newPassword", newPassword, errs)
	}

	return errs
}

func validateEmail(email string, errs ValidationErrors) {
	email = strings.TrimSpace(email)
	if email == "" {
		errs.Add("email", "Email is required")
		return
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		errs.Add("email", "Please fill a valid email")
	}
}

func validatePassword(field, password string, errs ValidationErrors) {
	if password == "" {
		errs.Add(field, "Password is required")
		return
	}
	if len(password) < MinPasswordLength {
		errs.Add(field, "Password must be at least 6 characters")
	}
}
