package service

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/Skotchmaster/blog_dashboard/internal/transport"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,6}$`)
)

const (
	maxTitleLen    = 255
	maxPasswordLen = 256
	// RFC 5321 path limit; also fits the users.email column.
	maxEmailLen = 254
)

// validateRegister checks the fields as sent. Surrounding whitespace is not
// trimmed, so a padded username fails the charset rule.
func validateRegister(req *transport.RegisterRequest) error {
	return asValidationError(validation.ValidateStruct(req,
		validation.Field(&req.Username,
			validation.Required.Error("username is required"),
			validation.RuneLength(3, 50).Error("username must be between 3 and 50 characters"),
			validation.Match(usernamePattern).Error("username may only contain letters, numbers, underscores and hyphens"),
		),
		validation.Field(&req.Email,
			validation.Required.Error("email is required"),
			validation.RuneLength(3, maxEmailLen).Error("email must be at most 254 characters"),
			validation.Match(emailPattern).Error("invalid email format"),
		),
		validation.Field(&req.Password,
			validation.Required.Error("password is required"),
			validation.RuneLength(6, maxPasswordLen).Error("password must be between 6 and 256 characters"),
		),
	))
}

func validatePost(req *transport.PostRequest) error {
	req.Title = strings.TrimSpace(req.Title)

	return asValidationError(validation.ValidateStruct(req,
		validation.Field(&req.Title,
			validation.Required.Error("title is required"),
			validation.RuneLength(1, maxTitleLen).Error("title must be at most 255 characters"),
		),
		validation.Field(&req.Content,
			validation.Required.Error("content is required"),
		),
	))
}
