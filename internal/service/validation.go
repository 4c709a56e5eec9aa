package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// RegisterInput is a registration submission.
type RegisterInput struct {
	Username  string `json:"username" form:"username" validate:"required,min=5,max=20,excludesall=/"`
	Password  string `json:"password" form:"password" validate:"required,min=6,max=50"`
	Email     string `json:"email" form:"email" validate:"required,max=50,email"`
	FirstName string `json:"first_name" form:"first_name" validate:"required,max=30"`
	LastName  string `json:"last_name" form:"last_name" validate:"required,max=30"`
}

// Normalize trims surrounding whitespace from everything but the password.
func (in RegisterInput) Normalize() RegisterInput {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	return in
}

func (in RegisterInput) Validate() error {
	return validateStruct(in)
}

// LoginInput is a login submission.
type LoginInput struct {
	Username string `json:"username" form:"username" validate:"required,min=5,max=20"`
	Password string `json:"password" form:"password" validate:"required,min=6,max=50"`
}

func (in LoginInput) Validate() error {
	return validateStruct(in)
}

// FeedbackInput carries the mutable fields of a feedback record.
type FeedbackInput struct {
	Title   string `json:"title" form:"title" validate:"required,max=100"`
	Content string `json:"content" form:"content" validate:"required"`
}

func (in FeedbackInput) Normalize() FeedbackInput {
	in.Title = strings.TrimSpace(in.Title)
	return in
}

func (in FeedbackInput) Validate() error {
	return validateStruct(in)
}

func validateStruct(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate input: %w", err)
	}

	verr := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		if _, seen := verr.Fields[fe.Field()]; seen {
			continue
		}
		verr.Fields[fe.Field()] = fieldMessage(fe)
	}
	return verr
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "min":
		return fmt.Sprintf("Must be at least %s characters.", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s characters.", fe.Param())
	case "email":
		return "Must be a valid email address."
	case "excludesall":
		return fmt.Sprintf("Must not contain %q.", fe.Param())
	}
	return "Invalid value."
}
