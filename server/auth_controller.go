package server

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
)

// SignUpRequest payload
type SignUpRequest struct {
	Name     string `form:"name" json:"name"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules. Presence and email format only; the
// account store accepts any name and password length.
func (r SignUpRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Name,
			validation.Required,
		),
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

// SignInRequest payload
type SignInRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r SignInRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (s *Server) signUp(c *fiber.Ctx) error {
	payload := new(SignUpRequest)
	if err := c.BodyParser(payload); err != nil {
		return errInvalidPayload(err)
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	token, user, err := s.auther.SignUp(c.UserContext(), payload.Name, payload.Email, payload.Password)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusCreated, "Create User successfully", fiber.Map{
		"token": token,
		"user":  user,
	})
}

func (s *Server) signIn(c *fiber.Ctx) error {
	payload := new(SignInRequest)
	if err := c.BodyParser(payload); err != nil {
		return errInvalidPayload(err)
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	token, err := s.auther.SignIn(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Login successfully!", fiber.Map{
		"token": token,
	})
}

// signOut acknowledges the request. Tokens are stateless and carry no
// revocation list, so there is nothing to invalidate server side.
func (s *Server) signOut(c *fiber.Ctx) error {
	return respond(c, fiber.StatusOK, "Sign-out", nil)
}

func errInvalidPayload(err error) error {
	return errors.Wrap(err, errors.CategoryBadInput, "invalid request payload").
		WithCode(errors.CodeBadRequest)
}
