package httpapi

import "github.com/dmitrymomot/contentauth/pkg/validator"

const (
	maxEmailLength = 254
	maxNameLength  = 100
)

// validate checks the payload shape. Email syntax and password strength are
// enforced by the auth service.
func (req signUpRequest) validate() error {
	return validator.Apply(
		validator.RequiredString("email", req.Email),
		validator.MaxLenString("email", req.Email, maxEmailLength),
		validator.RequiredString("password", req.Password),
		validator.MaxLenString("firstName", req.FirstName, maxNameLength),
		validator.PrintableString("firstName", req.FirstName),
		validator.MaxLenString("lastName", req.LastName, maxNameLength),
		validator.PrintableString("lastName", req.LastName),
	)
}
