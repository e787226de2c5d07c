// Package validator provides small composable validation rules for request
// payloads.
//
// Rules are built eagerly and checked by Apply, which reports every failure
// at once as ValidationErrors:
//
//	err := validator.Apply(
//		validator.RequiredString("email", req.Email),
//		validator.MaxLenString("firstName", req.FirstName, 100),
//	)
//	if ve := validator.ExtractValidationErrors(err); ve != nil {
//		details := ve.Map() // field -> messages
//	}
package validator
