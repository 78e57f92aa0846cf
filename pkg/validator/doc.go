// Package validator provides small composable validation rules.
//
// A Rule pairs a check with the error reported when it fails. Apply runs
// rules in order and returns ValidationErrors describing every failure.
//
//	err := validator.Apply(
//	    validator.ValidEmail("email", req.Email).WithMessage("Please enter a valid email address"),
//	    validator.MinLenString("password", req.Password, 6),
//	)
//	if errs := validator.ExtractValidationErrors(err); errs != nil {
//	    // errs.Map() => {"email": ["Please enter a valid email address"]}
//	}
package validator
