// Package validation checks client configuration and builder settings.
//
// Struct tag validation uses go-playground/validator and reports fields by
// their configuration key:
//
//	type ClientConfig struct {
//	    URL string `mapstructure:"url" validate:"required,url"`
//	}
//	err := validation.Validate(cfg)
//
// Programmatic validation collects field errors before failing once:
//
//	err := validation.New().
//	    Required("base_url", b.baseURL).
//	    AbsoluteURL("base_url", b.baseURL).
//	    Validate()
//
// Both forms return an *errors.AppError with code INVALID_INPUT and the
// offending fields under Details["fields"].
package validation
