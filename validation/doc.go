// Package validation validates configuration structs with
// go-playground/validator and reports failures as *errors.AppError.
//
//	type EndpointConfig struct {
//	    Name    string `mapstructure:"name" validate:"required"`
//	    Retries int    `mapstructure:"retries" validate:"gte=0"`
//	}
//	if err := validation.Validate(cfg); err != nil {
//	    // err is an INVALID_INPUT AppError with per-field details
//	}
package validation
