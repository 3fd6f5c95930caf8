package config

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// PayloadFormats lists the accepted doc-data payload formats.
var PayloadFormats = []any{"auto", "json", "yaml", "env"}

// Validate checks that the configuration can drive a pipeline run.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Readme),
		validation.Field(&c.Convert),
		validation.Field(&c.Packaging),
		validation.Field(&c.Publish),
	)
}

// Validate implements validation.Validatable.
func (r ReadmeConfig) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Output, validation.Required),
		validation.Field(&r.Template, validation.Required),
		validation.Field(&r.DataCommand, validation.Required, validation.Length(1, 0)),
		validation.Field(&r.PayloadFormat, validation.Required, validation.In(PayloadFormats...)),
	)
}

// Validate implements validation.Validatable.
func (c ConvertConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Output, validation.Required),
	)
}

// Validate implements validation.Validatable.
func (p PackagingConfig) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Command, validation.Required, validation.Length(1, 0)),
		validation.Field(&p.DistDir, validation.Required),
	)
}

// Validate implements validation.Validatable.
func (p PublishConfig) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Index, validation.Required),
	)
}
