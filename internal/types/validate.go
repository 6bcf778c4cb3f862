package types

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks v against its validate struct tags.
func Validate(v any) error {
	return structValidator().Struct(v)
}

// Validate checks the scraped job's required fields.
func (j RawJob) Validate() error {
	return Validate(j)
}

// Validate checks the extracted job fields.
func (e JobExtraction) Validate() error {
	return Validate(e)
}

// Validate checks the extracted resume fields.
func (e ResumeExtraction) Validate() error {
	return Validate(e)
}

// DescribeValidation summarizes the first failed rule in err as "Field - tag".
func DescribeValidation(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		ve := validationErrors[0]
		return fmt.Sprintf("%s - %s", ve.Namespace(), ve.Tag())
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
