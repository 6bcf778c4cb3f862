package parsing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/career-copilot/internal/schemas"
)

func TestErrorMessages(t *testing.T) {
	cause := errors.New("quota exceeded")

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "model call",
			err:  &APICallError{Schema: schemas.ResumeExtraction, Cause: cause},
			want: "resume_extraction extraction: model call failed: quota exceeded",
		},
		{
			name: "bad response",
			err:  &ParseError{Schema: schemas.JobExtraction, Message: "failed to decode response", Cause: cause},
			want: "job_extraction extraction: failed to decode response: quota exceeded",
		},
		{
			name: "bad response without cause",
			err:  &ParseError{Schema: schemas.JobExtraction, Message: "empty response"},
			want: "job_extraction extraction: empty response",
		},
		{
			name: "rejected record",
			err:  &ValidationError{Record: "job", Message: "JobExtraction.Description - required", Cause: cause},
			want: "invalid job: JobExtraction.Description - required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}

	assert.ErrorIs(t, &APICallError{Cause: cause}, cause)
	assert.ErrorIs(t, &ValidationError{Cause: cause}, cause)
}
