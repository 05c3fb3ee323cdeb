package ingestion

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	cause := errors.New("503 from gemini")
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "transient", err: NewTransientError(cause), want: true},
		{name: "wrapped for the caller", err: fmt.Errorf("%w: %w", ErrIngestion, NewTransientError(cause)), want: true},
		{name: "fatal", err: NewFatalError(cause), want: false},
		{name: "plain", err: cause, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
			assert.ErrorIs(t, tt.err, cause)
		})
	}

	assert.Contains(t, NewTransientError(cause).Error(), "gemini unavailable")
}
