package errors

import (
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/consentforms/consentforms/internal/errors"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "app error code", err: fmt.Errorf("login: %w", apperrors.InvalidCredentials("bad")), want: "invalid_credentials"},
		{
			name: "app error wrapping net error",
			err:  apperrors.Wrap(&net.DNSError{Err: "no such host", Name: "dc"}, apperrors.ErrCodeDirectoryUnavailable, "dial"),
			want: "directory_unavailable",
		},
		{name: "innermost type", err: fmt.Errorf("dial: %w", &net.DNSError{}), want: "net_dnserror"},
		{name: "plain", err: errors.New("x"), want: "errors_errorstring"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}
