package service

import (
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/consentforms/consentforms/internal/errors"
)

func TestDescribeConnectionError(t *testing.T) {
	wrapDir := func(err error) error {
		return apperrors.Wrap(err, apperrors.ErrCodeDirectoryUnavailable, "connect to directory")
	}

	tests := []struct {
		name       string
		err        error
		wantPrefix string
	}{
		{name: "nil", err: nil, wantPrefix: ""},
		{
			name:       "configuration",
			err:        apperrors.Configuration("read CA certificate: open /nope.pem: no such file or directory"),
			wantPrefix: "Configuration error: read CA certificate",
		},
		{
			name: "service credentials",
			err: apperrors.Wrap(apperrors.InvalidCredentials("bind rejected"),
				apperrors.ErrCodeInvalidServiceCredentials, "service account bind rejected"),
			wantPrefix: "Invalid service account credentials",
		},
		{
			name:       "dns",
			err:        wrapDir(&net.DNSError{Err: "no such host", Name: "dc1.example.com", IsNotFound: true}),
			wantPrefix: `DNS resolution failed for "dc1.example.com"`,
		},
		{
			name:       "unknown authority",
			err:        wrapDir(x509.UnknownAuthorityError{}),
			wantPrefix: "Certificate rejected",
		},
		{
			name:       "self signed string",
			err:        wrapDir(errors.New("tls: failed to verify certificate: x509: certificate signed by unknown authority")),
			wantPrefix: "Certificate rejected",
		},
		{
			name:       "hostname mismatch",
			err:        wrapDir(x509.HostnameError{Certificate: &x509.Certificate{}, Host: "10.0.0.1"}),
			wantPrefix: "Certificate host name mismatch",
		},
		{
			name:       "expired",
			err:        wrapDir(x509.CertificateInvalidError{Reason: x509.Expired}),
			wantPrefix: "Certificate invalid",
		},
		{
			name:       "refused",
			err:        wrapDir(fmt.Errorf("dial: %w", syscall.ECONNREFUSED)),
			wantPrefix: "Connection refused",
		},
		{
			name:       "deadline",
			err:        wrapDir(fmt.Errorf("read: %w", os.ErrDeadlineExceeded)),
			wantPrefix: "Connection timed out",
		},
		{
			name:       "timeout string",
			err:        wrapDir(errors.New("dial tcp 10.0.0.1:636: i/o timeout")),
			wantPrefix: "Connection timed out",
		},
		{
			name:       "other",
			err:        wrapDir(errors.New("LDAP Result Code 200 \"Network Error\": EOF")),
			wantPrefix: "Directory unavailable: connect to directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DescribeConnectionError(tt.err)
			if tt.wantPrefix == "" {
				assert.Empty(t, got)
				return
			}
			assert.True(t, strings.HasPrefix(got, tt.wantPrefix), got)
		})
	}
}
