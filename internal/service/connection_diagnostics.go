package service

import (
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"syscall"

	apperrors "github.com/consentforms/consentforms/internal/errors"
)

const insecureNotice = "Warning: certificate validation is disabled because no CA certificate path is configured."

// DescribeConnectionError turns a connection-test failure into an
// administrator-facing explanation. Only used on the admin diagnostics path.
func DescribeConnectionError(err error) string {
	if err == nil {
		return ""
	}

	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeConfiguration:
		return "Configuration error: " + err.Error()
	case apperrors.ErrCodeInvalidServiceCredentials:
		return "Invalid service account credentials: the directory rejected the service bind DN or password."
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return fmt.Sprintf("DNS resolution failed for %q: check the server URL host name.", dnsErr.Name)
	}

	var unknownCA x509.UnknownAuthorityError
	if errors.As(err, &unknownCA) || containsAny(err, "certificate signed by unknown authority", "self-signed", "self signed") {
		return "Certificate rejected: the server presented a self-signed certificate or one issued by an untrusted CA. " +
			"Set the CA certificate path to the issuing CA's PEM file."
	}

	var hostErr x509.HostnameError
	if errors.As(err, &hostErr) || containsAny(err, "certificate is valid for") {
		return "Certificate host name mismatch: the server certificate does not cover the host in the server URL."
	}

	var invalidCert x509.CertificateInvalidError
	if errors.As(err, &invalidCert) {
		return "Certificate invalid: " + invalidCert.Error() + "."
	}

	if errors.Is(err, syscall.ECONNREFUSED) || containsAny(err, "connection refused") {
		return "Connection refused: check the server URL port and that the directory service is running."
	}

	var netErr net.Error
	if errors.Is(err, os.ErrDeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) || containsAny(err, "i/o timeout", "timed out") {
		return "Connection timed out: the directory server did not respond in time."
	}

	if containsAny(err, "no such host") {
		return "DNS resolution failed: check the server URL host name."
	}

	return "Directory unavailable: " + err.Error()
}

func containsAny(err error, needles ...string) bool {
	msg := strings.ToLower(err.Error())
	for _, n := range needles {
		if strings.Contains(msg, n) {
			return true
		}
	}
	return false
}
