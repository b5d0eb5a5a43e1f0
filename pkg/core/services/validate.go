package services

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/wadjakorntonsri/qr-redirect/pkg/core/domain"
)

// ValidateURL accepts only fully-qualified http(s) URIs.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("%w: url is required", domain.ErrInvalidInput)
	}
	if strings.IndexFunc(rawURL, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) >= 0 {
		return fmt.Errorf("%w: url contains whitespace or control characters", domain.ErrInvalidInput)
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%w: url scheme must be http or https", domain.ErrInvalidInput)
	}
	if parsed.Host == "" || parsed.Hostname() == "" {
		return fmt.Errorf("%w: url host cannot be empty", domain.ErrInvalidInput)
	}
	if parsed.Opaque != "" {
		return fmt.Errorf("%w: url must be hierarchical", domain.ErrInvalidInput)
	}
	return nil
}
