package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
)

// ErrMalformedProviderResponse is returned when a provider body is missing fields or has an
// unexpected shape.
var ErrMalformedProviderResponse = errors.New("malformed provider response")

// Validate is the shared validator for provider schemas and configuration.
var Validate = validator.New()

// DecodePayload decodes a provider JSON body into v and validates it against v's struct tags.
// Any failure is reported as ErrMalformedProviderResponse.
func DecodePayload(provider string, body io.Reader, v any) error {
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedProviderResponse, provider, err)
	}
	if err := Validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedProviderResponse, provider, err)
	}
	return nil
}
