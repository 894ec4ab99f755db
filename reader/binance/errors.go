package binance

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/adshao/go-binance/v2/common"
)

// NetworkError marks a fetch that failed before a well-formed response
// arrived: connection refused, DNS failure, timeout.
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error fetching %s: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError marks a response the exchange did answer but that cannot be used:
// a non-success HTTP status or a payload that does not match the schema.
type APIError struct {
	Endpoint string
	Err      error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error fetching %s: %v", e.Endpoint, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// IsNetworkError reports whether err wraps a NetworkError.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsAPIError reports whether err wraps an APIError.
func IsAPIError(err error) bool {
	var ae *APIError
	return errors.As(err, &ae)
}

// classifyError sorts a client error into the network/API taxonomy.
func classifyError(endpoint string, err error) error {
	if err == nil {
		return nil
	}

	if common.IsAPIError(err) {
		return &APIError{Endpoint: endpoint, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &NetworkError{Endpoint: endpoint, Err: err}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &NetworkError{Endpoint: endpoint, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &NetworkError{Endpoint: endpoint, Err: err}
	}

	// Anything else came back over a working connection: schema mismatch,
	// decode failure, unexpected body.
	return &APIError{Endpoint: endpoint, Err: err}
}
