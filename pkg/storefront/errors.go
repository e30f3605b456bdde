package storefront

import "fmt"

type ErrGatewayUnavailable struct {
}

func (e *ErrGatewayUnavailable) Error() string {
	return "store gateway is unavailable"
}

func IsGatewayUnavailable(err error) bool {
	_, ok := err.(*ErrGatewayUnavailable)
	return ok
}

type ErrProductNotFound struct {
	SKU string
}

func (e *ErrProductNotFound) Error() string {
	return fmt.Sprintf("product not found: %s", e.SKU)
}

func IsProductNotFound(err error) bool {
	_, ok := err.(*ErrProductNotFound)
	return ok
}

// ErrTransport wraps a purchase or restore network failure.
type ErrTransport struct {
	Op  string
	Err error
}

func (e *ErrTransport) Error() string {
	return fmt.Sprintf("transport error during %s: %v", e.Op, e.Err)
}

func (e *ErrTransport) Unwrap() error {
	return e.Err
}

func IsTransport(err error) bool {
	_, ok := err.(*ErrTransport)
	return ok
}
