package pick

import (
	"errors"
	"fmt"
)

// ErrInvalidDomain is matched by every *InvalidDomainError.
var ErrInvalidDomain = errors.New("pick: invalid domain")

// InvalidDomainError reports an empty or malformed value domain, such as an
// empty choice list or a range whose minimum exceeds its maximum.
type InvalidDomainError struct {
	Domain string
	Reason string
}

func (e *InvalidDomainError) Error() string {
	return fmt.Sprintf("pick: invalid domain %s: %s", e.Domain, e.Reason)
}

// Is reports whether target is ErrInvalidDomain.
func (e *InvalidDomainError) Is(target error) bool {
	return target == ErrInvalidDomain
}

func invalidRange[T int | float64](min, max T) error {
	return &InvalidDomainError{
		Domain: fmt.Sprintf("[%v, %v]", min, max),
		Reason: "minimum exceeds maximum",
	}
}
