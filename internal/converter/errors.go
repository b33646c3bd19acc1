package converter

import (
	"errors"
	"fmt"

	"github.com/jchantrell/rsbconv/internal/platform"
)

// ErrIntegrity matches every *IntegrityError.
var ErrIntegrity = errors.New("bundle integrity check failed")

// IntegrityError reports that the streaming audio packet for the conversion
// direction was not found exactly once.
type IntegrityError struct {
	Target   platform.Platform
	Expected string // name of the packet that should have been restructured
	Found    int
}

func (e *IntegrityError) Error() string {
	if e.Found == 0 {
		return fmt.Sprintf("cannot find streaming wave packet %s for %s conversion", e.Expected, e.Target)
	}
	return fmt.Sprintf("found %d streaming wave packets named %s for %s conversion, expected one", e.Found, e.Expected, e.Target)
}

func (e *IntegrityError) Is(target error) bool {
	return target == ErrIntegrity
}
