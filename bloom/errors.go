package bloom

import "fmt"

// ConfigurationError reports invalid parameters or source dimensions.
// No partial chain is created when it is returned.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid bloom configuration: %s %s", e.Field, e.Reason)
}

// AllocationError reports a failed render target allocation during a chain
// rebuild. The previous chain, if any, stays usable; callers are expected to
// degrade to an unmodified scene until resources recover.
type AllocationError struct {
	Level int
	Cause error
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("could not allocate bloom level %d: %v", e.Level, e.Cause)
}

func (e *AllocationError) Unwrap() error {
	return e.Cause
}
