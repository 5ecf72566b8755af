package occlusion

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is matched by every ConfigurationError via errors.Is.
var ErrInvalidConfig = errors.New("invalid occlusion config")

// ConfigurationError reports an option that failed validation. It is always
// returned before any point is processed.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid occlusion config: %s: %s", e.Field, e.Reason)
}

// Is reports whether target is ErrInvalidConfig.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfig
}

func configErrorf(field, format string, args ...interface{}) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// UnknownSensorWarning records a sensor named in SensorsToDrop that was not
// present in the input. Processing continues with the remaining sensors.
type UnknownSensorWarning struct {
	Sensor SensorID
}

func (w UnknownSensorWarning) String() string {
	return fmt.Sprintf("sensor %s requested for drop is not present in input", w.Sensor)
}
