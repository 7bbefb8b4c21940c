package dwellsim

import "fmt"

// ConfigError reports an invalid or inconsistent input detected while
// constructing the model. Construction fails before the first timestep;
// no partial model is ever returned alongside one.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "config: " + e.Msg
	}
	return fmt.Sprintf("config: %s: %s", e.Field, e.Msg)
}

func configErrorf(field, format string, args ...any) error {
	return &ConfigError{Field: field, Msg: fmt.Sprintf(format, args...)}
}
