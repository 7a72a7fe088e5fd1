package config

// SecretStringValue is what is shown instead of actual secret.
const SecretStringValue = "<secret>"

// SecretString should be used for credentials so they never end up in logs,
// dumped configuration or debug report.
type SecretString string

// Expose returns actual value, to be used only when handing secret over to
// the code which needs it.
func (s SecretString) Expose() string {
	return string(s)
}

func (s SecretString) String() string {
	if len(s) == 0 {
		return ""
	}
	return SecretStringValue
}

// MarshalJSON marshals SecretString to JSON making sure that actual value is not visible.
func (s SecretString) MarshalJSON() ([]byte, error) {
	if len(s) == 0 {
		return []byte("null"), nil
	}
	return []byte("\"" + SecretStringValue + "\""), nil
}

// MarshalYAML marshals SecretString to YAML making sure that actual value is not visible.
func (s SecretString) MarshalYAML() (any, error) {
	if len(s) == 0 {
		return nil, nil
	}
	return SecretStringValue, nil
}
