package types

const redactedPlaceholder = "***REDACTED***"

var redactedJSON = []byte(`"***REDACTED***"`)

// SecretString holds API keys and connection strings. It prints and
// serializes as a redacted placeholder, so a config dump or a %v in a log
// line cannot leak the value. Only Unmask returns the plaintext.
type SecretString string

// String satisfies fmt.Stringer with the placeholder.
func (s SecretString) String() string {
	return redactedPlaceholder
}

// MarshalJSON emits the placeholder, keeping secrets out of JSON logs and
// serialized config.
func (s SecretString) MarshalJSON() ([]byte, error) {
	return redactedJSON, nil
}

// Unmask returns the raw plaintext. Call sites should be final consumers
// only: HTTP clients, the database driver. Never log an unmasked value.
func (s SecretString) Unmask() string {
	return string(s)
}
