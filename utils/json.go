package utils

import "encoding/json"

// MarshalToJSON serializes any value to a JSON string.
func MarshalToJSON[T any](input T) (string, error) {
	jsonData, err := json.Marshal(input)
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

// UnmarshalFromJSON parses a JSON payload into the given target.
func UnmarshalFromJSON[T any](data []byte, output *T) error {
	return json.Unmarshal(data, output)
}
