// Package common holds helpers shared by the model-backed components.
package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrNoJSON = errors.New("no JSON object in response")

// ParseJSON extracts the outermost JSON object from a model response and
// decodes it into T. Models often wrap the object in prose or a code fence.
func ParseJSON[T any](response string) (T, error) {
	var zero T
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end < start {
		return zero, ErrNoJSON
	}
	body := response[start : end+1]

	var result T
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		return zero, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return result, nil
}
