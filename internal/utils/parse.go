package utils

import (
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonrepair"
)

// ParseJSONAs decodes content into T. When strict decoding fails the content
// is run through jsonrepair and decoded again, which recovers truncated
// bodies, single quotes, trailing commas and unquoted keys.
//
//	type envelope struct {
//	    Error struct{ Message string `json:"message"` } `json:"error"`
//	}
//	env, err := ParseJSONAs[envelope](`{error: {message: 'quota exceeded'}`)
func ParseJSONAs[T any](content string) (T, error) {
	var result T
	err := json.Unmarshal([]byte(content), &result)
	if err == nil {
		return result, nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(content)
	if repairErr != nil {
		return result, fmt.Errorf("failed to unmarshal content as %T and failed to repair JSON: unmarshal error: %w, repair error: %v", result, err, repairErr)
	}

	result = *new(T)
	if err = json.Unmarshal([]byte(repaired), &result); err != nil {
		return result, fmt.Errorf("failed to unmarshal repaired JSON as %T: %w", result, err)
	}
	return result, nil
}
