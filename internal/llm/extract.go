package llm

import (
	"bytes"
	"encoding/json"
)

// ActivitiesKey is the argument field that holds the generated plan.
const ActivitiesKey = "activities"

// ExtractActivities returns the activities array from the first tool call of c,
// byte for byte as the model wrote it. Only the envelope is checked: the
// arguments must be a JSON object whose "activities" value is an array.
// The elements themselves are passed through without being decoded.
func ExtractActivities(c *Completion) (json.RawMessage, error) {
	if c == nil || len(c.ToolCalls) == 0 {
		return nil, &MalformedResponseError{Reason: "completion has no tool call", Err: ErrNoToolCall}
	}

	call := c.ToolCalls[0]
	var arguments map[string]json.RawMessage
	if err := json.Unmarshal([]byte(call.Arguments), &arguments); err != nil {
		return nil, &MalformedResponseError{Reason: "function arguments are not a JSON object", Err: err}
	}

	raw, ok := arguments[ActivitiesKey]
	if !ok {
		return nil, &MalformedResponseError{Reason: `function arguments have no "activities" key`}
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, &MalformedResponseError{Reason: `"activities" is not an array`}
	}

	return raw, nil
}
