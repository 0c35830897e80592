package v1

import (
	"fmt"
	"strings"
	"time"
)

// EvaluateRequest is the body of POST /v1/functions/:name/evaluate.
type EvaluateRequest struct {
	// Args are the positional function arguments. Lists are JSON arrays;
	// numbers are decoded without loss of precision.
	Args []any `json:"args"`
}

// Evaluation is the outcome of one successful function call.
type Evaluation struct {
	// ID is assigned by the server for log correlation.
	ID string `json:"id"`

	Function string `json:"function"`

	// Result is null when Undefined is set.
	Result any `json:"result"`

	// Undefined marks inputs outside the function's domain, such as a
	// 30/360 day count on 30 February. It is not an error.
	Undefined bool `json:"undefined"`

	EvaluatedAt time.Time `json:"evaluated_at"`
}

// Call is one entry of a batch.
type Call struct {
	Function string `json:"function"`
	Args     []any  `json:"args"`
}

// BatchRequest is the body of POST /v1/evaluate/batch.
type BatchRequest struct {
	Calls []Call `json:"calls"`
}

// Validate ensures every call names a function.
func (b *BatchRequest) Validate() error {
	if len(b.Calls) == 0 {
		return fmt.Errorf("calls is required")
	}

	for i, c := range b.Calls {
		if strings.TrimSpace(c.Function) == "" {
			return fmt.Errorf("calls[%d].function is required", i)
		}
	}

	return nil
}

// BatchItem is the outcome of one batch call. Exactly one of Result or
// ErrorType is meaningful.
type BatchItem struct {
	Index     int    `json:"index"`
	ID        string `json:"id"`
	Function  string `json:"function"`
	Result    any    `json:"result"`
	Undefined bool   `json:"undefined"`
	ErrorType string `json:"error_type,omitempty"`
	Error     string `json:"error,omitempty"`
}

// BatchResponse keeps items in request order.
type BatchResponse struct {
	Results   []BatchItem `json:"results"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
}

// SheetSummary describes one loaded sheet without evaluating it.
type SheetSummary struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Fingerprint string   `json:"fingerprint"`
	Cells       []string `json:"cells"`
}
