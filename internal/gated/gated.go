package gated

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Decision is the gatekeeper verdict on whether an item deserves the
// expensive generation call.
type Decision struct {
	Accept     bool
	Confidence float64
	Reasoning  string
}

// Gate evaluates an item cheaply before any generation budget is spent.
type Gate func(ctx context.Context) (Decision, error)

// Generate produces the expensive payload once the gate accepts.
type Generate func(ctx context.Context) (json.RawMessage, error)

// Result carries the gate verdict and, when accepted, the generated payload.
type Result struct {
	Decision Decision
	Payload  json.RawMessage
}

// Run executes the two-phase protocol. A gate rejection short-circuits:
// accepted is false, the payload is nil and no generation call is made.
func Run(ctx context.Context, gate Gate, generate Generate) (result Result, accepted bool, err error) {
	if gate == nil {
		return result, false, fmt.Errorf("gated: gate required")
	}
	if generate == nil {
		return result, false, fmt.Errorf("gated: generator required")
	}

	decision, err := gate(ctx)
	if err != nil {
		return result, false, fmt.Errorf("gate: %w", err)
	}
	result.Decision = decision
	if !decision.Accept {
		return result, false, nil
	}

	payload, err := generate(ctx)
	if err != nil {
		return result, false, fmt.Errorf("generate: %w", err)
	}
	result.Payload = payload
	return result, true, nil
}

type decisionPayload struct {
	Decision        string  `json:"decision"`
	ConfidenceScore float64 `json:"confidence_score"`
	Reasoning       string  `json:"reasoning"`
}

// ParseDecision decodes the gatekeeper JSON verdict. Any decision other
// than YES is a rejection.
func ParseDecision(raw string) (Decision, error) {
	var payload decisionPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return Decision{}, fmt.Errorf("parse gate decision: %w", err)
	}
	verdict := strings.ToUpper(strings.TrimSpace(payload.Decision))
	if verdict == "" {
		return Decision{}, fmt.Errorf("gate decision missing")
	}
	confidence := payload.ConfidenceScore
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return Decision{
		Accept:     verdict == "YES",
		Confidence: confidence,
		Reasoning:  strings.TrimSpace(payload.Reasoning),
	}, nil
}
