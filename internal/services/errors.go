package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPrerequisite marks fatal stage-level failures detected before any
	// item-level work begins (missing upstream directory, absent ledger).
	ErrPrerequisite = errors.New("prerequisite error")
	// ErrCollaborator marks per-item failures of an external collaborator;
	// items carrying it are retried on the next run.
	ErrCollaborator = errors.New("collaborator error")
	// ErrSchemaViolation marks generation output outside its contract
	// (segment boundary mismatch, unknown finding category).
	ErrSchemaViolation = errors.New("schema violation")
	// ErrConfiguration marks unusable configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrTimeout marks a collaborator call that exceeded its deadline.
	// Treated like a collaborator failure for retry purposes.
	ErrTimeout = errors.New("timeout")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrCollaborator
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify normalizes context deadline errors into the timeout sentinel so
// that stage runners can treat them uniformly.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}

// IsPrerequisite reports whether err represents a fatal stage prerequisite failure.
func IsPrerequisite(err error) bool {
	return errors.Is(err, ErrPrerequisite) || errors.Is(err, ErrConfiguration)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
