package ledger

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/prathambahekar/expense-mananger/models"
)

// ValidationError rejects malformed input (bad split, non-positive
// amount, percentages not summing to 100). Nothing is mutated.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

func validationf(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// AuthorizationError means the actor is not a party to the operation.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	return "not allowed: " + e.Reason
}

// StateError is an illegal lifecycle transition, e.g. marking a
// completed settlement paid. Safe to retry-check by re-reading state.
type StateError struct {
	SettlementID uuid.UUID
	Status       models.SettlementStatus
	Reason       string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("settlement %s is %s: %s", e.SettlementID, e.Status, e.Reason)
}

// ConflictError means an expense revision would need to undo a debt
// that has already been paid. Surfaced for manual reconciliation.
type ConflictError struct {
	ExpenseID    uuid.UUID
	SettlementID uuid.UUID
	Reason       string
}

func (e *ConflictError) Error() string {
	return "conflict: " + e.Reason
}

// NotFoundError is returned by stores for missing records.
type NotFoundError struct {
	Kind string
	ID   uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}
