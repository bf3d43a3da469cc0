package statemachine

import (
	"strings"

	"food-order-bot/apperr"
	"food-order-bot/models"
)

// Transition defines a valid state change
type Transition struct {
	From models.OrderStatus `json:"from"`
	To   models.OrderStatus `json:"to"`
}

// validTransitions is the authoritative state machine definition
var validTransitions = []Transition{
	// Payment gateway approves or rejects a payment-gated order
	{From: models.StatusAwaitingPayment, To: models.StatusPending},
	{From: models.StatusAwaitingPayment, To: models.StatusCancelled},
	// Kitchen confirms (stock is debited) or rejects
	{From: models.StatusPending, To: models.StatusConfirmed},
	{From: models.StatusPending, To: models.StatusCancelled},
	// A confirmed order can still be cancelled (stock is credited back)
	{From: models.StatusConfirmed, To: models.StatusPreparing},
	{From: models.StatusConfirmed, To: models.StatusCancelled},
	{From: models.StatusPreparing, To: models.StatusReady},
	// Ready orders go out with a courier or are picked up at the counter
	{From: models.StatusReady, To: models.StatusOnTheWay},
	{From: models.StatusReady, To: models.StatusDelivered},
	{From: models.StatusOnTheWay, To: models.StatusDelivered},
}

var allStatuses = []models.OrderStatus{
	models.StatusAwaitingPayment,
	models.StatusPending,
	models.StatusConfirmed,
	models.StatusPreparing,
	models.StatusReady,
	models.StatusOnTheWay,
	models.StatusDelivered,
	models.StatusCancelled,
}

type transitionKey struct {
	From models.OrderStatus
	To   models.OrderStatus
}

// Build a lookup map for O(1) validation
var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.To}] = true
	}
	return m
}()

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	var nexts []models.OrderStatus
	for _, t := range validTransitions {
		if t.From == status {
			nexts = append(nexts, t.To)
		}
	}
	return nexts
}

// IsKnown reports whether status is part of the lifecycle.
func IsKnown(status models.OrderStatus) bool {
	for _, s := range allStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves status.
func IsTerminal(status models.OrderStatus) bool {
	return len(ValidTransitionsFrom(status)) == 0
}

// CanTransition checks if an order may move from one state to another
func CanTransition(from, to models.OrderStatus) error {
	if !IsKnown(to) {
		return apperr.BadRequest("unknown status %q", to)
	}
	if transitionMap[transitionKey{From: from, To: to}] {
		return nil
	}
	return apperr.Unprocessable(
		"invalid transition: %s → %s is not allowed. Valid transitions from %s are: %s",
		from, to, from, describeValidFrom(from),
	)
}

func describeValidFrom(status models.OrderStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	names := make([]string, len(nexts))
	for i, s := range nexts {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	return validTransitions
}

// AllStatuses lists every known status in lifecycle order.
func AllStatuses() []models.OrderStatus {
	return allStatuses
}
