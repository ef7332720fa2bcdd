package service

import (
	"fmt"

	"carrental/internal/domain"
	"carrental/internal/models"
)

type Action string

const (
	ActionCollect Action = "collect"
	ActionReturn  Action = "return"
	ActionInspect Action = "inspect"
	ActionCancel  Action = "cancel"
	ActionRefund  Action = "refund"
)

type transitionKey struct {
	from   models.BookingStatus
	action Action
}

var transitions = map[transitionKey]models.BookingStatus{
	{models.StatusReserved, ActionCollect}: models.StatusCollected,
	{models.StatusReserved, ActionCancel}:  models.StatusCancelled,
	{models.StatusCollected, ActionReturn}: models.StatusReturned,
	{models.StatusReturned, ActionInspect}: models.StatusInspected,
	{models.StatusCancelled, ActionRefund}: models.StatusRefunded,
}

// Next returns the status reached by applying action to from.
func Next(from models.BookingStatus, action Action) (models.BookingStatus, bool) {
	to, ok := transitions[transitionKey{from, action}]
	return to, ok
}

// ActionFor finds the action that moves a booking from one status to another.
func ActionFor(from, to models.BookingStatus) (Action, bool) {
	for key, target := range transitions {
		if key.from == from && target == to {
			return key.action, true
		}
	}
	return "", false
}

func CanTransition(from, to models.BookingStatus) bool {
	_, ok := ActionFor(from, to)
	return ok
}

func illegalTransition(from, to models.BookingStatus) error {
	return fmt.Errorf("%w: %s -> %s", domain.ErrIllegalTransition, from, to)
}
