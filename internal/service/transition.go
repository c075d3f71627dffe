package service

import "github.com/flicky/holohaven-api/internal/model"

// TransitionPolicy runs after the status has been checked against the enum.
type TransitionPolicy interface {
	Allow(from, to model.OrderStatus) bool
}

// PermissiveTransitions accepts any status regardless of the current one,
// which lets admins correct mistakes by hand.
type PermissiveTransitions struct{}

func (PermissiveTransitions) Allow(_, _ model.OrderStatus) bool { return true }

// StrictTransitions allows only forward moves along
// pending → processing → shipped → delivered, plus cancel from any
// non-terminal status. Setting the current status again is a no-op move.
type StrictTransitions struct{}

var statusRank = map[model.OrderStatus]int{
	model.OrderStatusPending:    0,
	model.OrderStatusProcessing: 1,
	model.OrderStatusShipped:    2,
	model.OrderStatusDelivered:  3,
}

func (StrictTransitions) Allow(from, to model.OrderStatus) bool {
	if from == to {
		return true
	}
	if from.Terminal() {
		return false
	}
	if to == model.OrderStatusCancelled {
		return true
	}
	return statusRank[to] > statusRank[from]
}

func NewTransitionPolicy(strict bool) TransitionPolicy {
	if strict {
		return StrictTransitions{}
	}
	return PermissiveTransitions{}
}
