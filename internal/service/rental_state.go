package service

import "locadora/internal/db"

// allowedTransitions is the rental state machine as a directed graph.
// finished and canceled are terminal.
var allowedTransitions = map[string][]string{
	db.RentalReserved: {db.RentalActive, db.RentalCanceled},
	db.RentalActive:   {db.RentalFinished, db.RentalCanceled},
	db.RentalFinished: {},
	db.RentalCanceled: {},
}

// CanTransition reports whether from -> to is a legal rental status change.
func CanTransition(from, to string) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
