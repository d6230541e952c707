package domain

// Actor is the authenticated caller of a booking operation. The core never
// authenticates; the transport layer builds an Actor from its own credentials.
type Actor struct {
	UserID int64
	Admin  bool
	// System marks internal callers such as the payment webhook or the trip sweep.
	System bool
}

func SystemActor() Actor {
	return Actor{System: true}
}

// CanAccess reports whether the actor may read or modify b.
func (a Actor) CanAccess(b *Booking) error {
	if a.System || a.Admin || a.UserID == b.UserID {
		return nil
	}
	return Forbiddenf("booking %s belongs to another user", b.ID)
}

// CanTrigger checks who may fire event on b. Completing a trip is reserved
// for administrators and internal processes.
func (a Actor) CanTrigger(b *Booking, event BookingEvent) error {
	if event == EventComplete && !a.System && !a.Admin {
		return Forbiddenf("only administrators can complete a booking")
	}
	return a.CanAccess(b)
}
