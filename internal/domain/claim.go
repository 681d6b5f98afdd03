package domain

// StaffControls describes which staff actions a ticket currently offers.
type StaffControls struct {
	ClaimedBy  string `json:"claimed_by,omitempty"`
	CanClaim   bool   `json:"can_claim"`
	CanUnclaim bool   `json:"can_unclaim"`
}

// Claimed reports whether a staff member owns the ticket.
func (t *Ticket) Claimed() bool {
	return t.ClaimedBy != ""
}

// Claim assigns the ticket to actor.
func (t *Ticket) Claim(actor Actor) error {
	if t.Claimed() {
		return ErrAlreadyClaimed.Withf("this ticket is already claimed by %s", t.ClaimedBy)
	}
	t.ClaimedBy = actor.ID
	return nil
}

// Unclaim releases the ticket. Only the claimant or an owner may do it.
func (t *Ticket) Unclaim(actor Actor) error {
	if !t.Claimed() {
		return nil
	}
	if actor.ID != t.ClaimedBy && !actor.Owner {
		return ErrNotClaimant
	}
	t.ClaimedBy = ""
	return nil
}

// StaffControls returns the claim surface as seen by actor.
func (t *Ticket) StaffControls(actor Actor) StaffControls {
	if !t.Claimed() {
		return StaffControls{CanClaim: actor.IsStaff()}
	}
	return StaffControls{
		ClaimedBy:  t.ClaimedBy,
		CanUnclaim: actor.ID == t.ClaimedBy || actor.Owner,
	}
}
