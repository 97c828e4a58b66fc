package domain

// Capability names an action guarded by role.
type Capability string

const (
	CapabilityCreateTicket   Capability = "create_ticket"
	CapabilityClaim          Capability = "claim"
	CapabilityAssign         Capability = "assign"
	CapabilityResolve        Capability = "resolve"
	CapabilityClose          Capability = "close"
	CapabilityViewQueue      Capability = "view_queue"
	CapabilityViewAllTickets Capability = "view_all_tickets"
)

var roleCapabilities = map[Role]map[Capability]struct{}{
	RoleClient: {
		CapabilityCreateTicket: {},
	},
	RoleAgent: {
		CapabilityCreateTicket:   {},
		CapabilityClaim:          {},
		CapabilityResolve:        {},
		CapabilityClose:          {},
		CapabilityViewQueue:      {},
		CapabilityViewAllTickets: {},
	},
	RoleAdmin: {
		CapabilityCreateTicket:   {},
		CapabilityClaim:          {},
		CapabilityAssign:         {},
		CapabilityResolve:        {},
		CapabilityClose:          {},
		CapabilityViewQueue:      {},
		CapabilityViewAllTickets: {},
	},
}

// Can reports whether the role grants the capability.
func (r Role) Can(c Capability) bool {
	_, ok := roleCapabilities[r][c]
	return ok
}

// StatusCapability returns the capability needed to move a ticket into status,
// if any.
func StatusCapability(status TicketStatus) (Capability, bool) {
	switch status {
	case TicketStatusResolved:
		return CapabilityResolve, true
	case TicketStatusClosed:
		return CapabilityClose, true
	}
	return "", false
}

// CanViewTicket applies the read rule: staff see everything, clients only
// their own tickets.
func CanViewTicket(actor Actor, ticket *Ticket) bool {
	if actor.Role.Can(CapabilityViewAllTickets) {
		return true
	}
	return ticket.CreatedBy == actor.ID
}

// CanWriteTicket applies the conversation rule. It mirrors CanViewTicket today.
func CanWriteTicket(actor Actor, ticket *Ticket) bool {
	return CanViewTicket(actor, ticket)
}
