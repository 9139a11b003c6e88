// Package auth centralizes capability checks.  Every component that
// guards an operation calls Authorize with the acting user, the
// action and (where relevant) the organizer who owns the affected
// event, instead of re-implementing role checks per endpoint.
package auth

// Role names as stored in users.role and carried in the JWT role claim.
const (
    RoleUser      = "user"
    RoleOrganizer = "organizer"
    RoleStaff     = "staff"
    RoleAdmin     = "admin"
)

// Actor identifies the authenticated caller of an operation.
type Actor struct {
    ID   uint64
    Role string
}

// Action enumerates the guarded operations of the booking core.
type Action string

const (
    ActionApproveOrder  Action = "order:approve"
    ActionRejectOrder   Action = "order:reject"
    ActionCheckInTicket Action = "ticket:check_in"
    ActionCreateEvent   Action = "event:create"
    ActionDeleteEvent   Action = "event:delete"
    ActionPublishSeats  Action = "event:publish_seats"
    ActionViewOrders    Action = "event:view_orders"
)

// Authorize reports whether the actor may perform the action.
// eventOrganizerID is the owner of the event the action touches; it
// is ignored for actions that are not event-scoped.  Admins may do
// everything.  Organizers are scoped to events they own, except for
// check-in, which any organizer, staff member or admin may perform
// (matching the door-scanning flow, where staff are not tied to a
// single event).
func Authorize(actor Actor, action Action, eventOrganizerID uint64) bool {
    if actor.Role == RoleAdmin {
        return true
    }
    switch action {
    case ActionCheckInTicket:
        return actor.Role == RoleOrganizer || actor.Role == RoleStaff
    case ActionCreateEvent:
        return actor.Role == RoleOrganizer
    case ActionApproveOrder, ActionRejectOrder, ActionDeleteEvent, ActionPublishSeats, ActionViewOrders:
        return actor.Role == RoleOrganizer && actor.ID == eventOrganizerID
    }
    return false
}
