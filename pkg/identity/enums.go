package identity

import "github.com/neoncity/identity/pkg/marshal"

type Role int

const (
	RoleUnknown Role = iota
	RoleRegular
	RoleAdmin
)

var roleNames = map[Role]string{
	RoleUnknown: "Unknown",
	RoleRegular: "Regular",
	RoleAdmin:   "Admin",
}

func (r Role) String() string {
	return roleNames[r]
}

type UserState int

const (
	UserStateUnknown UserState = iota
	UserStateActive
	UserStateActiveAndLinked
	UserStateRemoved
)

var userStateNames = map[UserState]string{
	UserStateUnknown:         "Unknown",
	UserStateActive:          "Anonymous",
	UserStateActiveAndLinked: "ActiveAndLinkedWithAuth0",
	UserStateRemoved:         "Removed",
}

func (s UserState) String() string {
	return userStateNames[s]
}

type SessionState int

const (
	SessionStateUnknown SessionState = iota
	SessionStateActive
	SessionStateActiveAndLinkedWithUser
	SessionStateExpired
	SessionStateRemoved
)

var sessionStateNames = map[SessionState]string{
	SessionStateUnknown:                 "Unknown",
	SessionStateActive:                  "Active",
	SessionStateActiveAndLinkedWithUser: "ActiveAndLinkedWithUser",
	SessionStateExpired:                 "Expired",
	SessionStateRemoved:                 "Removed",
}

func (s SessionState) String() string {
	return sessionStateNames[s]
}

// IsActive reports whether the session can still be used.
func (s SessionState) IsActive() bool {
	return s == SessionStateActive || s == SessionStateActiveAndLinkedWithUser
}

type UserEventType int

const (
	UserEventUnknown UserEventType = iota
	UserEventCreated
	UserEventRecreated
	UserEventRemoved
	UserEventAgreedToCookiePolicy
)

var userEventTypeNames = map[UserEventType]string{
	UserEventUnknown:              "Unknown",
	UserEventCreated:              "Created",
	UserEventRecreated:            "Recreated",
	UserEventRemoved:              "Removed",
	UserEventAgreedToCookiePolicy: "AgreedToCookiePolicy",
}

func (t UserEventType) String() string {
	return userEventTypeNames[t]
}

type SessionEventType int

const (
	SessionEventUnknown SessionEventType = iota
	SessionEventCreated
	SessionEventExpired
	SessionEventAgreedToCookiePolicy
	SessionEventLinkedWithUser
	SessionEventRemoved
)

var sessionEventTypeNames = map[SessionEventType]string{
	SessionEventUnknown:              "Unknown",
	SessionEventCreated:              "Created",
	SessionEventExpired:              "Expired",
	SessionEventAgreedToCookiePolicy: "AgreedToCookiePolicy",
	SessionEventLinkedWithUser:       "LinkedWithUser",
	SessionEventRemoved:              "Removed",
}

func (t SessionEventType) String() string {
	return sessionEventTypeNames[t]
}

var (
	RoleMarshaller             = marshal.EnumOf(roleNames)
	UserStateMarshaller        = marshal.EnumOf(userStateNames)
	SessionStateMarshaller     = marshal.EnumOf(sessionStateNames)
	UserEventTypeMarshaller    = marshal.EnumOf(userEventTypeNames)
	SessionEventTypeMarshaller = marshal.EnumOf(sessionEventTypeNames)
)
