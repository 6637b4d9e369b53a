package identity

import "github.com/neoncity/identity/pkg/marshal"

type SessionResponse struct {
	Session Session
}

// AuthInfoAndSessionResponse is returned where the service may rotate the
// credential along with the session.
type AuthInfoAndSessionResponse struct {
	AuthInfo AuthInfo
	Session  Session
}

type UserEventsResponse struct {
	Events []UserEvent
}

type UsersInfoResponse struct {
	UsersInfo []PublicUser
}

var SessionResponseMarshaller = marshal.MarshalFrom(
	marshal.FieldOf[SessionResponse, Session]("session", SessionMarshaller, func(r *SessionResponse) *Session { return &r.Session }),
)

var AuthInfoAndSessionResponseMarshaller = marshal.MarshalFrom(
	marshal.FieldOf[AuthInfoAndSessionResponse, AuthInfo]("authInfo", AuthInfoMarshaller, func(r *AuthInfoAndSessionResponse) *AuthInfo { return &r.AuthInfo }),
	marshal.FieldOf[AuthInfoAndSessionResponse, Session]("session", SessionMarshaller, func(r *AuthInfoAndSessionResponse) *Session { return &r.Session }),
)

var UserEventsResponseMarshaller = marshal.MarshalFrom(
	marshal.FieldOf("events", marshal.ArrayOf[UserEvent](UserEventMarshaller), func(r *UserEventsResponse) *[]UserEvent { return &r.Events }),
)

var UsersInfoResponseMarshaller = marshal.MarshalFrom(
	marshal.FieldOf("usersInfo", marshal.ArrayOf[PublicUser](PublicUserMarshaller), func(r *UsersInfoResponse) *[]PublicUser { return &r.UsersInfo }),
)
