package identity

import (
	"time"

	"github.com/neoncity/identity/pkg/marshal"
)

// AuthInfo is the credential presented with every authenticated request.
type AuthInfo struct {
	SessionId        string
	Auth0AccessToken marshal.Optional[string]
}

func NewAuthInfo(sessionId string) AuthInfo {
	return AuthInfo{SessionId: sessionId, Auth0AccessToken: marshal.None[string]()}
}

// WithAccessToken returns a copy of the auth info carrying accessToken.
func (a AuthInfo) WithAccessToken(accessToken string) AuthInfo {
	a.Auth0AccessToken = marshal.Some(accessToken)
	return a
}

// PublicUser is the part of a user that may be shown to anyone.
type PublicUser struct {
	Id              int64
	State           UserState
	Role            Role
	Name            string
	PictureUri      string
	Language        string
	TimeCreated     time.Time
	TimeLastUpdated time.Time
}

func (u PublicUser) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// PrivateUser is the view of a user handed to the user themselves.
type PrivateUser struct {
	PublicUser
	Auth0UserIdHash      string
	AgreedToCookiePolicy bool
}

type Session struct {
	State                SessionState
	XsrfToken            string
	AgreedToCookiePolicy bool
	User                 marshal.Optional[PrivateUser]
	TimeCreated          time.Time
	TimeLastUpdated      time.Time
}

// HasUser reports whether the session is linked with a user. The state is
// authoritative; the user payload is checked as well.
func (s Session) HasUser() bool {
	return s.State == SessionStateActiveAndLinkedWithUser && s.User.IsPresent()
}

type UserEvent struct {
	Id        int64
	Type      UserEventType
	Timestamp time.Time
	Data      marshal.Null
}

type SessionEvent struct {
	Id        int64
	Type      SessionEventType
	Timestamp time.Time
	Data      marshal.Null
}

var AuthInfoMarshaller = marshal.MarshalFrom(
	marshal.FieldOf("sessionId", NewSessionIdMarshaller(), func(a *AuthInfo) *string { return &a.SessionId }),
	marshal.FieldOf("auth0AccessToken", marshal.OptionalOf(NewAccessTokenMarshaller()), func(a *AuthInfo) *marshal.Optional[string] { return &a.Auth0AccessToken }),
)

var PublicUserMarshaller = marshal.MarshalFrom(
	marshal.FieldOf("id", marshal.Id(), func(u *PublicUser) *int64 { return &u.Id }),
	marshal.FieldOf("state", UserStateMarshaller, func(u *PublicUser) *UserState { return &u.State }),
	marshal.FieldOf("role", RoleMarshaller, func(u *PublicUser) *Role { return &u.Role }),
	marshal.FieldOf("name", marshal.String(), func(u *PublicUser) *string { return &u.Name }),
	marshal.FieldOf("pictureUri", marshal.SecureWebUri(), func(u *PublicUser) *string { return &u.PictureUri }),
	marshal.FieldOf("language", marshal.LanguageTag(), func(u *PublicUser) *string { return &u.Language }),
	marshal.FieldOf("timeCreated", marshal.Time(), func(u *PublicUser) *time.Time { return &u.TimeCreated }),
	marshal.FieldOf("timeLastUpdated", marshal.Time(), func(u *PublicUser) *time.Time { return &u.TimeLastUpdated }),
)

var PrivateUserMarshaller = marshal.MarshalFrom(append(
	marshal.Lift(func(u *PrivateUser) *PublicUser { return &u.PublicUser }, PublicUserMarshaller.Fields()...),
	marshal.FieldOf("auth0UserIdHash", NewUserIdHashMarshaller(), func(u *PrivateUser) *string { return &u.Auth0UserIdHash }),
	marshal.FieldOf("agreedToCookiePolicy", marshal.Bool(), func(u *PrivateUser) *bool { return &u.AgreedToCookiePolicy }),
)...)

var SessionMarshaller = marshal.MarshalFrom(
	marshal.FieldOf("state", SessionStateMarshaller, func(s *Session) *SessionState { return &s.State }),
	marshal.FieldOf("xsrfToken", NewXsrfTokenMarshaller(), func(s *Session) *string { return &s.XsrfToken }),
	marshal.FieldOf("agreedToCookiePolicy", marshal.Bool(), func(s *Session) *bool { return &s.AgreedToCookiePolicy }),
	marshal.FieldOf("user", marshal.OptionalOf[PrivateUser](PrivateUserMarshaller), func(s *Session) *marshal.Optional[PrivateUser] { return &s.User }),
	marshal.FieldOf("timeCreated", marshal.Time(), func(s *Session) *time.Time { return &s.TimeCreated }),
	marshal.FieldOf("timeLastUpdated", marshal.Time(), func(s *Session) *time.Time { return &s.TimeLastUpdated }),
)

var UserEventMarshaller = marshal.MarshalFrom(
	marshal.FieldOf("id", marshal.Id(), func(e *UserEvent) *int64 { return &e.Id }),
	marshal.FieldOf("type", UserEventTypeMarshaller, func(e *UserEvent) *UserEventType { return &e.Type }),
	marshal.FieldOf("timestamp", marshal.Time(), func(e *UserEvent) *time.Time { return &e.Timestamp }),
	marshal.FieldOf("data", marshal.NullValue(), func(e *UserEvent) *marshal.Null { return &e.Data }),
)

var SessionEventMarshaller = marshal.MarshalFrom(
	marshal.FieldOf("id", marshal.Id(), func(e *SessionEvent) *int64 { return &e.Id }),
	marshal.FieldOf("type", SessionEventTypeMarshaller, func(e *SessionEvent) *SessionEventType { return &e.Type }),
	marshal.FieldOf("timestamp", marshal.Time(), func(e *SessionEvent) *time.Time { return &e.Timestamp }),
	marshal.FieldOf("data", marshal.NullValue(), func(e *SessionEvent) *marshal.Null { return &e.Data }),
)
