package stub

import (
	"context"
	"sync"

	"github.com/neoncity/identity/pkg/client"
	"github.com/neoncity/identity/pkg/identity"
)

// FakeIdentityClient answers identity calls from canned values and records
// the auth info and origin every call was made with.
type FakeIdentityClient struct {
	AuthInfo identity.AuthInfo
	Session  identity.Session
	Err      error
	// BoundErr, when set, is returned by clients bound to an auth info.
	BoundErr error
	// UserSession is returned by the user calls. Defaults to Session.
	UserSession *identity.Session
	Events      []identity.UserEvent
	UsersInfo   []identity.PublicUser

	boundAuthInfo *identity.AuthInfo
	boundOrigin   string
	calls         *fakeCalls
}

type fakeCalls struct {
	lock    sync.Mutex
	entries []FakeCall
}

type FakeCall struct {
	Operation string
	AuthInfo  *identity.AuthInfo
	Origin    string
}

func NewFakeIdentityClient(authInfo identity.AuthInfo, session identity.Session) *FakeIdentityClient {
	return &FakeIdentityClient{AuthInfo: authInfo, Session: session, calls: &fakeCalls{}}
}

// Calls lists the calls made through this client and every client derived from it.
func (fake *FakeIdentityClient) Calls() []FakeCall {
	fake.calls.lock.Lock()
	defer fake.calls.lock.Unlock()
	return append([]FakeCall(nil), fake.calls.entries...)
}

func (fake *FakeIdentityClient) record(operation string) {
	fake.calls.lock.Lock()
	defer fake.calls.lock.Unlock()
	fake.calls.entries = append(fake.calls.entries, FakeCall{Operation: operation, AuthInfo: fake.boundAuthInfo, Origin: fake.boundOrigin})
}

func (fake *FakeIdentityClient) WithAuthInfo(authInfo identity.AuthInfo) client.IdentityClient {
	return fake.WithContext(authInfo, fake.boundOrigin)
}

func (fake *FakeIdentityClient) WithContext(authInfo identity.AuthInfo, origin string) client.IdentityClient {
	derived := *fake
	derived.boundAuthInfo = &authInfo
	derived.boundOrigin = origin
	return &derived
}

func (fake *FakeIdentityClient) GetOrCreateSession(ctx context.Context) (identity.AuthInfo, identity.Session, error) {
	fake.record("GetOrCreateSession")
	if err := fake.err(); err != nil {
		return identity.AuthInfo{}, identity.Session{}, err
	}
	return fake.AuthInfo, fake.Session, nil
}

func (fake *FakeIdentityClient) GetSession(ctx context.Context) (identity.Session, error) {
	fake.record("GetSession")
	return fake.Session, fake.err()
}

func (fake *FakeIdentityClient) ExpireSession(ctx context.Context, session identity.Session) error {
	fake.record("ExpireSession")
	return fake.err()
}

func (fake *FakeIdentityClient) AgreeToCookiePolicyForSession(ctx context.Context, session identity.Session) (identity.Session, error) {
	fake.record("AgreeToCookiePolicyForSession")
	session.AgreedToCookiePolicy = true
	return session, fake.err()
}

func (fake *FakeIdentityClient) GetOrCreateUserOnSession(ctx context.Context, session identity.Session) (identity.Session, error) {
	fake.record("GetOrCreateUserOnSession")
	return fake.userSession(), fake.err()
}

func (fake *FakeIdentityClient) GetUserOnSession(ctx context.Context) (identity.Session, error) {
	fake.record("GetUserOnSession")
	return fake.userSession(), fake.err()
}

func (fake *FakeIdentityClient) GetUserEvents(ctx context.Context) ([]identity.UserEvent, error) {
	fake.record("GetUserEvents")
	return fake.Events, fake.err()
}

func (fake *FakeIdentityClient) GetUsersInfo(ctx context.Context, ids []int64) ([]identity.PublicUser, error) {
	fake.record("GetUsersInfo")
	return fake.UsersInfo, fake.err()
}

func (fake *FakeIdentityClient) userSession() identity.Session {
	if fake.UserSession != nil {
		return *fake.UserSession
	}
	return fake.Session
}

func (fake *FakeIdentityClient) err() error {
	if fake.boundAuthInfo != nil && fake.BoundErr != nil {
		return fake.BoundErr
	}
	return fake.Err
}
