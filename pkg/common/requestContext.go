package common

import (
	"context"

	"github.com/neoncity/identity/pkg/identity"
)

func WithAuthInfo(ctx context.Context, authInfo identity.AuthInfo) context.Context {
	return context.WithValue(ctx, AuthInfoContextKey, authInfo)
}

func AuthInfoFrom(ctx context.Context) (identity.AuthInfo, bool) {
	authInfo, ok := ctx.Value(AuthInfoContextKey).(identity.AuthInfo)
	return authInfo, ok
}

func WithSession(ctx context.Context, session identity.Session) context.Context {
	return context.WithValue(ctx, SessionContextKey, session)
}

func SessionFrom(ctx context.Context) (identity.Session, bool) {
	session, ok := ctx.Value(SessionContextKey).(identity.Session)
	return session, ok
}

func WithUser(ctx context.Context, user identity.PrivateUser) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

func UserFrom(ctx context.Context) (identity.PrivateUser, bool) {
	user, ok := ctx.Value(UserContextKey).(identity.PrivateUser)
	return user, ok
}
