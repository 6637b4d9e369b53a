package client

import (
	"net/http"

	"github.com/neoncity/identity/pkg/identity"
)

// requestTemplate is the static part of one operation's request.
type requestTemplate struct {
	action       string
	method       string
	path         string
	xsrfRequired bool
}

var (
	getOrCreateSessionTemplate = requestTemplate{
		action: "create session",
		method: http.MethodPost,
		path:   "/session",
	}
	getSessionTemplate = requestTemplate{
		action: "retrieve session",
		method: http.MethodGet,
		path:   "/session",
	}
	expireSessionTemplate = requestTemplate{
		action:       "expire session",
		method:       http.MethodDelete,
		path:         "/session",
		xsrfRequired: true,
	}
	agreeToCookiePolicyTemplate = requestTemplate{
		action:       "agree to cookie policy",
		method:       http.MethodPost,
		path:         "/session/agree-to-cookie-policy",
		xsrfRequired: true,
	}
	createUserOnSessionTemplate = requestTemplate{
		action:       "create user",
		method:       http.MethodPost,
		path:         "/user",
		xsrfRequired: true,
	}
	getUserOnSessionTemplate = requestTemplate{
		action: "retrieve user",
		method: http.MethodGet,
		path:   "/user",
	}
	getUserEventsTemplate = requestTemplate{
		action: "retrieve user events",
		method: http.MethodGet,
		path:   "/user/events",
	}
	getUsersInfoTemplate = requestTemplate{
		action: "retrieve users info",
		method: http.MethodGet,
		path:   "/users-info",
	}
)

// requestContext is what a derived client binds for all its calls. It is
// never modified after construction.
type requestContext struct {
	authInfoHeader string
	origin         string
}

// buildHeaders returns a fresh header set for one call. session is only
// consulted when the template is state-changing.
func buildHeaders(context requestContext, template requestTemplate, session *identity.Session) http.Header {
	headers := make(http.Header)
	headers.Set("Accept", "application/json")
	headers.Set("Cache-Control", "no-cache")
	if context.authInfoHeader != "" {
		headers.Set(identity.AuthInfoHeaderName, context.authInfoHeader)
	}
	if context.origin != "" {
		headers.Set("Origin", context.origin)
	}
	if template.xsrfRequired && session != nil {
		headers.Set(identity.XsrfTokenHeaderName, session.XsrfToken)
	}
	return headers
}
