package auth

import (
	"net/http"

	"github.com/neoncity/identity/pkg/client"
	"github.com/neoncity/identity/pkg/common"
	"github.com/neoncity/identity/pkg/filters"
	"github.com/sirupsen/logrus"
)

type logoutHandler struct {
	identityClient   client.IdentityClient
	cookie           filters.CookieSettings
	successLogoutUrl string
}

// NewLogoutHandler expires the session and drops the auth info cookie.
func NewLogoutHandler(identityClient client.IdentityClient, cookie filters.CookieSettings, successLogoutUrl string) *logoutHandler {
	return &logoutHandler{
		identityClient:   identityClient,
		cookie:           cookie,
		successLogoutUrl: successLogoutUrl,
	}
}

func (handler *logoutHandler) Handle(log *logrus.Entry, writer http.ResponseWriter, request *http.Request) {
	const stage = "Logout error. Reason: %v"

	authInfo, found := common.AuthInfoFrom(request.Context())
	session, sessionFound := common.SessionFrom(request.Context())
	if !found || !sessionFound {
		log.Errorf(stage, "Session not found in the request context.")
		writer.WriteHeader(http.StatusInternalServerError)
		return
	}

	err := handler.identityClient.
		WithContext(authInfo, request.Header.Get("Origin")).
		ExpireSession(request.Context(), session)
	if err != nil && !client.IsUnauthorized(err) {
		log.Errorf(stage, err)
		writer.WriteHeader(http.StatusBadGateway)
		return
	}

	filters.ClearAuthInfoCookie(writer, handler.cookie)
	http.Redirect(writer, request, handler.successLogoutUrl, http.StatusSeeOther)
}
