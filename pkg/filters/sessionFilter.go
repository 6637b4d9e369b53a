package filters

import (
	"net/http"

	"github.com/neoncity/identity/pkg/client"
	"github.com/neoncity/identity/pkg/common"
	"github.com/neoncity/identity/pkg/crypt"
	"github.com/neoncity/identity/pkg/identity"
	"github.com/neoncity/identity/pkg/marshal"
	log "github.com/sirupsen/logrus"
	"gopkg.in/go-playground/validator.v9"
)

var validate = validator.New()

// SessionFilter resolves the caller's session with the identity service and
// puts the AuthInfo and Session into the request context. A new or rotated
// AuthInfo is sealed back into the cookie. Auth info the service rejects is
// replaced by a fresh anonymous session, or cleared if that fails too.
type SessionFilter struct {
	next      *common.RequestHandler
	Name      string                `validate:"required"`
	Client    client.IdentityClient `validate:"required"`
	Encryptor *crypt.Encryptor      `validate:"required"`
	Cookie    CookieSettings
}

func NewSessionFilter(
	name string,
	identityClient client.IdentityClient,
	encryptor *crypt.Encryptor,
	cookie CookieSettings,
) *SessionFilter {
	filter := &SessionFilter{
		Name:      name,
		Client:    identityClient,
		Encryptor: encryptor,
		Cookie:    cookie,
	}
	if err := validate.Struct(filter); err != nil {
		panic(err.Error())
	}
	return filter
}

func (filter *SessionFilter) SetNext(nextHandler common.RequestHandler) {
	filter.next = &nextHandler
}

func (filter *SessionFilter) Handle(log *log.Entry, writer http.ResponseWriter, request *http.Request) {
	const stage = "Session filter error. Reason: %v"
	log = log.WithField("filterName", filter.Name)

	authInfo, present := filter.resolveAuthInfo(log, request)
	identityClient := filter.Client
	if present {
		identityClient = identityClient.WithContext(authInfo, request.Header.Get("Origin"))
	}

	newAuthInfo, session, err := identityClient.GetOrCreateSession(request.Context())
	rejected := present && client.IsUnauthorized(err)
	if rejected {
		log.Warnf("Presented auth info was rejected. Starting a new session. Reason: %v", err)
		present = false
		newAuthInfo, session, err = filter.Client.GetOrCreateSession(request.Context())
	}
	if err != nil {
		log.Errorf(stage, err)
		if rejected {
			ClearAuthInfoCookie(writer, filter.Cookie)
		}
		if client.IsUnauthorized(err) {
			writer.WriteHeader(http.StatusUnauthorized)
		} else {
			writer.WriteHeader(http.StatusBadGateway)
		}
		return
	}

	if !present || newAuthInfo != authInfo {
		log.Debugf("Issuing auth info cookie for session: %v", newAuthInfo.SessionId)
		if err := WriteAuthInfoCookie(writer, filter.Encryptor, filter.Cookie, newAuthInfo); err != nil {
			log.Errorf(stage, err)
			writer.WriteHeader(http.StatusInternalServerError)
			return
		}
	}

	log.Debugf("Retrieved session. State: %v", session.State)
	ctx := common.WithSession(common.WithAuthInfo(request.Context(), newAuthInfo), session)
	newRequest := request.WithContext(ctx)

	if filter.next != nil {
		(*filter.next).Handle(log, writer, newRequest)
	} else {
		log.Debugf("Session filter: %v doesn't have next handler", filter.Name)
	}
}

func (filter *SessionFilter) resolveAuthInfo(log *log.Entry, request *http.Request) (identity.AuthInfo, bool) {
	authInfo, found, err := ReadAuthInfoCookie(request, filter.Encryptor)
	if err != nil {
		log.Warnf("Auth info cookie is unreadable. Ignoring it. Reason: %v", err)
	}
	if found {
		return authInfo, true
	}

	header := request.Header.Get(identity.AuthInfoHeaderName)
	if header == "" {
		log.Tracef("No auth info presented. Session will be created")
		return identity.AuthInfo{}, false
	}
	authInfo, err = marshal.ExtractJSON[identity.AuthInfo](identity.AuthInfoMarshaller, []byte(header))
	if err != nil {
		log.Warnf("Auth info header is malformed. Ignoring it. Reason: %v", err)
		return identity.AuthInfo{}, false
	}
	return authInfo, true
}
