package auth

import (
	"errors"
	"net/http"

	"github.com/neoncity/identity/pkg/common"
	"github.com/neoncity/identity/pkg/identity"
	log "github.com/sirupsen/logrus"
)

type userAuthenticationFilter struct {
	next             *common.RequestHandler
	Name             string
	userDataRequired bool
}

// NewUserAuthenticationFilter puts the session user into the request context.
// When userDataRequired is set, sessions without a user are answered 401.
func NewUserAuthenticationFilter(
	name string,
	userDataRequired bool,
) *userAuthenticationFilter {
	return &userAuthenticationFilter{
		next:             nil,
		Name:             name,
		userDataRequired: userDataRequired,
	}
}

func (filter *userAuthenticationFilter) Handle(log *log.Entry, writer http.ResponseWriter, request *http.Request) {
	log = log.WithField("filterName", filter.Name)
	enchantedRequest, err := filter.updateRequestContext(log, request)
	if err != nil {
		log.Debugf("Getting user for session error. Reason: %v", err.Error())
		if filter.userDataRequired {
			writer.WriteHeader(http.StatusUnauthorized)
			return
		}
	}
	if filter.next != nil {
		(*filter.next).Handle(log, writer, enchantedRequest)
	} else {
		log.Debugf("User authentication filter: %v doesn't have next handler", filter.Name)
	}
}

func (filter *userAuthenticationFilter) updateRequestContext(log *log.Entry, request *http.Request) (*http.Request, error) {
	session, found := common.SessionFrom(request.Context())
	if !found {
		return request, errors.New("session not found in the request context")
	}
	if !session.HasUser() {
		return request, errors.New("session is not linked with a user")
	}

	user, _ := session.User.Get()
	log.Debugf("User found and put to context. Id: %v", user.Id)
	return request.WithContext(common.WithUser(request.Context(), user)), nil
}

func (filter *userAuthenticationFilter) SetNext(handler common.RequestHandler) {
	filter.next = &handler
}

type UserSerializer interface {
	Serialize(user *identity.PrivateUser) (string, error)
}
