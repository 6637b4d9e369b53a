package auth

import (
	"net/http"

	"github.com/neoncity/identity/pkg/common"
	log "github.com/sirupsen/logrus"
)

type userDataSenderFilter struct {
	next           *common.RequestHandler
	Name           string
	userSerializer UserSerializer
	userDataHeader string
}

// NewUserDataSenderFilter forwards the session user to the next hop in
// userDataHeader, serialized by userSerializer.
func NewUserDataSenderFilter(
	name string,
	userSerializer UserSerializer,
	userDataHeader string,
) *userDataSenderFilter {
	return &userDataSenderFilter{
		next:           nil,
		Name:           name,
		userSerializer: userSerializer,
		userDataHeader: userDataHeader,
	}
}

func (filter *userDataSenderFilter) SetNext(handler common.RequestHandler) {
	filter.next = &handler
}

func (filter *userDataSenderFilter) Handle(log *log.Entry, writer http.ResponseWriter, request *http.Request) {
	log = log.WithField("filterName", filter.Name)
	filter.updateRequest(log, request)
	if filter.next != nil {
		(*filter.next).Handle(log, writer, request)
	} else {
		log.Debugf("User data sender filter: %v doesn't have next handler", filter.Name)
	}
}

func (filter *userDataSenderFilter) updateRequest(log *log.Entry, request *http.Request) {
	// The header is only ever set by this filter.
	request.Header.Del(filter.userDataHeader)

	session, found := common.SessionFrom(request.Context())
	if !found {
		log.Warnf("Session not found in the request context. Skip user data sending.")
		return
	}

	user, found := session.User.Get()
	if !session.HasUser() || !found {
		log.Debugf("Session has no user. Skip user data sending.")
		return
	}

	token, err := filter.userSerializer.Serialize(&user)
	if err != nil {
		log.Errorf("User data serializing error. Skip user data sending. %+v", err)
		return
	}

	request.Header.Set(filter.userDataHeader, token)
}
