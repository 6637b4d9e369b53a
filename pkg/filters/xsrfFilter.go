package filters

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/neoncity/identity/pkg/common"
	"github.com/neoncity/identity/pkg/identity"
	"github.com/sirupsen/logrus"
)

type methodsSet struct {
	methodsMap map[string]bool
}

func newMethodsSet(methods []string) *methodsSet {
	methodsMap := make(map[string]bool)
	for _, method := range methods {
		methodsMap[method] = true
	}
	return &methodsSet{methodsMap: methodsMap}
}

func (set *methodsSet) Contains(method string) bool {
	return set.methodsMap[method]
}

// XsrfFilter hands the session xsrf token out on safe methods and demands it
// back on every other method.
type XsrfFilter struct {
	next           *common.RequestHandler
	Name           string      `validate:"required"`
	SafeMethodsSet *methodsSet `validate:"required"`
}

var DefaultSafeMethods = []string{http.MethodGet, http.MethodHead, http.MethodOptions}

func NewXsrfFilter(name string, safeMethods []string) *XsrfFilter {
	if len(safeMethods) == 0 {
		safeMethods = DefaultSafeMethods
	}
	filter := &XsrfFilter{
		Name:           name,
		SafeMethodsSet: newMethodsSet(safeMethods),
	}
	if err := validate.Struct(filter); err != nil {
		panic(err.Error())
	}
	return filter
}

func (filter *XsrfFilter) SetNext(nextHandler common.RequestHandler) {
	filter.next = &nextHandler
}

func (filter *XsrfFilter) Handle(log *logrus.Entry, writer http.ResponseWriter, request *http.Request) {
	const stage = "Xsrf filter error. Reason: %v"
	log = log.WithField("filterName", filter.Name)

	session, found := common.SessionFrom(request.Context())
	if !found {
		err := fmt.Errorf("session not found. Session filter required to be performed before xsrf filter")
		log.Errorf(stage, err)
		writer.WriteHeader(http.StatusInternalServerError)
		_, _ = fmt.Fprintf(writer, stage, err.Error())
		return
	}

	if filter.SafeMethodsSet.Contains(request.Method) {
		writer.Header().Set(identity.XsrfTokenHeaderName, session.XsrfToken)
	} else if err := checkXsrfHeader(request.Header, session); err != nil {
		log.Debugf(stage, err)
		writer.WriteHeader(http.StatusForbidden)
		_, _ = fmt.Fprint(writer, err.Error())
		return
	}

	if filter.next != nil {
		(*filter.next).Handle(log, writer, request)
	} else {
		log.Debugf("Xsrf filter: %v doesn't have next handler", filter.Name)
	}
}

func checkXsrfHeader(headers http.Header, session identity.Session) error {
	header := headers.Get(identity.XsrfTokenHeaderName)
	if header == "" {
		return fmt.Errorf("resolving xsrf header error. Xsrf header: %v is empty", identity.XsrfTokenHeaderName)
	}
	if subtle.ConstantTimeCompare([]byte(header), []byte(session.XsrfToken)) != 1 {
		return fmt.Errorf("invalid xsrf token")
	}
	return nil
}
