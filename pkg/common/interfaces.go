package common

import (
	"net/http"

	"github.com/sirupsen/logrus"
)

// Doer sends one HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(request *http.Request) (*http.Response, error)
}

type RequestHandler interface {
	Handle(log *logrus.Entry, writer http.ResponseWriter, request *http.Request)
}

type RequestChainedHandler interface {
	Handle(log *logrus.Entry, writer http.ResponseWriter, request *http.Request)
	SetNext(handler RequestHandler)
}

// AsHTTPHandler roots a handler chain so it can be mounted on a ServeMux.
func AsHTTPHandler(handler RequestHandler, log *logrus.Entry) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		handler.Handle(log.WithField("path", request.URL.Path), writer, request)
	})
}
