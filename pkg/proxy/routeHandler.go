package proxy

import (
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/sirupsen/logrus"
)

// ReverseProxyHandler forwards requests that passed the filter chain to the
// upstream service.
type ReverseProxyHandler struct {
	TargetAddress url.URL
	proxy         *httputil.ReverseProxy
}

func NewReverseProxyHandler(targetAddress url.URL) *ReverseProxyHandler {
	return &ReverseProxyHandler{
		TargetAddress: targetAddress,
		proxy:         httputil.NewSingleHostReverseProxy(&targetAddress),
	}
}

func (router *ReverseProxyHandler) Handle(log *logrus.Entry, writer http.ResponseWriter, request *http.Request) {
	log.Debugf("Proxying request to %s", router.TargetAddress.Host)
	router.proxy.ServeHTTP(writer, request)
}
