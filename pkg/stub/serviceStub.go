package stub

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
)

// CreateServiceStub serves canned responses. Mocks sharing a URL are told
// apart by method; unmatched requests get 404, failed header expectations 400.
func CreateServiceStub(mocks []RequestMock) *ServiceStub {
	stub := &ServiceStub{hits: make(map[string]int)}
	mux := http.NewServeMux()

	byUrl := make(map[string][]RequestMock)
	var urls []string
	for _, mock := range mocks {
		if _, seen := byUrl[mock.Request.Url]; !seen {
			urls = append(urls, mock.Request.Url)
		}
		byUrl[mock.Request.Url] = append(byUrl[mock.Request.Url], mock)
	}

	for _, pattern := range urls {
		registered := byUrl[pattern]
		mux.HandleFunc(pattern, func(writer http.ResponseWriter, request *http.Request) {
			stub.recordHit(request)

			var mock *RequestMock
			for i := range registered {
				if registered[i].Request.Method == request.Method {
					mock = &registered[i]
					break
				}
			}
			if mock == nil {
				writer.WriteHeader(404)
				_, _ = fmt.Fprint(writer, "No mock for method '"+request.Method+"'.")
				return
			}

			for _, check := range mock.Request.Headers {
				header := request.Header.Get(check.Name)
				matched, err := regexp.MatchString(check.Regexp, header)
				if err != nil {
					writer.WriteHeader(500)
					_, _ = fmt.Fprint(writer, "Parsing header regexp error: "+check.Regexp+". Detail: "+err.Error())
					return
				}
				if !matched {
					writer.WriteHeader(400)
					_, _ = fmt.Fprint(writer, "Header not matched regexp. Header: "+check.Name+"="+header+". Regexp: "+check.Regexp)
					return
				}
			}

			var bodyBytes []byte
			if mock.Response.Body != nil {
				var err error
				bodyBytes, err = mock.Response.Body.getString()
				if err != nil {
					writer.WriteHeader(500)
					_, _ = fmt.Fprint(writer, "Writing body error: "+err.Error())
					return
				}
			}
			for header, value := range mock.Response.Headers {
				writer.Header().Add(header, value)
			}
			writer.WriteHeader(mock.Response.Status)
			_, _ = writer.Write(bodyBytes)
		})
	}

	stub.Server = httptest.NewServer(mux)
	return stub
}

type ServiceStub struct {
	*httptest.Server
	lock sync.Mutex
	hits map[string]int
}

func (stub *ServiceStub) recordHit(request *http.Request) {
	stub.lock.Lock()
	defer stub.lock.Unlock()
	stub.hits[request.Method+" "+request.URL.Path]++
}

// Hits counts the requests received for method and path.
func (stub *ServiceStub) Hits(method string, path string) int {
	stub.lock.Lock()
	defer stub.lock.Unlock()
	return stub.hits[method+" "+path]
}

// Host is the host:port the stub listens on.
func (stub *ServiceStub) Host() string {
	return stub.Listener.Addr().String()
}

type RequestMock struct {
	Request  Request
	Response Response
}

type Header struct {
	Name   string
	Regexp string
}

type Request struct {
	Method  string
	Url     string
	Headers []Header
}

type StringedBody interface {
	getString() ([]byte, error)
}

type Response struct {
	Status  int
	Headers map[string]string
	Body    StringedBody
}

type JsonMap map[string]interface{}

func (s JsonMap) getString() ([]byte, error) {
	return json.Marshal(s)
}

// RawBody is sent verbatim, e.g. to simulate a malformed payload.
type RawBody string

func (s RawBody) getString() ([]byte, error) {
	return []byte(s), nil
}
