package filters

import (
	"bytes"
	"net/http"
	templ "text/template"

	"github.com/neoncity/identity/pkg/common"
	"github.com/neoncity/identity/pkg/identity"
	log "github.com/sirupsen/logrus"
)

type LogFilter struct {
	next     *common.RequestHandler
	template *templ.Template
	Name     string
}

func (filter *LogFilter) SetNext(nextHandler common.RequestHandler) {
	filter.next = &nextHandler
}

func (filter *LogFilter) Handle(log *log.Entry, writer http.ResponseWriter, request *http.Request) {
	log = log.WithField("filterName", filter.Name)

	session, found := common.SessionFrom(request.Context())
	data := struct {
		Request *http.Request
		Filter  *LogFilter
		Session *identity.Session
	}{
		Request: request,
		Filter:  filter,
	}
	if found {
		data.Session = &session
	}

	var tpl bytes.Buffer
	if err := filter.template.Execute(&tpl, data); err != nil {
		log.Warnf("Log filter error: %v. Template error: %v", filter.Name, err)
	} else {
		log.Info(tpl.String())
	}

	if filter.next != nil {
		(*filter.next).Handle(log, writer, request)
	} else {
		log.Debugf("Log filter error: %v. Next handler is empty", filter.Name)
	}
}

// Factory

func CreateLogFilter(name string, template string) *LogFilter {
	parse, err := templ.New(name).Parse(template)
	if err != nil {
		log.Warnf("Log filter templ error: %v. Skip filter", err)
		return nil
	}
	return &LogFilter{
		Name:     name,
		template: parse,
	}
}
