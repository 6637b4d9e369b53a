// Package identity holds the data model shared by the identity service and
// its clients: entities, their wire marshallers and the published header and
// cookie names.
package identity

import (
	"regexp"

	"github.com/neoncity/identity/pkg/marshal"
	uuid "github.com/satori/go.uuid"
)

const (
	// AuthInfoHeaderName carries the packed AuthInfo as a JSON string.
	AuthInfoHeaderName = "X-NeonCity-AuthInfo"
	// AuthInfoCookieName carries session identity for browser contexts.
	AuthInfoCookieName = "neoncity-authinfo"
	// XsrfTokenHeaderName echoes the session xsrf token on state-changing calls.
	XsrfTokenHeaderName = "X-NeonCity-XsrfToken"
)

var (
	alnumRegExp      = regexp.MustCompile(`^[0-9a-zA-Z_-]+$`)
	userIdHashRegExp = regexp.MustCompile(`^[0-9a-f]{64}$`)
	xsrfTokenRegExp  = regexp.MustCompile(`^[0-9a-zA-Z+/=]{64}$`)
)

func alnumFilter(s string) (string, error) {
	if len(s) == 0 {
		return "", marshal.NewExtractError("Expected a string to be non-empty")
	}
	if !alnumRegExp.MatchString(s) {
		return "", marshal.NewExtractError("Should only contain alphanumerics")
	}
	return s, nil
}

func NewAccessTokenMarshaller() marshal.Marshaller[string] {
	return marshal.FilteredString(alnumFilter)
}

func NewAuthorizationCodeMarshaller() marshal.Marshaller[string] {
	return marshal.FilteredString(alnumFilter)
}

func NewUserIdHashMarshaller() marshal.Marshaller[string] {
	return marshal.FilteredString(func(s string) (string, error) {
		if len(s) != 64 {
			return "", marshal.NewExtractError("Expected string to be 64 characters")
		}
		if !userIdHashRegExp.MatchString(s) {
			return "", marshal.NewExtractError("Expected all hex characters")
		}
		return s, nil
	})
}

func NewXsrfTokenMarshaller() marshal.Marshaller[string] {
	return marshal.FilteredString(func(s string) (string, error) {
		if len(s) != 64 {
			return "", marshal.NewExtractError("Expected string to be 64 characters")
		}
		if !xsrfTokenRegExp.MatchString(s) {
			return "", marshal.NewExtractError("Expected a base64 string")
		}
		return s, nil
	})
}

// NewSessionIdMarshaller accepts UUIDs in canonical lowercase form only, so
// that packing is the identity.
func NewSessionIdMarshaller() marshal.Marshaller[string] {
	return marshal.FilteredString(func(s string) (string, error) {
		id, err := uuid.FromString(s)
		if err != nil || id.String() != s {
			return "", marshal.NewExtractError("Expected a UUID")
		}
		return s, nil
	})
}
