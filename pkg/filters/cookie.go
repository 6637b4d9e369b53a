package filters

import (
	"net/http"
	"time"

	"github.com/neoncity/identity/pkg/crypt"
	"github.com/neoncity/identity/pkg/identity"
	"github.com/neoncity/identity/pkg/marshal"
)

type CookieSettings struct {
	Domain   string
	Path     string
	TTLHours int `validate:"min=1"`
	Secure   bool
}

// WriteAuthInfoCookie seals authInfo into the neoncity-authinfo cookie.
func WriteAuthInfoCookie(writer http.ResponseWriter, encryptor *crypt.Encryptor, settings CookieSettings, authInfo identity.AuthInfo) error {
	packed, err := marshal.PackJSON[identity.AuthInfo](identity.AuthInfoMarshaller, authInfo)
	if err != nil {
		return err
	}
	sealed, err := encryptor.EncryptFact(string(packed))
	if err != nil {
		return err
	}
	http.SetCookie(writer, &http.Cookie{
		Name:     identity.AuthInfoCookieName,
		Value:    sealed,
		Expires:  time.Now().Add(time.Hour * time.Duration(settings.TTLHours)),
		Path:     settings.Path,
		Domain:   settings.Domain,
		Secure:   settings.Secure,
		HttpOnly: true,
	})
	return nil
}

func ClearAuthInfoCookie(writer http.ResponseWriter, settings CookieSettings) {
	http.SetCookie(writer, &http.Cookie{
		Name:     identity.AuthInfoCookieName,
		Value:    "",
		MaxAge:   -1,
		Path:     settings.Path,
		Domain:   settings.Domain,
		Secure:   settings.Secure,
		HttpOnly: true,
	})
}

// ReadAuthInfoCookie opens the neoncity-authinfo cookie, if any.
func ReadAuthInfoCookie(request *http.Request, encryptor *crypt.Encryptor) (identity.AuthInfo, bool, error) {
	cookie, err := request.Cookie(identity.AuthInfoCookieName)
	if err != nil || cookie.Value == "" {
		return identity.AuthInfo{}, false, nil
	}
	opened, err := encryptor.DecryptFact(cookie.Value)
	if err != nil {
		return identity.AuthInfo{}, false, err
	}
	authInfo, err := marshal.ExtractJSON[identity.AuthInfo](identity.AuthInfoMarshaller, []byte(opened))
	if err != nil {
		return identity.AuthInfo{}, false, err
	}
	return authInfo, true, nil
}
