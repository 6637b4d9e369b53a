package auth

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"

	"github.com/neoncity/identity/pkg/client"
	"github.com/neoncity/identity/pkg/common"
	"github.com/neoncity/identity/pkg/crypt"
	"github.com/neoncity/identity/pkg/filters"
	"github.com/neoncity/identity/pkg/identity"
	"github.com/sirupsen/logrus"
)

type auth0Provider struct {
	identityClient        client.IdentityClient
	encryptor             *crypt.Encryptor
	cookie                filters.CookieSettings
	httpClient            common.Doer
	successLoginUrl       string
	auth0ClientId         string
	auth0ClientSecret     string
	redirectUri           string
	grantType             string
	accessTokenRequestUrl string
}

// NewAuth0Provider handles the Auth0 callback: it exchanges the authorization
// code for an access token, attaches the token to the session's AuthInfo and
// gets or creates the user on the session.
func NewAuth0Provider(
	identityClient client.IdentityClient,
	encryptor *crypt.Encryptor,
	cookie filters.CookieSettings,
	httpClient common.Doer,
	successLoginUrl string,
	auth0ClientId string,
	auth0ClientSecret string,
	redirectUri string,
	accessTokenRequestUrl string,
) *auth0Provider {
	return &auth0Provider{
		identityClient:        identityClient,
		encryptor:             encryptor,
		cookie:                cookie,
		httpClient:            httpClient,
		successLoginUrl:       successLoginUrl,
		auth0ClientId:         auth0ClientId,
		auth0ClientSecret:     auth0ClientSecret,
		redirectUri:           redirectUri,
		grantType:             "authorization_code",
		accessTokenRequestUrl: accessTokenRequestUrl,
	}
}

var (
	authorizationCodeMarshaller = identity.NewAuthorizationCodeMarshaller()
	accessTokenMarshaller       = identity.NewAccessTokenMarshaller()
)

func (provider *auth0Provider) Handle(log *logrus.Entry, writer http.ResponseWriter, request *http.Request) {
	const stage = "Performing auth0 authorisation error. Reason: %v"

	authInfo, found := common.AuthInfoFrom(request.Context())
	session, sessionFound := common.SessionFrom(request.Context())
	if !found || !sessionFound {
		log.Errorf(stage, "Session not found in the request context.")
		writer.WriteHeader(http.StatusInternalServerError)
		return
	}

	if session.HasUser() {
		log.Debugf("Session already has a user. Skip authentication.")
		http.Redirect(writer, request, provider.successLoginUrl, http.StatusFound)
		return
	}

	authorizationCode, err := getAuthorizationCode(request)
	if err != nil {
		log.Errorf(stage, err)
		writer.WriteHeader(http.StatusForbidden)
		return
	}

	accessToken, err := provider.retrieveAccessToken(log, authorizationCode)
	if err != nil {
		log.Errorf(stage, err)
		writer.WriteHeader(http.StatusForbidden)
		return
	}

	newAuthInfo := authInfo.WithAccessToken(accessToken)
	linkedSession, err := provider.identityClient.
		WithContext(newAuthInfo, request.Header.Get("Origin")).
		GetOrCreateUserOnSession(request.Context(), session)
	if err != nil {
		log.Errorf(stage, err)
		if client.IsUnauthorized(err) {
			writer.WriteHeader(http.StatusUnauthorized)
		} else {
			writer.WriteHeader(http.StatusBadGateway)
		}
		return
	}

	if err := filters.WriteAuthInfoCookie(writer, provider.encryptor, provider.cookie, newAuthInfo); err != nil {
		log.Errorf(stage, err)
		writer.WriteHeader(http.StatusInternalServerError)
		return
	}

	log.Debugf("User linked with session. Linked: %v", linkedSession.HasUser())
	http.Redirect(writer, request, provider.successLoginUrl, http.StatusFound)
}

func getAuthorizationCode(request *http.Request) (string, error) {
	const stage = "Getting authorization code error."

	if err := request.URL.Query().Get("error"); err != "" {
		return "", newErr(stage, err)
	}
	code, err := authorizationCodeMarshaller.Extract(request.URL.Query().Get("code"))
	if err != nil {
		return "", newErr(stage, err)
	}
	return code, nil
}

func (provider *auth0Provider) retrieveAccessToken(log *logrus.Entry, authorizationCode string) (string, error) {
	const stage = "Retrieving access token error."

	form := url.Values{
		"code":          {authorizationCode},
		"client_id":     {provider.auth0ClientId},
		"client_secret": {provider.auth0ClientSecret},
		"redirect_uri":  {provider.redirectUri},
		"grant_type":    {provider.grantType},
	}
	req, err := http.NewRequest(http.MethodPost, provider.accessTokenRequestUrl, strings.NewReader(form.Encode()))
	if err != nil {
		return "", newErr(stage, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := provider.httpClient.Do(req)
	if err != nil {
		return "", newErr(stage, err)
	}
	defer resp.Body.Close()

	responseBody, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return "", newErr(stage, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", newErr(stage, string(responseBody))
	}
	log.Tracef("Got token response body: %s", string(responseBody))

	var tokenResponse Auth0Token
	if err := json.Unmarshal(responseBody, &tokenResponse); err != nil {
		return "", newErr(stage, err)
	}
	accessToken, err := accessTokenMarshaller.Extract(tokenResponse.AccessToken)
	if err != nil {
		return "", newErr(stage, err)
	}
	return accessToken, nil
}

func newErr(stage string, reason interface{}) error {
	return fmt.Errorf("%v Reason: %v", stage, reason)
}

type Auth0Token struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}
