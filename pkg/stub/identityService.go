package stub

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/neoncity/identity/pkg/cache"
	"github.com/neoncity/identity/pkg/identity"
	"github.com/neoncity/identity/pkg/marshal"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"gopkg.in/go-playground/validator.v9"
)

// IdentityStorePort is what the in-memory identity service persists into.
type IdentityStorePort interface {
	CreateNewSessionId() string
	PutSession(session cache.SessionRecord)
	GetSession(id string) (cache.SessionRecord, bool)
	NextUserId() (int64, error)
	PutUser(user identity.PrivateUser)
	FindUserByHash(userIdHash string) (identity.PrivateUser, bool)
	FindUserById(id int64) (identity.PrivateUser, bool)
	AppendUserEvent(userIdHash string, eventType identity.UserEventType, timestamp time.Time) error
	UserEvents(userIdHash string) []identity.UserEvent
	AppendSessionEvent(sessionId string, eventType identity.SessionEventType, timestamp time.Time) error
}

// IdentityService answers the identity HTTP surface from an in-memory store.
// Users are keyed by the sha256 of the Auth0 access token they present.
type IdentityService struct {
	Store             IdentityStorePort `validate:"required"`
	DefaultPictureUri string            `validate:"required,url"`
	DefaultLanguage   string            `validate:"required"`
	now               func() time.Time
	mux               *http.ServeMux
	// writeLock serialises read-modify-write of session and user records.
	writeLock sync.Mutex
}

var validate = validator.New()

func NewIdentityService(store IdentityStorePort, defaultPictureUri string, defaultLanguage string) *IdentityService {
	service := &IdentityService{
		Store:             store,
		DefaultPictureUri: defaultPictureUri,
		DefaultLanguage:   defaultLanguage,
		now:               func() time.Time { return time.Now().UTC() },
		mux:               http.NewServeMux(),
	}
	if err := validate.Struct(service); err != nil {
		panic(err.Error())
	}
	if _, err := marshal.SecureWebUri().Extract(defaultPictureUri); err != nil {
		panic(fmt.Sprintf("Default picture uri %q error. Reason: %v", defaultPictureUri, err))
	}
	if _, err := marshal.LanguageTag().Extract(defaultLanguage); err != nil {
		panic(fmt.Sprintf("Default language %q error. Reason: %v", defaultLanguage, err))
	}

	service.mux.HandleFunc("/session", service.handleSession)
	service.mux.HandleFunc("/session/agree-to-cookie-policy", service.handleAgreeToCookiePolicy)
	service.mux.HandleFunc("/user", service.handleUser)
	service.mux.HandleFunc("/user/events", service.handleUserEvents)
	service.mux.HandleFunc("/users-info", service.handleUsersInfo)
	return service
}

func (service *IdentityService) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	log.Debugf("Identity service request: %s %s", request.Method, request.URL.Path)
	service.mux.ServeHTTP(writer, request)
}

func (service *IdentityService) handleSession(writer http.ResponseWriter, request *http.Request) {
	switch request.Method {
	case http.MethodPost:
		service.getOrCreateSession(writer, request)
	case http.MethodGet:
		_, record, ok := service.activeSession(writer, request)
		if !ok {
			return
		}
		service.writeSession(writer, http.StatusOK, record)
	case http.MethodDelete:
		service.expireSession(writer, request)
	default:
		writer.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (service *IdentityService) getOrCreateSession(writer http.ResponseWriter, request *http.Request) {
	authInfo, present, err := readAuthInfo(request)
	if err != nil {
		writeError(writer, http.StatusBadRequest, err)
		return
	}

	if present {
		if record, found := service.Store.GetSession(authInfo.SessionId); found && record.State.IsActive() {
			service.writeAuthInfoAndSession(writer, http.StatusOK, authInfo, record)
			return
		}
	}

	now := service.now()
	xsrfToken, err := newXsrfToken()
	if err != nil {
		writeError(writer, http.StatusInternalServerError, err)
		return
	}
	record := cache.SessionRecord{
		Id:              service.Store.CreateNewSessionId(),
		State:           identity.SessionStateActive,
		XsrfToken:       xsrfToken,
		TimeCreated:     now,
		TimeLastUpdated: now,
	}
	service.Store.PutSession(record)
	if err := service.Store.AppendSessionEvent(record.Id, identity.SessionEventCreated, now); err != nil {
		writeError(writer, http.StatusInternalServerError, err)
		return
	}

	newAuthInfo := identity.NewAuthInfo(record.Id)
	if present {
		newAuthInfo.Auth0AccessToken = authInfo.Auth0AccessToken
	}
	service.writeAuthInfoAndSession(writer, http.StatusCreated, newAuthInfo, record)
}

func (service *IdentityService) expireSession(writer http.ResponseWriter, request *http.Request) {
	service.writeLock.Lock()
	defer service.writeLock.Unlock()
	_, record, ok := service.activeSession(writer, request)
	if !ok || !checkXsrf(writer, request, record) {
		return
	}

	now := service.now()
	record.State = identity.SessionStateExpired
	record.TimeLastUpdated = now
	service.Store.PutSession(record)
	if err := service.Store.AppendSessionEvent(record.Id, identity.SessionEventExpired, now); err != nil {
		writeError(writer, http.StatusInternalServerError, err)
		return
	}
	writer.WriteHeader(http.StatusNoContent)
}

func (service *IdentityService) handleAgreeToCookiePolicy(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		writer.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	service.writeLock.Lock()
	defer service.writeLock.Unlock()
	_, record, ok := service.activeSession(writer, request)
	if !ok || !checkXsrf(writer, request, record) {
		return
	}

	now := service.now()
	record.AgreedToCookiePolicy = true
	record.TimeLastUpdated = now
	service.Store.PutSession(record)
	if err := service.Store.AppendSessionEvent(record.Id, identity.SessionEventAgreedToCookiePolicy, now); err != nil {
		writeError(writer, http.StatusInternalServerError, err)
		return
	}

	if user, found := service.Store.FindUserByHash(record.UserIdHash); found && !user.AgreedToCookiePolicy {
		user.AgreedToCookiePolicy = true
		user.TimeLastUpdated = now
		service.Store.PutUser(user)
		if err := service.Store.AppendUserEvent(user.Auth0UserIdHash, identity.UserEventAgreedToCookiePolicy, now); err != nil {
			writeError(writer, http.StatusInternalServerError, err)
			return
		}
	}

	service.writeSession(writer, http.StatusOK, record)
}

func (service *IdentityService) handleUser(writer http.ResponseWriter, request *http.Request) {
	switch request.Method {
	case http.MethodGet:
		authInfo, record, ok := service.activeSession(writer, request)
		if !ok {
			return
		}
		if !authInfo.Auth0AccessToken.IsPresent() {
			writeError(writer, http.StatusUnauthorized, fmt.Errorf("access token required"))
			return
		}
		if _, linked := linkedUserHash(authInfo, record); !linked {
			writeError(writer, http.StatusNotFound, fmt.Errorf("no user on session for access token"))
			return
		}
		service.writeSession(writer, http.StatusOK, record)
	case http.MethodPost:
		service.createUserOnSession(writer, request)
	default:
		writer.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (service *IdentityService) createUserOnSession(writer http.ResponseWriter, request *http.Request) {
	service.writeLock.Lock()
	defer service.writeLock.Unlock()
	authInfo, record, ok := service.activeSession(writer, request)
	if !ok || !checkXsrf(writer, request, record) {
		return
	}
	accessToken, present := authInfo.Auth0AccessToken.Get()
	if !present {
		writeError(writer, http.StatusUnauthorized, fmt.Errorf("access token required"))
		return
	}

	now := service.now()
	userIdHash := hashAccessToken(accessToken)
	user, found := service.Store.FindUserByHash(userIdHash)
	switch {
	case !found:
		id, err := service.Store.NextUserId()
		if err != nil {
			writeError(writer, http.StatusInternalServerError, err)
			return
		}
		user = identity.PrivateUser{
			PublicUser: identity.PublicUser{
				Id:              id,
				State:           identity.UserStateActiveAndLinked,
				Role:            identity.RoleRegular,
				Name:            fmt.Sprintf("User %d", id),
				PictureUri:      service.DefaultPictureUri,
				Language:        service.DefaultLanguage,
				TimeCreated:     now,
				TimeLastUpdated: now,
			},
			Auth0UserIdHash:      userIdHash,
			AgreedToCookiePolicy: record.AgreedToCookiePolicy,
		}
		service.Store.PutUser(user)
		if err := service.Store.AppendUserEvent(userIdHash, identity.UserEventCreated, now); err != nil {
			writeError(writer, http.StatusInternalServerError, err)
			return
		}
	case user.State == identity.UserStateRemoved:
		user.State = identity.UserStateActiveAndLinked
		user.TimeLastUpdated = now
		service.Store.PutUser(user)
		if err := service.Store.AppendUserEvent(userIdHash, identity.UserEventRecreated, now); err != nil {
			writeError(writer, http.StatusInternalServerError, err)
			return
		}
	}

	if record.UserIdHash != userIdHash {
		record.State = identity.SessionStateActiveAndLinkedWithUser
		record.UserIdHash = userIdHash
		record.TimeLastUpdated = now
		service.Store.PutSession(record)
		if err := service.Store.AppendSessionEvent(record.Id, identity.SessionEventLinkedWithUser, now); err != nil {
			writeError(writer, http.StatusInternalServerError, err)
			return
		}
	}

	service.writeSession(writer, http.StatusCreated, record)
}

func (service *IdentityService) handleUserEvents(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodGet {
		writer.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	authInfo, record, ok := service.activeSession(writer, request)
	if !ok {
		return
	}
	userIdHash, linked := linkedUserHash(authInfo, record)
	if !linked {
		writeError(writer, http.StatusNotFound, fmt.Errorf("no user on session for access token"))
		return
	}

	response := identity.UserEventsResponse{Events: service.Store.UserEvents(userIdHash)}
	writeJSON[identity.UserEventsResponse](writer, http.StatusOK, identity.UserEventsResponseMarshaller, response)
}

func (service *IdentityService) handleUsersInfo(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodGet {
		writer.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rawIds := request.URL.Query().Get("ids")
	if rawIds == "" {
		writeError(writer, http.StatusBadRequest, fmt.Errorf("'ids' query param not found or empty"))
		return
	}

	usersInfo := []identity.PublicUser{}
	for _, rawId := range strings.Split(rawIds, ",") {
		id, err := cast.ToInt64E(rawId)
		if err != nil || id <= 0 {
			writeError(writer, http.StatusBadRequest, fmt.Errorf("invalid id %q", rawId))
			return
		}
		if user, found := service.Store.FindUserById(id); found {
			usersInfo = append(usersInfo, user.PublicUser)
		}
	}

	response := identity.UsersInfoResponse{UsersInfo: usersInfo}
	writeJSON[identity.UsersInfoResponse](writer, http.StatusOK, identity.UsersInfoResponseMarshaller, response)
}

// activeSession resolves the presented session or answers 401.
func (service *IdentityService) activeSession(writer http.ResponseWriter, request *http.Request) (identity.AuthInfo, cache.SessionRecord, bool) {
	authInfo, present, err := readAuthInfo(request)
	if err != nil {
		writeError(writer, http.StatusBadRequest, err)
		return authInfo, cache.SessionRecord{}, false
	}
	if !present {
		writeError(writer, http.StatusUnauthorized, fmt.Errorf("auth info required"))
		return authInfo, cache.SessionRecord{}, false
	}
	record, found := service.Store.GetSession(authInfo.SessionId)
	if !found || !record.State.IsActive() {
		writeError(writer, http.StatusUnauthorized, fmt.Errorf("session not found or not active"))
		return authInfo, cache.SessionRecord{}, false
	}
	return authInfo, record, true
}

func (service *IdentityService) toSession(record cache.SessionRecord) identity.Session {
	session := identity.Session{
		State:                record.State,
		XsrfToken:            record.XsrfToken,
		AgreedToCookiePolicy: record.AgreedToCookiePolicy,
		User:                 marshal.None[identity.PrivateUser](),
		TimeCreated:          record.TimeCreated,
		TimeLastUpdated:      record.TimeLastUpdated,
	}
	if record.UserIdHash != "" {
		if user, found := service.Store.FindUserByHash(record.UserIdHash); found {
			session.User = marshal.Some(user)
		}
	}
	return session
}

func (service *IdentityService) writeSession(writer http.ResponseWriter, status int, record cache.SessionRecord) {
	response := identity.SessionResponse{Session: service.toSession(record)}
	writeJSON[identity.SessionResponse](writer, status, identity.SessionResponseMarshaller, response)
}

func (service *IdentityService) writeAuthInfoAndSession(writer http.ResponseWriter, status int, authInfo identity.AuthInfo, record cache.SessionRecord) {
	response := identity.AuthInfoAndSessionResponse{AuthInfo: authInfo, Session: service.toSession(record)}
	writeJSON[identity.AuthInfoAndSessionResponse](writer, status, identity.AuthInfoAndSessionResponseMarshaller, response)
}

func readAuthInfo(request *http.Request) (identity.AuthInfo, bool, error) {
	header := request.Header.Get(identity.AuthInfoHeaderName)
	if header == "" {
		return identity.AuthInfo{}, false, nil
	}
	authInfo, err := marshal.ExtractJSON[identity.AuthInfo](identity.AuthInfoMarshaller, []byte(header))
	if err != nil {
		return identity.AuthInfo{}, false, fmt.Errorf("invalid auth info: %w", err)
	}
	return authInfo, true, nil
}

func checkXsrf(writer http.ResponseWriter, request *http.Request, record cache.SessionRecord) bool {
	token := request.Header.Get(identity.XsrfTokenHeaderName)
	if subtle.ConstantTimeCompare([]byte(token), []byte(record.XsrfToken)) != 1 {
		writeError(writer, http.StatusForbidden, fmt.Errorf("invalid xsrf token"))
		return false
	}
	return true
}

func newXsrfToken() (string, error) {
	raw := make([]byte, 48)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// linkedUserHash returns the session's user only when the presented access
// token belongs to it.
func linkedUserHash(authInfo identity.AuthInfo, record cache.SessionRecord) (string, bool) {
	accessToken, present := authInfo.Auth0AccessToken.Get()
	if !present || record.UserIdHash == "" {
		return "", false
	}
	if hashAccessToken(accessToken) != record.UserIdHash {
		return "", false
	}
	return record.UserIdHash, true
}

func hashAccessToken(accessToken string) string {
	sum := sha256.Sum256([]byte(accessToken))
	return hex.EncodeToString(sum[:])
}

func writeJSON[T any](writer http.ResponseWriter, status int, m marshal.Marshaller[T], value T) {
	body, err := marshal.PackJSON(m, value)
	if err != nil {
		writeError(writer, http.StatusInternalServerError, err)
		return
	}
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	_, _ = writer.Write(body)
}

func writeError(writer http.ResponseWriter, status int, err error) {
	log.Debugf("Identity service error. Status: %d. Reason: %v", status, err)
	writer.WriteHeader(status)
	_, _ = fmt.Fprint(writer, err.Error())
}
