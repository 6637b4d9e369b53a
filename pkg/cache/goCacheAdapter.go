package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/neoncity/identity/pkg/identity"
	"github.com/patrickmn/go-cache"
	"github.com/satori/go.uuid"
)

// SessionRecord is how the in-memory identity service keeps a session.
type SessionRecord struct {
	Id                   string
	State                identity.SessionState
	XsrfToken            string
	AgreedToCookiePolicy bool
	UserIdHash           string
	TimeCreated          time.Time
	TimeLastUpdated      time.Time
}

const (
	userSequenceKey  = "sequence:user"
	eventSequenceKey = "sequence:event"
)

type goCacheIdentityStore struct {
	identityCache *cache.Cache
	eventsLock    sync.Mutex
}

// NewGoCacheIdentityStore keeps sessions for expirationTimeHours. Users and
// their events never expire.
func NewGoCacheIdentityStore(expirationTimeHours int, evictScheduleTimeHours int) *goCacheIdentityStore {
	identityCache := cache.New(
		time.Hour*time.Duration(expirationTimeHours),
		time.Hour*time.Duration(evictScheduleTimeHours),
	)
	identityCache.Set(userSequenceKey, int64(0), cache.NoExpiration)
	identityCache.Set(eventSequenceKey, int64(0), cache.NoExpiration)
	return &goCacheIdentityStore{
		identityCache: identityCache,
	}
}

// Sessions

func (store *goCacheIdentityStore) CreateNewSessionId() string {
	return uuid.NewV4().String()
}

func (store *goCacheIdentityStore) PutSession(session SessionRecord) {
	store.identityCache.Set(sessionKey(session.Id), session, cache.DefaultExpiration)
}

func (store *goCacheIdentityStore) GetSession(id string) (SessionRecord, bool) {
	session, found := store.identityCache.Get(sessionKey(id))
	if found {
		return session.(SessionRecord), true
	} else {
		return SessionRecord{}, false
	}
}

// Users

func (store *goCacheIdentityStore) NextUserId() (int64, error) {
	return store.identityCache.IncrementInt64(userSequenceKey, 1)
}

func (store *goCacheIdentityStore) PutUser(user identity.PrivateUser) {
	store.identityCache.Set(userKey(user.Auth0UserIdHash), user, cache.NoExpiration)
	store.identityCache.Set(userIdKey(user.Id), user.Auth0UserIdHash, cache.NoExpiration)
}

func (store *goCacheIdentityStore) FindUserByHash(userIdHash string) (identity.PrivateUser, bool) {
	user, found := store.identityCache.Get(userKey(userIdHash))
	if found {
		return user.(identity.PrivateUser), true
	} else {
		return identity.PrivateUser{}, false
	}
}

func (store *goCacheIdentityStore) FindUserById(id int64) (identity.PrivateUser, bool) {
	userIdHash, found := store.identityCache.Get(userIdKey(id))
	if !found {
		return identity.PrivateUser{}, false
	}
	return store.FindUserByHash(userIdHash.(string))
}

// Events

func (store *goCacheIdentityStore) AppendUserEvent(userIdHash string, eventType identity.UserEventType, timestamp time.Time) error {
	id, err := store.identityCache.IncrementInt64(eventSequenceKey, 1)
	if err != nil {
		return err
	}

	store.eventsLock.Lock()
	defer store.eventsLock.Unlock()
	events := store.UserEvents(userIdHash)
	events = append(events, identity.UserEvent{Id: id, Type: eventType, Timestamp: timestamp})
	store.identityCache.Set(userEventsKey(userIdHash), events, cache.NoExpiration)
	return nil
}

func (store *goCacheIdentityStore) UserEvents(userIdHash string) []identity.UserEvent {
	events, found := store.identityCache.Get(userEventsKey(userIdHash))
	if !found {
		return []identity.UserEvent{}
	}
	stored := events.([]identity.UserEvent)
	copied := make([]identity.UserEvent, len(stored))
	copy(copied, stored)
	return copied
}

func (store *goCacheIdentityStore) AppendSessionEvent(sessionId string, eventType identity.SessionEventType, timestamp time.Time) error {
	id, err := store.identityCache.IncrementInt64(eventSequenceKey, 1)
	if err != nil {
		return err
	}

	store.eventsLock.Lock()
	defer store.eventsLock.Unlock()
	events := store.SessionEvents(sessionId)
	events = append(events, identity.SessionEvent{Id: id, Type: eventType, Timestamp: timestamp})
	store.identityCache.Set(sessionEventsKey(sessionId), events, cache.DefaultExpiration)
	return nil
}

func (store *goCacheIdentityStore) SessionEvents(sessionId string) []identity.SessionEvent {
	events, found := store.identityCache.Get(sessionEventsKey(sessionId))
	if !found {
		return []identity.SessionEvent{}
	}
	stored := events.([]identity.SessionEvent)
	copied := make([]identity.SessionEvent, len(stored))
	copy(copied, stored)
	return copied
}

func sessionKey(id string) string {
	return "session:" + id
}

func sessionEventsKey(id string) string {
	return "session-events:" + id
}

func userKey(userIdHash string) string {
	return "user:" + userIdHash
}

func userIdKey(id int64) string {
	return fmt.Sprintf("user-id:%d", id)
}

func userEventsKey(userIdHash string) string {
	return "user-events:" + userIdHash
}
