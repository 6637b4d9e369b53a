package client

import (
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/neoncity/identity/pkg/common"
	"github.com/neoncity/identity/pkg/identity"
	"github.com/neoncity/identity/pkg/marshal"
	log "github.com/sirupsen/logrus"
	"gopkg.in/go-playground/validator.v9"
)

// IdentityClient is the set of calls the identity service answers. Every
// implementation is safe for concurrent use; request context is bound by
// deriving a new client.
type IdentityClient interface {
	WithAuthInfo(authInfo identity.AuthInfo) IdentityClient
	WithContext(authInfo identity.AuthInfo, origin string) IdentityClient
	GetOrCreateSession(ctx context.Context) (identity.AuthInfo, identity.Session, error)
	GetSession(ctx context.Context) (identity.Session, error)
	ExpireSession(ctx context.Context, session identity.Session) error
	AgreeToCookiePolicyForSession(ctx context.Context, session identity.Session) (identity.Session, error)
	GetOrCreateUserOnSession(ctx context.Context, session identity.Session) (identity.Session, error)
	GetUserOnSession(ctx context.Context) (identity.Session, error)
	GetUserEvents(ctx context.Context) ([]identity.UserEvent, error)
	GetUsersInfo(ctx context.Context, ids []int64) ([]identity.PublicUser, error)
}

type Options struct {
	Env                 common.Env `validate:"required,oneof=local test staging prod"`
	IdentityServiceHost string     `validate:"required"`
	// Doer defaults to NewHTTPDoer(DefaultTimeout).
	Doer common.Doer `validate:"-"`
	Log  *log.Entry  `validate:"-"`
}

const DefaultTimeout = 10 * time.Second

var validate = validator.New()

var errRedirect = errors.New("redirects are not followed")

// NewHTTPDoer returns an *http.Client that refuses redirects.
func NewHTTPDoer(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return errRedirect
		},
	}
}

type Client struct {
	host     string
	protocol string
	doer     common.Doer
	log      *log.Entry
	context  requestContext
}

func NewIdentityClient(options Options) (*Client, error) {
	if err := validate.Struct(options); err != nil {
		return nil, fmt.Errorf("invalid identity client options: %w", err)
	}

	protocol := "https"
	if common.IsLocal(options.Env) {
		protocol = "http"
	}

	doer := options.Doer
	if doer == nil {
		doer = NewHTTPDoer(DefaultTimeout)
	}

	logger := options.Log
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}

	return &Client{
		host:     options.IdentityServiceHost,
		protocol: protocol,
		doer:     doer,
		log:      logger.WithField("component", "identity-client"),
	}, nil
}

func (c *Client) WithAuthInfo(authInfo identity.AuthInfo) IdentityClient {
	return c.derive(authInfo, c.context.origin)
}

func (c *Client) WithContext(authInfo identity.AuthInfo, origin string) IdentityClient {
	return c.derive(authInfo, origin)
}

func (c *Client) derive(authInfo identity.AuthInfo, origin string) *Client {
	packed, err := marshal.PackJSON[identity.AuthInfo](identity.AuthInfoMarshaller, authInfo)
	if err != nil {
		// AuthInfo packs to strings and nulls only.
		panic(err)
	}
	derived := *c
	derived.context = requestContext{
		authInfoHeader: string(packed),
		origin:         origin,
	}
	return &derived
}

func (c *Client) GetOrCreateSession(ctx context.Context) (identity.AuthInfo, identity.Session, error) {
	response, err := call[identity.AuthInfoAndSessionResponse](ctx, c, getOrCreateSessionTemplate, nil, nil, identity.AuthInfoAndSessionResponseMarshaller)
	if err != nil {
		return identity.AuthInfo{}, identity.Session{}, err
	}
	return response.AuthInfo, response.Session, nil
}

func (c *Client) GetSession(ctx context.Context) (identity.Session, error) {
	response, err := call[identity.SessionResponse](ctx, c, getSessionTemplate, nil, nil, identity.SessionResponseMarshaller)
	if err != nil {
		return identity.Session{}, err
	}
	return response.Session, nil
}

func (c *Client) ExpireSession(ctx context.Context, session identity.Session) error {
	status, _, err := c.perform(ctx, expireSessionTemplate, nil, &session)
	if err != nil {
		return err
	}
	if !isSuccess(status) {
		return newStatusError(expireSessionTemplate, status)
	}
	return nil
}

func (c *Client) AgreeToCookiePolicyForSession(ctx context.Context, session identity.Session) (identity.Session, error) {
	response, err := call[identity.SessionResponse](ctx, c, agreeToCookiePolicyTemplate, nil, &session, identity.SessionResponseMarshaller)
	if err != nil {
		return identity.Session{}, err
	}
	return response.Session, nil
}

// GetOrCreateUserOnSession fetches the user linked with the session and, if
// the service answers 404, creates it.
func (c *Client) GetOrCreateUserOnSession(ctx context.Context, session identity.Session) (identity.Session, error) {
	existing, err := c.GetUserOnSession(ctx)
	if err == nil {
		return existing, nil
	}
	if StatusOf(err) != http.StatusNotFound {
		return identity.Session{}, err
	}

	c.log.Debugf("No user on session. Creating one.")
	response, err := call[identity.SessionResponse](ctx, c, createUserOnSessionTemplate, nil, &session, identity.SessionResponseMarshaller)
	if err != nil {
		return identity.Session{}, err
	}
	return response.Session, nil
}

func (c *Client) GetUserOnSession(ctx context.Context) (identity.Session, error) {
	response, err := call[identity.SessionResponse](ctx, c, getUserOnSessionTemplate, nil, nil, identity.SessionResponseMarshaller)
	if err != nil {
		return identity.Session{}, err
	}
	return response.Session, nil
}

func (c *Client) GetUserEvents(ctx context.Context) ([]identity.UserEvent, error) {
	response, err := call[identity.UserEventsResponse](ctx, c, getUserEventsTemplate, nil, nil, identity.UserEventsResponseMarshaller)
	if err != nil {
		return nil, err
	}
	return response.Events, nil
}

func (c *Client) GetUsersInfo(ctx context.Context, ids []int64) ([]identity.PublicUser, error) {
	encoded := make([]string, len(ids))
	for i, id := range ids {
		encoded[i] = strconv.FormatInt(id, 10)
	}
	query := url.Values{"ids": []string{strings.Join(encoded, ",")}}

	response, err := call[identity.UsersInfoResponse](ctx, c, getUsersInfoTemplate, query, nil, identity.UsersInfoResponseMarshaller)
	if err != nil {
		return nil, err
	}
	return response.UsersInfo, nil
}

// call performs one request and decodes a 2xx body with m.
func call[T any](
	ctx context.Context,
	c *Client,
	template requestTemplate,
	query url.Values,
	session *identity.Session,
	m marshal.Marshaller[T],
) (T, error) {
	var zero T

	status, body, err := c.perform(ctx, template, query, session)
	if err != nil {
		return zero, err
	}
	if !isSuccess(status) {
		return zero, newStatusError(template, status)
	}

	response, err := marshal.ExtractJSON(m, body)
	if err != nil {
		return zero, newDecodeError(template, status, err)
	}
	return response, nil
}

func (c *Client) perform(
	ctx context.Context,
	template requestTemplate,
	query url.Values,
	session *identity.Session,
) (int, []byte, error) {
	logger := c.log.WithField("operation", template.action)

	target := url.URL{
		Scheme:   c.protocol,
		Host:     c.host,
		Path:     template.path,
		RawQuery: query.Encode(),
	}

	request, err := http.NewRequest(template.method, target.String(), nil)
	if err != nil {
		return 0, nil, newTransportError(template, err)
	}
	request = request.WithContext(ctx)
	request.Header = buildHeaders(c.context, template, session)

	logger.Debugf("Sending %s %s", template.method, target.String())
	response, err := c.doer.Do(request)
	if err != nil {
		return 0, nil, newTransportError(template, err)
	}
	defer response.Body.Close()

	body, err := ioutil.ReadAll(response.Body)
	if err != nil {
		return 0, nil, newTransportError(template, err)
	}
	logger.Debugf("Got response status: %d", response.StatusCode)
	logger.Tracef("Got response body: %s", string(body))
	return response.StatusCode, body, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
