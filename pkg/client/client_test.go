package client_test

import (
	"context"
	"errors"
	"net/http"
	"regexp"

	"github.com/neoncity/identity/pkg/client"
	"github.com/neoncity/identity/pkg/common"
	"github.com/neoncity/identity/pkg/identity"
	. "github.com/neoncity/identity/pkg/stub"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

var _ = Describe("Identity client", func() {
	ctx := context.Background()

	Describe("sessions", func() {
		It("creates a session and decodes the auth info", func() {
			stub := CreateServiceStub([]RequestMock{
				{
					Request: Request{
						Method: "POST",
						Url:    "/session",
						Headers: []Header{
							{Name: "Accept", Regexp: "^application/json$"},
							{Name: identity.AuthInfoHeaderName, Regexp: "^$"},
						},
					},
					Response: Response{
						Status: 201,
						Body: JsonMap{
							"authInfo": authInfoJson(),
							"session":  sessionJson(identity.SessionStateActive, nil),
						},
					},
				},
			})
			defer stub.Close()

			authInfo, session, err := newClient(stub).GetOrCreateSession(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(authInfo.SessionId).To(Equal(sessionId))
			Expect(authInfo.Auth0AccessToken.IsPresent()).To(BeFalse())
			Expect(session.State).To(Equal(identity.SessionStateActive))
			Expect(session.XsrfToken).To(Equal(xsrfToken))
			Expect(session.HasUser()).To(BeFalse())
		})

		It("sends the bound auth info and origin", func() {
			stub := CreateServiceStub([]RequestMock{
				{
					Request: Request{
						Method: "GET",
						Url:    "/session",
						Headers: []Header{
							{Name: identity.AuthInfoHeaderName, Regexp: `"sessionId":"` + sessionId + `"`},
							{Name: "Origin", Regexp: "^https://neoncity.com$"},
							{Name: "Cache-Control", Regexp: "^no-cache$"},
						},
					},
					Response: Response{
						Status: 200,
						Body:   JsonMap{"session": sessionJson(identity.SessionStateActive, nil)},
					},
				},
			})
			defer stub.Close()

			session, err := newClient(stub).
				WithContext(identity.NewAuthInfo(sessionId), "https://neoncity.com").
				GetSession(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(session.State).To(Equal(identity.SessionStateActive))
		})

		It("does not change the client it was derived from", func() {
			stub := CreateServiceStub([]RequestMock{
				{
					Request: Request{
						Method:  "GET",
						Url:     "/session",
						Headers: []Header{{Name: identity.AuthInfoHeaderName, Regexp: "^$"}},
					},
					Response: Response{
						Status: 200,
						Body:   JsonMap{"session": sessionJson(identity.SessionStateActive, nil)},
					},
				},
			})
			defer stub.Close()

			base := newClient(stub)
			_ = base.WithAuthInfo(identity.NewAuthInfo(sessionId))

			_, err := base.GetSession(ctx)
			Expect(err).NotTo(HaveOccurred())
		})

		It("echoes the xsrf token when expiring a session", func() {
			stub := CreateServiceStub([]RequestMock{
				{
					Request: Request{
						Method: "DELETE",
						Url:    "/session",
						Headers: []Header{
							{Name: identity.XsrfTokenHeaderName, Regexp: "^" + regexp.QuoteMeta(xsrfToken) + "$"},
						},
					},
					Response: Response{Status: 204},
				},
			})
			defer stub.Close()

			session := identity.Session{State: identity.SessionStateActive, XsrfToken: xsrfToken}
			err := newClient(stub).WithAuthInfo(identity.NewAuthInfo(sessionId)).ExpireSession(ctx, session)

			Expect(err).NotTo(HaveOccurred())
			Expect(stub.Hits("DELETE", "/session")).To(Equal(1))
		})

		It("agrees to the cookie policy", func() {
			agreed := sessionJson(identity.SessionStateActive, nil)
			agreed["agreedToCookiePolicy"] = true
			stub := CreateServiceStub([]RequestMock{
				{
					Request: Request{
						Method: "POST",
						Url:    "/session/agree-to-cookie-policy",
						Headers: []Header{
							{Name: identity.XsrfTokenHeaderName, Regexp: "^" + regexp.QuoteMeta(xsrfToken) + "$"},
						},
					},
					Response: Response{Status: 200, Body: JsonMap{"session": agreed}},
				},
			})
			defer stub.Close()

			session := identity.Session{State: identity.SessionStateActive, XsrfToken: xsrfToken}
			updated, err := newClient(stub).WithAuthInfo(identity.NewAuthInfo(sessionId)).AgreeToCookiePolicyForSession(ctx, session)

			Expect(err).NotTo(HaveOccurred())
			Expect(updated.AgreedToCookiePolicy).To(BeTrue())
		})
	})

	Describe("users", func() {
		It("creates the user when the session has none", func() {
			stub := CreateServiceStub([]RequestMock{
				{
					Request:  Request{Method: "GET", Url: "/user"},
					Response: Response{Status: 404},
				},
				{
					Request: Request{
						Method: "POST",
						Url:    "/user",
						Headers: []Header{
							{Name: identity.XsrfTokenHeaderName, Regexp: "^" + regexp.QuoteMeta(xsrfToken) + "$"},
							{Name: identity.AuthInfoHeaderName, Regexp: `"auth0AccessToken":"access-token"`},
						},
					},
					Response: Response{
						Status: 201,
						Body:   JsonMap{"session": sessionJson(identity.SessionStateActiveAndLinkedWithUser, userJson())},
					},
				},
			})
			defer stub.Close()

			authInfo := identity.NewAuthInfo(sessionId).WithAccessToken("access-token")
			session := identity.Session{State: identity.SessionStateActive, XsrfToken: xsrfToken}
			linked, err := newClient(stub).WithAuthInfo(authInfo).GetOrCreateUserOnSession(ctx, session)

			Expect(err).NotTo(HaveOccurred())
			Expect(linked.HasUser()).To(BeTrue())
			user, _ := linked.User.Get()
			Expect(user.Id).To(Equal(int64(7)))
			Expect(user.Auth0UserIdHash).To(Equal(userIdHash))
			Expect(stub.Hits("GET", "/user")).To(Equal(1))
			Expect(stub.Hits("POST", "/user")).To(Equal(1))
		})

		It("returns the existing user without creating one", func() {
			stub := CreateServiceStub([]RequestMock{
				{
					Request: Request{Method: "GET", Url: "/user"},
					Response: Response{
						Status: 200,
						Body:   JsonMap{"session": sessionJson(identity.SessionStateActiveAndLinkedWithUser, userJson())},
					},
				},
				{
					Request:  Request{Method: "POST", Url: "/user"},
					Response: Response{Status: 500},
				},
			})
			defer stub.Close()

			linked, err := newClient(stub).GetOrCreateUserOnSession(ctx, identity.Session{XsrfToken: xsrfToken})

			Expect(err).NotTo(HaveOccurred())
			Expect(linked.HasUser()).To(BeTrue())
			Expect(stub.Hits("POST", "/user")).To(Equal(0))
		})

		It("does not create the user when unauthorized", func() {
			stub := CreateServiceStub([]RequestMock{
				{
					Request:  Request{Method: "GET", Url: "/user"},
					Response: Response{Status: 401},
				},
			})
			defer stub.Close()

			_, err := newClient(stub).GetOrCreateUserOnSession(ctx, identity.Session{XsrfToken: xsrfToken})

			Expect(client.IsUnauthorized(err)).To(BeTrue())
			Expect(stub.Hits("POST", "/user")).To(Equal(0))
		})

		It("does not recover from 404 outside user creation", func() {
			stub := CreateServiceStub([]RequestMock{
				{
					Request:  Request{Method: "GET", Url: "/user/events"},
					Response: Response{Status: 404},
				},
			})
			defer stub.Close()

			_, err := newClient(stub).GetUserEvents(ctx)

			Expect(err).To(MatchError("Could not retrieve user events - service response 404"))
			Expect(client.StatusOf(err)).To(Equal(http.StatusNotFound))
		})

		It("decodes user events", func() {
			stub := CreateServiceStub([]RequestMock{
				{
					Request: Request{Method: "GET", Url: "/user/events"},
					Response: Response{
						Status: 200,
						Body: JsonMap{"events": []JsonMap{
							{"id": 1, "type": int(identity.UserEventCreated), "timestamp": timeCreated, "data": nil},
							{"id": 2, "type": int(identity.UserEventAgreedToCookiePolicy), "timestamp": timeCreated, "data": nil},
						}},
					},
				},
			})
			defer stub.Close()

			events, err := newClient(stub).GetUserEvents(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(events).To(HaveLen(2))
			Expect(events[0].Type).To(Equal(identity.UserEventCreated))
			Expect(events[1].Type).To(Equal(identity.UserEventAgreedToCookiePolicy))
		})

		It("decodes users info", func() {
			stub := CreateServiceStub([]RequestMock{
				{
					Request: Request{Method: "GET", Url: "/users-info"},
					Response: Response{
						Status: 200,
						Body:   JsonMap{"usersInfo": []JsonMap{userJson()}},
					},
				},
			})
			defer stub.Close()

			users, err := newClient(stub).GetUsersInfo(ctx, []int64{7})

			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(HaveLen(1))
			Expect(users[0].Name).To(Equal("John Doe"))
		})
	})

	Describe("errors", func() {
		It("maps 401 to an unauthorized error", func() {
			stub := CreateServiceStub([]RequestMock{
				{
					Request:  Request{Method: "GET", Url: "/session"},
					Response: Response{Status: 401},
				},
			})
			defer stub.Close()

			_, err := newClient(stub).GetSession(ctx)

			Expect(err).To(MatchError("User is not authorized"))
			Expect(client.IsUnauthorized(err)).To(BeTrue())

			var identityErr *client.IdentityError
			Expect(errors.As(err, &identityErr)).To(BeTrue())
			Expect(identityErr.Status).To(Equal(401))
		})

		session := identity.Session{State: identity.SessionStateActive, XsrfToken: xsrfToken}

		DescribeTable("maps 401 from every session and user call",
			func(method string, url string, call func(*client.Client) error) {
				stub := CreateServiceStub([]RequestMock{
					{
						Request:  Request{Method: method, Url: url},
						Response: Response{Status: 401},
					},
				})
				defer stub.Close()

				err := call(newClient(stub))

				Expect(client.IsUnauthorized(err)).To(BeTrue())
				Expect(client.StatusOf(err)).To(Equal(401))
				Expect(stub.Hits(method, url)).To(Equal(1))
			},
			Entry("create session", "POST", "/session", func(c *client.Client) error {
				_, _, err := c.GetOrCreateSession(ctx)
				return err
			}),
			Entry("expire session", "DELETE", "/session", func(c *client.Client) error {
				return c.ExpireSession(ctx, session)
			}),
			Entry("agree to cookie policy", "POST", "/session/agree-to-cookie-policy", func(c *client.Client) error {
				_, err := c.AgreeToCookiePolicyForSession(ctx, session)
				return err
			}),
			Entry("get or create user", "GET", "/user", func(c *client.Client) error {
				_, err := c.GetOrCreateUserOnSession(ctx, session)
				return err
			}),
			Entry("user events", "GET", "/user/events", func(c *client.Client) error {
				_, err := c.GetUserEvents(ctx)
				return err
			}),
			Entry("users info", "GET", "/users-info", func(c *client.Client) error {
				_, err := c.GetUsersInfo(ctx, []int64{7})
				return err
			}),
		)

		It("maps other statuses to a generic identity error", func() {
			stub := CreateServiceStub([]RequestMock{
				{
					Request:  Request{Method: "POST", Url: "/session"},
					Response: Response{Status: 500},
				},
			})
			defer stub.Close()

			_, _, err := newClient(stub).GetOrCreateSession(ctx)

			Expect(err).To(MatchError("Could not create session - service response 500"))
			Expect(client.IsUnauthorized(err)).To(BeFalse())
		})

		It("reports malformed bodies", func() {
			stub := CreateServiceStub([]RequestMock{
				{
					Request:  Request{Method: "GET", Url: "/session"},
					Response: Response{Status: 200, Body: RawBody(`{"session":`)},
				},
			})
			defer stub.Close()

			_, err := newClient(stub).GetSession(ctx)

			Expect(err).To(MatchError(HavePrefix("Could not retrieve session 'malformed JSON")))
			Expect(client.StatusOf(err)).To(Equal(200))
		})

		It("reports bodies that fail validation", func() {
			broken := sessionJson(identity.SessionStateActive, nil)
			broken["xsrfToken"] = "short"
			stub := CreateServiceStub([]RequestMock{
				{
					Request:  Request{Method: "GET", Url: "/session"},
					Response: Response{Status: 200, Body: JsonMap{"session": broken}},
				},
			})
			defer stub.Close()

			_, err := newClient(stub).GetSession(ctx)

			Expect(err).To(MatchError("Could not retrieve session 'session.xsrfToken: Expected string to be 64 characters'"))
		})

		It("reports transport failures", func() {
			stub := CreateServiceStub(nil)
			identityClient := newClient(stub)
			stub.Close()

			_, err := identityClient.GetSession(ctx)

			Expect(err).To(MatchError(HavePrefix("Could not retrieve session - request failed because")))
			Expect(client.StatusOf(err)).To(Equal(0))
		})

		It("does not follow redirects", func() {
			stub := CreateServiceStub([]RequestMock{
				{
					Request:  Request{Method: "GET", Url: "/session"},
					Response: Response{Status: 302, Headers: map[string]string{"Location": "/elsewhere"}},
				},
				{
					Request:  Request{Method: "GET", Url: "/elsewhere"},
					Response: Response{Status: 200, Body: JsonMap{"session": sessionJson(identity.SessionStateActive, nil)}},
				},
			})
			defer stub.Close()

			_, err := newClient(stub).GetSession(ctx)

			Expect(err).To(HaveOccurred())
			Expect(stub.Hits("GET", "/elsewhere")).To(Equal(0))
		})

		It("honours context cancellation", func() {
			stub := CreateServiceStub([]RequestMock{
				{
					Request:  Request{Method: "GET", Url: "/session"},
					Response: Response{Status: 200, Body: JsonMap{"session": sessionJson(identity.SessionStateActive, nil)}},
				},
			})
			defer stub.Close()

			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			_, err := newClient(stub).GetSession(cancelled)

			Expect(err).To(MatchError(HavePrefix("Could not retrieve session - request failed because")))
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		})
	})

	Describe("construction", func() {
		It("uses https outside local envs", func() {
			doer := &recordingDoer{}
			identityClient, err := client.NewIdentityClient(client.Options{
				Env:                 common.Prod,
				IdentityServiceHost: "identity.neoncity.com",
				Doer:                doer,
			})
			Expect(err).NotTo(HaveOccurred())

			_, _ = identityClient.GetUsersInfo(ctx, []int64{1, 2})

			Expect(doer.requests).To(HaveLen(1))
			Expect(doer.requests[0].URL.Scheme).To(Equal("https"))
			Expect(doer.requests[0].URL.Host).To(Equal("identity.neoncity.com"))
			Expect(doer.requests[0].URL.Path).To(Equal("/users-info"))
			Expect(doer.requests[0].URL.Query().Get("ids")).To(Equal("1,2"))
		})

		It("rejects incomplete options", func() {
			_, err := client.NewIdentityClient(client.Options{Env: common.Local})
			Expect(err).To(HaveOccurred())

			_, err = client.NewIdentityClient(client.Options{Env: "qa", IdentityServiceHost: "localhost"})
			Expect(err).To(HaveOccurred())
		})
	})
})

type recordingDoer struct {
	requests []*http.Request
}

func (doer *recordingDoer) Do(request *http.Request) (*http.Response, error) {
	doer.requests = append(doer.requests, request)
	return nil, errors.New("no network in tests")
}
