package integration_test

import (
	"net/http"
	"net/url"

	"github.com/neoncity/identity/pkg/identity"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func sessionCookie(client *http.Client) *http.Cookie {
	gatewayUrl, _ := url.Parse(gateway.URL)
	for _, cookie := range client.Jar.Cookies(gatewayUrl) {
		if cookie.Name == identity.AuthInfoCookieName {
			return cookie
		}
	}
	return nil
}

// login runs the auth0 callback and returns the client holding the session
// cookie together with the session xsrf token.
func login() (*http.Client, string) {
	client := buildClient()
	resp, message := getByClient(client, gateway.URL+"/authentication/auth0?code=auth-code")
	Expect(resp.StatusCode).To(Equal(200))
	Expect(unmarshalToMap(message)).To(HaveKeyWithValue("version", "v2"))

	xsrfToken := resp.Header.Get(identity.XsrfTokenHeaderName)
	Expect(xsrfToken).To(HaveLen(64))
	return client, xsrfToken
}

var _ = Describe("Identity gateway", func() {

	It("proxies anonymous requests with a fresh session", func() {
		client := buildClient()
		resp, message := getByClient(client, gateway.URL+"/api/v1/resource")
		Expect(resp.StatusCode).To(Equal(200))

		messageMap := unmarshalToMap(message)
		Expect(messageMap).To(HaveKeyWithValue("status", "OK"))
		Expect(messageMap).To(HaveKeyWithValue("service", "resource"))
		Expect(messageMap).To(HaveKeyWithValue("version", "v1"))
		Expect(resp.Header.Get(identity.XsrfTokenHeaderName)).To(HaveLen(64))
		Expect(sessionCookie(client)).NotTo(BeNil())
	})

	It("keeps the session between requests", func() {
		client := buildClient()
		first, _ := getByClient(client, gateway.URL+"/api/v1/resource")
		firstCookie := sessionCookie(client)

		second, _ := getByClient(client, gateway.URL+"/api/v1/resource")

		Expect(second.StatusCode).To(Equal(200))
		Expect(second.Header.Get(identity.XsrfTokenHeaderName)).To(Equal(first.Header.Get(identity.XsrfTokenHeaderName)))
		Expect(sessionCookie(client).Value).To(Equal(firstCookie.Value))
	})

	It("blocks resources that need a user", func() {
		resp, _ := get(gateway.URL + "/api/v2/resource")
		Expect(resp.StatusCode).To(Equal(401))
	})

	It("links a user through the auth0 callback", func() {
		client, _ := login()

		resp, message := getByClient(client, gateway.URL+"/api/v2/resource")
		Expect(resp.StatusCode).To(Equal(200))
		Expect(unmarshalToMap(message)).To(HaveKeyWithValue("version", "v2"))
		Expect(auth0Stub.Hits("POST", "/oauth/token")).To(BeNumerically(">=", 1))
	})

	It("rejects callbacks with a bad code", func() {
		resp, _ := get(gateway.URL + "/authentication/auth0?code=bad%20code")
		Expect(resp.StatusCode).To(Equal(403))
	})

	It("allows unsafe methods with the xsrf token", func() {
		client, xsrfToken := login()

		resp, message := postJsonByClient(
			client,
			gateway.URL+"/api/v2/mutable-resource",
			map[string]string{"method": "mutate"},
			withXsrf(xsrfToken),
		)

		Expect(resp.StatusCode).To(Equal(201))
		Expect(unmarshalToMap(message)).To(HaveKeyWithValue("status", "OK"))
	})

	It("denies unsafe methods without the xsrf token", func() {
		client, _ := login()

		resp, message := postJsonByClient(
			client,
			gateway.URL+"/api/v2/mutable-resource",
			map[string]string{"method": "mutate"},
			nil,
		)

		Expect(resp.StatusCode).To(Equal(403))
		Expect(string(message)).To(Equal("resolving xsrf header error. Xsrf header: X-NeonCity-XsrfToken is empty"))
	})

	It("denies unsafe methods with a foreign xsrf token", func() {
		_, foreignToken := login()
		client, _ := login()

		resp, _ := postJsonByClient(
			client,
			gateway.URL+"/api/v2/mutable-resource",
			map[string]string{"method": "mutate"},
			withXsrf(foreignToken),
		)

		Expect(resp.StatusCode).To(Equal(403))
	})

	It("logs out and forgets the user", func() {
		client, _ := login()
		loggedInCookie := sessionCookie(client)

		resp, message := getByClient(client, gateway.URL+"/logout")
		Expect(resp.StatusCode).To(Equal(200))
		Expect(unmarshalToMap(message)).To(HaveKeyWithValue("version", "v1"))
		Expect(sessionCookie(client).Value).NotTo(Equal(loggedInCookie.Value))

		resp, _ = getByClient(client, gateway.URL+"/api/v2/resource")
		Expect(resp.StatusCode).To(Equal(401))
	})
})
