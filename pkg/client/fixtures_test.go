package client_test

import (
	"strings"

	"github.com/neoncity/identity/pkg/client"
	"github.com/neoncity/identity/pkg/common"
	"github.com/neoncity/identity/pkg/identity"
	. "github.com/neoncity/identity/pkg/stub"
	. "github.com/onsi/gomega"
)

const (
	sessionId   = "0f8fad5b-d9cb-469f-a165-70867728950e"
	userIdHash  = "8d969eef6ecad3c29a3a629280e686cf0c3f5d5a86aff3ca12020c923adc6c92"
	timeCreated = "2017-03-01T09:00:00Z"
)

var xsrfToken = strings.Repeat("Ab+/", 15) + "abcd"

func userJson() JsonMap {
	return JsonMap{
		"id":                   7,
		"state":                int(identity.UserStateActiveAndLinked),
		"role":                 int(identity.RoleRegular),
		"name":                 "John Doe",
		"pictureUri":           "https://neoncity.com/john.png",
		"language":             "en",
		"timeCreated":          timeCreated,
		"timeLastUpdated":      timeCreated,
		"auth0UserIdHash":      userIdHash,
		"agreedToCookiePolicy": false,
	}
}

func sessionJson(state identity.SessionState, user interface{}) JsonMap {
	return JsonMap{
		"state":                int(state),
		"xsrfToken":            xsrfToken,
		"agreedToCookiePolicy": false,
		"user":                 user,
		"timeCreated":          timeCreated,
		"timeLastUpdated":      timeCreated,
	}
}

func authInfoJson() JsonMap {
	return JsonMap{"sessionId": sessionId, "auth0AccessToken": nil}
}

func newClient(stub *ServiceStub) *client.Client {
	identityClient, err := client.NewIdentityClient(client.Options{
		Env:                 common.Local,
		IdentityServiceHost: stub.Host(),
	})
	Expect(err).NotTo(HaveOccurred())
	return identityClient
}
