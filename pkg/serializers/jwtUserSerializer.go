package serializers

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/neoncity/identity/pkg/identity"
)

type jwtUserSerializer struct {
	hmacSecret string
}

func NewJwtUserSerializer(hmacSecret string) *jwtUserSerializer {
	return &jwtUserSerializer{
		hmacSecret: hmacSecret,
	}
}

// Serialize signs the public view of the user plus the user id hash, which
// downstream services use as a stable identifier.
func (serializer *jwtUserSerializer) Serialize(user *identity.PrivateUser) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":        user.Auth0UserIdHash,
		"id":         user.Id,
		"role":       user.Role.String(),
		"name":       user.Name,
		"pictureUri": user.PictureUri,
		"language":   user.Language,
		"iat":        time.Now().Unix(),
	})
	return token.SignedString([]byte(serializer.hmacSecret))
}
