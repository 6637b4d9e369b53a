package context

import (
	"github.com/neoncity/identity/pkg/common"
)

type RouterType string

const (
	ReverseProxy       RouterType = "ReverseProxy"
	Auth0Authorization RouterType = "Auth0Authorization"
	Logout             RouterType = "Logout"
)

type FilterType string

const (
	LogFilter                FilterType = "LogFilter"
	SessionFilter            FilterType = "SessionFilter"
	XsrfFilter               FilterType = "XsrfFilter"
	UserAuthenticationFilter FilterType = "UserAuthenticationFilter"
	UserDataSenderFilter     FilterType = "UserDataSenderFilter"
)

type CacheAdapterType string

const (
	GoCache CacheAdapterType = "GoCache"
)

// CacheAdapter backs the embedded identity service.
type CacheAdapter struct {
	Type                   CacheAdapterType `validate:"required,oneof=GoCache"`
	ExpirationTimeHours    int              `mapstructure:"evict-time-hours" validate:"min=1"`
	EvictScheduleTimeHours int              `mapstructure:"evict-schedule-time-hours" validate:"min=1"`
}

type UserDataSerializerType string

const (
	JwtUserDataSerializer UserDataSerializerType = "JwtUserDataSerializer"
)

type UserDataSerializer struct {
	Type UserDataSerializerType
}

type Filter struct {
	Type                   FilterType `validate:"required"`
	Name                   string     `validate:"required"`
	Template               string
	SafeMethods            []string           `mapstructure:"safe-methods"`
	UserDataRequired       bool               `mapstructure:"user-data-required"`
	UserDataTypeSerializer UserDataSerializer `mapstructure:"user-data-serializer"`
	UserDataHeader         string             `mapstructure:"user-data-header"`
}

type Router struct {
	TargetUrl             string     `mapstructure:"target-url"`
	Type                  RouterType `validate:"required"`
	Pattern               string     `validate:"required"`
	Filters               []Filter   `validate:"dive"`
	SuccessLoginUrl       string     `mapstructure:"success-login-url"`
	SuccessLogoutUrl      string     `mapstructure:"success-logout-url"`
	RedirectUri           string     `mapstructure:"redirect-uri"`
	AccessTokenRequestUrl string     `mapstructure:"access-token-request-url"`
}

type Cookie struct {
	Domain   string
	Path     string
	TTLHours int `mapstructure:"ttl-hours" validate:"min=1"`
	Secure   bool
}

type Identity struct {
	Env            common.Env `validate:"required,oneof=local test staging prod"`
	Host           string     `validate:"required"`
	TimeoutSeconds int        `mapstructure:"timeout-seconds" validate:"min=0"`
	// Embedded serves the in-memory identity service on Host. Only for local envs.
	Embedded          bool          `mapstructure:"embedded"`
	CacheAdapter      *CacheAdapter `mapstructure:"cache-adapter"`
	DefaultPictureUri string        `mapstructure:"default-picture-uri"`
	DefaultLanguage   string        `mapstructure:"default-language"`
}

type LogLevel string

const (
	Debug LogLevel = "debug"
	Trace LogLevel = "trace"
	Info  LogLevel = "info"
)

type Secrets struct {
	CookieSecret      string `mapstructure:"cookie-secret" yaml:"-" validate:"required"`
	JwtSecret         string `mapstructure:"jwt-secret" yaml:"-"`
	Auth0ClientId     string `mapstructure:"auth0-client-id" yaml:"-"`
	Auth0ClientSecret string `mapstructure:"auth0-client-secret" yaml:"-"`
}

type GatewayConfiguration struct {
	Port     int      `validate:"min=1,max=65535"`
	LogLevel LogLevel `mapstructure:"log-level"`
	Identity Identity
	Cookie   Cookie
	Secrets  Secrets  `yaml:"-"`
	Routers  []Router `validate:"dive"`
}
