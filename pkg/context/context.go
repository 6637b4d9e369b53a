package context

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/neoncity/identity/pkg/auth"
	"github.com/neoncity/identity/pkg/cache"
	"github.com/neoncity/identity/pkg/client"
	"github.com/neoncity/identity/pkg/common"
	"github.com/neoncity/identity/pkg/crypt"
	"github.com/neoncity/identity/pkg/filters"
	"github.com/neoncity/identity/pkg/proxy"
	"github.com/neoncity/identity/pkg/serializers"
	"github.com/neoncity/identity/pkg/stub"
	log "github.com/sirupsen/logrus"
	"gopkg.in/go-playground/validator.v9"
)

var validate = validator.New()

// ValidateConfiguration checks the static configuration before anything is built.
func ValidateConfiguration(config *GatewayConfiguration) error {
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("Invalid gateway configuration. Reason: %v", err)
	}
	if config.Identity.Embedded && !common.IsLocal(config.Identity.Env) {
		return fmt.Errorf("Invalid gateway configuration. Reason: embedded identity service is only allowed in local envs, got %v", config.Identity.Env)
	}
	for _, router := range config.Routers {
		for _, filter := range router.Filters {
			if filter.Type == UserDataSenderFilter && config.Secrets.JwtSecret == "" {
				return fmt.Errorf("Invalid gateway configuration. Reason: filter %v needs a jwt secret", filter.Name)
			}
		}
	}
	return nil
}

type context struct {
	identityClient    client.IdentityClient
	encryptor         *crypt.Encryptor
	cookie            filters.CookieSettings
	secrets           Secrets
	logger            *log.Entry
	serverMultiplexer *http.ServeMux
}

func NewContext(cookie Cookie, secrets Secrets) *context {
	return &context{
		encryptor: crypt.NewEncryptor(secrets.CookieSecret),
		cookie: filters.CookieSettings{
			Domain:   cookie.Domain,
			Path:     cookie.Path,
			TTLHours: cookie.TTLHours,
			Secure:   cookie.Secure,
		},
		secrets:           secrets,
		logger:            log.NewEntry(log.StandardLogger()),
		serverMultiplexer: http.NewServeMux(),
	}
}

func (ctx *context) SetupIdentityClient(config Identity) {
	timeout := client.DefaultTimeout
	if config.TimeoutSeconds > 0 {
		timeout = time.Duration(config.TimeoutSeconds) * time.Second
	}
	identityClient, err := client.NewIdentityClient(client.Options{
		Env:                 config.Env,
		IdentityServiceHost: config.Host,
		Doer:                client.NewHTTPDoer(timeout),
		Log:                 ctx.logger,
	})
	if err != nil {
		panic(fmt.Errorf("Identity client setup error. Reason: %v\n", err))
	}
	ctx.identityClient = identityClient
}

// BuildEmbeddedIdentityServer serves the in-memory identity service on the
// configured identity host.
func (ctx *context) BuildEmbeddedIdentityServer(config Identity) *http.Server {
	adapter := config.CacheAdapter
	if adapter == nil {
		adapter = &CacheAdapter{Type: GoCache, ExpirationTimeHours: 24, EvictScheduleTimeHours: 1}
	}

	var store stub.IdentityStorePort
	switch adapter.Type {
	case GoCache:
		store = cache.NewGoCacheIdentityStore(adapter.ExpirationTimeHours, adapter.EvictScheduleTimeHours)
	default:
		panic(fmt.Errorf("Undefined identity cache adapter type: %v.\n", adapter.Type))
	}

	log.Debugf("Adding embedded identity service. Address: %s", config.Host)
	return &http.Server{
		Addr:    config.Host,
		Handler: stub.NewIdentityService(store, config.DefaultPictureUri, config.DefaultLanguage),
	}
}

func (ctx *context) SetupRouters(routers []Router) {
	if ctx.identityClient == nil {
		panic(fmt.Errorf("Identity client must be set up before routers.\n"))
	}
	for _, router := range routers {
		var handler common.RequestHandler
		switch router.Type {
		case ReverseProxy:
			log.Debugf(
				"Adding Reverse proxy router. Pattern: %s; Target: %s",
				router.Pattern,
				router.TargetUrl,
			)
			targetUrl, err := url.Parse(router.TargetUrl)
			if err != nil || targetUrl.Host == "" {
				panic(fmt.Errorf("Reverse proxy target url '%v' is invalid.\n", router.TargetUrl))
			}
			handler = proxy.NewReverseProxyHandler(*targetUrl)
		case Auth0Authorization:
			log.Debugf("Adding Auth0 authorization endpoint. Pattern: %s;", router.Pattern)
			handler = auth.NewAuth0Provider(
				ctx.identityClient,
				ctx.encryptor,
				ctx.cookie,
				client.NewHTTPDoer(client.DefaultTimeout),
				router.SuccessLoginUrl,
				ctx.secrets.Auth0ClientId,
				ctx.secrets.Auth0ClientSecret,
				router.RedirectUri,
				router.AccessTokenRequestUrl,
			)
		case Logout:
			log.Debugf("Adding logout endpoint. Pattern: %s;", router.Pattern)
			handler = auth.NewLogoutHandler(ctx.identityClient, ctx.cookie, router.SuccessLogoutUrl)
		default:
			panic(fmt.Errorf("Undefined router type: %v.\n", router.Type))
		}

		rootFilterHandler := ctx.BuildFilterHandlers(router.Filters, handler)
		ctx.serverMultiplexer.Handle(router.Pattern, common.AsHTTPHandler(rootFilterHandler, ctx.logger))
	}
}

func (ctx *context) BuildFilterHandlers(filters []Filter, mainHandler common.RequestHandler) (rootHandler common.RequestHandler) {
	currentHandler := mainHandler

	for i := len(filters) - 1; i >= 0; i-- {
		handler := ctx.BuildFilterHandler(filters[i])
		if handler == nil {
			continue
		}

		handler.SetNext(currentHandler)
		currentHandler = handler
	}

	return currentHandler
}

func (ctx *context) BuildFilterHandler(filter Filter) common.RequestChainedHandler {
	switch filter.Type {
	case LogFilter:
		log.Debugf("Adding Log filter. Name: %s", filter.Name)
		logFilter := filters.CreateLogFilter(filter.Name, filter.Template)
		if logFilter == nil {
			return nil
		}
		return logFilter
	case SessionFilter:
		log.Debugf("Adding session filter. Name: %s", filter.Name)
		return filters.NewSessionFilter(filter.Name, ctx.identityClient, ctx.encryptor, ctx.cookie)
	case XsrfFilter:
		log.Debugf("Adding xsrf filter. Name: %s", filter.Name)
		return filters.NewXsrfFilter(filter.Name, filter.SafeMethods)
	case UserAuthenticationFilter:
		log.Debugf("Adding user authentication filter. Name: %s", filter.Name)
		return auth.NewUserAuthenticationFilter(filter.Name, filter.UserDataRequired)
	case UserDataSenderFilter:
		log.Debugf("Adding user data sending filter. Name: %s", filter.Name)
		return auth.NewUserDataSenderFilter(
			filter.Name,
			ctx.buildUserDataSerializer(&filter),
			filter.UserDataHeader,
		)
	default:
		panic(fmt.Errorf("Undefined filter type: %v.\n", filter.Type))
	}
}

func (ctx *context) buildUserDataSerializer(filter *Filter) auth.UserSerializer {
	switch filter.UserDataTypeSerializer.Type {
	case JwtUserDataSerializer, "":
		return serializers.NewJwtUserSerializer(ctx.secrets.JwtSecret)
	default:
		panic(fmt.Errorf("Undefined user data serializer type: %v.\n", filter.UserDataTypeSerializer.Type))
	}
}

func (ctx *context) Handler() http.Handler {
	return ctx.serverMultiplexer
}

func (ctx *context) BuildServer(port int) *http.Server {
	return &http.Server{
		Addr:    fmt.Sprintf(":%v", port),
		Handler: ctx.serverMultiplexer,
	}
}
