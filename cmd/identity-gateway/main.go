package main

import (
	"fmt"

	ctx "github.com/neoncity/identity/pkg/context"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

func main() {

	configInit()
	config := loadConfig()
	setupLogging(config.LogLevel)

	bytes, _ := yaml.Marshal(config)
	log.Tracef("Resolved config:\n%+v", string(bytes))

	if err := ctx.ValidateConfiguration(config); err != nil {
		log.Fatal(err)
	}

	context := ctx.NewContext(config.Cookie, config.Secrets)
	if config.Identity.Embedded {
		identityServer := context.BuildEmbeddedIdentityServer(config.Identity)
		go func() {
			log.Printf("Embedded identity service starting on %v", identityServer.Addr)
			log.Fatal(identityServer.ListenAndServe())
		}()
	}
	context.SetupIdentityClient(config.Identity)
	context.SetupRouters(config.Routers)

	log.Printf("Gateway starting on port %v", config.Port)
	log.Fatal(context.BuildServer(config.Port).ListenAndServe())
}

func setupLogging(logLevel ctx.LogLevel) {
	log.SetFormatter(&log.TextFormatter{
		ForceColors: true,
	})

	switch logLevel {
	case ctx.Info:
		log.SetLevel(log.InfoLevel)
	case ctx.Debug:
		log.SetLevel(log.DebugLevel)
	case ctx.Trace:
		log.SetLevel(log.TraceLevel)
	default:
		log.SetLevel(log.WarnLevel)
	}
}

func loadConfig() *ctx.GatewayConfiguration {
	var config ctx.GatewayConfiguration
	err := viper.Unmarshal(&config)
	if err != nil {
		panic(fmt.Errorf("Fatal error config file: %s \n", err))
	}

	viper.SetEnvPrefix("")
	_ = viper.BindEnv("IDENTITY_COOKIE_SECRET")
	config.Secrets.CookieSecret = viper.GetString("IDENTITY_COOKIE_SECRET")

	_ = viper.BindEnv("IDENTITY_JWT_SECRET")
	config.Secrets.JwtSecret = viper.GetString("IDENTITY_JWT_SECRET")

	_ = viper.BindEnv("AUTH0_CLIENT_ID")
	config.Secrets.Auth0ClientId = viper.GetString("AUTH0_CLIENT_ID")

	_ = viper.BindEnv("AUTH0_CLIENT_SECRET")
	config.Secrets.Auth0ClientSecret = viper.GetString("AUTH0_CLIENT_SECRET")
	return &config
}

func configInit() {
	viper.SetConfigName("config")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./cmd/identity-gateway")

	// Defaults
	viper.SetDefault("port", 8080)
	viper.SetDefault("log-level", "info")
	viper.SetDefault("identity.env", "local")
	viper.SetDefault("identity.timeout-seconds", 10)
	viper.SetDefault("cookie.path", "/")
	viper.SetDefault("cookie.ttl-hours", 24*30)

	err := viper.ReadInConfig()
	if err != nil {
		panic(fmt.Errorf("Fatal error config file: %s \n", err))
	}
}
