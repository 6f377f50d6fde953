package core

import (
	"fmt"
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Debug            bool
		TestMode         bool
		Env              string
		Build            string
		AppName          string
		SecretKey        string
		FrontendBaseURL  string
		defaultFromEmail string
		RollbarToken     string
		SentryDSN        string
		SendgridApiKey   string
		Storage          string // postgres | memory

		ClaimVerificationTimeoutDelta time.Duration

		Server   serverConfig
		Database databaseConfig
		Cache    cacheConfig
		Log      logConfig
	}

	serverConfig struct {
		Host                      string
		Address                   string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTIssuer                 string
		JWTAudience               string
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	databaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		MaxOpenConns  int
		MaxIdleConns  int
		ConnLifetime  time.Duration
	}

	cacheConfig struct {
		Backend       string // memory | redis | none
		RedisAddr     string
		RedisPassword string
		RedisDB       int
		TTL           time.Duration
		SearchTTL     time.Duration
	}

	logConfig struct {
		File       string
		MaxSizeMB  int
		MaxBackups int
		MaxAgeDays int
	}
)

func (conf *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(conf.defaultFromEmail)
	if err != nil {
		return mail.Address{Name: conf.AppName, Address: "noreply@localhost"}
	}
	return *addr
}

func (conf *Config) SetDefaultFromEmail(email string) { conf.defaultFromEmail = email }

func (db databaseConfig) Address() string {
	return db.Host + ":" + db.Port
}

// NewConfig loads the configuration of the current environment (ENV).
// Values are read from ENV-prefixed environment variables, e.g. DEV_DATABASE_HOST.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Academora")
	v.SetDefault("secretKey", "x8$k2m!q0v-z7@r3w&n9p(e5)t4y^u1b6c*d+f=g")
	v.SetDefault("frontendBaseURL", "http://localhost:5173")
	v.SetDefault("defaultFromEmail", "Academora <noreply@localhost>")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sentryDSN", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("storage", "postgres")
	v.SetDefault("claimVerificationTimeoutDelta", 3*24*time.Hour)

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtIssuer", "")
	v.SetDefault("server.jwtAudience", "")
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "academora")
	v.SetDefault("database.user", "academora")
	v.SetDefault("database.password", "academora")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "postgres")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connLifetime", 30*time.Minute)

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.redisAddr", "localhost:6379")
	v.SetDefault("cache.redisPassword", "")
	v.SetDefault("cache.redisDB", 0)
	v.SetDefault("cache.ttl", 10*time.Minute)
	v.SetDefault("cache.searchTTL", time.Minute)

	v.SetDefault("log.file", "")
	v.SetDefault("log.maxSizeMB", 50)
	v.SetDefault("log.maxBackups", 5)
	v.SetDefault("log.maxAgeDays", 28)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
		v.SetDefault("storage", "memory")
		v.SetDefault("cache.backend", "none")
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{
		Debug:                         v.GetBool("debug"),
		TestMode:                      v.GetBool("testMode"),
		Env:                           env,
		Build:                         v.GetString("build"),
		AppName:                       v.GetString("appName"),
		SecretKey:                     v.GetString("secretKey"),
		FrontendBaseURL:               strings.TrimRight(v.GetString("frontendBaseURL"), "/"),
		defaultFromEmail:              v.GetString("defaultFromEmail"),
		RollbarToken:                  v.GetString("rollbarToken"),
		SentryDSN:                     v.GetString("sentryDSN"),
		SendgridApiKey:                v.GetString("sendgridApiKey"),
		Storage:                       strings.ToLower(v.GetString("storage")),
		ClaimVerificationTimeoutDelta: v.GetDuration("claimVerificationTimeoutDelta"),
		Server: serverConfig{
			Host:                      v.GetString("server.host"),
			Address:                   v.GetString("server.address"),
			DebugHost:                 v.GetString("server.debugHost"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			JWTIssuer:                 v.GetString("server.jwtIssuer"),
			JWTAudience:               v.GetString("server.jwtAudience"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
		},
		Database: databaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
			MaxOpenConns:  v.GetInt("database.maxOpenConns"),
			MaxIdleConns:  v.GetInt("database.maxIdleConns"),
			ConnLifetime:  v.GetDuration("database.connLifetime"),
		},
		Cache: cacheConfig{
			Backend:       strings.ToLower(v.GetString("cache.backend")),
			RedisAddr:     v.GetString("cache.redisAddr"),
			RedisPassword: v.GetString("cache.redisPassword"),
			RedisDB:       v.GetInt("cache.redisDB"),
			TTL:           v.GetDuration("cache.ttl"),
			SearchTTL:     v.GetDuration("cache.searchTTL"),
		},
		Log: logConfig{
			File:       v.GetString("log.file"),
			MaxSizeMB:  v.GetInt("log.maxSizeMB"),
			MaxBackups: v.GetInt("log.maxBackups"),
			MaxAgeDays: v.GetInt("log.maxAgeDays"),
		},
	}
	if conf.Server.JWTIssuer == "" {
		conf.Server.JWTIssuer = conf.AppName
	}
	return conf
}

// NewTestConfig returns a Config suitable for unit tests; it never reads the environment.
func NewTestConfig() *Config {
	return &Config{
		Debug:                         false,
		TestMode:                      true,
		Env:                           "TEST",
		Build:                         "test",
		AppName:                       "Academora",
		SecretKey:                     "test-secret",
		FrontendBaseURL:               "http://localhost:5173",
		defaultFromEmail:              "Academora <noreply@test.local>",
		Storage:                       "memory",
		ClaimVerificationTimeoutDelta: 3 * 24 * time.Hour,
		Server: serverConfig{
			Host:                      "localhost",
			JWTIssuer:                 "Academora",
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
			ShutdownTimeout:           time.Second,
		},
		Cache: cacheConfig{Backend: "none", TTL: time.Minute, SearchTTL: time.Minute},
	}
}

func (conf *Config) String() string {
	return fmt.Sprintf("%s(%s, build=%s, storage=%s, cache=%s)", conf.AppName, conf.Env, conf.Build, conf.Storage, conf.Cache.Backend)
}
