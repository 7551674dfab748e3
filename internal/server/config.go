package server

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/signet-works/signet/internal/crypto"
)

const (
	defaultProviders    = "microsoft,google"
	defaultKarnetTTL    = 5 * time.Minute
	defaultAuthTimeout  = 10 * time.Second
	defaultListenAddr   = ":8120"
	defaultDBPath       = "signet.db"
	defaultKarnetSpaces = "karnets"
)

// Config holds server configuration loaded from environment variables.
type Config struct {
	ListenAddr string
	DBPath     string

	// Salt is the server-wide secret: it keys the email digest and derives
	// the at-rest encryption key. Never logged.
	Salt      string
	AtRestKey [32]byte

	AuthClientID     string
	AuthClientSecret string
	AuthRedirectURI  string
	AuthTokenURLs    map[string]string
	AuthTimeout      time.Duration

	KarnetRedisURI  string
	KarnetNamespace string
	KarnetTTL       time.Duration

	CORSOrigins []string
}

// LoadConfig loads server configuration from environment variables.
func LoadConfig() (*Config, error) {
	salt := os.Getenv("SIGNET_SALT")
	if salt == "" {
		return nil, fmt.Errorf("SIGNET_SALT is required")
	}
	if len(salt) < 16 {
		return nil, fmt.Errorf("SIGNET_SALT must be at least 16 characters")
	}

	clientID := os.Getenv("SIGNET_AUTH_CLIENT_ID")
	if clientID == "" {
		return nil, fmt.Errorf("SIGNET_AUTH_CLIENT_ID is required")
	}
	clientSecret := os.Getenv("SIGNET_AUTH_CLIENT_SECRET")
	if clientSecret == "" {
		return nil, fmt.Errorf("SIGNET_AUTH_CLIENT_SECRET is required")
	}
	redirectURI := os.Getenv("SIGNET_AUTH_REDIRECT_URI")
	if redirectURI == "" {
		return nil, fmt.Errorf("SIGNET_AUTH_REDIRECT_URI is required")
	}

	providers := os.Getenv("SIGNET_AUTH_PROVIDERS")
	if providers == "" {
		providers = defaultProviders
	}
	tokenURLs := make(map[string]string)
	for _, p := range strings.Split(providers, ",") {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		envKey := "SIGNET_AUTH_TOKEN_URL_" + strings.ToUpper(p)
		url := os.Getenv(envKey)
		// google falls back to its well-known endpoint; every other
		// provider needs an explicit token URL at startup.
		if url == "" && p != "google" {
			return nil, fmt.Errorf("%s is required for provider %q", envKey, p)
		}
		tokenURLs[p] = url
	}
	if len(tokenURLs) == 0 {
		return nil, fmt.Errorf("SIGNET_AUTH_PROVIDERS must name at least one provider")
	}

	authTimeout := defaultAuthTimeout
	if v := os.Getenv("SIGNET_AUTH_TIMEOUT_MILLIS"); v != "" {
		millis, err := strconv.Atoi(v)
		if err != nil || millis <= 0 {
			return nil, fmt.Errorf("SIGNET_AUTH_TIMEOUT_MILLIS must be a positive integer")
		}
		authTimeout = time.Duration(millis) * time.Millisecond
	}

	karnetTTL := defaultKarnetTTL
	if v := os.Getenv("SIGNET_KARNETS_TTL_MILLIS"); v != "" {
		millis, err := strconv.Atoi(v)
		if err != nil || millis <= 0 {
			return nil, fmt.Errorf("SIGNET_KARNETS_TTL_MILLIS must be a positive integer")
		}
		karnetTTL = time.Duration(millis) * time.Millisecond
	}

	namespace := os.Getenv("SIGNET_KARNETS_NAMESPACE")
	if namespace == "" {
		namespace = defaultKarnetSpaces
	}

	dbPath := os.Getenv("SIGNET_DB_PATH")
	if dbPath == "" {
		dbPath = defaultDBPath
	}

	listenAddr := os.Getenv("SIGNET_LISTEN_ADDR")
	if listenAddr == "" {
		listenAddr = defaultListenAddr
	}

	var corsOrigins []string
	if v := os.Getenv("SIGNET_CORS_ORIGINS"); v != "" {
		for _, o := range strings.Split(v, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				corsOrigins = append(corsOrigins, o)
			}
		}
	}

	return &Config{
		ListenAddr:       listenAddr,
		DBPath:           dbPath,
		Salt:             salt,
		AtRestKey:        crypto.DeriveKey(salt),
		AuthClientID:     clientID,
		AuthClientSecret: clientSecret,
		AuthRedirectURI:  redirectURI,
		AuthTokenURLs:    tokenURLs,
		AuthTimeout:      authTimeout,
		KarnetRedisURI:   os.Getenv("SIGNET_KARNETS_REDIS_URI"),
		KarnetNamespace:  namespace,
		KarnetTTL:        karnetTTL,
		CORSOrigins:      corsOrigins,
	}, nil
}
