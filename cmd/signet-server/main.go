package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/signet-works/signet/internal/auth"
	"github.com/signet-works/signet/internal/karnets"
	"github.com/signet-works/signet/internal/logx"
	"github.com/signet-works/signet/internal/server"
	"github.com/signet-works/signet/internal/server/db"
	"github.com/signet-works/signet/internal/version"
)

func main() {
	showVersion := flag.Bool("version", false, "Print version and exit")
	verbose := flag.Bool("verbose", false, "Enable verbose debug logs (same as --log-level debug)")
	logLevel := flag.String("log-level", "", "Log level: debug|info|warn|error (or SIGNET_LOG_LEVEL)")
	flag.BoolVar(showVersion, "v", false, "Print version and exit")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s\n\n", version.String("signet-server"))
		fmt.Fprintf(os.Stderr, "Signet server turns federated logins into per-identity signing keys reachable through short-lived karnets.\n\n")
		fmt.Fprintf(os.Stderr, "Environment variables:\n")
		fmt.Fprintf(os.Stderr, "  SIGNET_SALT                   Server-wide salt: keys email digests, derives the at-rest key (min 16 chars, required)\n")
		fmt.Fprintf(os.Stderr, "  SIGNET_AUTH_CLIENT_ID         OAuth client id (required)\n")
		fmt.Fprintf(os.Stderr, "  SIGNET_AUTH_CLIENT_SECRET     OAuth client secret (required)\n")
		fmt.Fprintf(os.Stderr, "  SIGNET_AUTH_REDIRECT_URI      OAuth redirect URI (required)\n")
		fmt.Fprintf(os.Stderr, "  SIGNET_AUTH_PROVIDERS         Comma list of provider keys (default: microsoft,google)\n")
		fmt.Fprintf(os.Stderr, "  SIGNET_AUTH_TOKEN_URL_<P>     Token endpoint per provider; google may omit it\n")
		fmt.Fprintf(os.Stderr, "  SIGNET_AUTH_TIMEOUT_MILLIS    Code-exchange timeout (default: 10000)\n")
		fmt.Fprintf(os.Stderr, "  SIGNET_KARNETS_REDIS_URI      Redis URI for the karnet cache (default: in-memory)\n")
		fmt.Fprintf(os.Stderr, "  SIGNET_KARNETS_NAMESPACE      Key namespace in the cache backend (default: karnets)\n")
		fmt.Fprintf(os.Stderr, "  SIGNET_KARNETS_TTL_MILLIS     Karnet time-to-live (default: 300000)\n")
		fmt.Fprintf(os.Stderr, "  SIGNET_DB_PATH                SQLite database path (default: signet.db)\n")
		fmt.Fprintf(os.Stderr, "  SIGNET_LISTEN_ADDR            Listen address (default: :8120)\n")
		fmt.Fprintf(os.Stderr, "  SIGNET_CORS_ORIGINS           Comma list of allowed CORS origins\n")
		fmt.Fprintf(os.Stderr, "  SIGNET_LOG_LEVEL              Log level: debug|info|warn|error (default: info)\n")
		fmt.Fprintf(os.Stderr, "\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("signet-server"))
		os.Exit(0)
	}

	if err := logx.Configure(*logLevel, *verbose); err != nil {
		log.Fatalf("configure logging: %v", err)
	}

	cfg, err := server.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Route all logs through a redacting writer so the salt and client
	// secret can never leak into the log sink.
	logx.SetOutput(logx.NewRedactingWriter(os.Stderr, []string{cfg.Salt, cfg.AuthClientSecret}))

	store, err := db.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer store.Close()

	var cache karnets.Cache
	if cfg.KarnetRedisURI != "" {
		redisCache, err := karnets.NewRedisCache(cfg.KarnetRedisURI, cfg.KarnetNamespace, cfg.KarnetTTL)
		if err != nil {
			log.Fatalf("connect karnet cache: %v", err)
		}
		defer redisCache.Close()
		cache = redisCache
	} else {
		logx.Warnf("SIGNET_KARNETS_REDIS_URI not set, using in-memory karnet cache")
		cache = karnets.NewMemoryCache(cfg.KarnetTTL)
	}

	authc, err := auth.NewClient(auth.Config{
		ClientID:     cfg.AuthClientID,
		ClientSecret: cfg.AuthClientSecret,
		RedirectURI:  cfg.AuthRedirectURI,
		TokenURLs:    cfg.AuthTokenURLs,
		Timeout:      cfg.AuthTimeout,
	})
	if err != nil {
		log.Fatalf("configure auth client: %v", err)
	}

	r := server.NewRouter(store, cache, authc, cfg)
	logx.Infof("server config: providers=%v karnet_ttl=%s redis=%v", authc.Providers(), cfg.KarnetTTL, cfg.KarnetRedisURI != "")

	log.Printf("signet-server listening on %s", cfg.ListenAddr)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
