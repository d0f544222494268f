package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Kakao holds the OAuth provider settings. The endpoint URLs default to the
// hosted Kakao endpoints and are overridable for tests.
type Kakao struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
}

// Redis captures connection settings for the session cache.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server captures everything main needs to wire the process.
type Server struct {
	Addr          string
	DatabaseURL   string
	Redis         Redis
	Kakao         Kakao
	JWTSigningKey string

	// CredentialSalt is the per-deployment value mixed into derived
	// credentials so the kakao-id -> local-account mapping is stable within
	// a deployment but not portable across deployments.
	CredentialSalt string

	SessionTTL time.Duration

	// KafkaBrokers enables the Kafka audit sink when non-empty.
	KafkaBrokers []string
	AuditTopic   string
}

const (
	defaultKakaoAuthURL     = "https://kauth.kakao.com/oauth/authorize"
	defaultKakaoTokenURL    = "https://kauth.kakao.com/oauth/token"
	defaultKakaoUserInfoURL = "https://kapi.kakao.com/v2/user/me"
)

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("GOMUNITY_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	salt := os.Getenv("CREDENTIAL_SALT")
	if salt == "" {
		salt = os.Getenv("DATABASE_URL")
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}
	auditTopic := os.Getenv("AUDIT_TOPIC")
	if auditTopic == "" {
		auditTopic = "gomunity.audit"
	}

	return Server{
		Addr:        addr,
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Redis: Redis{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kakao: Kakao{
			ClientID:     os.Getenv("KAKAO_CLIENT_ID"),
			ClientSecret: os.Getenv("KAKAO_CLIENT_SECRET"),
			RedirectURI:  os.Getenv("KAKAO_REDIRECT_URI"),
			AuthURL:      envOr("KAKAO_AUTH_URL", defaultKakaoAuthURL),
			TokenURL:     envOr("KAKAO_TOKEN_URL", defaultKakaoTokenURL),
			UserInfoURL:  envOr("KAKAO_USER_INFO_URL", defaultKakaoUserInfoURL),
		},
		JWTSigningKey:  jwtSigningKey,
		CredentialSalt: salt,
		SessionTTL:     envDuration("SESSION_TTL", 24*time.Hour),
		KafkaBrokers:   brokers,
		AuditTopic:     auditTopic,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
