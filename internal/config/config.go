package config

import (
	"os"
	"strconv"
)

type Config struct {
	AppPort        string
	Environment    string
	LogLevel       string
	DBDSN          string
	RedisAddr      string
	RedisPassword  string
	JWTSecret      string
	AccessExpires  int // minutes
	RefreshExpires int // minutes

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string

	S3Bucket string

	GooglePlacesAPIKey string
	GooglePlaceID      string
	DeepLAuthKey       string

	GoogleClientID  string
	GoogleSecret    string
	GoogleRedirect  string
	FrontendBaseURL string
}

func Load() Config {
	accessExp, _ := strconv.Atoi(get("JWT_ACCESS_EXPIRES_MIN", "60"))
	refreshExp, _ := strconv.Atoi(get("JWT_REFRESH_EXPIRES_MIN", "10080"))
	smtpPort, _ := strconv.Atoi(get("SMTP_PORT", "587"))

	return Config{
		AppPort:        get("APP_PORT", "8080"),
		Environment:    get("APP_ENV", "development"),
		LogLevel:       get("LOG_LEVEL", "info"),
		DBDSN:          must("DB_DSN"),
		RedisAddr:      get("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  get("REDIS_PASSWORD", ""),
		JWTSecret:      must("JWT_SECRET"),
		AccessExpires:  accessExp,
		RefreshExpires: refreshExp,

		SMTPHost: get("SMTP_HOST", ""),
		SMTPPort: smtpPort,
		SMTPUser: get("SMTP_USER", ""),
		SMTPPass: get("SMTP_PASS", ""),
		MailFrom: get("MAIL_FROM", "info@rosenblum-buero.de"),

		S3Bucket: get("S3_BUCKET", ""),

		GooglePlacesAPIKey: get("GOOGLE_PLACES_API_KEY", ""),
		GooglePlaceID:      get("GOOGLE_PLACE_ID", ""),
		DeepLAuthKey:       get("DEEPL_AUTH_KEY", ""),

		GoogleClientID:  get("GOOGLE_CLIENT_ID", ""),
		GoogleSecret:    get("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirect:  get("GOOGLE_REDIRECT_URL", ""),
		FrontendBaseURL: get("FRONTEND_BASE_URL", "http://localhost:3000"),
	}
}

func get(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
