package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	flags "github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	defaultLogFilename = "fixhub.log"
)

// Config holds runtime configuration. Every option can be given on the
// command line or through the environment (a .env file is loaded first).
type Config struct {
	Port       string `long:"port" env:"PORT" default:"8080" description:"HTTP listen port"`
	Store      string `long:"store" env:"STORE" default:"postgres" description:"Backing store {postgres, memory}"`
	AppURL     string `long:"appurl" env:"APP_URL" default:"http://localhost:3000" description:"Public URL used in notification emails"`
	LogDir     string `long:"logdir" env:"LOG_DIR" description:"Directory to write rotated log files to"`
	DebugLevel string `short:"d" long:"debuglevel" env:"DEBUG_LEVEL" default:"info" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} or <subsystem>=<level>,..."`

	DatabaseURL string `long:"dburl" env:"DATABASE_URL" description:"Postgres connection string (overrides the DB_* options)"`
	DBUser      string `long:"dbuser" env:"DB_USER" description:"Postgres user"`
	DBPassword  string `long:"dbpass" env:"DB_PASSWORD" description:"Postgres password"`
	DBHost      string `long:"dbhost" env:"DB_HOST" default:"localhost" description:"Postgres host"`
	DBPort      string `long:"dbport" env:"DB_PORT" default:"5432" description:"Postgres port"`
	DBName      string `long:"dbname" env:"DB_NAME" default:"fixhub" description:"Postgres database"`

	JWTSecret            string        `long:"jwtsecret" env:"JWT_SECRET" description:"HMAC secret for session and vault tokens"`
	SessionTTL           time.Duration `long:"sessionttl" env:"SESSION_TTL" default:"72h" description:"Lifetime of session tokens"`
	VaultTTL             time.Duration `long:"vaultttl" env:"VAULT_TTL" default:"15m" description:"Lifetime of an unlocked payment-method vault session"`
	PinMaxAttempts       int           `long:"pinmaxattempts" env:"PIN_MAX_ATTEMPTS" default:"5" description:"Consecutive wrong PINs before the vault locks"`
	PinLockout           time.Duration `long:"pinlockout" env:"PIN_LOCKOUT" default:"15m" description:"How long a locked vault stays locked"`
	AdminBootstrapSecret string        `long:"adminbootstrapsecret" env:"ADMIN_BOOTSTRAP_SECRET" description:"Secret accepted by the admin bootstrap endpoint (disabled when empty)"`

	RedisAddr         string `long:"redisaddr" env:"REDIS_ADDR" description:"Redis address for the notification queue (disabled when empty)"`
	WorkerConcurrency int    `long:"workerconcurrency" env:"WORKER_CONCURRENCY" default:"10" description:"Concurrent tasks handled by the notification worker"`
	AdminEmail        string `long:"adminemail" env:"ADMIN_EMAIL" description:"Recipient of critical operator alerts"`

	CollaboratorTimeout time.Duration `long:"collabtimeout" env:"COLLABORATOR_TIMEOUT" default:"10s" description:"Timeout for calls to external collaborators"`
	LocationMaxAge      time.Duration `long:"locationmaxage" env:"LOCATION_MAX_AGE" default:"30m" description:"Reported locations older than this are treated as unavailable"`

	OTPBaseURL string `long:"otpurl" env:"OTP_BASE_URL" description:"Base URL of the OTP service (sendOtp/verifyOtp)"`

	PaymentsURL string `long:"paymentsurl" env:"PAYMENTS_URL" description:"Payment processor base URL (sandbox processor when empty)"`
	PaymentsKey string `long:"paymentskey" env:"PAYMENTS_API_KEY" description:"Payment processor API key"`

	SupabaseURL    string `long:"supabaseurl" env:"SUPABASE_URL" description:"Supabase project URL for photo storage (in-memory store when empty)"`
	SupabaseKey    string `long:"supabasekey" env:"SUPABASE_SERVICE_ROLE_KEY" description:"Supabase service role key"`
	SupabaseBucket string `long:"supabasebucket" env:"SUPABASE_BUCKET" default:"photos" description:"Supabase storage bucket"`

	MailProvider string `long:"mailprovider" env:"MAIL_PROVIDER" description:"Mail provider {smtp, plunk}"`
	MailReplyTo  string `long:"mailreplyto" env:"MAIL_REPLY_TO" description:"Reply-To header for outgoing mail"`
	SMTPHost     string `long:"smtphost" env:"SMTP_HOST"`
	SMTPPort     string `long:"smtpport" env:"SMTP_PORT"`
	SMTPUsername string `long:"smtpuser" env:"SMTP_USERNAME"`
	SMTPPassword string `long:"smtppass" env:"SMTP_PASSWORD"`
	SMTPFrom     string `long:"smtpfrom" env:"SMTP_FROM"`
	PlunkAPIKey  string `long:"plunkkey" env:"PLUNK_API_KEY"`
	PlunkFrom    string `long:"plunkfrom" env:"PLUNK_FROM"`
	PlunkAPIURL  string `long:"plunkurl" env:"PLUNK_API_URL" default:"https://api.useplunk.com/v1/send"`
}

// Load reads .env (if present), then parses args on top of the environment.
func Load(args []string) (Config, error) {
	_ = godotenv.Load()
	return Parse(args)
}

// Parse parses args and the current environment without touching .env.
func Parse(args []string) (Config, error) {
	var cfg Config
	parser := flags.NewParser(&cfg, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := parser.ParseArgs(args); err != nil {
		return Config{}, err
	}
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks option combinations.
func (c Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.Store {
	case StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	if c.PinMaxAttempts < 1 {
		return errors.New("PIN_MAX_ATTEMPTS must be at least 1")
	}
	if c.SessionTTL <= 0 || c.VaultTTL <= 0 || c.PinLockout <= 0 {
		return errors.New("session, vault and lockout durations must be positive")
	}
	if c.WorkerConcurrency < 1 {
		return errors.New("WORKER_CONCURRENCY must be at least 1")
	}
	if c.CollaboratorTimeout <= 0 {
		return errors.New("COLLABORATOR_TIMEOUT must be positive")
	}
	return nil
}

// DSN returns the Postgres connection string.
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// HTTPAddress returns the address for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return ":" + c.Port
}

// LogFile returns the rotated log file path, empty when file logging is off.
func (c Config) LogFile() string {
	if c.LogDir == "" {
		return ""
	}
	return filepath.Join(c.LogDir, defaultLogFilename)
}
