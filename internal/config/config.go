package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultAutoProcessThreshold = 0.7
	defaultFollowUpDays         = 7
	defaultScanDays             = 30
	defaultMaxMessages          = 100
	defaultPort                 = 5000
)

func checkFilePermissions(path string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if perm := info.Mode().Perm(); perm&0077 != 0 {
		return fmt.Errorf("config file %s has insecure permissions %04o; should be 0600", path, perm)
	}
	return nil
}

type Config struct {
	Storage    StorageConfig    `yaml:"storage"`
	Inbox      InboxConfig      `yaml:"inbox,omitempty"`
	Gmail      GmailConfig      `yaml:"gmail,omitempty"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Reminders  ReminderConfig   `yaml:"reminders"`
	Notify     NotifyConfig     `yaml:"notify,omitempty"`
	Server     ServerConfig     `yaml:"server"`
	Scraper    ScraperConfig    `yaml:"scraper,omitempty"`
}

type StorageConfig struct {
	Path string `yaml:"path"` // sqlite database file
}

// InboxConfig holds IMAP settings for pulling job-search mail
type InboxConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Provider string `yaml:"provider"` // "gmail", "outlook", "imap"
	Server   string `yaml:"server"`   // e.g., "imap.gmail.com"
	Port     int    `yaml:"port"`     // e.g., 993
	Email    string `yaml:"email"`    // Mailbox login
	Password string `yaml:"password"` // App password (not main password)
	Folder   string `yaml:"folder"`   // Folder to scan (default: "INBOX")
}

// GmailConfig holds OAuth settings for the Gmail API source
type GmailConfig struct {
	Enabled         bool   `yaml:"enabled"`
	CredentialsFile string `yaml:"credentials_file"` // OAuth client JSON from Google Cloud console
	TokenFile       string `yaml:"token_file"`       // Cached OAuth token
}

type ClassifierConfig struct {
	AutoProcessThreshold float64 `yaml:"auto_process_threshold"`
	CompanyOnlyFallback  *bool   `yaml:"company_only_fallback,omitempty"` // Match on company alone when nothing else matches
	ScanDays             int     `yaml:"scan_days"`
	MaxMessages          int     `yaml:"max_messages"`
}

// UseCompanyOnlyFallback reports whether the loose company-only matching rule is on (default true)
func (c ClassifierConfig) UseCompanyOnlyFallback() bool {
	return c.CompanyOnlyFallback == nil || *c.CompanyOnlyFallback
}

type ReminderConfig struct {
	FollowUpDays int    `yaml:"follow_up_days"`
	NotifyTo     string `yaml:"notify_to,omitempty"` // Recipient for due-reminder digests
}

// NotifyConfig selects how reminder digests are delivered
type NotifyConfig struct {
	Provider string     `yaml:"provider"` // "smtp", "sendgrid", "resend"
	From     string     `yaml:"from"`
	APIKey   string     `yaml:"api_key,omitempty"`
	SMTP     SMTPConfig `yaml:"smtp,omitempty"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	UseTLS   bool   `yaml:"use_tls"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	AppPassword string `yaml:"app_password,omitempty"` // Empty disables login
}

type ScraperConfig struct {
	RenderJavaScript bool `yaml:"render_javascript"` // Use headless Chrome for JS-only job boards
	TimeoutSec       int  `yaml:"timeout_sec"`
}

func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".applytrack"
	}
	return filepath.Join(home, ".applytrack")
}

func DefaultConfigPath() string {
	return filepath.Join(DataDir(), "config.yaml")
}

// Default returns a config with every default applied and no file behind it
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the YAML config at path. A .env file in the working directory is
// loaded first so ${VAR} references can point at secrets kept outside the file.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "WARNING: failed to load .env: %v\n", err)
	}

	if err := checkFilePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: %v\n", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML config bytes, expanding ${VAR} from the environment
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Storage.Path == "" {
		c.Storage.Path = filepath.Join(DataDir(), "applytrack.db")
	}

	if c.Inbox.Folder == "" {
		c.Inbox.Folder = "INBOX"
	}
	if c.Inbox.Provider == "gmail" && c.Inbox.Server == "" {
		c.Inbox.Server = "imap.gmail.com"
		c.Inbox.Port = 993
	}
	if c.Inbox.Provider == "outlook" && c.Inbox.Server == "" {
		c.Inbox.Server = "outlook.office365.com"
		c.Inbox.Port = 993
	}

	if c.Gmail.CredentialsFile == "" {
		c.Gmail.CredentialsFile = filepath.Join(DataDir(), "credentials.json")
	}
	if c.Gmail.TokenFile == "" {
		c.Gmail.TokenFile = filepath.Join(DataDir(), "token.json")
	}

	if c.Classifier.AutoProcessThreshold == 0 {
		c.Classifier.AutoProcessThreshold = defaultAutoProcessThreshold
	}
	if c.Classifier.ScanDays == 0 {
		c.Classifier.ScanDays = defaultScanDays
	}
	if c.Classifier.MaxMessages == 0 {
		c.Classifier.MaxMessages = defaultMaxMessages
	}

	if c.Reminders.FollowUpDays == 0 {
		c.Reminders.FollowUpDays = defaultFollowUpDays
	}

	if c.Notify.Provider == "" {
		c.Notify.Provider = "smtp"
	}

	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}

	if c.Scraper.TimeoutSec == 0 {
		c.Scraper.TimeoutSec = 15
	}
}

func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

func (c *Config) Validate() error {
	if c.Classifier.AutoProcessThreshold < 0 || c.Classifier.AutoProcessThreshold > 1 {
		return fmt.Errorf("classifier: auto_process_threshold must be between 0 and 1")
	}
	if c.Classifier.ScanDays < 0 {
		return fmt.Errorf("classifier: scan_days must not be negative")
	}
	if c.Reminders.FollowUpDays < 0 {
		return fmt.Errorf("reminders: follow_up_days must not be negative")
	}
	return nil
}

// ValidateInbox validates IMAP configuration (only called when the IMAP source is used)
func (c *Config) ValidateInbox() error {
	if !c.Inbox.Enabled {
		return fmt.Errorf("inbox: IMAP source is not enabled in config")
	}
	if c.Inbox.Email == "" {
		return fmt.Errorf("inbox: email address is required")
	}
	if c.Inbox.Password == "" {
		return fmt.Errorf("inbox: password (app password) is required")
	}
	if c.Inbox.Server == "" {
		return fmt.Errorf("inbox: IMAP server is required")
	}
	if c.Inbox.Port == 0 {
		return fmt.Errorf("inbox: IMAP port is required")
	}
	return nil
}

func (c *Config) ValidateGmail() error {
	if !c.Gmail.Enabled {
		return fmt.Errorf("gmail: Gmail API source is not enabled in config")
	}
	if c.Gmail.CredentialsFile == "" {
		return fmt.Errorf("gmail: credentials_file is required")
	}
	return nil
}

// ValidateNotify validates reminder delivery settings
func (c *Config) ValidateNotify() error {
	if c.Notify.From == "" {
		return fmt.Errorf("notify: from address is required")
	}
	if c.Reminders.NotifyTo == "" {
		return fmt.Errorf("reminders: notify_to address is required")
	}
	switch c.Notify.Provider {
	case "smtp":
		if c.Notify.SMTP.Host == "" {
			return fmt.Errorf("notify.smtp: host is required")
		}
		if c.Notify.SMTP.Port == 0 {
			return fmt.Errorf("notify.smtp: port is required")
		}
	case "sendgrid", "resend":
		if c.Notify.APIKey == "" {
			return fmt.Errorf("notify: api_key is required for %s", c.Notify.Provider)
		}
	default:
		return fmt.Errorf("notify: unknown provider %q (smtp, sendgrid or resend)", c.Notify.Provider)
	}
	return nil
}
