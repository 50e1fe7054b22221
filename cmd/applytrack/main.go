package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/applytrack/applytrack/internal/config"
	"github.com/applytrack/applytrack/internal/inbox"
	"github.com/applytrack/applytrack/internal/store"
	"github.com/applytrack/applytrack/internal/tracker"
	"github.com/applytrack/applytrack/internal/web"
)

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

var cfgFile string

func resolveConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

// loadConfig reads the config file, falling back to defaults when none exists
func loadConfig() (*config.Config, error) {
	path := resolveConfigPath()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// app bundles what most commands need
type app struct {
	cfg     *config.Config
	store   *store.Store
	tracker *tracker.Service
}

func openApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	st, err := store.NewStore(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	svc := tracker.NewService(st, tracker.DefaultRules(cfg.Classifier.UseCompanyOnlyFallback())...)
	return &app{cfg: cfg, store: st, tracker: svc}, nil
}

func (a *app) Close() { a.store.Close() }

func main() {
	rootCmd := &cobra.Command{
		Use:   "applytrack",
		Short: "applytrack - Job application tracking from your inbox",
		Long: `applytrack reads job-search mail from Gmail or any IMAP inbox, works out
which company, position and hiring stage each message is about, and keeps
your applications up to date.

Confident matches can be filed automatically; everything else waits for
review. Follow-up reminders, statistics and CSV export are built in.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.applytrack/config.yaml)")

	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(authCmd())
	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(emailsCmd())
	rootCmd.AddCommand(processCmd())
	rootCmd.AddCommand(classifyCmd())
	rootCmd.AddCommand(appsCmd())
	rootCmd.AddCommand(remindersCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(scrapeCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration interactively",
		Long:  "Create a configuration file with your mailbox and reminder settings.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit()
		},
	}
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("🗂  applytrack Configuration Setup")
	fmt.Println("==================================")
	fmt.Println()

	cfg := config.Default()

	fmt.Println("📬 Mail Source")
	fmt.Println()
	source := strings.ToLower(prompt(reader, "Read mail via (gmail-api/imap) [imap]: "))
	if source == "gmail-api" {
		cfg.Gmail.Enabled = true
		if path := prompt(reader, fmt.Sprintf("OAuth client credentials file [%s]: ", cfg.Gmail.CredentialsFile)); path != "" {
			cfg.Gmail.CredentialsFile = path
		}
	} else {
		cfg.Inbox.Enabled = true
		cfg.Inbox.Provider = strings.ToLower(prompt(reader, "Provider (gmail/outlook/imap) [gmail]: "))
		if cfg.Inbox.Provider == "" {
			cfg.Inbox.Provider = "gmail"
		}
		if cfg.Inbox.Provider == "imap" {
			cfg.Inbox.Server = prompt(reader, "  IMAP server: ")
			cfg.Inbox.Port, _ = strconv.Atoi(prompt(reader, "  IMAP port [993]: "))
			if cfg.Inbox.Port == 0 {
				cfg.Inbox.Port = 993
			}
		}
		cfg.Inbox.Email = prompt(reader, "  Email address: ")
		cfg.Inbox.Password = prompt(reader, "  App password: ")
	}

	fmt.Println()
	fmt.Println("⏰ Reminders")
	fmt.Println()
	if days, err := strconv.Atoi(prompt(reader, fmt.Sprintf("Follow up after how many quiet days? [%d]: ", cfg.Reminders.FollowUpDays))); err == nil && days > 0 {
		cfg.Reminders.FollowUpDays = days
	}
	cfg.Reminders.NotifyTo = prompt(reader, "Email due reminders to (optional): ")
	if cfg.Reminders.NotifyTo != "" {
		cfg.Notify.From = prompt(reader, "  Send from address: ")
		cfg.Notify.Provider = strings.ToLower(prompt(reader, "  Provider (smtp/sendgrid/resend) [smtp]: "))
		switch cfg.Notify.Provider {
		case "sendgrid", "resend":
			cfg.Notify.APIKey = prompt(reader, "  API key: ")
		default:
			cfg.Notify.Provider = "smtp"
			cfg.Notify.SMTP.Host = prompt(reader, "  SMTP host [smtp.gmail.com]: ")
			if cfg.Notify.SMTP.Host == "" {
				cfg.Notify.SMTP.Host = "smtp.gmail.com"
			}
			cfg.Notify.SMTP.Port = 465
			cfg.Notify.SMTP.UseTLS = true
			cfg.Notify.SMTP.Username = prompt(reader, "  SMTP username: ")
			cfg.Notify.SMTP.Password = prompt(reader, "  SMTP password: ")
		}
	}

	configPath := resolveConfigPath()
	if err := config.Save(configPath, cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Printf("✅ Configuration saved to: %s\n", configPath)
	fmt.Println()
	fmt.Println("Next steps:")
	if cfg.Gmail.Enabled {
		fmt.Println("  1. Run 'applytrack auth gmail' to authorize mailbox access")
	} else {
		fmt.Println("  1. Review and edit the config file if needed")
	}
	fmt.Println("  2. Run 'applytrack scan' to pull in recent job mail")
	fmt.Println("  3. Run 'applytrack process --auto' to file confident matches")
	fmt.Println("  4. Run 'applytrack emails' to review the rest")

	return nil
}

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize access to mail providers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "gmail",
		Short: "Run the Gmail OAuth flow and cache the token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := inbox.AuthorizeGmail(cmd.Context(), cfg.Gmail, os.Stdin, os.Stdout); err != nil {
				return err
			}
			fmt.Printf("✅ Token saved to: %s\n", cfg.Gmail.TokenFile)
			return nil
		},
	})
	return cmd
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the local JSON API",
		Long: `Start a local HTTP server exposing applications, emails, reminders and
statistics as a JSON API.

The server listens on 127.0.0.1 only. Set server.app_password in the config
to require a login.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Port to listen on (default from config, 5000)")

	return cmd
}

func runServe(port int) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if port > 0 {
		a.cfg.Server.Port = port
	}

	server, err := web.NewServer(a.cfg, a.store, web.Options{})
	if err != nil {
		return fmt.Errorf("failed to create web server: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	return server.Start()
}

func prompt(reader *bufio.Reader, message string) string {
	fmt.Print(message)
	input, err := reader.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(input)
}

// parseID reads a positive numeric ID argument
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
