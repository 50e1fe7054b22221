package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/applytrack/applytrack/internal/classifier"
	"github.com/applytrack/applytrack/internal/inbox"
	"github.com/applytrack/applytrack/internal/tracker"
)

func scanCmd() *cobra.Command {
	var days, max int
	var auto bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the mailbox for job-search email",
		Long: `Fetch recent messages from the configured mailbox, classify them and store
the job-related ones for review. Messages seen before are skipped.

With --auto, confident matches are filed straight away.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd.Context(), days, max, auto)
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "How many days back to look (default from config)")
	cmd.Flags().IntVar(&max, "max", 0, "Maximum messages to fetch (default from config)")
	cmd.Flags().BoolVar(&auto, "auto", false, "Auto-process confident matches after scanning")

	return cmd
}

func runScan(ctx context.Context, days, max int, auto bool) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if days < 1 {
		days = a.cfg.Classifier.ScanDays
	}
	if max < 1 {
		max = a.cfg.Classifier.MaxMessages
	}

	src, err := inbox.NewSource(ctx, a.cfg)
	if err != nil {
		return err
	}
	if d, ok := src.(interface{ Disconnect() error }); ok {
		defer d.Disconnect()
	}

	fmt.Printf("📬 Scanning the last %d days (up to %d messages)...\n", days, max)

	result, err := a.tracker.Scan(ctx, src, tracker.ScanOptions{
		Since:      time.Now().AddDate(0, 0, -days),
		MaxResults: max,
		Progress: func(done, total int) {
			fmt.Printf("\r   %d/%d", done, total)
		},
	})
	if err != nil {
		fmt.Println()
		return fmt.Errorf("scan failed: %w", err)
	}
	fmt.Println()

	fmt.Println()
	fmt.Println(headerStyle.Render("📊 Scan Results"))
	fmt.Println(rule)
	fmt.Printf("Messages scanned:  %d\n", result.Scanned)
	fmt.Printf("New messages:      %d\n", result.New)
	fmt.Printf("Job related:       %d\n", result.JobRelated)
	if skipped := result.Skipped.Dismissed + result.Skipped.AlreadyProcessed + result.Skipped.Pending; skipped > 0 {
		fmt.Printf("Already seen:      %d %s\n", skipped, dimStyle.Render(fmt.Sprintf("(%d processed, %d dismissed, %d awaiting review)",
			result.Skipped.AlreadyProcessed, result.Skipped.Dismissed, result.Skipped.Pending)))
	}

	for _, e := range result.Emails {
		fmt.Printf("  %s  %-24s %s\n",
			confidenceBadge(e.Confidence, a.cfg.Classifier.AutoProcessThreshold),
			truncate(orUnknown(e.DetectedCompany), 24),
			truncate(e.Subject, 50))
	}

	if auto {
		fmt.Println()
		return autoProcess(ctx, a, a.cfg.Classifier.AutoProcessThreshold)
	}
	if result.JobRelated > 0 {
		fmt.Println()
		fmt.Println("Run 'applytrack process --auto' to file confident matches, or 'applytrack emails' to review.")
	}
	return nil
}

func emailsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "emails",
		Short: "List job-related emails awaiting review",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			emails, err := a.store.ListPendingEmails(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Println(headerStyle.Render(fmt.Sprintf("📧 Awaiting Review (%d)", len(emails))))
			fmt.Println(rule)
			if len(emails) == 0 {
				fmt.Println("Nothing to review. 🎉")
				return nil
			}

			threshold := a.cfg.Classifier.AutoProcessThreshold
			for _, e := range emails {
				fmt.Printf("%s  %s  %s\n", idStyle.Render(fmt.Sprint(e.ID)), confidenceBadge(e.Confidence, threshold), truncate(e.Subject, 70))
				fmt.Printf("       %s %s  %s %s  %s %s\n",
					keyStyle.Render("from"), dimStyle.Render(e.SenderEmail),
					keyStyle.Render("company"), orUnknown(e.DetectedCompany),
					keyStyle.Render("signal"), e.DetectedStatus)
				if e.DetectedPosition != "" {
					fmt.Printf("       %s %s\n", keyStyle.Render("position"), e.DetectedPosition)
				}
			}
			fmt.Println()
			fmt.Println(dimStyle.Render("File with 'applytrack process create|link|dismiss <id>'"))
			return nil
		},
	}
}

func processCmd() *cobra.Command {
	var auto bool
	var threshold float64

	cmd := &cobra.Command{
		Use:   "process",
		Short: "File pending emails against applications",
		Long: `File pending emails. With --auto, every email whose confidence meets the
threshold is matched to an existing application or starts a new one.

Use the subcommands to handle single emails by hand.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !auto {
				return cmd.Help()
			}
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if !cmd.Flags().Changed("threshold") {
				threshold = a.cfg.Classifier.AutoProcessThreshold
			}
			return autoProcess(cmd.Context(), a, threshold)
		},
	}

	cmd.Flags().BoolVar(&auto, "auto", false, "Auto-process confident matches")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Minimum confidence (default from config)")

	cmd.AddCommand(processCreateCmd())
	cmd.AddCommand(processLinkCmd())
	cmd.AddCommand(processDismissCmd())

	return cmd
}

func autoProcess(ctx context.Context, a *app, threshold float64) error {
	result, err := a.tracker.AutoProcess(ctx, threshold)
	if err != nil {
		return err
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("⚡ Auto-processed %d emails (confidence ≥ %.0f%%)", result.Processed, threshold*100)))
	fmt.Println(rule)
	for _, o := range result.Outcomes {
		printOutcome(o)
	}
	fmt.Printf("\nCreated: %d  Linked: %d  Status updated: %d\n", result.Created, result.Linked, result.StatusUpdated)
	return nil
}

func printOutcome(o *tracker.EmailOutcome) {
	app := o.Application
	switch o.Kind {
	case tracker.OutcomeCreated:
		fmt.Printf("  🆕 %s - %s %s\n", app.CompanyName, app.PositionTitle, statusBadge(app.Status))
	case tracker.OutcomeUpdated:
		fmt.Printf("  ⬆️  %s - %s %s → %s\n", app.CompanyName, app.PositionTitle, statusBadge(o.OldStatus), statusBadge(o.NewStatus))
	default:
		fmt.Printf("  🔗 %s - %s %s\n", app.CompanyName, app.PositionTitle, dimStyle.Render(o.Message))
	}
}

func processCreateCmd() *cobra.Command {
	var company, position string

	cmd := &cobra.Command{
		Use:   "create <email-id>",
		Short: "File an email, creating an application if nothing matches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			outcome, err := a.tracker.CreateFromEmail(cmd.Context(), id, company, position)
			if err != nil {
				return err
			}
			printOutcome(outcome)
			return nil
		},
	}

	cmd.Flags().StringVar(&company, "company", "", "Override the detected company")
	cmd.Flags().StringVar(&position, "position", "", "Override the detected position")

	return cmd
}

func processLinkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "link <email-id> <application-id>",
		Short: "Attach an email to an application without changing its status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			emailID, err := parseID(args[0])
			if err != nil {
				return err
			}
			appID, err := parseID(args[1])
			if err != nil {
				return err
			}
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.tracker.LinkEmail(cmd.Context(), emailID, appID); err != nil {
				return err
			}
			fmt.Printf("✅ Linked email #%d to application #%d\n", emailID, appID)
			return nil
		},
	}
}

func processDismissCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss <email-id>",
		Short: "Mark an email as not relevant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.tracker.DismissEmail(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Printf("✅ Dismissed email #%d\n", id)
			return nil
		},
	}
}

func classifyCmd() *cobra.Command {
	var msg classifier.Message
	var from string

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify a single message without storing it",
		Long: `Run the classifier on a message given on the command line and print what
it detects. Useful for checking why a message was or wasn't picked up.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			msg.SenderName, msg.SenderAddress = inbox.ParseSender(from)
			c := classifier.Classify(msg)

			fmt.Println(headerStyle.Render("🔍 Classification"))
			fmt.Println(rule)
			if !c.IsJobRelated {
				fmt.Println("Not job related.")
				return nil
			}
			field("Company", orUnknown(c.Company))
			field("Position", c.Position)
			field("Signal", string(c.Signal))
			field("Rejected", c.RejectionStage)
			field("Confidence", confidenceBadge(c.Confidence, cfg.Classifier.AutoProcessThreshold))
			if len(c.Keywords) > 0 {
				field("Keywords", fmt.Sprint(c.Keywords))
			}
			if c.ShouldAutoProcess(cfg.Classifier.AutoProcessThreshold) {
				fmt.Println(okStyle.Render("  Would be auto-processed"))
			} else {
				fmt.Println(dimStyle.Render("  Would wait for review"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&msg.Subject, "subject", "", "Message subject")
	cmd.Flags().StringVar(&from, "from", "", `Sender, e.g. "Acme Careers <jobs@acme.com>"`)
	cmd.Flags().StringVar(&msg.Body, "body", "", "Message body")

	return cmd
}

func orUnknown(s string) string {
	if s == "" {
		return tracker.UnknownCompany
	}
	return s
}
