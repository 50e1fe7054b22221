package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/applytrack/applytrack/internal/store"
	"github.com/applytrack/applytrack/internal/tracker"
)

func appsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "apps",
		Aliases: []string{"applications"},
		Short:   "List and manage applications",
	}

	cmd.AddCommand(appsListCmd())
	cmd.AddCommand(appsAddCmd())
	cmd.AddCommand(appsShowCmd())
	cmd.AddCommand(appsStatusCmd())
	cmd.AddCommand(appsEditCmd())
	cmd.AddCommand(appsDeleteCmd())
	cmd.AddCommand(appsBulkCmd())

	return cmd
}

func appsListCmd() *cobra.Command {
	var q store.ListQuery

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List applications",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAppsList(cmd.Context(), q)
		},
	}

	cmd.Flags().StringVar(&q.Status, "status", "", "Only show this status (e.g. first_interview)")
	cmd.Flags().StringVar(&q.Search, "search", "", "Match company, position or notes")
	cmd.Flags().StringVar(&q.Sort, "sort", "applied_date", "Sort column")
	cmd.Flags().StringVar(&q.Order, "order", "desc", "Sort order (asc/desc)")
	cmd.Flags().IntVar(&q.Page, "page", 1, "Page number")
	cmd.Flags().IntVar(&q.PerPage, "per-page", 25, "Results per page")

	return cmd
}

func runAppsList(ctx context.Context, q store.ListQuery) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	page, err := a.store.ListApplications(ctx, q)
	if err != nil {
		return err
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("📋 Applications (%d)", page.Total)))
	fmt.Println(rule)
	if len(page.Applications) == 0 {
		fmt.Println("No applications found.")
		return nil
	}

	for _, app := range page.Applications {
		fmt.Printf("%s  %-28s %-32s %s  %s\n",
			idStyle.Render(fmt.Sprint(app.ID)),
			truncate(app.CompanyName, 28),
			truncate(app.PositionTitle, 32),
			dimStyle.Render(app.AppliedDate.Format(time.DateOnly)),
			statusBadge(app.Status))
	}
	if page.Pages > 1 {
		fmt.Println()
		fmt.Println(dimStyle.Render(fmt.Sprintf("Page %d of %d (use --page)", page.Page, page.Pages)))
	}
	return nil
}

func appsAddCmd() *cobra.Command {
	var app tracker.Application
	var status, applied string

	cmd := &cobra.Command{
		Use:   "add <company> <position>",
		Short: "Add an application by hand",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app.CompanyName, app.PositionTitle = args[0], args[1]
			app.Status = tracker.Status(status)
			if applied != "" {
				t, err := time.Parse(time.DateOnly, applied)
				if err != nil {
					return fmt.Errorf("invalid --applied date %q: use YYYY-MM-DD", applied)
				}
				app.AppliedDate = t
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.tracker.CreateApplication(cmd.Context(), &app); err != nil {
				return err
			}
			fmt.Printf("✅ Added application #%d: %s - %s\n", app.ID, app.CompanyName, app.PositionTitle)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Initial status (default applied)")
	cmd.Flags().StringVar(&applied, "applied", "", "Applied date, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&app.JobURL, "url", "", "Job posting URL")
	cmd.Flags().StringVar(&app.Location, "location", "", "Location")
	cmd.Flags().StringVar(&app.RecruiterName, "recruiter", "", "Recruiter name")
	cmd.Flags().StringVar(&app.RecruiterEmail, "recruiter-email", "", "Recruiter email")
	cmd.Flags().StringVar(&app.Notes, "notes", "", "Notes")

	return cmd
}

func appsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show an application with its emails and reminders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runAppsShow(cmd.Context(), id)
		},
	}
}

func runAppsShow(ctx context.Context, id int64) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	app, err := a.store.GetApplication(ctx, id)
	if err != nil {
		return err
	}
	emails, err := a.store.EmailsForApplication(ctx, id)
	if err != nil {
		return err
	}
	reminders, err := a.store.RemindersForApplication(ctx, id)
	if err != nil {
		return err
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("🏢 %s - %s", app.CompanyName, app.PositionTitle)))
	fmt.Println(rule)
	field("Status", statusBadge(app.Status))
	if app.Status == tracker.StatusRejected {
		field("Rejected", app.RejectedAtStage)
	}
	field("Applied", app.AppliedDate.Format(time.DateOnly))
	if app.LastContactDate != nil {
		field("Last contact", app.LastContactDate.Format(time.DateOnly))
	}
	if app.NextActionDate != nil {
		field("Next action", app.NextActionDate.Format(time.DateOnly))
	}
	field("Location", app.Location)
	field("URL", app.JobURL)
	field("Recruiter", strings.TrimSpace(app.RecruiterName+" "+app.RecruiterEmail))
	if app.SalaryMin != nil || app.SalaryMax != nil {
		field("Salary", salaryRange(app.SalaryMin, app.SalaryMax))
	}
	field("Notes", app.Notes)

	if len(emails) > 0 {
		fmt.Println()
		fmt.Println(headerStyle.Render(fmt.Sprintf("📧 Emails (%d)", len(emails))))
		for _, e := range emails {
			fmt.Printf("  %s  %s  %s\n",
				dimStyle.Render(e.ReceivedDate.Format(time.DateOnly)),
				truncate(e.Subject, 60),
				dimStyle.Render(string(e.DetectedStatus)))
		}
	}

	if len(reminders) > 0 {
		fmt.Println()
		fmt.Println(headerStyle.Render(fmt.Sprintf("⏰ Reminders (%d)", len(reminders))))
		for _, r := range reminders {
			fmt.Printf("  %s  %s  %s\n", idStyle.Render(fmt.Sprint(r.ID)), r.ReminderDate.Format(time.DateOnly), reminderState(r))
			if r.Message != "" {
				fmt.Printf("         %s\n", dimStyle.Render(r.Message))
			}
		}
	}
	return nil
}

func salaryRange(min, max *int) string {
	switch {
	case min != nil && max != nil:
		return fmt.Sprintf("%d - %d", *min, *max)
	case min != nil:
		return fmt.Sprintf("from %d", *min)
	default:
		return fmt.Sprintf("up to %d", *max)
	}
}

func appsStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Set an application's status",
		Long: `Set an application's status. Valid statuses:

  applied, no_response, phone_screen, first_interview, second_interview,
  third_interview, offer_received, offer_accepted, offer_declined,
  rejected, withdrawn`,
		Args: cobra.ExactArgs(2),
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

			app, err := a.tracker.SetStatus(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			fmt.Printf("✅ %s - %s is now %s\n", app.CompanyName, app.PositionTitle, statusBadge(app.Status))
			if app.Status == tracker.StatusRejected && app.RejectedAtStage != "" {
				fmt.Printf("   Rejected: %s\n", app.RejectedAtStage)
			}
			return nil
		},
	}
}

func appsEditCmd() *cobra.Command {
	var company, position, url, location, notes, recruiter, recruiterEmail, status, stage string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit an application",
		Long: `Edit an application. Only the flags you pass are changed.

Renaming an application to the company and position of another one merges
the two: emails and reminders move over and the older application is kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var edit tracker.Edit
			set := func(flag string, v *string, dst **string) {
				if cmd.Flags().Changed(flag) {
					*dst = v
				}
			}
			set("company", &company, &edit.CompanyName)
			set("position", &position, &edit.PositionTitle)
			set("url", &url, &edit.JobURL)
			set("location", &location, &edit.Location)
			set("notes", &notes, &edit.Notes)
			set("recruiter", &recruiter, &edit.RecruiterName)
			set("recruiter-email", &recruiterEmail, &edit.RecruiterEmail)
			set("status", &status, &edit.Status)
			set("rejected-at", &stage, &edit.RejectedAtStage)

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.tracker.UpdateApplication(cmd.Context(), id, edit)
			if err != nil {
				return err
			}
			if res.Merged {
				fmt.Printf("🔀 %s\n", res.Message)
			}
			fmt.Printf("✅ Updated application #%d: %s - %s\n", res.Application.ID, res.Application.CompanyName, res.Application.PositionTitle)
			return nil
		},
	}

	cmd.Flags().StringVar(&company, "company", "", "Company name")
	cmd.Flags().StringVar(&position, "position", "", "Position title")
	cmd.Flags().StringVar(&url, "url", "", "Job posting URL")
	cmd.Flags().StringVar(&location, "location", "", "Location")
	cmd.Flags().StringVar(&notes, "notes", "", "Notes")
	cmd.Flags().StringVar(&recruiter, "recruiter", "", "Recruiter name")
	cmd.Flags().StringVar(&recruiterEmail, "recruiter-email", "", "Recruiter email")
	cmd.Flags().StringVar(&status, "status", "", "Status")
	cmd.Flags().StringVar(&stage, "rejected-at", "", "Rejection stage")

	return cmd
}

func appsDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an application and its emails and reminders",
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

			app, err := a.store.GetApplication(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !force {
				reader := bufio.NewReader(os.Stdin)
				answer := prompt(reader, fmt.Sprintf("Delete %s - %s? (y/N): ", app.CompanyName, app.PositionTitle))
				if strings.ToLower(answer) != "y" {
					fmt.Println("Cancelled.")
					return nil
				}
			}

			if err := a.store.DeleteApplication(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Printf("✅ Deleted application #%d\n", id)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation")

	return cmd
}

func appsBulkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bulk <file.json>",
		Short: "Add applications from a JSON file",
		Long: `Add many applications at once from a JSON array, e.g.

  [{"company_name": "Acme", "position_title": "Engineer", "applied_date": "2024-03-01T00:00:00Z"}]

Missing company or position default to "Unknown".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			var items []tracker.BulkItem
			if err := json.Unmarshal(data, &items); err != nil {
				return fmt.Errorf("failed to parse %s: %w", args[0], err)
			}
			if len(items) == 0 {
				return fmt.Errorf("%s contains no applications", args[0])
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			created, err := a.tracker.BulkCreate(cmd.Context(), items)
			if err != nil {
				return err
			}
			fmt.Printf("✅ Added %d applications\n", len(created))
			return nil
		},
	}
}
