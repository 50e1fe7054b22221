package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/applytrack/applytrack/internal/notify"
	"github.com/applytrack/applytrack/internal/reminder"
	"github.com/applytrack/applytrack/internal/tracker"
)

func remindersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "Manage follow-up reminders",
	}

	cmd.AddCommand(remindersListCmd())
	cmd.AddCommand(remindersDueCmd())
	cmd.AddCommand(remindersAddCmd())
	cmd.AddCommand(reminderChangeCmd("complete", "Mark a reminder done", func(ctx context.Context, svc *reminder.Service, id int64) (*tracker.Reminder, error) {
		return svc.Complete(ctx, id)
	}))
	cmd.AddCommand(reminderChangeCmd("dismiss", "Dismiss a reminder", func(ctx context.Context, svc *reminder.Service, id int64) (*tracker.Reminder, error) {
		return svc.Dismiss(ctx, id)
	}))
	cmd.AddCommand(remindersSnoozeCmd())
	cmd.AddCommand(remindersDeleteCmd())
	cmd.AddCommand(remindersAutoCmd())
	cmd.AddCommand(remindersNotifyCmd())

	return cmd
}

func reminderState(r *tracker.Reminder) string {
	switch {
	case r.IsCompleted:
		return okStyle.Render("done")
	case r.IsDismissed:
		return dimStyle.Render("dismissed")
	case r.ReminderDate.Before(time.Now()):
		return errorStyle.Render("due")
	}
	return "upcoming"
}

func printReminders(title string, reminders []*tracker.Reminder) {
	fmt.Println(headerStyle.Render(fmt.Sprintf("%s (%d)", title, len(reminders))))
	fmt.Println(rule)
	if len(reminders) == 0 {
		fmt.Println("No reminders.")
		return
	}
	for _, r := range reminders {
		fmt.Printf("%s  %s  %-28s %s\n",
			idStyle.Render(fmt.Sprint(r.ID)),
			r.ReminderDate.Format(time.DateOnly),
			truncate(r.CompanyName+" - "+r.PositionTitle, 28),
			reminderState(r))
		if r.Message != "" {
			fmt.Printf("       %s\n", dimStyle.Render(r.Message))
		}
	}
}

func remindersListCmd() *cobra.Command {
	var opts reminder.ListOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reminders",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			reminders, err := reminder.NewService(a.store).List(cmd.Context(), opts)
			if err != nil {
				return err
			}
			printReminders("⏰ Reminders", reminders)
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.IncludeDone, "all", false, "Include completed and dismissed reminders")
	cmd.Flags().BoolVar(&opts.UpcomingOnly, "upcoming", false, "Only reminders from today on")

	return cmd
}

func remindersDueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "due",
		Short: "List reminders due today or overdue",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			reminders, err := reminder.NewService(a.store).Due(cmd.Context())
			if err != nil {
				return err
			}
			printReminders("🔔 Due", reminders)
			return nil
		},
	}
}

func remindersAddCmd() *cobra.Command {
	var date, message string
	var inDays int

	cmd := &cobra.Command{
		Use:   "add <application-id>",
		Short: "Add a reminder for an application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appID, err := parseID(args[0])
			if err != nil {
				return err
			}

			when := time.Now().AddDate(0, 0, inDays)
			if date != "" {
				when, err = time.Parse(time.DateOnly, date)
				if err != nil {
					return fmt.Errorf("invalid --date %q: use YYYY-MM-DD", date)
				}
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			r, err := reminder.NewService(a.store).Create(cmd.Context(), appID, when, message)
			if err != nil {
				return err
			}
			fmt.Printf("✅ Reminder #%d set for %s\n", r.ID, r.ReminderDate.Format(time.DateOnly))
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Reminder date, YYYY-MM-DD")
	cmd.Flags().IntVar(&inDays, "in", 7, "Days from now (ignored with --date)")
	cmd.Flags().StringVarP(&message, "message", "m", "", "Reminder text")

	return cmd
}

func reminderChangeCmd(use, short string, change func(context.Context, *reminder.Service, int64) (*tracker.Reminder, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
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

			r, err := change(cmd.Context(), reminder.NewService(a.store), id)
			if err != nil {
				return err
			}
			fmt.Printf("✅ Reminder #%d: %s\n", r.ID, reminderState(r))
			return nil
		},
	}
}

func remindersSnoozeCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "snooze <id>",
		Short: "Push a reminder back",
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

			r, err := reminder.NewService(a.store).Snooze(cmd.Context(), id, days)
			if err != nil {
				return err
			}
			fmt.Printf("😴 Reminder #%d snoozed to %s\n", r.ID, r.ReminderDate.Format(time.DateOnly))
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 3, "Days to snooze")

	return cmd
}

func remindersDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a reminder",
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

			if err := reminder.NewService(a.store).Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Printf("✅ Deleted reminder #%d\n", id)
			return nil
		},
	}
}

func remindersAutoCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "auto",
		Short: "Create follow-up reminders for quiet applications",
		Long: `Create a follow-up reminder for every active application with no contact
in the given number of days that doesn't already have a pending reminder.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if days < 1 {
				days = a.cfg.Reminders.FollowUpDays
			}
			created, err := reminder.NewService(a.store).AutoCreate(cmd.Context(), days)
			if err != nil {
				return err
			}
			printReminders(fmt.Sprintf("⏰ Created follow-ups (no contact in %d days)", days), created)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "Days without contact (default from config)")

	return cmd
}

func remindersNotifyCmd() *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Email a digest of due reminders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNotify(cmd.Context(), to)
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Recipient (default reminders.notify_to)")

	return cmd
}

func runNotify(ctx context.Context, to string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if to != "" {
		a.cfg.Reminders.NotifyTo = to
	}
	if err := a.cfg.ValidateNotify(); err != nil {
		return err
	}
	sender, err := notify.NewSender(a.cfg.Notify)
	if err != nil {
		return err
	}

	due, err := reminder.NewService(a.store).Due(ctx)
	if err != nil {
		return err
	}
	if len(due) == 0 {
		fmt.Println("No reminders due. Nothing sent.")
		return nil
	}

	if _, err := notify.SendDigest(ctx, sender, a.cfg.Notify.From, a.cfg.Reminders.NotifyTo, due); err != nil {
		fmt.Printf("❌ %v\n", err)
		return err
	}
	fmt.Printf("✅ Sent %d reminders to %s via %s\n", len(due), a.cfg.Reminders.NotifyTo, sender.Name())
	return nil
}
