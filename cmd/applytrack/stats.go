package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/applytrack/applytrack/internal/export"
	"github.com/applytrack/applytrack/internal/scrape"
	"github.com/applytrack/applytrack/internal/stats"
)

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show job search statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.Context())
		},
	}
}

func runStats(ctx context.Context) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	apps, err := a.store.AllApplications(ctx)
	if err != nil {
		return err
	}
	d := stats.Compute(apps, time.Now())

	fmt.Println(headerStyle.Render("📊 Job Search Statistics"))
	fmt.Println(rule)
	fmt.Printf("Total applications:  %d\n", d.Overview.Total)
	fmt.Printf("Active:              %d\n", d.Overview.Active)
	fmt.Printf("This week:           %d\n", d.Overview.ThisWeek)
	fmt.Printf("Interviewing:        %d\n", d.Overview.Interviews)
	fmt.Printf("Offers:              %d\n", d.Overview.Offers)
	fmt.Printf("Rejected:            %d\n", d.Overview.Rejected)
	fmt.Printf("Withdrawn:           %d\n", d.Overview.Withdrawn)

	if d.Overview.Total == 0 {
		return nil
	}

	fmt.Println()
	fmt.Println(headerStyle.Render("📈 Response Rates"))
	fmt.Println(rule)
	fmt.Printf("Response rate:   %.1f%%\n", d.ResponseRates.ResponseRate)
	fmt.Printf("Interview rate:  %.1f%%\n", d.ResponseRates.InterviewRate)
	fmt.Printf("Offer rate:      %.1f%%\n", d.ResponseRates.OfferRate)
	if d.ResponseRates.AvgResponseDays != nil {
		fmt.Printf("Avg. response:   %.1f days\n", *d.ResponseRates.AvgResponseDays)
	}

	fmt.Println()
	fmt.Println(headerStyle.Render("🗂  By Status"))
	fmt.Println(rule)
	max := 0
	for _, sc := range d.StatusBreakdown {
		if sc.Count > max {
			max = sc.Count
		}
	}
	for _, sc := range d.StatusBreakdown {
		fmt.Printf("%-16s %4d %s\n", sc.Label, sc.Count, bar(sc.Count, max, 30, sc.Color))
	}

	fmt.Println()
	fmt.Println(headerStyle.Render("🔻 Interview Funnel"))
	fmt.Println(rule)
	for _, f := range d.InterviewFunnel {
		fmt.Printf("%-16s %4d reached %s\n", f.Stage, f.Reached, dimStyle.Render(fmt.Sprintf("(%.1f%%, %d rejected here)", f.PercentTotal, f.RejectedHere)))
	}

	if d.RejectionBreakdown.TotalRejected > 0 {
		fmt.Println()
		fmt.Println(headerStyle.Render("❌ Rejections by Stage"))
		fmt.Println(rule)
		for _, s := range d.RejectionBreakdown.ByStage {
			fmt.Printf("%-28s %4d %s\n", s.Stage, s.Count, dimStyle.Render(fmt.Sprintf("%.1f%%", s.Percentage)))
		}
	}

	return nil
}

func exportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all applications to CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			apps, err := a.store.AllApplications(cmd.Context())
			if err != nil {
				return err
			}
			if output == "" {
				output = fmt.Sprintf("applications-%s.csv", time.Now().Format("20060102"))
			}
			if err := export.WriteCSVFile(output, apps); err != nil {
				return err
			}
			fmt.Printf("✅ Exported %d applications to %s\n", len(apps), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default applications-YYYYMMDD.csv)")

	return cmd
}

func scrapeCmd() *cobra.Command {
	var render bool

	cmd := &cobra.Command{
		Use:   "scrape <url>",
		Short: "Pull the description out of a job posting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if render {
				cfg.Scraper.RenderJavaScript = true
			}

			s := scrape.New(cfg.Scraper)
			defer s.Close()

			res := s.Scrape(cmd.Context(), args[0])
			if !res.Success {
				fmt.Printf("❌ %s\n", res.Error)
				return fmt.Errorf("scrape failed")
			}

			fmt.Println(headerStyle.Render("📄 Job Posting"))
			fmt.Println(rule)
			field("Title", res.Title)
			field("Company", res.Company)
			field("URL", res.URL)
			fmt.Println()
			fmt.Println(res.Description)
			return nil
		},
	}

	cmd.Flags().BoolVar(&render, "render", false, "Render the page in headless Chrome")

	return cmd
}
