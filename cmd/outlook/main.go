// Command outlook prints the pipeline outlook report to the terminal,
// for quick checks without opening the dashboard.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dealdash/backend/internal/config"
	"github.com/dealdash/backend/internal/fetch"
	"github.com/dealdash/backend/internal/service"
	"github.com/dealdash/backend/internal/sheets"
)

var showDetail bool

var rootCmd = &cobra.Command{
	Use:           "outlook",
	Short:         "Print the pipeline outlook from the sales spreadsheet.",
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context())
	},
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := zerolog.New(os.Stderr).Level(zerolog.WarnLevel).With().Timestamp().Logger()

	authClient, err := sheets.AuthenticatedClient(ctx, []byte(cfg.ServiceAccountJSON))
	if err != nil {
		return err
	}
	source := sheets.NewClient(cfg.SpreadsheetKey, authClient, cfg.RequestsPerMinute, logger)
	fetcher := fetch.New(
		source,
		fetch.Names{
			Deals:       cfg.DealsSheet,
			Stages:      cfg.StagesSheet,
			StagesRange: cfg.StagesRange,
			Users:       cfg.UsersSheet,
		},
		fetch.DefaultRetryPolicy(cfg.MaxRetries, cfg.RetryDelay),
		fetch.NewCache(cfg.CacheTTL, nil),
		fetch.LogNotifier{Logger: logger},
	)

	snap, err := fetcher.Load(ctx)
	if err != nil {
		return err
	}

	deals := service.ResolveSnapshot(snap.Deals, snap.Stages, snap.Users)
	out := service.BuildOutlook(deals)
	if len(out.Rows) == 0 {
		fmt.Println("条件に一致するパイプライン案件がありませんでした。")
		return nil
	}

	if showDetail {
		printDetail(out)
	}
	printOwnerSummary(out)
	printTypeSummary(out)
	printTotals(out)
	return nil
}

func printDetail(out service.Outlook) {
	fmt.Println("パイプライン案件詳細")
	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{"営業担当者", "Deal Type", "案件名", "見込売上額", "予定日"})
	var data [][]string
	for _, r := range out.Rows {
		data = append(data, []string{
			r.Owner,
			r.DealType,
			r.Name,
			service.FormatAmount(r.Amount),
			r.Schedule,
		})
	}
	renderTable(table, data)
}

func printOwnerSummary(out service.Outlook) {
	fmt.Println("営業担当者別集計")
	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{"営業担当者", "案件数", "見込売上額合計", "Deal Type数"})
	var data [][]string
	for _, s := range out.ByOwner {
		data = append(data, []string{
			s.Owner,
			strconv.Itoa(s.Deals),
			service.FormatAmount(s.AmountTotal),
			strconv.Itoa(s.DealTypes),
		})
	}
	renderTable(table, data)
}

func printTypeSummary(out service.Outlook) {
	fmt.Println("Deal Type別集計")
	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{"Deal Type", "案件数", "見込売上額合計", "営業担当者数"})
	var data [][]string
	for _, s := range out.ByType {
		data = append(data, []string{
			s.DealType,
			strconv.Itoa(s.Deals),
			service.FormatAmount(s.AmountTotal),
			strconv.Itoa(s.Owners),
		})
	}
	renderTable(table, data)
}

func printTotals(out service.Outlook) {
	bold := color.New(color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Printf("%s 総案件数 %s件 / 見込売上額合計 %s / 営業担当者 %s名 / Deal Type %s種類\n",
		bold("全体サマリー:"),
		bold(strconv.Itoa(out.Totals.Deals)),
		green(service.FormatAmount(out.Totals.AmountTotal)),
		bold(strconv.Itoa(out.Totals.Owners)),
		bold(strconv.Itoa(out.Totals.DealTypes)),
	)
}

func renderTable(table *tablewriter.Table, data [][]string) {
	if err := table.Bulk(data); err != nil {
		fmt.Fprintf(os.Stderr, "table error: %v\n", err)
		return
	}
	if err := table.Render(); err != nil {
		fmt.Fprintf(os.Stderr, "table error: %v\n", err)
	}
	fmt.Println()
}

func main() {
	rootCmd.Flags().BoolVar(&showDetail, "detail", true, "include the per-deal detail table")
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
