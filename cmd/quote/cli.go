package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/wolfman30/sitequote/internal/pricing"
)

// estimateOutput is the --json form of the estimate command.
type estimateOutput struct {
	WebsiteType  string `json:"website_type"`
	Label        string `json:"label"`
	NumPages     int    `json:"num_pages"`
	Valid        bool   `json:"valid"`
	Price        int64  `json:"price"`
	DeliveryDays int    `json:"delivery_days"`
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(out io.Writer) *cli.App {
	app := &cli.App{
		Name:    "quote",
		Usage:   "Website price and delivery estimates from the command line",
		Version: Version,
		Writer:  out,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "catalog", Aliases: []string{"c"}, EnvVars: []string{"CATALOG_PATH"}, Usage: "Catalog file (YAML or JSON); built-in catalog when empty"},
		},
		Commands: []*cli.Command{
			estimateCmd(),
			catalogCmd(),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

func estimateCmd() *cli.Command {
	return &cli.Command{
		Name:  "estimate",
		Usage: "Estimate price and delivery days for a website",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Required: true, Usage: "Website type id"},
			&cli.IntFlag{Name: "pages", Aliases: []string{"p"}, Value: 1, Usage: "Number of pages"},
			&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Project description (required for custom)"},
			&cli.BoolFlag{Name: "json", Usage: "Emit JSON"},
		},
		Action: func(c *cli.Context) error {
			estimator, err := loadEstimator(c)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			sel := pricing.Selection{
				WebsiteTypeID:     strings.TrimSpace(c.String("type")),
				CustomDescription: c.String("description"),
				NumPages:          c.Int("pages"),
			}
			if _, ok := estimator.Catalog().Lookup(sel.WebsiteTypeID); !ok {
				return cli.Exit(fmt.Sprintf("unknown website type %q", sel.WebsiteTypeID), 1)
			}

			est := estimator.Estimate(sel)
			out := estimateOutput{
				WebsiteType:  sel.WebsiteTypeID,
				Label:        estimator.Label(sel.WebsiteTypeID),
				NumPages:     sel.NumPages,
				Valid:        estimator.IsValid(sel),
				Price:        est.Price,
				DeliveryDays: est.DeliveryDays,
			}
			if c.Bool("json") {
				return outputJSON(c.App.Writer, out)
			}

			fmt.Fprintf(c.App.Writer, "%s, %d page(s): %d (delivery %d days)\n", out.Label, out.NumPages, out.Price, out.DeliveryDays)
			if !out.Valid {
				fmt.Fprintln(c.App.Writer, "warning: selection is not submittable as entered")
			}
			return nil
		},
	}
}

func catalogCmd() *cli.Command {
	return &cli.Command{
		Name:  "catalog",
		Usage: "List website types and pricing tiers",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Emit JSON"},
		},
		Action: func(c *cli.Context) error {
			estimator, err := loadEstimator(c)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			catalog := estimator.Catalog()
			if c.Bool("json") {
				return outputJSON(c.App.Writer, pricing.CatalogResponse{
					MaxPages:     catalog.MaxPages(),
					WebsiteTypes: catalog.Types(),
				})
			}

			tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tLABEL\tBASE\tPER PAGE\tDAYS")
			for _, t := range catalog.Types() {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\n", t.ID, t.Label, t.BasePrice, t.PricePerExtraPage, t.DeliveryDaysBase)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "max pages: %d\n", catalog.MaxPages())
			for _, d := range catalog.Discounts() {
				fmt.Fprintf(c.App.Writer, "discount: %d+ pages x%s\n", d.MinPages, d.Multiplier.String())
			}
			return nil
		},
	}
}

func loadEstimator(c *cli.Context) (*pricing.Estimator, error) {
	catalog := pricing.DefaultCatalog()
	if path := strings.TrimSpace(c.String("catalog")); path != "" {
		loaded, err := pricing.LoadCatalogFile(path)
		if err != nil {
			return nil, err
		}
		catalog = loaded
	}
	return pricing.NewEstimator(catalog), nil
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
