package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"storefront/web/internal/catalog"
	"storefront/web/internal/container"
	"storefront/web/internal/routes"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var routesTimeout time.Duration

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Load the catalog once and print the resolved route table",
	Long: `Load the catalog from the configured source and print every path the
storefront would serve, followed by dropped collisions and skipped entries.

Example:
  storefront routes --timeout 30s`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), routesTimeout)
		defer cancel()

		source, db, err := container.NewCatalogSource(ctx, cfg)
		if err != nil {
			return err
		}
		if db != nil {
			defer db.Close()
		}

		store := catalog.NewStore()
		if err := catalog.NewLoader(source, store).Load(ctx); err != nil {
			log.Warnf("⚠️ Catalog loaded with errors: %v", err)
		}

		table := routes.Resolve(store.Snapshot(), routes.Options{Landing: cfg.Catalog.Categories})
		printTable(table)

		if !store.Ready() {
			return fmt.Errorf("catalog is not ready, the storefront would only render the shell")
		}
		return nil
	},
}

func printTable(table *routes.Table) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PATH\tKIND\tENTITY")
	for _, d := range table.Descriptors() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", d.Path, d.Kind, entity(d))
	}
	w.Flush()

	for _, c := range table.Collisions {
		fmt.Printf("collision: %s kept %s, dropped %s %s\n", c.Path, c.Kept.Kind, c.Dropped.Kind, entity(c.Dropped))
	}
	for _, s := range table.Skipped {
		fmt.Printf("skipped: %s %s (%s)\n", s.Kind, s.ID, s.Reason)
	}
}

func entity(d routes.Descriptor) string {
	switch {
	case d.ProductID != "":
		return d.ProductID
	case d.ProductTypeID != "":
		return d.ProductTypeID
	case d.SubcategoryID != "":
		return d.SubcategoryID
	default:
		return d.CategoryID
	}
}

func init() {
	routesCmd.Flags().DurationVar(&routesTimeout, "timeout", time.Minute, "how long to wait for the catalog")
}
