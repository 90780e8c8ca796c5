package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/smartkurv/pricing-service/internal/catalog"
)

var searchOutput string

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the product catalog",
	Long: `Search the product catalog by name. Matching is accent and case
insensitive, so "mælk" and "maelk" find the same products.`,
	Example: `  pricing-service search banan
  pricing-service search mælk --output json`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVar(&searchOutput, "output", "table", "Output format: table or json")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cat := loadCatalog()
	products := cat.Search(args[0])

	switch strings.ToLower(searchOutput) {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(products)
	case "table":
		outputSearchTable(products)
	default:
		return fmt.Errorf("invalid output format: %s (use 'table' or 'json')", searchOutput)
	}

	return nil
}

func outputSearchTable(products []catalog.Product) {
	if len(products) == 0 {
		fmt.Println("No products found")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tVARIANTS")
	fmt.Fprintln(w, "--\t----\t--------")

	for _, p := range products {
		var variants []string
		for _, v := range p.Variants {
			label := v.Unit
			if v.Organic {
				label += " (øko)"
			}
			variants = append(variants, label)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.ID, p.Name, strings.Join(variants, ", "))
	}

	w.Flush()
}
