// Package tiers provides the tiers command.
package tiers

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/pricemap/cmd/application"
	"github.com/agentstation/pricemap/internal/cmd/globals"
	"github.com/agentstation/pricemap/internal/cmd/output"
	"github.com/agentstation/pricemap/internal/cmd/table"
	"github.com/agentstation/pricemap/pkg/catalogs"
)

// NewCommand creates the tiers command.
func NewCommand(app application.Application) *cobra.Command {
	var price string

	cmd := &cobra.Command{
		Use:     "tiers",
		GroupID: "info",
		Short:   "Print the markup ladder",
		Long: `Tiers prints the wholesale price bands and the markup added to each.
With --price, it prints the retail price for a single wholesale price instead.`,
		Example: `  pricemap tiers
  pricemap tiers --price 1050`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tiers := app.Tiers()
			flags := &globals.Flags{Output: app.OutputFormat()}

			if price != "" {
				wholesale := catalogs.ParsePrice(price)
				quote := Quote{
					Wholesale: wholesale.String(),
					Markup:    tiers.Markup(wholesale),
					Retail:    tiers.RetailPrice(wholesale).String(),
				}
				return output.Render(cmd.OutOrStdout(), flags, quote, func(bool) table.Data {
					return table.Data{
						Headers: []string{"Wholesale", "Markup", "Retail"},
						Rows: [][]string{{
							table.FormatPrice(wholesale),
							table.FormatNumber(quote.Markup),
							table.FormatPrice(tiers.RetailPrice(wholesale)),
						}},
						ColumnAlignment: []table.Align{table.AlignRight, table.AlignRight, table.AlignRight},
					}
				})
			}

			return output.Render(cmd.OutOrStdout(), flags, tiers, func(bool) table.Data {
				return table.TiersToTableData(tiers)
			})
		},
	}

	cmd.Flags().StringVar(&price, "price", "", "wholesale price to convert")

	return cmd
}

// Quote is the retail price of one wholesale price.
type Quote struct {
	Wholesale string `json:"wholesale" yaml:"wholesale"`
	Markup    int64  `json:"markup" yaml:"markup"`
	Retail    string `json:"retail" yaml:"retail"`
}
