package cmd

import (
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/evermart/storefront/cart"
)

func cartCommands(a *app) []*cobra.Command {
	cartCmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage the local cart",
	}

	var quantity int32
	var size, color string
	add := &cobra.Command{
		Use:   "add PRODUCT_ID",
		Short: "Add a product to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			productID, err := uuid.Parse(args[0])
			if err != nil {
				return err
			}
			product, err := a.catalog.Product(cmd.Context(), productID)
			if err != nil {
				return err
			}
			item := cart.AddItem{
				ProductID: product.ID,
				Quantity:  quantity,
				Snapshot:  product.CartSnapshot(),
			}
			if size != "" || color != "" {
				item.Variant = &cart.Variant{Size: size, Color: color}
			}
			line, err := a.cart.Add(cmd.Context(), item)
			if err != nil {
				return err
			}
			return printJson(line)
		},
	}
	add.Flags().Int32Var(&quantity, "quantity", 1, "quantity to add")
	add.Flags().StringVar(&size, "size", "", "variant size")
	add.Flags().StringVar(&color, "color", "", "variant color")

	show := &cobra.Command{
		Use:   "show",
		Short: "Show cart lines and totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJson(map[string]any{
				"lines":    a.cart.Lines(),
				"count":    a.cart.Count(),
				"subtotal": a.cart.Subtotal(),
			})
		},
	}

	update := &cobra.Command{
		Use:   "update LINE_ID QUANTITY",
		Short: "Change a line's quantity (0 removes it)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lineID, err := uuid.Parse(args[0])
			if err != nil {
				return err
			}
			qty, err := strconv.ParseInt(args[1], 10, 32)
			if err != nil {
				return err
			}
			return a.cart.UpdateQuantity(cmd.Context(), lineID, int32(qty))
		},
	}

	remove := &cobra.Command{
		Use:   "remove LINE_ID",
		Short: "Remove a line from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lineID, err := uuid.Parse(args[0])
			if err != nil {
				return err
			}
			return a.cart.Remove(cmd.Context(), lineID)
		},
	}

	clear := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.cart.Clear(cmd.Context())
		},
	}

	cartCmd.AddCommand(add, show, update, remove, clear)
	return []*cobra.Command{cartCmd}
}
