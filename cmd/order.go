package cmd

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	cartPkg "github.com/evermart/storefront/cart"
	couponReq "github.com/evermart/storefront/coupon/request"
	"github.com/evermart/storefront/order/request"
)

func orderCommands(a *app) []*cobra.Command {
	var address request.Address
	var couponCode string
	checkout := &cobra.Command{
		Use:   "checkout",
		Short: "Create an order from the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lines := a.cart.Lines()
			if len(lines) == 0 {
				return cartPkg.ErrEmptyCart
			}
			param := request.FromCartLines(lines, address, couponCode)
			order, err := a.order.Create(cmd.Context(), param)
			if err != nil {
				return err
			}
			// The cart is only a staging area; once the backend accepted the
			// order it has served its purpose.
			if err := a.cart.Clear(cmd.Context()); err != nil {
				return err
			}
			return printJson(order)
		},
	}
	checkout.Flags().StringVar(&address.Line1, "line1", "", "address line 1")
	checkout.Flags().StringVar(&address.Line2, "line2", "", "address line 2")
	checkout.Flags().StringVar(&address.City, "city", "", "city")
	checkout.Flags().StringVar(&address.State, "state", "", "state")
	checkout.Flags().StringVar(&address.PostalCode, "postal-code", "", "postal code")
	checkout.Flags().StringVar(&address.Phone, "phone", "", "contact phone")
	checkout.Flags().StringVar(&couponCode, "coupon", "", "coupon code")

	var status string
	var page int
	orders := &cobra.Command{
		Use:   "orders",
		Short: "List your orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.order.Orders(cmd.Context(), request.FindOrders{
				Status: status,
				Page:   page,
			})
			if err != nil {
				return err
			}
			return printJson(result)
		},
	}
	orders.Flags().StringVar(&status, "status", "", "filter by status")
	orders.Flags().IntVar(&page, "page", 0, "page number")

	orderCmd := &cobra.Command{
		Use:   "order ID",
		Short: "Show one order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return err
			}
			result, err := a.order.Order(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJson(result)
		},
	}

	cancel := &cobra.Command{
		Use:   "cancel ORDER_ID",
		Short: "Cancel an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return err
			}
			return a.order.Cancel(cmd.Context(), id)
		},
	}

	couponCmd := &cobra.Command{
		Use:   "coupon CODE",
		Short: "Validate a coupon against the cart subtotal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.coupon.Validate(cmd.Context(), couponReq.ValidateCoupon{
				Code:     args[0],
				Subtotal: a.cart.Subtotal(),
			})
			if err != nil {
				return err
			}
			return printJson(result)
		},
	}

	return []*cobra.Command{checkout, orders, orderCmd, cancel, couponCmd}
}
