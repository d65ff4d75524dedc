package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/luther0929/Fake-Store/api"
	"github.com/luther0929/Fake-Store/catalog"
	"github.com/luther0929/Fake-Store/money"
	"github.com/luther0929/Fake-Store/orders"
	"github.com/luther0929/Fake-Store/session"
)

// openOrders restores the session and loads the order list.
func (a *app) openOrders(cmd *cobra.Command) (*orders.Book, string, error) {
	book := orders.NewBook(a.client, a.logger.Named("orders"))
	mgr, err := a.restore(cmd, []session.Option{session.WithOrders(book)})
	if err != nil {
		return nil, "", err
	}
	token, err := mgr.ValidToken()
	if err != nil {
		return nil, "", err
	}
	if err := book.Load(cmd.Context(), token); err != nil {
		return nil, "", fmt.Errorf("failed to load orders: %w", err)
	}
	return book, token, nil
}

func newOrdersCmd(a *app) *cobra.Command {
	ordersCmd := &cobra.Command{
		Use:   "orders",
		Short: "List and update placed orders",
	}

	var details bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List orders grouped by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			book, _, err := a.openOrders(cmd)
			if err != nil {
				return err
			}
			var cat *catalog.Catalog
			if details {
				if cat, err = a.catalog.Get(cmd.Context()); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			g := book.Groups()
			fmt.Fprintf(out, "%d new orders\n", book.NewOrdersCount())
			printGroup(out, orders.StatusNew, g.New, cat)
			printGroup(out, orders.StatusPaid, g.Paid, cat)
			printGroup(out, orders.StatusDelivered, g.Delivered, cat)
			return nil
		},
	}
	list.Flags().BoolVarP(&details, "details", "d", false, "show the items of each order")

	pay := &cobra.Command{
		Use:   "pay <id>",
		Short: "Mark an order as paid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.updateOrder(cmd, args[0], (*orders.Book).MarkPaid, "paid")
		},
	}

	receive := &cobra.Command{
		Use:   "receive <id>",
		Short: "Mark a paid order as delivered",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.updateOrder(cmd, args[0], (*orders.Book).MarkDelivered, "delivered")
		},
	}

	ordersCmd.AddCommand(list, pay, receive)
	return ordersCmd
}

type orderUpdate func(b *orders.Book, ctx context.Context, token string, id int) error

func (a *app) updateOrder(cmd *cobra.Command, arg string, update orderUpdate, verb string) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	book, token, err := a.openOrders(cmd)
	if err != nil {
		return err
	}
	if err := update(book, cmd.Context(), token, id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Order #%d marked %s\n", id, verb)
	return nil
}

func printGroup(out io.Writer, status orders.Status, list []api.Order, cat *catalog.Catalog) {
	if len(list) == 0 {
		return
	}
	fmt.Fprintf(out, "\n%s\n", status)
	for _, o := range list {
		s := orders.Summarize(o)
		fmt.Fprintf(out, "  #%-5d %3d items  %s\n", o.ID, s.TotalItems, money.Format(s.TotalAmount))
		if cat == nil {
			continue
		}
		for _, it := range orders.Items(o, cat) {
			fmt.Fprintf(out, "         %3d x %-10s %s\n", it.Quantity, money.Format(it.Price), it.Name)
		}
	}
}
