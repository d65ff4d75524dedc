package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/luther0929/Fake-Store/cart"
	"github.com/luther0929/Fake-Store/catalog"
	"github.com/luther0929/Fake-Store/metrics"
	"github.com/luther0929/Fake-Store/money"
	"github.com/luther0929/Fake-Store/session"
)

// cartSession is a signed-in cart whose edits are synced to the server.
type cartSession struct {
	store  *cart.Store
	syncer *cart.Syncer
	mgr    *session.Manager
}

// openCart restores the stored session and loads the server cart. A failed
// load is an error so that stale local edits never overwrite the server.
func (a *app) openCart(cmd *cobra.Command, m *metrics.CartMetrics) (*cartSession, error) {
	logger := a.logger.Named("cart")
	store := cart.NewStore(a.client, cart.WithLogger(logger), cart.WithMetrics(m))
	syncer := cart.NewSyncer(store,
		cart.WithPushWindow(a.cfg.Cart.PushWindow),
		cart.WithSyncLogger(logger),
		cart.WithSyncMetrics(m),
	)

	mgr, err := a.restore(cmd, []session.Option{session.WithCart(syncer)})
	if err != nil {
		syncer.Close()
		return nil, err
	}
	if err := syncer.Status().LastError; err != nil {
		syncer.Close()
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return &cartSession{store: store, syncer: syncer, mgr: mgr}, nil
}

// close pushes pending edits and stops syncing.
func (c *cartSession) close(ctx context.Context) error {
	err := c.syncer.Flush(ctx)
	c.syncer.Close()
	if err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

func newCartCmd(a *app) *cobra.Command {
	cartCmd := &cobra.Command{
		Use:   "cart",
		Short: "Show and edit the cart",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCart(cmd, func(cs *cartSession) error {
				a.printCart(cmd, cs.store.Snapshot())
				return nil
			})
		},
	}

	add := &cobra.Command{
		Use:   "add <id>",
		Short: "Add one unit of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			cat, err := a.catalog.Get(cmd.Context())
			if err != nil {
				return err
			}
			p, ok := cat.Product(id)
			if !ok {
				return fmt.Errorf("product %d not found", id)
			}
			return a.withCart(cmd, func(cs *cartSession) error {
				a.printCart(cmd, cs.store.Add(p))
				return nil
			})
		},
	}

	remove := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove one unit of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withCart(cmd, func(cs *cartSession) error {
				if _, ok := cs.store.Snapshot().Item(id); !ok {
					fmt.Fprintf(cmd.OutOrStdout(), "Product %d is not in the cart\n", id)
				}
				a.printCart(cmd, cs.store.Remove(catalog.Product{ID: id}))
				return nil
			})
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCart(cmd, func(cs *cartSession) error {
				a.printCart(cmd, cs.store.Clear())
				return nil
			})
		},
	}

	cartCmd.AddCommand(show, add, remove, clearCmd)
	return cartCmd
}

func newCheckoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCart(cmd, func(cs *cartSession) error {
				res, err := cart.Checkout(cmd.Context(), cs.store, a.client, cs.mgr.Token())
				if errors.Is(err, cart.ErrEmptyCart) {
					fmt.Fprintln(cmd.OutOrStdout(), "Your cart is empty")
					return nil
				}
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, res.Message)
				if res.OrderID != "" {
					fmt.Fprintf(out, "Order #%s: %d items, %s\n", res.OrderID, res.TotalQuantity, money.Format(res.TotalPrice))
				}
				return nil
			})
		},
	}
}

// withCart runs fn in an open cart session and saves the cart afterwards.
func (a *app) withCart(cmd *cobra.Command, fn func(*cartSession) error) error {
	cs, err := a.openCart(cmd, nil)
	if err != nil {
		return err
	}
	ferr := fn(cs)
	if err := cs.close(cmd.Context()); err != nil && ferr == nil {
		return err
	}
	return ferr
}

func (a *app) printCart(cmd *cobra.Command, st cart.State) {
	out := cmd.OutOrStdout()
	if st.IsEmpty() {
		fmt.Fprintln(out, "Your cart is empty")
		return
	}

	var lookup cart.Lookup
	if cat, err := a.catalog.Get(cmd.Context()); err == nil {
		lookup = cat
	} else {
		a.logger.Warn("catalog unavailable, showing cart without titles", zap.Error(err))
	}
	printLines(out, cart.Reconcile(st.Items, lookup))
	fmt.Fprintf(out, "Total: %d items, %s\n", st.TotalQuantity, money.Format(st.TotalPrice))
}

func printLines(out io.Writer, lines []cart.DisplayLine) {
	for _, l := range lines {
		fmt.Fprintf(out, "%4d  %3d x %-10s %-10s %s\n",
			l.ID, l.Quantity, money.Format(l.Price), money.Format(l.Subtotal()), l.Name())
	}
}
