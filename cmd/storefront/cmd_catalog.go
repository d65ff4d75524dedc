package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/luther0929/Fake-Store/catalog"
	"github.com/luther0929/Fake-Store/money"
	"github.com/luther0929/Fake-Store/textutil"
)

func newProductsCmd(a *app) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List catalog products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.catalog.Get(cmd.Context())
			if err != nil {
				return err
			}
			products := cat.FilterByCategory(category)
			out := cmd.OutOrStdout()
			for _, p := range products {
				printProductLine(out, p)
			}
			if len(products) == 0 {
				fmt.Fprintf(out, "No products in %q\n", category)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", catalog.CategoryAll, "only list this category")
	return cmd
}

func newCategoriesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List catalog categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.catalog.Get(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, c := range cat.Categories() {
				fmt.Fprintf(out, "%-20s %s\n", c, textutil.CapitalizeEachWord(c))
			}
			return nil
		},
	}
}

func newProductCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "product <id>",
		Short: "Show one product",
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
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", p.Title)
			fmt.Fprintf(out, "Price:    %s\n", money.Format(p.Price))
			fmt.Fprintf(out, "Category: %s\n", textutil.CapitalizeEachWord(p.Category))
			fmt.Fprintf(out, "Rating:   %.1f (%d reviews)\n", p.Rating.Rate, p.Rating.Count)
			fmt.Fprintf(out, "\n%s\n", p.Description)
			return nil
		},
	}
}

func printProductLine(out io.Writer, p catalog.Product) {
	fmt.Fprintf(out, "%4d  %-10s %s\n", p.ID, money.Format(p.Price), p.Title)
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
