package cmd

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/evermart/storefront/catalog/request"
)

func catalogCommands(a *app) []*cobra.Command {
	var category string
	var page, limit int

	products := &cobra.Command{
		Use:   "products",
		Short: "Browse the product catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.catalog.Products(cmd.Context(), request.FindProducts{
				Category: category,
				Page:     page,
				Limit:    limit,
			})
			if err != nil {
				return err
			}
			return printJson(result)
		},
	}
	products.Flags().StringVar(&category, "category", "", "filter by category slug")
	products.Flags().IntVar(&page, "page", 0, "page number")
	products.Flags().IntVar(&limit, "limit", 0, "page size")

	product := &cobra.Command{
		Use:   "product ID_OR_SLUG",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if id, err := uuid.Parse(args[0]); err == nil {
				result, err := a.catalog.Product(cmd.Context(), id)
				if err != nil {
					return err
				}
				return printJson(result)
			}
			result, err := a.catalog.ProductBySlug(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJson(result)
		},
	}

	var searchPage int
	search := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search products",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.catalog.Search(cmd.Context(), request.SearchProducts{
				Query: args[0],
				Page:  searchPage,
			})
			if err != nil {
				return err
			}
			return printJson(result)
		},
	}
	search.Flags().IntVar(&searchPage, "page", 0, "page number")

	var tree bool
	categories := &cobra.Command{
		Use:   "categories",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if tree {
				result, err := a.catalog.CategoryTree(cmd.Context())
				if err != nil {
					return err
				}
				return printJson(result)
			}
			result, err := a.catalog.Categories(cmd.Context())
			if err != nil {
				return err
			}
			return printJson(result)
		},
	}
	categories.Flags().BoolVar(&tree, "tree", false, "render as nested tree")

	return []*cobra.Command{products, product, search, categories}
}
