// Package catalog is the read-only product and category surface. Every read
// goes through the query cache under a structured key.
package catalog

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/evermart/storefront/catalog/request"
	"github.com/evermart/storefront/catalog/response"
	"github.com/evermart/storefront/internal/gateway"
	"github.com/evermart/storefront/internal/query"
)

type Client struct {
	gateway  *gateway.Client
	cache    *query.Cache
	validate *validator.Validate
}

func NewClient(gw *gateway.Client, cache *query.Cache) Client {
	return Client{
		gateway:  gw,
		cache:    cache,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (cl Client) Products(
	c context.Context,
	param request.FindProducts,
) ([]response.Product, error) {
	if err := cl.validate.Struct(param); err != nil {
		return nil, fmt.Errorf("invalid product filter with error=%w", err)
	}
	key := query.Key{query.ResourceProducts, param.QueryString()}
	return query.FetchAs(c, cl.cache, key, func(c context.Context) ([]response.Product, error) {
		products := []response.Product{}
		path := "/products"
		if qs := param.QueryString(); qs != "" {
			path += "?" + qs
		}
		if err := cl.gateway.Get(c, path, &products); err != nil {
			return nil, err
		}
		return products, nil
	})
}

func (cl Client) Product(c context.Context, id uuid.UUID) (response.Product, error) {
	key := query.Key{query.ResourceProduct, id.String()}
	return query.FetchAs(c, cl.cache, key, func(c context.Context) (response.Product, error) {
		product := response.Product{}
		if err := cl.gateway.Get(c, "/products/"+id.String(), &product); err != nil {
			return response.Product{}, err
		}
		return product, nil
	})
}

func (cl Client) ProductBySlug(c context.Context, slug string) (response.Product, error) {
	key := query.Key{query.ResourceProduct, "slug", slug}
	return query.FetchAs(c, cl.cache, key, func(c context.Context) (response.Product, error) {
		product := response.Product{}
		if err := cl.gateway.Get(c, "/products/slug/"+slug, &product); err != nil {
			return response.Product{}, err
		}
		return product, nil
	})
}

func (cl Client) Search(
	c context.Context,
	param request.SearchProducts,
) ([]response.Product, error) {
	if err := cl.validate.Struct(param); err != nil {
		return nil, fmt.Errorf("invalid search with error=%w", err)
	}
	key := query.Key{query.ResourceSearch, param.QueryString()}
	return query.FetchAs(c, cl.cache, key, func(c context.Context) ([]response.Product, error) {
		products := []response.Product{}
		if err := cl.gateway.Get(c, "/products/search?"+param.QueryString(), &products); err != nil {
			return nil, err
		}
		return products, nil
	})
}

func (cl Client) Categories(c context.Context) ([]response.Category, error) {
	key := query.Key{query.ResourceCategories}
	return query.FetchAs(c, cl.cache, key, func(c context.Context) ([]response.Category, error) {
		categories := []response.Category{}
		if err := cl.gateway.Get(c, "/categories", &categories); err != nil {
			return nil, err
		}
		return categories, nil
	})
}

func (cl Client) CategoryTree(c context.Context) ([]response.Category, error) {
	key := query.Key{query.ResourceCategoryTree}
	return query.FetchAs(c, cl.cache, key, func(c context.Context) ([]response.Category, error) {
		tree := []response.Category{}
		if err := cl.gateway.Get(c, "/categories/tree", &tree); err != nil {
			return nil, err
		}
		return tree, nil
	})
}

func (cl Client) CategoryProducts(
	c context.Context,
	categoryID uuid.UUID,
) ([]response.Product, error) {
	key := query.Key{query.ResourceCategory, categoryID.String(), "products"}
	return query.FetchAs(c, cl.cache, key, func(c context.Context) ([]response.Product, error) {
		products := []response.Product{}
		path := "/categories/" + categoryID.String() + "/products"
		if err := cl.gateway.Get(c, path, &products); err != nil {
			return nil, err
		}
		return products, nil
	})
}
