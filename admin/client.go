// Package admin is the console surface: dashboard and analytics reads plus
// user management mutations.
package admin

import (
	"context"
	"fmt"
	"net/url"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/evermart/storefront/admin/request"
	"github.com/evermart/storefront/admin/response"
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

func (cl Client) Dashboard(c context.Context) (response.Dashboard, error) {
	key := query.Key{query.ResourceAdminDashboard}
	return query.FetchAs(c, cl.cache, key, func(c context.Context) (response.Dashboard, error) {
		dashboard := response.Dashboard{}
		if err := cl.gateway.Get(c, "/admin/dashboard", &dashboard); err != nil {
			return response.Dashboard{}, err
		}
		return dashboard, nil
	})
}

func (cl Client) Analytics(c context.Context, rangeName string) (response.Analytics, error) {
	key := query.Key{query.ResourceAdminAnalytics, rangeName}
	return query.FetchAs(c, cl.cache, key, func(c context.Context) (response.Analytics, error) {
		analytics := response.Analytics{}
		path := "/admin/analytics"
		if rangeName != "" {
			path += "?range=" + url.QueryEscape(rangeName)
		}
		if err := cl.gateway.Get(c, path, &analytics); err != nil {
			return response.Analytics{}, err
		}
		return analytics, nil
	})
}

func (cl Client) Users(c context.Context, param request.FindUsers) ([]response.User, error) {
	if err := cl.validate.Struct(param); err != nil {
		return nil, fmt.Errorf("invalid user filter with error=%w", err)
	}
	key := query.Key{query.ResourceAdminUsers, param.QueryString()}
	return query.FetchAs(c, cl.cache, key, func(c context.Context) ([]response.User, error) {
		users := []response.User{}
		path := "/admin/users"
		if qs := param.QueryString(); qs != "" {
			path += "?" + qs
		}
		if err := cl.gateway.Get(c, path, &users); err != nil {
			return nil, err
		}
		return users, nil
	})
}

func (cl Client) UpdateRole(c context.Context, id uuid.UUID, param request.UpdateRole) error {
	if err := cl.validate.Struct(param); err != nil {
		return fmt.Errorf("invalid role with error=%w", err)
	}
	return cl.cache.Do(c, query.Mutation{
		Action: query.ActionAdminUserRole,
		Run: func(c context.Context) error {
			return cl.gateway.Put(c, "/admin/users/"+id.String()+"/role", param, nil)
		},
	})
}

func (cl Client) UpdateStatus(c context.Context, id uuid.UUID, param request.UpdateStatus) error {
	return cl.cache.Do(c, query.Mutation{
		Action: query.ActionAdminUserStatus,
		Run: func(c context.Context) error {
			return cl.gateway.Patch(c, "/admin/users/"+id.String()+"/status", param, nil)
		},
	})
}
