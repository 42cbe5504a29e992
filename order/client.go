// Package order covers order creation and management. Mutations declare
// their staleness through the central invalidation table; cancellation also
// applies an optimistic update so the visible list reacts instantly, with
// rollback when the call fails.
package order

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/evermart/storefront/internal/gateway"
	"github.com/evermart/storefront/internal/log"
	"github.com/evermart/storefront/internal/query"
	"github.com/evermart/storefront/order/request"
	"github.com/evermart/storefront/order/response"
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

func (cl Client) Create(c context.Context, param request.CreateOrder) (response.Order, error) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderClient Create").
		Int("items", len(param.Items)).
		Logger()

	if err := cl.validate.Struct(param); err != nil {
		err = fmt.Errorf("invalid order with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}

	order := response.Order{}
	err := cl.cache.Do(c, query.Mutation{
		Action: query.ActionOrderCreate,
		Run: func(c context.Context) error {
			return cl.gateway.Post(c, "/orders", param, &order)
		},
	})
	if err != nil {
		return response.Order{}, err
	}
	logger.Info().Str(log.KeyOrderID, order.ID.String()).Msg("created order")
	return order, nil
}

func (cl Client) Orders(c context.Context, param request.FindOrders) ([]response.Order, error) {
	key := query.Key{query.ResourceUserOrders, param.QueryString()}
	return query.FetchAs(c, cl.cache, key, func(c context.Context) ([]response.Order, error) {
		orders := []response.Order{}
		path := "/orders"
		if qs := param.QueryString(); qs != "" {
			path += "?" + qs
		}
		if err := cl.gateway.Get(c, path, &orders); err != nil {
			return nil, err
		}
		return orders, nil
	})
}

func (cl Client) Order(c context.Context, id uuid.UUID) (response.Order, error) {
	key := query.Key{query.ResourceOrders, id.String()}
	return query.FetchAs(c, cl.cache, key, func(c context.Context) (response.Order, error) {
		order := response.Order{}
		if err := cl.gateway.Get(c, "/orders/"+id.String(), &order); err != nil {
			return response.Order{}, err
		}
		return order, nil
	})
}

func (cl Client) UpdateStatus(
	c context.Context,
	id uuid.UUID,
	param request.UpdateStatus,
) error {
	if err := cl.validate.Struct(param); err != nil {
		return fmt.Errorf("invalid status with error=%w", err)
	}
	return cl.cache.Do(c, query.Mutation{
		Action: query.ActionOrderStatus,
		Run: func(c context.Context) error {
			return cl.gateway.Put(c, "/orders/"+id.String()+"/status", param, nil)
		},
	})
}

func (cl Client) UpdateTracking(
	c context.Context,
	id uuid.UUID,
	param request.UpdateTracking,
) error {
	if err := cl.validate.Struct(param); err != nil {
		return fmt.Errorf("invalid tracking with error=%w", err)
	}
	return cl.cache.Do(c, query.Mutation{
		Action: query.ActionOrderTracking,
		Run: func(c context.Context) error {
			return cl.gateway.Put(c, "/orders/"+id.String()+"/tracking", param, nil)
		},
	})
}

// Cancel flips the order to cancelled in the cached default list before the
// call goes out; the snapshot is restored if the backend refuses.
func (cl Client) Cancel(c context.Context, id uuid.UUID) error {
	defaultList := query.Key{query.ResourceUserOrders, request.FindOrders{}.QueryString()}
	return cl.cache.Do(c, query.Mutation{
		Action: query.ActionOrderCancel,
		Run: func(c context.Context) error {
			return cl.gateway.Put(c, "/orders/"+id.String()+"/cancel", nil, nil)
		},
		Optimistic: []query.OptimisticUpdate{
			{
				Key: defaultList,
				Apply: func(current any) any {
					orders, ok := current.([]response.Order)
					if !ok {
						return current
					}
					updated := make([]response.Order, len(orders))
					copy(updated, orders)
					for i, order := range updated {
						if order.ID == id {
							updated[i].Status = response.StatusCancelled
						}
					}
					return updated
				},
			},
		},
	})
}
