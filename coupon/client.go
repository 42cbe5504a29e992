// Package coupon validates and applies discount codes. Validation is a
// read-shaped POST (the backend computes the discount against the subtotal)
// and is not cached; applying is a mutation and goes through the table.
package coupon

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/evermart/storefront/coupon/request"
	"github.com/evermart/storefront/coupon/response"
	"github.com/evermart/storefront/internal/gateway"
	"github.com/evermart/storefront/internal/log"
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

func (cl Client) Validate(
	c context.Context,
	param request.ValidateCoupon,
) (response.Coupon, error) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CouponClient Validate").
		Str("code", param.Code).
		Logger()

	if err := cl.validate.Struct(param); err != nil {
		err = fmt.Errorf("invalid coupon validation request with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return response.Coupon{}, err
	}

	coupon := response.Coupon{}
	err := cl.gateway.Post(c, "/coupons/validate", param, &coupon)
	if err != nil {
		err = fmt.Errorf("failed validating coupon with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return response.Coupon{}, err
	}
	return coupon, nil
}

func (cl Client) Apply(c context.Context, param request.ApplyCoupon) (response.Coupon, error) {
	if err := cl.validate.Struct(param); err != nil {
		return response.Coupon{}, fmt.Errorf("invalid coupon with error=%w", err)
	}
	coupon := response.Coupon{}
	err := cl.cache.Do(c, query.Mutation{
		Action: query.ActionCouponApply,
		Run: func(c context.Context) error {
			return cl.gateway.Post(c, "/coupons/apply", param, &coupon)
		},
	})
	if err != nil {
		return response.Coupon{}, err
	}
	return coupon, nil
}
