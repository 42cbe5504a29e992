package query

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	inErrors "github.com/evermart/storefront/internal/errors"
	"github.com/evermart/storefront/internal/log"
)

// Resource names used as the first segment of query keys.
const (
	ResourceProducts       = "products"
	ResourceProduct        = "product"
	ResourceSearch         = "products-search"
	ResourceCategories     = "categories"
	ResourceCategoryTree   = "categories-tree"
	ResourceCategory       = "category"
	ResourceOrders         = "orders"
	ResourceUserOrders     = "user-orders"
	ResourceCoupons        = "coupons"
	ResourceMe             = "me"
	ResourceAdminDashboard = "admin-dashboard"
	ResourceAdminAnalytics = "admin-analytics"
	ResourceAdminUsers     = "admin-users"
)

// Action identifies a mutation class in the invalidation table.
type Action string

const (
	ActionOrderCreate     Action = "order.create"
	ActionOrderCancel     Action = "order.cancel"
	ActionOrderStatus     Action = "order.status"
	ActionOrderTracking   Action = "order.tracking"
	ActionCategoryWrite   Action = "category.write"
	ActionCouponApply     Action = "coupon.apply"
	ActionAdminUserRole   Action = "admin.user.role"
	ActionAdminUserStatus Action = "admin.user.status"
)

// invalidations is the single reviewed mapping from mutation class to the
// cached key prefixes it makes stale. Every new mutation must get a row
// here; a missing row is a stale-data bug, not a crash.
var invalidations = map[Action][]Key{
	ActionOrderCreate: {
		{ResourceOrders},
		{ResourceUserOrders},
		{ResourceProducts}, // stock changed
		{ResourceProduct},
		{ResourceAdminDashboard},
	},
	ActionOrderCancel: {
		{ResourceOrders},
		{ResourceUserOrders},
		{ResourceProducts},
		{ResourceProduct},
		{ResourceAdminDashboard},
	},
	ActionOrderStatus: {
		{ResourceOrders},
		{ResourceUserOrders},
	},
	ActionOrderTracking: {
		{ResourceOrders},
		{ResourceUserOrders},
	},
	ActionCategoryWrite: {
		{ResourceCategories},
		{ResourceCategoryTree},
		{ResourceCategory},
	},
	ActionCouponApply: {
		{ResourceCoupons},
		{ResourceOrders},
	},
	ActionAdminUserRole: {
		{ResourceAdminUsers},
	},
	ActionAdminUserStatus: {
		{ResourceAdminUsers},
	},
}

// PrefixesFor returns the declared invalidation set for a mutation class.
func PrefixesFor(action Action) []Key {
	return invalidations[action]
}

// OptimisticUpdate applies a tentative local value to one key before the
// network call; the pre-mutation snapshot is restored when the call fails.
type OptimisticUpdate struct {
	Key   Key
	Apply func(current any) any
}

type Mutation struct {
	Action     Action
	Run        func(context.Context) error
	Optimistic []OptimisticUpdate
}

// Do runs a mutation: optimistic applies first (with guaranteed rollback on
// error), then the network call, then the declared invalidations.
func (c *Cache) Do(ctx context.Context, m Mutation) error {
	ctx, span := tracer.Start(ctx, "Cache Do "+string(m.Action))
	defer span.End()

	logger := zerolog.Ctx(ctx).
		With().
		Str(log.KeyTag, "Cache Do").
		Str(log.KeyAction, string(m.Action)).
		Logger()

	type snapshot struct {
		key     Key
		value   any
		existed bool
	}
	snapshots := make([]snapshot, 0, len(m.Optimistic))
	for _, update := range m.Optimistic {
		current, ok := c.Get(update.Key)
		snapshots = append(snapshots, snapshot{key: update.Key, value: current, existed: ok})
		if ok {
			c.Set(update.Key, update.Apply(current))
		}
	}

	err := m.Run(ctx)
	if err != nil {
		for _, snap := range snapshots {
			if snap.existed {
				c.Set(snap.key, snap.value)
			} else {
				c.Invalidate(snap.key)
			}
		}
		err = fmt.Errorf("failed running mutation action=%s with error=%w", m.Action, err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	prefixes := PrefixesFor(m.Action)
	logger.Info().
		Int("invalidatedPrefixes", len(prefixes)).
		Msg("mutation succeeded, invalidating declared prefixes")
	c.Invalidate(prefixes...)
	return nil
}
