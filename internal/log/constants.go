package log

const (
	KeyAppName     = "app"
	KeyTag         = "tag"
	KeyProcess     = "process"
	KeyConfig      = "config"
	KeyEmail       = "email"
	KeyCacheKey    = "cacheKey"
	KeyStorageKey  = "storageKey"
	KeyLineID      = "lineId"
	KeyProductID   = "productId"
	KeyQuantity    = "quantity"
	KeyOrderID     = "orderId"
	KeyUserID      = "userId"
	KeyStatusCode  = "statusCode"
	KeyMethod      = "method"
	KeyPath        = "path"
	KeySessionType = "sessionState"
	KeyAction      = "action"
)
