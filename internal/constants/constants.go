package constants

const (
	AppName    = "storefront"
	AppCli     = "storefront-cli"
	ConfigName = "storefront"
)
