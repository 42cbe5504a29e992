package main

import (
	"github.com/evermart/storefront/cmd"
)

func main() {
	cmd.Start()
}
