package main

import (
	"github.com/famledger/famledger/internal/api"
	"github.com/famledger/famledger/internal/config"
)

// Prints every route the server registers without connecting to the
// database or Redis: SetupRouter only wires handlers, it does not
// touch its backends until requests arrive.
func main() {
	cfg := config.Load()

	router, _ := api.SetupRouter(nil, nil, cfg)
	api.PrintRoutes(router)
}
