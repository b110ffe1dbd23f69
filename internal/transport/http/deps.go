package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/succession-vault/internal/application/admin"
	assetapp "github.com/succession-vault/internal/application/asset"
	"github.com/succession-vault/internal/application/claim"
	"github.com/succession-vault/internal/application/nominee"
	"github.com/succession-vault/internal/application/user"
)

// Deps holds the application services the router exposes.
type Deps struct {
	Users    user.Service
	Nominees nominee.Service
	Assets   assetapp.Service
	Claims   claim.Service
	Admin    admin.Service
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
}
