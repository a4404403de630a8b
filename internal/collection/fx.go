package collection

import (
	"github.com/smallbiznis/dunning/internal/collection/service"
	"go.uber.org/fx"
)

var Module = fx.Module("collection.service",
	fx.Provide(service.NewService),
)
