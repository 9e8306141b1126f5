package csv

import (
	"github.com/flowgate-io/flowgate/pkg/config"
	"github.com/flowgate-io/flowgate/pkg/connector/core"
	"github.com/flowgate-io/flowgate/pkg/connector/registry"
)

func init() {
	registry.RegisterDestination("csv", func(cfg *config.BaseConfig) (core.Destination, error) {
		return NewCSVDestination(cfg)
	})
}
