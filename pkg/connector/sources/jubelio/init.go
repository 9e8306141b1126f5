package jubelio

import (
	"github.com/flowgate-io/flowgate/pkg/config"
	"github.com/flowgate-io/flowgate/pkg/connector/core"
	"github.com/flowgate-io/flowgate/pkg/connector/registry"
)

func init() {
	registry.RegisterSource("jubelio", func(cfg *config.BaseConfig) (core.Source, error) {
		return NewJubelioSource(cfg)
	})
}
