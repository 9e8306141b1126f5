package jsonl

import (
	"github.com/flowgate-io/flowgate/pkg/config"
	"github.com/flowgate-io/flowgate/pkg/connector/core"
	"github.com/flowgate-io/flowgate/pkg/connector/registry"
)

func init() {
	registry.RegisterDestination("jsonl", func(cfg *config.BaseConfig) (core.Destination, error) {
		return NewJSONLDestination(cfg)
	})
}
