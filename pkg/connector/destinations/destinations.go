// Package destinations registers all built-in destination connectors.
package destinations

import (
	// Register destination connectors
	_ "github.com/flowgate-io/flowgate/pkg/connector/destinations/csv"
	_ "github.com/flowgate-io/flowgate/pkg/connector/destinations/jsonl"
)
