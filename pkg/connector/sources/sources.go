// Package sources registers all built-in source connectors.
package sources

import (
	// Register source connectors
	_ "github.com/flowgate-io/flowgate/pkg/connector/sources/jubelio"
)
