package graph

import (
	"encoding/json"
	"fmt"

	"github.com/codeintel/engine/internal/model"
)

// unmarshalNodeProperties decodes the `properties` jsonb column into the
// typed NodeProperties struct, treating an empty column as the zero value
// rather than an error.
func unmarshalNodeProperties(raw []byte, dst *model.NodeProperties) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("graph: decode node properties: %w", err)
	}
	return nil
}
