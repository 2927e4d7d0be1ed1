// internal/markers/serializer.go
package markers

import "encoding/json"

// Serialize encodes the marker list as JSON. Key order inside each
// marker is fixed by the descriptor, sequence order follows the input.
// An empty or nil list encodes as [], never null.
func Serialize(list []MarkerDescriptor) (string, error) {
	if len(list) == 0 {
		return "[]", nil
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
