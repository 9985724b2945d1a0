package export

import (
	"fmt"

	"github.com/qmuntal/gltf"
)

// WriteDocument saves doc to path, as a .glb when binary is set and
// otherwise as a .gltf with its buffer embedded.
func WriteDocument(doc *gltf.Document, path string, binary bool) error {
	var err error
	if binary {
		err = gltf.SaveBinary(doc, path)
	} else {
		for _, b := range doc.Buffers {
			if len(b.Data) > 0 && b.URI == "" {
				b.EmbeddedResource()
			}
		}
		err = gltf.Save(doc, path)
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
