package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/maya2gltf/internal/config"
)

// DumpSkeletons writes the assignments of every skinned mesh as one JSON
// object keyed by mesh name.
func DumpSkeletons(w io.Writer, meshes []MeshSkin) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "{")
	first := true
	for _, m := range meshes {
		if !m.Skeleton.IsSkinned() {
			continue
		}
		if !first {
			fmt.Fprintln(bw, ",")
		}
		first = false
		if err := m.Skeleton.Dump(bw, m.Mesh.Name); err != nil {
			return err
		}
	}
	if !first {
		fmt.Fprintln(bw)
	}
	fmt.Fprintln(bw, "}")

	return bw.Flush()
}

// dump sends the skeleton dump to the console or to a file, relative
// paths being resolved against the output folder.
func (e *Exporter) dump(meshes []MeshSkin) error {
	target := e.cfg.Output.DumpSkeletons
	if target == config.DumpToConsole {
		return DumpSkeletons(e.Stdout, meshes)
	}

	if !filepath.IsAbs(target) {
		target = filepath.Join(e.cfg.Output.Folder, target)
	}
	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("creating skeleton dump: %w", err)
	}
	defer f.Close()

	if err := DumpSkeletons(f, meshes); err != nil {
		return fmt.Errorf("writing skeleton dump: %w", err)
	}
	e.log.Info("dumped skeletons", zap.String("path", target))
	return f.Close()
}
