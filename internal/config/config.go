// Package config handles exporter configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"strings"
)

// Config validation errors.
var (
	ErrMissingOutputFolder  = errors.New("output folder is required")
	ErrInvalidScaleFactor   = errors.New("scale factor must be positive")
	ErrInvalidSkewThreshold = errors.New("max non-orthogonality must be within (0, 1]")
	ErrInvalidExtension     = errors.New("file extension must start with '.'")
)

// Config holds all exporter settings.
type Config struct {
	Export  ExportConfig  `yaml:"export"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// ExportConfig holds the settings that shape the exported scene and its
// skins.
type ExportConfig struct {
	ScaleFactor                     float32  `yaml:"scale_factor"`
	BakeScalingFactor               bool     `yaml:"bake_scaling_factor"`
	SkipSkinClusters                bool     `yaml:"skip_skin_clusters"`
	IgnoreMeshDeformers             []string `yaml:"ignore_mesh_deformers"`
	SkinUsePreBindMatrixAndMesh     bool     `yaml:"skin_use_pre_bind_matrix_and_mesh"`
	ReportSkewedInverseBindMatrices bool     `yaml:"report_skewed_inverse_bind_matrices"`
	MaxNonOrthogonality             float64  `yaml:"max_non_orthogonality"`
	VisibleNodesOnly                bool     `yaml:"visible_nodes_only"`
}

// OutputConfig holds where and how the glTF file is written.
type OutputConfig struct {
	Folder            string `yaml:"folder"`
	SceneName         string `yaml:"scene_name"` // empty: snapshot file name
	Binary            bool   `yaml:"binary"`
	GLTFFileExtension string `yaml:"gltf_file_extension"`
	GLBFileExtension  string `yaml:"glb_file_extension"`
	Copyright         string `yaml:"copyright"`
	DumpSkeletons     string `yaml:"dump_skeletons"` // "console" or a file path
	CleanOutputFolder bool   `yaml:"clean_output_folder"`
}

// DumpToConsole is the DumpSkeletons value that selects stdout.
const DumpToConsole = "console"

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
	JSON    bool   `yaml:"json"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Export: ExportConfig{
			ScaleFactor:         1,
			BakeScalingFactor:   false,
			MaxNonOrthogonality: 0.05,
		},
		Output: OutputConfig{
			GLTFFileExtension: ".gltf",
			GLBFileExtension:  ".glb",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks the settings an export cannot run without.
func (c *Config) Validate() error {
	if c.Output.Folder == "" {
		return ErrMissingOutputFolder
	}
	if err := c.ValidateExport(); err != nil {
		return err
	}
	for _, ext := range []string{c.Output.GLTFFileExtension, c.Output.GLBFileExtension} {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("%w: %q", ErrInvalidExtension, ext)
		}
	}
	return nil
}

// ValidateExport checks the settings that shape extraction. Commands
// that write nothing only need these.
func (c *Config) ValidateExport() error {
	if c.Export.ScaleFactor <= 0 {
		return fmt.Errorf("%w: %g", ErrInvalidScaleFactor, c.Export.ScaleFactor)
	}
	if e := c.Export.MaxNonOrthogonality; e <= 0 || e > 1 {
		return fmt.Errorf("%w: %g", ErrInvalidSkewThreshold, e)
	}
	return nil
}

// BakeScaleFactor returns the scale folded into translations: the scale
// factor when baking is enabled, 1 otherwise.
func (c *Config) BakeScaleFactor() float32 {
	if c.Export.BakeScalingFactor {
		return c.Export.ScaleFactor
	}
	return 1
}

// RootScaleFactor returns the scale left for a root node, 1 when the
// scale is baked.
func (c *Config) RootScaleFactor() float32 {
	if c.Export.BakeScalingFactor {
		return 1
	}
	return c.Export.ScaleFactor
}

// FileExtension returns the extension matching the output format.
func (c *Config) FileExtension() string {
	if c.Output.Binary {
		return c.Output.GLBFileExtension
	}
	return c.Output.GLTFFileExtension
}
