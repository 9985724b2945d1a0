package config

import (
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Export.ScaleFactor != 1 {
		t.Errorf("expected scale factor 1, got %f", cfg.Export.ScaleFactor)
	}
	if cfg.Export.BakeScalingFactor {
		t.Error("expected bake_scaling_factor to be false by default")
	}
	if cfg.Export.MaxNonOrthogonality != 0.05 {
		t.Errorf("expected max non-orthogonality 0.05, got %f", cfg.Export.MaxNonOrthogonality)
	}
	if cfg.Export.SkipSkinClusters || cfg.Export.SkinUsePreBindMatrixAndMesh {
		t.Error("expected skin clusters to be exported from the live pose by default")
	}

	if cfg.Output.GLTFFileExtension != ".gltf" {
		t.Errorf("expected .gltf extension, got %s", cfg.Output.GLTFFileExtension)
	}
	if cfg.Output.GLBFileExtension != ".glb" {
		t.Errorf("expected .glb extension, got %s", cfg.Output.GLBFileExtension)
	}
	if cfg.Output.Folder != "" {
		t.Errorf("expected no default output folder, got %s", cfg.Output.Folder)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "maya2gltf.yaml")

	yamlContent := `
export:
  scale_factor: 0.01
  bake_scaling_factor: true
  ignore_mesh_deformers: [skinCluster7, skinCluster9]
  skin_use_pre_bind_matrix_and_mesh: true
  report_skewed_inverse_bind_matrices: true
  max_non_orthogonality: 0.1

output:
  folder: "out"
  binary: true
  copyright: "(c) studio"
  dump_skeletons: console

logging:
  level: "debug"
  log_file: "export.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Export.ScaleFactor != 0.01 {
		t.Errorf("expected scale factor 0.01, got %f", cfg.Export.ScaleFactor)
	}
	if !cfg.Export.BakeScalingFactor {
		t.Error("expected bake_scaling_factor to be true")
	}
	if want := []string{"skinCluster7", "skinCluster9"}; !reflect.DeepEqual(cfg.Export.IgnoreMeshDeformers, want) {
		t.Errorf("expected ignored deformers %v, got %v", want, cfg.Export.IgnoreMeshDeformers)
	}
	if !cfg.Export.SkinUsePreBindMatrixAndMesh || !cfg.Export.ReportSkewedInverseBindMatrices {
		t.Error("expected skin flags to be loaded")
	}
	if cfg.Export.MaxNonOrthogonality != 0.1 {
		t.Errorf("expected max non-orthogonality 0.1, got %f", cfg.Export.MaxNonOrthogonality)
	}

	if cfg.Output.Folder != "out" || !cfg.Output.Binary {
		t.Errorf("unexpected output section %+v", cfg.Output)
	}
	if cfg.Output.DumpSkeletons != DumpToConsole {
		t.Errorf("expected dump to console, got %s", cfg.Output.DumpSkeletons)
	}
	// Not in the file, keeps its default
	if cfg.Output.GLBFileExtension != ".glb" {
		t.Errorf("expected default .glb extension, got %s", cfg.Output.GLBFileExtension)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "export.log" {
		t.Errorf("expected log file 'export.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
export:
  scale_factor: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileUnknownKey(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(configPath, []byte("export:\n  scale_factr: 2\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error for misspelled key, got nil")
	}
}

func TestLoadFromFileEmpty(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(configPath, nil, 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("empty file should load, got %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("empty file changed the defaults: %+v", cfg)
	}
}

func TestLoadFromEnv(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "env.yaml")
	if err := os.WriteFile(configPath, []byte("output:\n  folder: from-env\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	t.Setenv(EnvConfig, configPath)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Output.Folder != "from-env" {
		t.Errorf("expected folder from env config, got %q", cfg.Output.Folder)
	}

	// -config wins over the environment.
	other := filepath.Join(t.TempDir(), "flag.yaml")
	if err := os.WriteFile(other, []byte("output:\n  folder: from-flag\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	cfg, err = Load(newFlags(t, "-config", other))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Output.Folder != "from-flag" {
		t.Errorf("expected folder from -config, got %q", cfg.Output.Folder)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/maya2gltf.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	if err := os.WriteFile(filepath.Join(tmpDir, FileName), []byte("export:\n  scale_factor: 2\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Errorf("expected to find %s in current directory", FileName)
	}
}

func newFlags(t *testing.T, args ...string) *Flags {
	t.Helper()
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	f := BindFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("failed to parse %v: %v", args, err)
	}
	return f
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		verify func(*testing.T, *Config)
	}{
		{
			name: "debug flag",
			args: []string{"-debug"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
		},
		{
			name: "log flags",
			args: []string{"-log", "export.log", "-json"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.LogFile != "export.log" || !cfg.Logging.JSON {
					t.Errorf("expected log file and JSON logging, got %+v", cfg.Logging)
				}
				if cfg.Logging.Level != "info" {
					t.Errorf("expected level untouched, got %s", cfg.Logging.Level)
				}
			},
		},
		{
			name: "scale flags",
			args: []string{"-sf", "0.5", "-bsf"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Export.ScaleFactor != 0.5 {
					t.Errorf("expected scale factor 0.5, got %f", cfg.Export.ScaleFactor)
				}
				if !cfg.Export.BakeScalingFactor {
					t.Error("expected bake_scaling_factor to be true")
				}
			},
		},
		{
			name: "repeated ignore flag",
			args: []string{"-imd", "skinCluster2", "-imd", "skinCluster3"},
			verify: func(t *testing.T, cfg *Config) {
				want := []string{"skinCluster2", "skinCluster3"}
				if !reflect.DeepEqual(cfg.Export.IgnoreMeshDeformers, want) {
					t.Errorf("expected %v, got %v", want, cfg.Export.IgnoreMeshDeformers)
				}
			},
		},
		{
			name: "skin flags",
			args: []string{"-ssc", "-spm", "-rsb", "-skew", "0.2", "-vno"},
			verify: func(t *testing.T, cfg *Config) {
				e := cfg.Export
				if !e.SkipSkinClusters || !e.SkinUsePreBindMatrixAndMesh || !e.ReportSkewedInverseBindMatrices || !e.VisibleNodesOnly {
					t.Errorf("expected skin flags to be set, got %+v", e)
				}
				if e.MaxNonOrthogonality != 0.2 {
					t.Errorf("expected max non-orthogonality 0.2, got %f", e.MaxNonOrthogonality)
				}
			},
		},
		{
			name: "output flags",
			args: []string{"-of", "out", "-sn", "hero", "-glb", "-gbe", ".bin.glb", "-cpr", "me", "-dmy", "weights.json", "-cof"},
			verify: func(t *testing.T, cfg *Config) {
				want := OutputConfig{
					Folder:            "out",
					SceneName:         "hero",
					Binary:            true,
					GLTFFileExtension: ".gltf",
					GLBFileExtension:  ".bin.glb",
					Copyright:         "me",
					DumpSkeletons:     "weights.json",
					CleanOutputFolder: true,
				}
				if cfg.Output != want {
					t.Errorf("expected %+v, got %+v", want, cfg.Output)
				}
			},
		},
		{
			name: "unset flags keep defaults",
			args: nil,
			verify: func(t *testing.T, cfg *Config) {
				if !reflect.DeepEqual(cfg, Default()) {
					t.Errorf("expected defaults, got %+v", cfg)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			newFlags(t, tt.args...).apply(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "custom.yaml")

	yamlContent := `
export:
  scale_factor: 100
  skip_skin_clusters: true
output:
  folder: from-file
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(newFlags(t, "-config", configPath, "-sf", "2"))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Scale from flag, not file
	if cfg.Export.ScaleFactor != 2 {
		t.Errorf("expected scale factor 2 from flag, got %f", cfg.Export.ScaleFactor)
	}
	// No flag override
	if !cfg.Export.SkipSkinClusters {
		t.Error("expected skip_skin_clusters from file")
	}
	if cfg.Output.Folder != "from-file" {
		t.Errorf("expected folder from file, got %s", cfg.Output.Folder)
	}
}

func TestLoadWithoutFlags(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)
	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	t.Setenv(EnvConfig, "")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestValidateExportWithoutFolder(t *testing.T) {
	cfg := Default()
	if err := cfg.ValidateExport(); err != nil {
		t.Errorf("defaults should be valid for extraction, got %v", err)
	}
	cfg.Export.MaxNonOrthogonality = 0
	if err := cfg.ValidateExport(); !errors.Is(err, ErrInvalidSkewThreshold) {
		t.Errorf("expected ErrInvalidSkewThreshold, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"valid", func(c *Config) {}, nil},
		{"missing folder", func(c *Config) { c.Output.Folder = "" }, ErrMissingOutputFolder},
		{"zero scale", func(c *Config) { c.Export.ScaleFactor = 0 }, ErrInvalidScaleFactor},
		{"negative scale", func(c *Config) { c.Export.ScaleFactor = -1 }, ErrInvalidScaleFactor},
		{"zero skew", func(c *Config) { c.Export.MaxNonOrthogonality = 0 }, ErrInvalidSkewThreshold},
		{"skew of one", func(c *Config) { c.Export.MaxNonOrthogonality = 1 }, nil},
		{"negative skew", func(c *Config) { c.Export.MaxNonOrthogonality = -0.1 }, ErrInvalidSkewThreshold},
		{"skew above one", func(c *Config) { c.Export.MaxNonOrthogonality = 1.5 }, ErrInvalidSkewThreshold},
		{"extension without dot", func(c *Config) { c.Output.GLBFileExtension = "glb" }, ErrInvalidExtension},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Output.Folder = "out"
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.want == nil && err != nil {
				t.Errorf("expected valid config, got %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestScaleFactors(t *testing.T) {
	cfg := Default()
	cfg.Export.ScaleFactor = 0.01

	if cfg.BakeScaleFactor() != 1 || cfg.RootScaleFactor() != 0.01 {
		t.Errorf("not baked: bake=%f root=%f", cfg.BakeScaleFactor(), cfg.RootScaleFactor())
	}

	cfg.Export.BakeScalingFactor = true
	if cfg.BakeScaleFactor() != 0.01 || cfg.RootScaleFactor() != 1 {
		t.Errorf("baked: bake=%f root=%f", cfg.BakeScaleFactor(), cfg.RootScaleFactor())
	}
}

func TestFileExtension(t *testing.T) {
	cfg := Default()
	if cfg.FileExtension() != ".gltf" {
		t.Errorf("expected .gltf, got %s", cfg.FileExtension())
	}
	cfg.Output.Binary = true
	if cfg.FileExtension() != ".glb" {
		t.Errorf("expected .glb, got %s", cfg.FileExtension())
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)

	cfg := Default()
	cfg.Output.Folder = "out"
	cfg.Export.IgnoreMeshDeformers = []string{"skinCluster4"}

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to reload: %v", err)
	}
	if !reflect.DeepEqual(loaded, cfg) {
		t.Errorf("reloaded config differs:\n got %+v\nwant %+v", loaded, cfg)
	}
}
