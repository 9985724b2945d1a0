package config

import (
	"flag"
	"strconv"
	"strings"
)

// stringList is a repeatable flag.
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// float32Value is a flag.Value for float32 settings.
type float32Value float32

func (f *float32Value) String() string {
	return strconv.FormatFloat(float64(*f), 'g', -1, 32)
}

func (f *float32Value) Set(v string) error {
	n, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return err
	}
	*f = float32Value(n)
	return nil
}

// Flags holds the command-line overrides bound to one FlagSet.
type Flags struct {
	fs *flag.FlagSet

	config string
	debug  bool

	scaleFactor      float32Value
	bakeScale        bool
	skipSkinClusters bool
	ignoreDeformers  stringList
	preBindMatrix    bool
	reportSkewed     bool
	maxSkew          float64
	visibleOnly      bool

	outputFolder string
	sceneName    string
	binary       bool
	gltfExt      string
	glbExt       string
	copyright    string
	dumpSkeleton string
	cleanOutput  bool

	logFile string
	logJSON bool
}

// BindFlags registers the export flags on fs. Only flags given on the
// command line override the loaded configuration.
func BindFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{fs: fs}

	fs.StringVar(&f.config, "config", "", "Path to config file")
	fs.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.logFile, "log", "", "Also write logs to this file")
	fs.BoolVar(&f.logJSON, "json", false, "Log JSON lines")

	fs.Var(&f.scaleFactor, "sf", "Global scale factor")
	fs.BoolVar(&f.bakeScale, "bsf", false, "Bake the scale factor into translations")
	fs.BoolVar(&f.skipSkinClusters, "ssc", false, "Skip skin clusters, export every mesh unskinned")
	fs.Var(&f.ignoreDeformers, "imd", "Ignore this mesh deformer (repeatable)")
	fs.BoolVar(&f.preBindMatrix, "spm", false, "Use the skin clusters' bind pre-matrices")
	fs.BoolVar(&f.reportSkewed, "rsb", false, "Report skewed inverse bind matrices")
	fs.Float64Var(&f.maxSkew, "skew", 0, "Max non-orthogonality before a matrix is reported as skewed")
	fs.BoolVar(&f.visibleOnly, "vno", false, "Export visible nodes only")

	fs.StringVar(&f.outputFolder, "of", "", "Output folder")
	fs.StringVar(&f.sceneName, "sn", "", "Scene name (default: input file name)")
	fs.BoolVar(&f.binary, "glb", false, "Write a binary .glb file")
	fs.StringVar(&f.gltfExt, "gfe", "", "glTF file extension")
	fs.StringVar(&f.glbExt, "gbe", "", "glb file extension")
	fs.StringVar(&f.copyright, "cpr", "", "Copyright notice")
	fs.StringVar(&f.dumpSkeleton, "dmy", "", "Dump skeleton weights to 'console' or a file")
	fs.BoolVar(&f.cleanOutput, "cof", false, "Remove previous output files of the scene")

	return f
}

// ConfigPath returns the explicit config path if provided via -config.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return f.config
}

// apply applies the flags that were set on the command line.
func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}

	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "debug":
			if f.debug {
				cfg.Logging.Level = "debug"
			}
		case "log":
			cfg.Logging.LogFile = f.logFile
		case "json":
			cfg.Logging.JSON = f.logJSON
		case "sf":
			cfg.Export.ScaleFactor = float32(f.scaleFactor)
		case "bsf":
			cfg.Export.BakeScalingFactor = f.bakeScale
		case "ssc":
			cfg.Export.SkipSkinClusters = f.skipSkinClusters
		case "imd":
			cfg.Export.IgnoreMeshDeformers = append(cfg.Export.IgnoreMeshDeformers, f.ignoreDeformers...)
		case "spm":
			cfg.Export.SkinUsePreBindMatrixAndMesh = f.preBindMatrix
		case "rsb":
			cfg.Export.ReportSkewedInverseBindMatrices = f.reportSkewed
		case "skew":
			cfg.Export.MaxNonOrthogonality = f.maxSkew
		case "vno":
			cfg.Export.VisibleNodesOnly = f.visibleOnly
		case "of":
			cfg.Output.Folder = f.outputFolder
		case "sn":
			cfg.Output.SceneName = f.sceneName
		case "glb":
			cfg.Output.Binary = f.binary
		case "gfe":
			cfg.Output.GLTFFileExtension = f.gltfExt
		case "gbe":
			cfg.Output.GLBFileExtension = f.glbExt
		case "cpr":
			cfg.Output.Copyright = f.copyright
		case "dmy":
			cfg.Output.DumpSkeletons = f.dumpSkeleton
		case "cof":
			cfg.Output.CleanOutputFolder = f.cleanOutput
		}
	})
}
