package types

import (
	"path"
	"strings"
)

const (
	// ProjectConfigFileName is the optional per-project configuration file
	ProjectConfigFileName = "pressup.yaml"
	// ConfigFileName is the CMS configuration file driving layout detection and rewriting
	ConfigFileName = "wp-config.php"
	// ContentDirName is the CMS content/media directory
	ContentDirName = "wp-content"
	// UploadsDirName holds media uploads inside the content directory
	UploadsDirName = "uploads"
	// PluginsDirName holds plugins inside the content directory
	PluginsDirName = "plugins"
	// MuPluginsDirName holds must-use plugins inside the content directory
	MuPluginsDirName = "mu-plugins"
	// HookFileName is the must-use plugin injected by the preparation stage
	HookFileName = "pressup-hooks.php"
	// DeployIgnoreMarker marks files that must never reach the staging tree
	DeployIgnoreMarker = ".deployignore"
	// StateDirName is the tool's own state directory inside the source root
	StateDirName = ".pressup"
	// NestedCMSDirName is where the CMS root lands inside an extended staging tree
	NestedCMSDirName = "wp"
	// DumpFileExt marks database dumps produced outside of the pipeline
	DumpFileExt = ".sql"

	// Extended layout auxiliary files (relative to the framework project root)
	AuxManifestFileName = "composer.json"
	AuxLockFileName     = "composer.lock"
	AuxSettingsFileName = ".env"
	AuxVendorDirName    = "vendor"
)

type LayoutKind string

const (
	LayoutStandard LayoutKind = "standard"
	LayoutExtended LayoutKind = "extended"
)

// SiteLayout classifies the source installation shape. The extended variant
// carries the auxiliary framework paths its assembly rules need, so downstream
// code never re-derives them from the filesystem.
type SiteLayout struct {
	Kind LayoutKind

	// set for LayoutExtended only
	ProjectRoot      string
	AuxFile          string
	SettingsFragment string
	LockFile         string
	VendorDir        string
}

func Standard() SiteLayout {
	return SiteLayout{Kind: LayoutStandard}
}

func Extended(projectRoot string) SiteLayout {
	return SiteLayout{
		Kind:             LayoutExtended,
		ProjectRoot:      projectRoot,
		AuxFile:          path.Join(projectRoot, AuxManifestFileName),
		SettingsFragment: path.Join(projectRoot, AuxSettingsFileName),
		LockFile:         path.Join(projectRoot, AuxLockFileName),
		VendorDir:        path.Join(projectRoot, AuxVendorDirName),
	}
}

func (l SiteLayout) IsExtended() bool {
	return l.Kind == LayoutExtended
}

func (l SiteLayout) String() string {
	return string(l.Kind)
}

// ExecutorSpec identifies the external deployment executor binary
type ExecutorSpec struct {
	Binary     string `yaml:"binary,omitempty"`
	MinVersion string `yaml:"minVersion,omitempty"`
}

// DeploymentManifest is the read-only description of one deployment run,
// built once from configuration and the detected layout.
type DeploymentManifest struct {
	Domain           string
	Bucket           string
	LogBucket        string
	SourceRoot       string
	StagingRoot      string
	Region           string
	EnvLabel         string
	BundleUploads    bool
	RemovePlugins    []string
	InvalidationList string
	DBEncrypted      bool
	DBHostRequired   bool
	Executor         ExecutorSpec
	Layout           SiteLayout
}

// StagedCMSRoot returns the CMS root inside the staging tree: the staging root
// itself for standard layout, the nested directory for extended layout.
func (m *DeploymentManifest) StagedCMSRoot() string {
	if m.Layout.IsExtended() {
		return path.Join(m.StagingRoot, NestedCMSDirName)
	}
	return m.StagingRoot
}

func (m *DeploymentManifest) StagedConfigPath() string {
	return path.Join(m.StagedCMSRoot(), ConfigFileName)
}

func (m *DeploymentManifest) StagedContentDir() string {
	return path.Join(m.StagedCMSRoot(), ContentDirName)
}

func (m *DeploymentManifest) StagedPluginsDir() string {
	return path.Join(m.StagedContentDir(), PluginsDirName)
}

func (m *DeploymentManifest) StagedMuPluginsDir() string {
	return path.Join(m.StagedContentDir(), MuPluginsDirName)
}

func (m *DeploymentManifest) HookFilePath() string {
	return path.Join(m.StagedMuPluginsDir(), HookFileName)
}

// AlternateBucket returns the counterpart form of the website bucket:
// the www-prefixed name for an apex bucket and the de-prefixed name otherwise.
func (m *DeploymentManifest) AlternateBucket() string {
	if strings.HasPrefix(m.Bucket, "www.") {
		return strings.TrimPrefix(m.Bucket, "www.")
	}
	return "www." + m.Bucket
}

// Hostnames lists the hostnames the reconciler checks, in report order.
func (m *DeploymentManifest) Hostnames() []string {
	return []string{m.Domain, m.Bucket, m.AlternateBucket()}
}
