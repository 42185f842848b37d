package pressup

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/otiai10/copy"
	"github.com/pkg/errors"
	"github.com/pressup/pressup/pkg/exec"
	"github.com/pressup/pressup/pkg/pressup/types"
	"github.com/pressup/pressup/pkg/util"
)

// Installer resolves the extended framework's dependencies into its vendor
// directory (external collaborator).
type Installer interface {
	Install(ctx context.Context, projectDir string) error
}

// ComposerInstaller shells out to the composer binary on the host.
type ComposerInstaller struct {
	logger util.Logger
}

func NewComposerInstaller(logger util.Logger) *ComposerInstaller {
	return &ComposerInstaller{logger: logger}
}

func (c *ComposerInstaller) Install(ctx context.Context, projectDir string) error {
	e := exec.NewExec(ctx, c.logger)
	return e.ExecCommandAndLog("composer", "composer install --no-dev --no-interaction", exec.Opts{Wd: projectDir})
}

// TreeAssembler copies and filters the source installation into the staging
// directory according to the detected layout, then rewrites the staged config.
type TreeAssembler struct {
	manifest  *types.DeploymentManifest
	installer Installer
	cleanup   *CleanupStack
	logger    util.Logger
}

func NewTreeAssembler(manifest *types.DeploymentManifest, installer Installer, cleanup *CleanupStack, logger util.Logger) *TreeAssembler {
	return &TreeAssembler{manifest: manifest, installer: installer, cleanup: cleanup, logger: logger}
}

func (a *TreeAssembler) Assemble(ctx context.Context) error {
	m := a.manifest
	if err := os.MkdirAll(m.StagingRoot, os.ModePerm); err != nil {
		return errors.Wrapf(err, "failed to create staging dir %s", m.StagingRoot)
	}
	var err error
	if m.Layout.IsExtended() {
		err = a.assembleExtended(ctx)
	} else {
		err = a.assembleStandard()
	}
	if err != nil {
		return err
	}
	if err := a.copyInvalidationList(); err != nil {
		return err
	}
	return a.rewriteStagedConfig()
}

// sharedSkip excludes paths that must never reach any staging tree: the
// staging directory itself (prevents copying staging into itself), the tool's
// state directory, do-not-deploy markers and database dumps.
func (a *TreeAssembler) sharedSkip(src string) (bool, error) {
	if samePath(src, a.manifest.StagingRoot) {
		return true, nil
	}
	if filepath.Base(src) == types.DeployIgnoreMarker {
		return true, nil
	}
	if filepath.Base(src) == types.StateDirName {
		return true, nil
	}
	if filepath.Ext(src) == types.DumpFileExt {
		return true, nil
	}
	return false, nil
}

func (a *TreeAssembler) assembleStandard() error {
	m := a.manifest
	src := m.SourceRoot

	if err := util.CopyFile(path.Join(src, types.ConfigFileName), m.StagedConfigPath()); err != nil {
		return errors.Wrapf(err, "failed to stage %s", types.ConfigFileName)
	}
	contentSrc := path.Join(src, types.ContentDirName)
	if util.DirExists(contentSrc) {
		uploadsDir := path.Join(contentSrc, types.UploadsDirName)
		err := copy.Copy(contentSrc, m.StagedContentDir(), copy.Options{
			Skip: func(p string) (bool, error) {
				if !m.BundleUploads && isUnder(p, uploadsDir) {
					return true, nil
				}
				return a.sharedSkip(p)
			},
		})
		if err != nil {
			return errors.Wrapf(err, "failed to stage %s", types.ContentDirName)
		}
	}
	// remainder of the source tree, minus what the explicit copies placed
	err := copy.Copy(src, m.StagingRoot, copy.Options{
		Skip: func(p string) (bool, error) {
			rel, relErr := filepath.Rel(src, p)
			if relErr == nil && (rel == types.ContentDirName || strings.HasPrefix(rel, types.ContentDirName+string(os.PathSeparator))) {
				return true, nil
			}
			if relErr == nil && rel == types.ConfigFileName {
				return true, nil
			}
			return a.sharedSkip(p)
		},
	})
	return errors.Wrapf(err, "failed to stage source tree from %s", src)
}

func (a *TreeAssembler) assembleExtended(ctx context.Context) error {
	m := a.manifest
	lay := m.Layout

	// resolve framework dependencies when the lock file exists without them;
	// the created vendor dir is a source-tree side effect and must go away on failure
	if util.FileExists(lay.LockFile) && !util.DirExists(lay.VendorDir) {
		a.logger.Logf(" - Resolving framework dependencies in %s", lay.ProjectRoot)
		if err := a.installer.Install(ctx, lay.ProjectRoot); err != nil {
			return errors.Wrapf(err, "failed to install framework dependencies")
		}
		vendorDir := lay.VendorDir
		a.cleanup.Register("installed dependency directory "+vendorDir, func() error {
			return os.RemoveAll(vendorDir)
		})
	}

	// the CMS goes in first, then shifts one level deeper: the CMS lives
	// inside the extended framework's web root
	if err := copy.Copy(m.SourceRoot, m.StagingRoot, copy.Options{Skip: a.sharedSkip}); err != nil {
		return errors.Wrapf(err, "failed to stage CMS root from %s", m.SourceRoot)
	}
	tmp := strings.TrimSuffix(m.StagingRoot, "/") + ".nest"
	if err := os.Rename(m.StagingRoot, tmp); err != nil {
		return errors.Wrapf(err, "failed to move staged CMS root aside")
	}
	if err := os.MkdirAll(m.StagingRoot, os.ModePerm); err != nil {
		return errors.Wrapf(err, "failed to recreate staging dir %s", m.StagingRoot)
	}
	if err := os.Rename(tmp, m.StagedCMSRoot()); err != nil {
		return errors.Wrapf(err, "failed to nest staged CMS root under %s", types.NestedCMSDirName)
	}

	if err := util.CopyFile(lay.AuxFile, path.Join(m.StagingRoot, types.AuxManifestFileName)); err != nil {
		return errors.Wrapf(err, "failed to stage %s", types.AuxManifestFileName)
	}
	if util.FileExists(lay.SettingsFragment) {
		if err := util.CopyFile(lay.SettingsFragment, path.Join(m.StagingRoot, types.AuxSettingsFileName)); err != nil {
			return errors.Wrapf(err, "failed to stage %s", types.AuxSettingsFileName)
		}
	}
	if !util.DirExists(lay.VendorDir) {
		return errors.Errorf("framework dependency directory %s does not exist", lay.VendorDir)
	}
	if err := copy.Copy(lay.VendorDir, path.Join(m.StagingRoot, types.AuxVendorDirName), copy.Options{Skip: a.sharedSkip}); err != nil {
		return errors.Wrapf(err, "failed to stage %s", types.AuxVendorDirName)
	}

	// remainder of the framework project, minus what the steps above placed
	placed := map[string]bool{
		filepath.Base(m.SourceRoot): true,
		types.AuxManifestFileName:   true,
		types.AuxSettingsFileName:   true,
		types.AuxVendorDirName:      true,
		types.AuxLockFileName:       true,
	}
	err := copy.Copy(lay.ProjectRoot, m.StagingRoot, copy.Options{
		Skip: func(p string) (bool, error) {
			rel, relErr := filepath.Rel(lay.ProjectRoot, p)
			if relErr == nil {
				first := strings.SplitN(rel, string(os.PathSeparator), 2)[0]
				if placed[first] {
					return true, nil
				}
			}
			return a.sharedSkip(p)
		},
	})
	return errors.Wrapf(err, "failed to stage framework tree from %s", lay.ProjectRoot)
}

func (a *TreeAssembler) copyInvalidationList() error {
	m := a.manifest
	if m.InvalidationList == "" {
		return nil
	}
	listPath := m.InvalidationList
	if !filepath.IsAbs(listPath) {
		listPath = path.Join(m.SourceRoot, listPath)
	}
	if !util.FileExists(listPath) {
		return nil
	}
	err := util.CopyFile(listPath, path.Join(m.StagingRoot, filepath.Base(listPath)))
	return errors.Wrapf(err, "failed to stage invalidation list %s", listPath)
}

func (a *TreeAssembler) rewriteStagedConfig() error {
	m := a.manifest
	content, err := os.ReadFile(m.StagedConfigPath())
	if err != nil {
		return errors.Wrapf(err, "failed to read staged config %s", m.StagedConfigPath())
	}
	rewritten, err := RewriteConfig(string(content), RewriteOpts{
		EncryptedTransport: m.DBEncrypted,
		HostRequired:       m.DBHostRequired,
	})
	if err != nil {
		return errors.Wrapf(err, "failed to rewrite staged config")
	}
	err = os.WriteFile(m.StagedConfigPath(), []byte(rewritten), 0o644)
	return errors.Wrapf(err, "failed to write staged config %s", m.StagedConfigPath())
}

func samePath(a string, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

func isUnder(p string, dir string) bool {
	if samePath(p, dir) {
		return true
	}
	rel, err := filepath.Rel(dir, p)
	return err == nil && !strings.HasPrefix(rel, "..")
}
