package pressup

import (
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/pressup/pressup/pkg/pressup/types"
)

func TestDetectLayoutStandard(t *testing.T) {
	RegisterTestingT(t)

	src := t.TempDir()
	writeFile(t, filepath.Join(src, types.ConfigFileName), sampleConfig)

	layout := DetectLayout(src)

	Expect(layout.Kind).To(Equal(types.LayoutStandard))
	Expect(layout.IsExtended()).To(BeFalse())
	Expect(layout.ProjectRoot).To(BeEmpty())
}

func TestDetectLayoutExtended(t *testing.T) {
	RegisterTestingT(t)

	project := t.TempDir()
	src := filepath.Join(project, "wp")
	writeFile(t, filepath.Join(src, types.ConfigFileName), extendedConfig)
	writeFile(t, filepath.Join(project, types.AuxManifestFileName), `{"require": {}}`)

	layout := DetectLayout(src)

	Expect(layout.Kind).To(Equal(types.LayoutExtended))
	Expect(layout.ProjectRoot).To(Equal(project))
	Expect(layout.AuxFile).To(Equal(filepath.Join(project, "composer.json")))
	Expect(layout.LockFile).To(Equal(filepath.Join(project, "composer.lock")))
	Expect(layout.SettingsFragment).To(Equal(filepath.Join(project, ".env")))
	Expect(layout.VendorDir).To(Equal(filepath.Join(project, "vendor")))
}

func TestDetectLayoutMarkerWithoutManifestIsStandard(t *testing.T) {
	RegisterTestingT(t)

	project := t.TempDir()
	src := filepath.Join(project, "wp")
	writeFile(t, filepath.Join(src, types.ConfigFileName), extendedConfig)

	layout := DetectLayout(src)

	Expect(layout.Kind).To(Equal(types.LayoutStandard))
}

func TestDetectLayoutManifestWithoutMarkerIsStandard(t *testing.T) {
	RegisterTestingT(t)

	project := t.TempDir()
	src := filepath.Join(project, "wp")
	writeFile(t, filepath.Join(src, types.ConfigFileName), sampleConfig)
	writeFile(t, filepath.Join(project, types.AuxManifestFileName), `{"require": {}}`)

	layout := DetectLayout(src)

	Expect(layout.Kind).To(Equal(types.LayoutStandard))
}

func TestDetectLayoutUnreadableConfigIsStandard(t *testing.T) {
	RegisterTestingT(t)

	layout := DetectLayout(filepath.Join(t.TempDir(), "nowhere"))

	Expect(layout.Kind).To(Equal(types.LayoutStandard))
}
