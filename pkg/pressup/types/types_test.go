package types

import (
	"testing"

	. "github.com/onsi/gomega"
)

func TestAlternateBucket(t *testing.T) {
	RegisterTestingT(t)

	apex := &DeploymentManifest{Bucket: "site.example"}
	Expect(apex.AlternateBucket()).To(Equal("www.site.example"))

	www := &DeploymentManifest{Bucket: "www.site.example"}
	Expect(www.AlternateBucket()).To(Equal("site.example"))
}

func TestHostnamesOrder(t *testing.T) {
	RegisterTestingT(t)

	m := &DeploymentManifest{Domain: "site.example", Bucket: "www.site.example"}

	Expect(m.Hostnames()).To(Equal([]string{"site.example", "www.site.example", "site.example"}))
}

func TestStagedPathsStandardLayout(t *testing.T) {
	RegisterTestingT(t)

	m := &DeploymentManifest{StagingRoot: "/tmp/stage", Layout: Standard()}

	Expect(m.StagedCMSRoot()).To(Equal("/tmp/stage"))
	Expect(m.StagedConfigPath()).To(Equal("/tmp/stage/wp-config.php"))
	Expect(m.StagedPluginsDir()).To(Equal("/tmp/stage/wp-content/plugins"))
	Expect(m.HookFilePath()).To(Equal("/tmp/stage/wp-content/mu-plugins/pressup-hooks.php"))
}

func TestStagedPathsExtendedLayout(t *testing.T) {
	RegisterTestingT(t)

	m := &DeploymentManifest{StagingRoot: "/tmp/stage", Layout: Extended("/proj")}

	Expect(m.StagedCMSRoot()).To(Equal("/tmp/stage/wp"))
	Expect(m.StagedConfigPath()).To(Equal("/tmp/stage/wp/wp-config.php"))
	Expect(m.StagedContentDir()).To(Equal("/tmp/stage/wp/wp-content"))
}

func TestExtendedLayoutPaths(t *testing.T) {
	RegisterTestingT(t)

	layout := Extended("/proj")

	Expect(layout.IsExtended()).To(BeTrue())
	Expect(layout.String()).To(Equal("extended"))
	Expect(layout.AuxFile).To(Equal("/proj/composer.json"))
	Expect(layout.LockFile).To(Equal("/proj/composer.lock"))
	Expect(layout.SettingsFragment).To(Equal("/proj/.env"))
	Expect(layout.VendorDir).To(Equal("/proj/vendor"))
}
