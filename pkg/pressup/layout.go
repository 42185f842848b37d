package pressup

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pressup/pressup/pkg/pressup/types"
	"github.com/pressup/pressup/pkg/util"
)

// extendedMarker is the reference an extended-framework config file carries:
// the CMS bootstraps through the framework's dependency autoloader.
const extendedMarker = "vendor/autoload.php"

// DetectLayout classifies the source installation. Extended is declared only
// when the config file references the framework autoloader AND the framework
// manifest exists one directory above the CMS root; any other combination is
// a standard install. Never fails: an unreadable config file means standard.
func DetectLayout(sourceRoot string) types.SiteLayout {
	content, err := os.ReadFile(filepath.Join(sourceRoot, types.ConfigFileName))
	if err != nil || !strings.Contains(string(content), extendedMarker) {
		return types.Standard()
	}
	projectRoot := filepath.Dir(filepath.Clean(sourceRoot))
	if !util.FileExists(filepath.Join(projectRoot, types.AuxManifestFileName)) {
		return types.Standard()
	}
	return types.Extended(projectRoot)
}
