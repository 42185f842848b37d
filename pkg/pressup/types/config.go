package types

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// DatabaseDefinition configures the rewrite of the CMS database declarations
type DatabaseDefinition struct {
	EncryptedTransport bool `yaml:"encryptedTransport,omitempty"`
	HostRequired       bool `yaml:"hostRequired,omitempty"`
}

// ProjectDefinition is the optional pressup.yaml at the source root.
// CLI flags override any value set here.
type ProjectDefinition struct {
	ProjectName      string             `yaml:"projectName,omitempty"`
	Domain           string             `yaml:"domain,omitempty"`
	Bucket           string             `yaml:"bucket,omitempty"`
	LogBucket        string             `yaml:"logBucket,omitempty"`
	Staging          string             `yaml:"staging,omitempty"`
	Region           string             `yaml:"region,omitempty"`
	Environment      string             `yaml:"environment,omitempty"`
	SkipUploads      bool               `yaml:"skipUploads,omitempty"`
	RemovePlugins    []string           `yaml:"removePlugins,omitempty"`
	InvalidationList string             `yaml:"invalidationList,omitempty"`
	Database         DatabaseDefinition `yaml:"database,omitempty"`
	Executor         ExecutorSpec       `yaml:"executor,omitempty"`
}

// ReadProjectDefinition reads pressup.yaml from the source root when present.
// A missing file is not an error: every value can come from flags instead.
func ReadProjectDefinition(sourceRoot string) (ProjectDefinition, error) {
	var def ProjectDefinition
	yamlFilePath := filepath.Join(sourceRoot, ProjectConfigFileName)
	yamlFile, err := os.ReadFile(yamlFilePath)
	if os.IsNotExist(err) {
		return def, nil
	} else if err != nil {
		return def, errors.Wrapf(err, "failed to read %s", yamlFilePath)
	}
	if err := yaml.UnmarshalStrict(yamlFile, &def); err != nil {
		return def, errors.Wrapf(err, "failed to parse %s", yamlFilePath)
	}
	return def, nil
}
