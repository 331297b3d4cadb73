package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"playbackd/pkg/logger"
	"playbackd/pkg/models"
)

// seedFile is the YAML shape for initial catalog contents.
type seedFile struct {
	Documents []models.Document       `yaml:"documents"`
	Rules     []models.ValidationRule `yaml:"rules"`
}

// Seed loads documents and rules from a YAML file when the catalog is
// empty. An already-populated catalog is left untouched so restarts do not
// clobber resolved flags.
func Seed(path string) error {
	if db == nil {
		return fmt.Errorf("catalog not opened; call catalog.Open first")
	}
	if path == "" {
		return nil
	}
	docs, err := ListDocuments()
	if err != nil {
		return err
	}
	if len(docs) > 0 {
		logger.Info("catalog_seed_skipped", "existing_docs", len(docs))
		return nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("catalog_seed_missing", "path", path)
			return nil
		}
		return err
	}
	var sf seedFile
	if err := yaml.Unmarshal(b, &sf); err != nil {
		return fmt.Errorf("seed file %s: %w", path, err)
	}
	for _, d := range sf.Documents {
		if err := SaveDocument(d); err != nil {
			return err
		}
	}
	for _, r := range sf.Rules {
		if err := SaveRule(r); err != nil {
			return err
		}
	}
	logger.Info("catalog_seeded", "docs", len(sf.Documents), "rules", len(sf.Rules))
	return nil
}
