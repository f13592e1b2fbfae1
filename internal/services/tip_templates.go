package services

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/nestlingapp/nestling-backend/internal/types"
)

//go:embed tip_templates.yaml
var tipTemplatesYAML []byte

// TipTemplate is one entry of the built-in tip catalog. The catalog ships
// embedded in the binary so tip generation has no external dependency.
type TipTemplate struct {
	Category       string               `yaml:"category"`
	Title          string               `yaml:"title"`
	Description    string               `yaml:"description"`
	ParentingStage types.ParentingStage `yaml:"parenting_stage"`
	MinAgeMonths   int                  `yaml:"min_age_months"`
	MaxAgeMonths   int                  `yaml:"max_age_months"`
	QuickTips      []string             `yaml:"quick_tips"`
}

type tipCatalog struct {
	Templates []TipTemplate `yaml:"templates"`
}

var (
	tipTemplatesOnce sync.Once
	tipTemplates     []TipTemplate
	tipTemplatesErr  error
)

// LoadTipTemplates parses the embedded catalog once and caches it.
func LoadTipTemplates() ([]TipTemplate, error) {
	tipTemplatesOnce.Do(func() {
		var catalog tipCatalog
		if err := yaml.Unmarshal(tipTemplatesYAML, &catalog); err != nil {
			tipTemplatesErr = fmt.Errorf("parsing tip catalog: %w", err)
			return
		}
		if len(catalog.Templates) == 0 {
			tipTemplatesErr = fmt.Errorf("tip catalog is empty")
			return
		}
		tipTemplates = catalog.Templates
	})
	return tipTemplates, tipTemplatesErr
}
