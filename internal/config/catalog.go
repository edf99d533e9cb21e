package config

import (
	"fmt"
	"os"

	"studioz/internal/models"

	yaml "gopkg.in/yaml.v2"
)

// Catalog is the static studio and room inventory, kept in its own YAML
// file so operators can edit it without touching service settings.
type Catalog struct {
	Studios []models.Studio `yaml:"studios"`
	Items   []models.Item   `yaml:"items"`
	AddOns  []models.AddOn  `yaml:"add_ons"`
}

func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	if err := ValidateCatalog(&catalog); err != nil {
		return nil, fmt.Errorf("catalog validation failed: %w", err)
	}

	return &catalog, nil
}

func ValidateCatalog(c *Catalog) error {
	studioIDs := make(map[int64]bool, len(c.Studios))
	for _, s := range c.Studios {
		if s.ID == 0 {
			return fmt.Errorf("studio '%s' has invalid ID 0", s.Name)
		}
		if studioIDs[s.ID] {
			return fmt.Errorf("duplicate studio ID found: %d", s.ID)
		}
		studioIDs[s.ID] = true
	}

	itemIDs := make(map[int64]bool, len(c.Items))
	for _, item := range c.Items {
		if item.ID == 0 {
			return fmt.Errorf("item '%s' has invalid ID 0", item.Name)
		}
		if itemIDs[item.ID] {
			return fmt.Errorf("duplicate item ID found: %d", item.ID)
		}
		itemIDs[item.ID] = true

		if !studioIDs[item.StudioID] {
			return fmt.Errorf("item '%s' references unknown studio %d", item.Name, item.StudioID)
		}
		for _, r := range item.OperatingHours {
			if r.Start == "" || r.End == "" {
				return fmt.Errorf("item '%s' has an incomplete operating-hours range", item.Name)
			}
		}
	}

	addOnIDs := make(map[string]bool, len(c.AddOns))
	for _, a := range c.AddOns {
		if a.ID == "" {
			return fmt.Errorf("add-on '%s' has empty ID", a.Name)
		}
		if addOnIDs[a.ID] {
			return fmt.Errorf("duplicate add-on ID found: %s", a.ID)
		}
		addOnIDs[a.ID] = true

		switch a.PricePer {
		case models.PricePerHour, models.PricePerSession:
		default:
			return fmt.Errorf("add-on '%s' has invalid price_per %q", a.ID, a.PricePer)
		}
	}

	return nil
}
