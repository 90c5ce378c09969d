package repositories

import (
	"encoding/json"
	"fmt"
	"os"

	"AppMovin/models"
	"AppMovin/utils"
)

// SettingsRepository persists the custom managed-directory path.
type SettingsRepository struct {
	path string
}

func NewSettingsRepository(path string) *SettingsRepository {
	return &SettingsRepository{path: path}
}

func (r *SettingsRepository) Path() string {
	return r.path
}

// Load returns the saved config, or the zero config if none was saved.
func (r *SettingsRepository) Load() models.StorageConfig {
	var cfg models.StorageConfig
	data, err := os.ReadFile(r.path)
	if err != nil {
		return cfg
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return models.StorageConfig{}
	}
	return cfg
}

func (r *SettingsRepository) Save(cfg models.StorageConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode storage config: %w", err)
	}
	if err := utils.WriteFileAtomic(r.path, data); err != nil {
		return fmt.Errorf("failed to write storage config: %w", err)
	}
	return nil
}
