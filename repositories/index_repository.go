package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"AppMovin/models"
	"AppMovin/utils"

	"github.com/sirupsen/logrus"
)

// IndexRepository is the Metadata Index: the full ordered list of
// AppRecord kept as one JSON document. Every write replaces the file.
type IndexRepository struct {
	path string
}

func NewIndexRepository(path string) *IndexRepository {
	return &IndexRepository{path: path}
}

func (r *IndexRepository) Path() string {
	return r.path
}

// Load returns the stored records. A missing or unreadable index is an
// empty index.
func (r *IndexRepository) Load() []models.AppRecord {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logrus.WithFields(logrus.Fields{
				"path":  r.path,
				"error": err,
			}).Warn("Failed to read app index, treating as empty")
		}
		return []models.AppRecord{}
	}

	var apps []models.AppRecord
	if err := json.Unmarshal(data, &apps); err != nil {
		logrus.WithFields(logrus.Fields{
			"path":  r.path,
			"error": err,
		}).Warn("App index is corrupt, treating as empty")
		return []models.AppRecord{}
	}
	if apps == nil {
		apps = []models.AppRecord{}
	}
	return apps
}

func (r *IndexRepository) Save(apps []models.AppRecord) error {
	if apps == nil {
		apps = []models.AppRecord{}
	}
	data, err := json.MarshalIndent(apps, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode app index: %w", err)
	}
	if err := utils.WriteFileAtomic(r.path, data); err != nil {
		return fmt.Errorf("failed to write app index: %w", err)
	}
	return nil
}

// Find returns the record with the given id.
func (r *IndexRepository) Find(id string) (models.AppRecord, bool) {
	for _, app := range r.Load() {
		if app.ID == id {
			return app, true
		}
	}
	return models.AppRecord{}, false
}
