package repos

import (
	"github.com/tauraamui/noicevoid/pkg/database/dbconn"
	"github.com/tauraamui/noicevoid/pkg/database/models"
	"github.com/tauraamui/xerror"
)

type RenderRepository struct {
	DB dbconn.GormWrapper
}

func (r *RenderRepository) Create(record *models.RenderRecord) error {
	return r.DB.Create(record).Error()
}

func (r *RenderRepository) FindByUUID(uuid string) (models.RenderRecord, error) {
	record := models.RenderRecord{}
	if err := r.DB.Where("uuid = ?", uuid).First(&record).Error(); err != nil {
		return record, xerror.Errorf("render of uuid %s not found", uuid)
	}

	return record, nil
}

// Recent returns up to limit records, newest first.
func (r *RenderRepository) Recent(limit int) ([]models.RenderRecord, error) {
	records := []models.RenderRecord{}
	if err := r.DB.Order("created_at desc").Limit(limit).Find(&records).Error(); err != nil {
		return nil, xerror.Errorf("unable to list renders: %w", err)
	}

	return records, nil
}
