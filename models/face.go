package models

import (
	"attendance/db"
)

// FaceSample is a registered reference descriptor, stored as a little-endian
// float64 blob. Samples are merged into the in-memory gallery at load time
// and when a registration is accepted
type FaceSample struct {
	ID         uint64 `gorm:"primaryKey" json:"id"`
	CreatedAt  int64  `json:"created_at"`
	Identity   string `gorm:"type:varchar(300);index" json:"identity"`
	Descriptor []byte `gorm:"type:blob" json:"-"`
}

func SaveFaceSample(identity string, descriptor []byte) (FaceSample, error) {
	sample := FaceSample{
		Identity:   identity,
		Descriptor: descriptor,
	}
	return sample, db.Instance.Create(&sample).Error
}

func DeleteFaceSample(id uint64) error {
	return db.Instance.Delete(&FaceSample{}, id).Error
}

func LoadFaceSamples() (result []FaceSample, err error) {
	err = db.Instance.Order("identity ASC, id ASC").Find(&result).Error
	return
}

func CountFaceSamples(identity string) (count int64, err error) {
	err = db.Instance.Model(&FaceSample{}).Where("identity = ?", identity).Count(&count).Error
	return
}
