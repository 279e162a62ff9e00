package repository

import (
	"context"
	"fmt"
	"log"

	"github.com/mjozefiak/polcare/models"

	"gorm.io/gorm"
)

// DoctorRepository defines read-only access to the doctor reference data,
// surfaced after a doctor_advised triage outcome.
type DoctorRepository interface {
	ListAll(ctx context.Context) ([]models.Doctor, error)
}

type doctorRepository struct {
	db *gorm.DB
}

// NewDoctorRepository creates a new instance of DoctorRepository.
func NewDoctorRepository(db *gorm.DB) DoctorRepository {
	return &doctorRepository{db: db}
}

// ListAll returns every known doctor in listing order.
func (r *doctorRepository) ListAll(ctx context.Context) ([]models.Doctor, error) {
	var doctors []models.Doctor
	err := r.db.WithContext(ctx).Order("sort_order asc").Find(&doctors).Error
	if err != nil {
		log.Printf("ERROR: [DoctorRepository] Failed to list doctors: %v", err)
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}
