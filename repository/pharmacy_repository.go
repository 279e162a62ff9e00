package repository

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/mjozefiak/polcare/models"

	"gorm.io/gorm"
)

// PharmacyRepository defines read-only access to the pharmacy reference data.
// The chat core treats it as an external collaborator: records are already
// validated and the listing order is nearest-first by convention.
type PharmacyRepository interface {
	ListAll(ctx context.Context) ([]models.Pharmacy, error)
	GetByID(ctx context.Context, id string) (*models.Pharmacy, error)
}

type pharmacyRepository struct {
	db *gorm.DB
}

// NewPharmacyRepository creates a new instance of PharmacyRepository.
func NewPharmacyRepository(db *gorm.DB) PharmacyRepository {
	return &pharmacyRepository{db: db}
}

// ListAll returns every known pharmacy in nearest-first order.
func (r *pharmacyRepository) ListAll(ctx context.Context) ([]models.Pharmacy, error) {
	var pharmacies []models.Pharmacy
	err := r.db.WithContext(ctx).Order("sort_order asc").Find(&pharmacies).Error
	if err != nil {
		log.Printf("ERROR: [PharmacyRepository] Failed to list pharmacies: %v", err)
		return nil, fmt.Errorf("failed to list pharmacies: %w", err)
	}
	return pharmacies, nil
}

// GetByID fetches a single pharmacy record. Returns nil without error when
// no record matches, mirroring the lenient lookup behaviour the handlers expect.
func (r *pharmacyRepository) GetByID(ctx context.Context, id string) (*models.Pharmacy, error) {
	if id == "" {
		return nil, errors.New("pharmacy ID cannot be empty")
	}
	var pharmacy models.Pharmacy
	err := r.db.WithContext(ctx).First(&pharmacy, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		log.Printf("ERROR: [PharmacyRepository] Failed to fetch pharmacy '%s': %v", id, err)
		return nil, fmt.Errorf("failed to fetch pharmacy '%s': %w", id, err)
	}
	return &pharmacy, nil
}
