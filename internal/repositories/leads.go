package repositories

import (
	"context"
	"github.com/maxaizer/tutor-bot/internal/domain/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var ErrLeadAlreadyStored = errors.New("lead for this session is already stored")

type Leads struct {
	db *gorm.DB
}

func NewLeadsRepository(db *gorm.DB) *Leads {
	return &Leads{db: db}
}

func (repo *Leads) Add(ctx context.Context, lead models.Lead) error {
	err := repo.db.WithContext(ctx).Create(&lead).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrLeadAlreadyStored
	}
	return errors.Wrap(err, "failed to add lead")
}

func (repo *Leads) GetAll(ctx context.Context) ([]models.Lead, error) {

	var leads []models.Lead
	if err := repo.db.WithContext(ctx).Order("created_at, id").Find(&leads).Error; err != nil {
		return nil, errors.Wrap(err, "failed to get leads")
	}
	return leads, nil
}
