package repositories

import (
	"context"

	"github.com/jobdeck/jobdeck/internal/entities"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var ErrProfileNotFound = errors.New("profile not found")

type Profiles struct {
	db *gorm.DB
}

func NewProfilesRepository(db *gorm.DB) *Profiles {
	return &Profiles{db: db}
}

func (repo *Profiles) Add(ctx context.Context, profile entities.Profile) error {
	return repo.db.WithContext(ctx).Create(&profile).Error
}

func (repo *Profiles) GetByID(ctx context.Context, id string) (*entities.Profile, error) {

	var profile entities.Profile
	err := repo.db.WithContext(ctx).First(&profile, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (repo *Profiles) GetByUser(ctx context.Context, userID string) ([]entities.Profile, error) {

	var profiles []entities.Profile
	if err := repo.db.WithContext(ctx).Find(&profiles, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

func (repo *Profiles) Update(ctx context.Context, profile entities.Profile) error {
	return repo.db.WithContext(ctx).Model(&entities.Profile{}).
		Where("id = ?", profile.ID).Updates(profile).Error
}

// UpdateActiveKeyIndex persists the key-rotation pointer. Last writer wins:
// the index is a soft failover hint, not a correctness-critical counter.
func (repo *Profiles) UpdateActiveKeyIndex(ctx context.Context, profileID string, index int) error {
	return repo.db.WithContext(ctx).Model(&entities.Profile{}).
		Where("id = ?", profileID).
		Update("active_key_index", index).Error
}

// Remove deletes the profile and cascades to its tracked jobs and history.
func (repo *Profiles) Remove(ctx context.Context, profileID string) error {
	return repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_id IN (?)",
			tx.Model(&entities.Job{}).Select("id").Where("profile_id = ?", profileID)).
			Delete(&entities.Interaction{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&entities.Job{}, "profile_id = ?", profileID).Error; err != nil {
			return err
		}
		return tx.Delete(&entities.Profile{}, "id = ?", profileID).Error
	})
}
