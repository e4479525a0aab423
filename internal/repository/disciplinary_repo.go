package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/asramahub/asrama-go-api/internal/models"
)

// ErrActionNotFound indicates the disciplinary action does not exist.
var ErrActionNotFound = errors.New("disciplinary action not found")

// DisciplinaryRepository persists the per-student disciplinary ledger.
type DisciplinaryRepository interface {
	Create(tx *gorm.DB, action *models.DisciplinaryAction) error
	Update(tx *gorm.DB, action *models.DisciplinaryAction) error
	GetByID(ctx context.Context, id uint) (models.DisciplinaryAction, error)
	GetForUpdate(tx *gorm.DB, id uint) (models.DisciplinaryAction, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.DisciplinaryAction, error)
	ListByStudentTx(tx *gorm.DB, studentID uint) ([]models.DisciplinaryAction, error)
}

type disciplinaryRepository struct {
	db *gorm.DB
}

// NewDisciplinaryRepository constructs the disciplinary ledger repository.
func NewDisciplinaryRepository(db *gorm.DB) DisciplinaryRepository {
	return &disciplinaryRepository{db: db}
}

func (r *disciplinaryRepository) Create(tx *gorm.DB, action *models.DisciplinaryAction) error {
	return tx.Create(action).Error
}

func (r *disciplinaryRepository) Update(tx *gorm.DB, action *models.DisciplinaryAction) error {
	update := tx.Model(&models.DisciplinaryAction{}).
		Where("id = ?", action.ID).
		Updates(map[string]interface{}{
			"severity":       action.Severity,
			"status":         action.Status,
			"reason":         action.Reason,
			"decision_date":  action.DecisionDate,
			"effective_from": action.EffectiveFrom,
			"effective_to":   action.EffectiveTo,
		})
	if update.Error != nil {
		return update.Error
	}
	if update.RowsAffected == 0 {
		return ErrActionNotFound
	}

	return nil
}

func (r *disciplinaryRepository) GetByID(ctx context.Context, id uint) (models.DisciplinaryAction, error) {
	var action models.DisciplinaryAction
	if err := r.db.WithContext(ctx).First(&action, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.DisciplinaryAction{}, ErrActionNotFound
		}
		return models.DisciplinaryAction{}, err
	}

	return action, nil
}

func (r *disciplinaryRepository) GetForUpdate(tx *gorm.DB, id uint) (models.DisciplinaryAction, error) {
	var action models.DisciplinaryAction
	if err := lockForUpdate(tx).First(&action, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.DisciplinaryAction{}, ErrActionNotFound
		}
		return models.DisciplinaryAction{}, err
	}

	return action, nil
}

func (r *disciplinaryRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.DisciplinaryAction, error) {
	var actions []models.DisciplinaryAction
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("decision_date DESC, id DESC").
		Find(&actions).Error
	if err != nil {
		return nil, err
	}

	return actions, nil
}

// ListByStudentTx reads the ledger inside the caller's transaction so the
// score derived from it is consistent with the write that triggered it.
func (r *disciplinaryRepository) ListByStudentTx(tx *gorm.DB, studentID uint) ([]models.DisciplinaryAction, error) {
	var actions []models.DisciplinaryAction
	err := tx.
		Where("student_id = ?", studentID).
		Order("decision_date DESC, id DESC").
		Find(&actions).Error
	if err != nil {
		return nil, err
	}

	return actions, nil
}
