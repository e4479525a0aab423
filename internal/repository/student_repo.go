package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/asramahub/asrama-go-api/internal/models"
)

// ErrStudentNotFound indicates the referenced student does not exist.
var ErrStudentNotFound = errors.New("student not found")

// StudentRepository persists dormitory residents. The ForUpdate variant and
// the mutators accept the caller's transaction so room and student writes
// commit or roll back together.
type StudentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	GetByID(ctx context.Context, id uint) (models.Student, error)
	GetForUpdate(tx *gorm.DB, id uint) (models.Student, error)
	SetRoom(tx *gorm.DB, id uint, roomID *uint) error
	SetStudyStatus(tx *gorm.DB, id uint, status models.StudyStatus) error
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs the student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).First(&student, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Student{}, ErrStudentNotFound
		}
		return models.Student{}, err
	}

	return student, nil
}

// GetForUpdate locks the student row for the remainder of the transaction,
// serialising concurrent assignment and enforcement work on one student.
func (r *studentRepository) GetForUpdate(tx *gorm.DB, id uint) (models.Student, error) {
	var student models.Student
	if err := lockForUpdate(tx).First(&student, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Student{}, ErrStudentNotFound
		}
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) SetRoom(tx *gorm.DB, id uint, roomID *uint) error {
	update := tx.Model(&models.Student{}).Where("id = ?", id).Update("room_id", roomID)
	if update.Error != nil {
		return update.Error
	}
	if update.RowsAffected == 0 {
		return ErrStudentNotFound
	}

	return nil
}

func (r *studentRepository) SetStudyStatus(tx *gorm.DB, id uint, status models.StudyStatus) error {
	update := tx.Model(&models.Student{}).Where("id = ?", id).Update("study_status", status)
	if update.Error != nil {
		return update.Error
	}
	if update.RowsAffected == 0 {
		return ErrStudentNotFound
	}

	return nil
}
