package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mealdesk/canteen-backend/internal/models"
	"github.com/mealdesk/canteen-backend/internal/pkg/apperror"
	"github.com/mealdesk/canteen-backend/internal/repository"
	"github.com/mealdesk/canteen-backend/internal/validation"
)

// FreeMealRepo — порт хранилища дней бесплатных обедов.
type FreeMealRepo interface {
	List(ctx context.Context) ([]models.FreeMealDay, error)
	GetByDate(ctx context.Context, date time.Time) (*models.FreeMealDay, error)
	Create(ctx context.Context, day *models.FreeMealDay) error
	Update(ctx context.Context, day *models.FreeMealDay) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// FreeMealDayInput — данные дня бесплатных обедов от администратора.
type FreeMealDayInput struct {
	Date     time.Time
	Reason   string
	IsActive bool
}

// TodayFreeMeal — ответ на проверку бесплатного дня.
type TodayFreeMeal struct {
	IsFreeMealDay bool   `json:"is_free_meal_day"`
	Reason        string `json:"reason,omitempty"`
}

// FreeMealService управляет днями бесплатных обедов.
type FreeMealService struct {
	days FreeMealRepo
	log  *logrus.Entry
}

// NewFreeMealService создаёт сервис дней бесплатных обедов.
func NewFreeMealService(days FreeMealRepo, log *logrus.Entry) *FreeMealService {
	return &FreeMealService{days: days, log: log}
}

// CheckToday сообщает, действует ли сегодня бесплатный обед.
func (s *FreeMealService) CheckToday(ctx context.Context) (*TodayFreeMeal, error) {
	day, err := s.days.GetByDate(ctx, time.Now())
	if err != nil {
		if errors.Is(err, repository.ErrFreeMealDayNotFound) {
			return &TodayFreeMeal{}, nil
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось проверить бесплатный день")
	}
	return &TodayFreeMeal{IsFreeMealDay: true, Reason: day.Reason}, nil
}

// List возвращает все дни бесплатных обедов.
func (s *FreeMealService) List(ctx context.Context) ([]models.FreeMealDay, error) {
	days, err := s.days.List(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось загрузить дни бесплатных обедов")
	}
	return days, nil
}

// Create добавляет день бесплатных обедов. На одну дату — один день.
func (s *FreeMealService) Create(ctx context.Context, admin *models.User, input FreeMealDayInput) (*models.FreeMealDay, error) {
	if input.Date.IsZero() {
		return nil, apperror.New(apperror.ErrCodeValidation, "дата обязательна")
	}
	if err := validation.ValidateNotes(input.Reason); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	adminID := admin.ID
	day := &models.FreeMealDay{
		Date:      input.Date,
		Reason:    input.Reason,
		IsActive:  input.IsActive,
		CreatedBy: &adminID,
	}

	if err := s.days.Create(ctx, day); err != nil {
		if errors.Is(err, repository.ErrFreeMealDayExists) {
			return nil, apperror.New(apperror.ErrCodeConflict, "на эту дату бесплатный день уже назначен")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось создать бесплатный день")
	}

	s.log.WithFields(logrus.Fields{
		"free_meal_day_id": day.ID,
		"date":             day.Date.Format("2006-01-02"),
		"admin_id":         admin.ID,
	}).Info("Назначен день бесплатных обедов")

	return day, nil
}

// Update меняет причину и активность дня.
func (s *FreeMealService) Update(ctx context.Context, id uuid.UUID, reason string, isActive bool) (*models.FreeMealDay, error) {
	if err := validation.ValidateNotes(reason); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	day := &models.FreeMealDay{ID: id, Reason: reason, IsActive: isActive}
	if err := s.days.Update(ctx, day); err != nil {
		if errors.Is(err, repository.ErrFreeMealDayNotFound) {
			return nil, apperror.New(apperror.ErrCodeNotFound, "бесплатный день не найден")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось обновить бесплатный день")
	}
	return day, nil
}

// Delete удаляет день бесплатных обедов.
func (s *FreeMealService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.days.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrFreeMealDayNotFound) {
			return apperror.New(apperror.ErrCodeNotFound, "бесплатный день не найден")
		}
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось удалить бесплатный день")
	}
	return nil
}
