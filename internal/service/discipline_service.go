package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/asramahub/asrama-go-api/internal/config"
	"github.com/asramahub/asrama-go-api/internal/dto"
	"github.com/asramahub/asrama-go-api/internal/models"
	"github.com/asramahub/asrama-go-api/internal/observability"
	"github.com/asramahub/asrama-go-api/internal/repository"
)

// Disciplinary ledger rejections.
var (
	ErrInvalidDateRange  = errors.New("invalid disciplinary action date range")
	ErrEnforcementFailed = errors.New("enforcement cascade failed")
)

// DisciplineService owns the disciplinary ledger: it records and edits
// actions, derives conduct scores, and runs the enforcement cascade inside
// the same transaction as the triggering write.
type DisciplineService interface {
	RecordAction(ctx context.Context, req dto.DisciplinaryActionCreateRequest, actor ActivityActor) (dto.DisciplinaryActionResult, error)
	UpdateAction(ctx context.Context, actionID uint, req dto.DisciplinaryActionUpdateRequest, actor ActivityActor) (dto.DisciplinaryActionResult, error)
	GetConductScore(ctx context.Context, studentID uint) (dto.ConductScoreResponse, error)
	ProjectScore(ctx context.Context, studentID, excludeActionID uint) (dto.ConductScoreResponse, error)
	ListActions(ctx context.Context, studentID uint) ([]dto.DisciplinaryActionResponse, error)
}

type disciplineService struct {
	tx          repository.TxRunner
	students    repository.StudentRepository
	actions     repository.DisciplinaryRepository
	enforcement EnforcementService
	publisher   EventPublisher
	activity    ActivityRecorder
	cache       *redis.Client
	cacheTTL    time.Duration
	points      config.SeverityPoints
	baseScore   int
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	tracer      trace.Tracer
	logger      zerolog.Logger
	now         func() time.Time
}

// NewDisciplineService constructs the disciplinary ledger service.
func NewDisciplineService(
	tx repository.TxRunner,
	students repository.StudentRepository,
	actions repository.DisciplinaryRepository,
	enforcement EnforcementService,
	publisher EventPublisher,
	activity ActivityRecorder,
	cache *redis.Client,
	cacheTTL time.Duration,
	points config.SeverityPoints,
	baseScore int,
	validate *validator.Validate,
	logger zerolog.Logger,
) DisciplineService {
	return &disciplineService{
		tx:          tx,
		students:    students,
		actions:     actions,
		enforcement: enforcement,
		publisher:   publisher,
		activity:    activity,
		cache:       cache,
		cacheTTL:    cacheTTL,
		points:      points,
		baseScore:   baseScore,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		tracer:      otel.Tracer("github.com/asramahub/asrama-go-api/internal/service/discipline"),
		logger:      logger.With().Str("component", "discipline_service").Logger(),
		now:         time.Now,
	}
}

func (s *disciplineService) RecordAction(ctx context.Context, req dto.DisciplinaryActionCreateRequest, actor ActivityActor) (dto.DisciplinaryActionResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.DisciplinaryActionResult{}, err
	}

	status := models.ActionStatus(req.Status)
	if req.Status == "" {
		status = models.ActionStatusPending
	}

	action := models.DisciplinaryAction{
		StudentID:     req.StudentID,
		Severity:      models.Severity(req.Severity),
		Status:        status,
		Reason:        s.sanitizer.Sanitize(strings.TrimSpace(req.Reason)),
		DecisionDate:  req.DecisionDate,
		EffectiveFrom: req.EffectiveFrom,
		EffectiveTo:   req.EffectiveTo,
	}

	if err := s.validateDates(action); err != nil {
		return dto.DisciplinaryActionResult{}, err
	}

	ctx, span := s.tracer.Start(ctx, "discipline.record_action")
	defer span.End()
	span.SetAttributes(
		attribute.Int("student.id", int(req.StudentID)),
		attribute.String("action.severity", req.Severity),
	)

	var result dto.DisciplinaryActionResult
	err := s.tx.RunInTx(ctx, func(tx *gorm.DB) error {
		student, err := s.students.GetForUpdate(tx, req.StudentID)
		if err != nil {
			return err
		}

		ledger, err := s.actions.ListByStudentTx(tx, student.ID)
		if err != nil {
			return err
		}
		before := conductScore(ledger, s.points, s.baseScore, 0)

		if err := s.actions.Create(tx, &action); err != nil {
			return err
		}

		ledger = append(ledger, action)
		after := conductScore(ledger, s.points, s.baseScore, 0)

		outcome, err := s.runEnforcement(tx, &student, action, after)
		if err != nil {
			return err
		}

		result = dto.DisciplinaryActionResult{
			Action:       dto.NewDisciplinaryActionResponse(action),
			ConductScore: after,
			ScoreChanged: after != before,
			Enforcement:  outcome,
		}
		return nil
	})
	if err != nil {
		return dto.DisciplinaryActionResult{}, err
	}

	s.afterLedgerWrite(ctx, actor, "discipline.recorded", action, result)
	return result, nil
}

func (s *disciplineService) UpdateAction(ctx context.Context, actionID uint, req dto.DisciplinaryActionUpdateRequest, actor ActivityActor) (dto.DisciplinaryActionResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.DisciplinaryActionResult{}, err
	}

	ctx, span := s.tracer.Start(ctx, "discipline.update_action")
	defer span.End()
	span.SetAttributes(attribute.Int("action.id", int(actionID)))

	var (
		result  dto.DisciplinaryActionResult
		updated models.DisciplinaryAction
	)

	err := s.tx.RunInTx(ctx, func(tx *gorm.DB) error {
		action, err := s.actions.GetForUpdate(tx, actionID)
		if err != nil {
			return err
		}

		student, err := s.students.GetForUpdate(tx, action.StudentID)
		if err != nil {
			return err
		}

		updated = action
		scoreRelevant := false
		if req.Severity != nil && models.Severity(*req.Severity) != action.Severity {
			updated.Severity = models.Severity(*req.Severity)
			scoreRelevant = true
		}
		if req.Status != nil && models.ActionStatus(*req.Status) != action.Status {
			updated.Status = models.ActionStatus(*req.Status)
			scoreRelevant = true
		}
		if req.Reason != nil {
			updated.Reason = s.sanitizer.Sanitize(strings.TrimSpace(*req.Reason))
		}
		if req.DecisionDate != nil {
			updated.DecisionDate = *req.DecisionDate
		}
		if req.EffectiveFrom != nil {
			updated.EffectiveFrom = req.EffectiveFrom
		}
		if req.EffectiveTo != nil {
			updated.EffectiveTo = req.EffectiveTo
		}

		if err := s.validateDates(updated); err != nil {
			return err
		}

		ledger, err := s.actions.ListByStudentTx(tx, student.ID)
		if err != nil {
			return err
		}

		// Project the edit by excluding the stored version and counting
		// the updated one, so the action is never counted twice.
		before := conductScore(ledger, s.points, s.baseScore, 0)
		after := conductScore(append(excludeAction(ledger, action.ID), updated), s.points, s.baseScore, 0)

		if err := s.actions.Update(tx, &updated); err != nil {
			return err
		}

		outcome := dto.EnforcementOutcome{}
		if scoreRelevant {
			outcome, err = s.runEnforcement(tx, &student, updated, after)
			if err != nil {
				return err
			}
		}

		result = dto.DisciplinaryActionResult{
			Action:       dto.NewDisciplinaryActionResponse(updated),
			ConductScore: after,
			ScoreChanged: after != before,
			Enforcement:  outcome,
		}
		return nil
	})
	if err != nil {
		return dto.DisciplinaryActionResult{}, err
	}

	s.afterLedgerWrite(ctx, actor, "discipline.updated", updated, result)
	return result, nil
}

func (s *disciplineService) GetConductScore(ctx context.Context, studentID uint) (dto.ConductScoreResponse, error) {
	if _, err := s.students.GetByID(ctx, studentID); err != nil {
		return dto.ConductScoreResponse{}, err
	}

	cacheKey := conductCacheKey(studentID)
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			if score, parseErr := strconv.Atoi(cached); parseErr == nil {
				return dto.ConductScoreResponse{StudentID: studentID, ConductScore: score, CacheHit: true}, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read conduct score cache")
		}
	}

	ledger, err := s.actions.ListByStudent(ctx, studentID)
	if err != nil {
		return dto.ConductScoreResponse{}, err
	}

	score := conductScore(ledger, s.points, s.baseScore, 0)

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, strconv.Itoa(score), s.cacheTTL).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to store conduct score cache")
		}
	}

	return dto.ConductScoreResponse{StudentID: studentID, ConductScore: score}, nil
}

// ProjectScore derives the score a student would have if the given action
// were removed from the ledger. It never touches the cache.
func (s *disciplineService) ProjectScore(ctx context.Context, studentID, excludeActionID uint) (dto.ConductScoreResponse, error) {
	if _, err := s.students.GetByID(ctx, studentID); err != nil {
		return dto.ConductScoreResponse{}, err
	}

	ledger, err := s.actions.ListByStudent(ctx, studentID)
	if err != nil {
		return dto.ConductScoreResponse{}, err
	}

	score := conductScore(ledger, s.points, s.baseScore, excludeActionID)
	return dto.ConductScoreResponse{StudentID: studentID, ConductScore: score}, nil
}

func (s *disciplineService) ListActions(ctx context.Context, studentID uint) ([]dto.DisciplinaryActionResponse, error) {
	if _, err := s.students.GetByID(ctx, studentID); err != nil {
		return nil, err
	}

	ledger, err := s.actions.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.DisciplinaryActionResponse, 0, len(ledger))
	for _, action := range ledger {
		responses = append(responses, dto.NewDisciplinaryActionResponse(action))
	}

	return responses, nil
}

// runEnforcement evaluates and applies the cascade inside the ledger write's
// transaction. Any failure aborts the whole transaction, so the triggering
// write is rolled back together with the cascade.
func (s *disciplineService) runEnforcement(tx *gorm.DB, student *models.Student, action models.DisciplinaryAction, score int) (dto.EnforcementOutcome, error) {
	if !s.enforcement.ShouldEnforce(action, score) {
		return dto.EnforcementOutcome{}, nil
	}

	res, err := s.enforcement.Apply(tx, student, action, score)
	if err != nil {
		return dto.EnforcementOutcome{}, fmt.Errorf("%w: %v", ErrEnforcementFailed, err)
	}

	outcome := dto.EnforcementOutcome{Fired: res.Fired, Reason: res.Reason}
	if res.VacatedRoom != nil {
		room := dto.NewRoomResponse(*res.VacatedRoom)
		outcome.VacatedRoom = &room
	}

	if res.Fired {
		observability.EnforcementFirings().Inc()
	}

	return outcome, nil
}

// afterLedgerWrite runs the post-commit side effects: cache invalidation,
// event publication and audit logging. None of them can fail the write.
func (s *disciplineService) afterLedgerWrite(ctx context.Context, actor ActivityActor, auditAction string, action models.DisciplinaryAction, result dto.DisciplinaryActionResult) {
	if s.cache != nil {
		if err := s.cache.Del(ctx, conductCacheKey(action.StudentID)).Err(); err != nil {
			s.logger.Warn().Err(err).Uint("student_id", action.StudentID).Msg("failed to invalidate conduct score cache")
		}
	}

	if result.Enforcement.Fired && s.publisher != nil {
		event := EnforcementEvent{
			StudentID:    action.StudentID,
			ActionID:     action.ID,
			Severity:     string(action.Severity),
			ConductScore: result.ConductScore,
		}
		if result.Enforcement.VacatedRoom != nil {
			label := result.Enforcement.VacatedRoom.BuildingID + "/" + result.Enforcement.VacatedRoom.Code
			event.VacatedRoom = &label
		}
		if err := s.publisher.PublishEnforcement(ctx, event); err != nil {
			s.logger.Warn().Err(err).Uint("student_id", action.StudentID).Msg("failed to publish enforcement event")
		}
	}

	if s.activity != nil {
		studentID := action.StudentID
		metadata := map[string]interface{}{
			"action_id":     action.ID,
			"severity":      string(action.Severity),
			"status":        string(action.Status),
			"conduct_score": result.ConductScore,
		}
		if result.Enforcement.Fired {
			metadata["enforcement"] = result.Enforcement.Reason
		}
		_, _ = s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     auditAction,
			EntityType: "student",
			EntityID:   &studentID,
			Metadata:   metadata,
		})
	}
}

func (s *disciplineService) validateDates(action models.DisciplinaryAction) error {
	if action.DecisionDate.After(s.now()) {
		return ErrInvalidDateRange
	}
	if action.EffectiveFrom != nil && action.DecisionDate.After(*action.EffectiveFrom) {
		return ErrInvalidDateRange
	}
	if action.EffectiveTo != nil {
		if action.EffectiveFrom == nil || !action.EffectiveFrom.Before(*action.EffectiveTo) {
			return ErrInvalidDateRange
		}
	}
	return nil
}

func excludeAction(actions []models.DisciplinaryAction, id uint) []models.DisciplinaryAction {
	remaining := make([]models.DisciplinaryAction, 0, len(actions))
	for _, action := range actions {
		if action.ID == id {
			continue
		}
		remaining = append(remaining, action)
	}
	return remaining
}

func conductCacheKey(studentID uint) string {
	return fmt.Sprintf("conduct:student:%d", studentID)
}
