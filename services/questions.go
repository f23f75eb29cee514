package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"analytics-gateway/database"
	"analytics-gateway/metrics"
	"analytics-gateway/models"
	"analytics-gateway/utils"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const auditWriteTimeout = 5 * time.Second

// AuditLog is the append-only trail of forwarded questions.
type AuditLog interface {
	Record(ctx context.Context, entry *models.RequestLog) error
	Recent(ctx context.Context, f database.RequestLogFilter) ([]models.RequestLog, error)
}

// QuestionService forwards shop-scoped questions and audits each attempt.
type QuestionService struct {
	shops        CredentialStore
	forwarder    Forwarder
	audit        AuditLog
	requireToken bool
	log          *zap.Logger
	metrics      *metrics.Recorder
	now          func() time.Time
}

func NewQuestionService(shops CredentialStore, forwarder Forwarder, audit AuditLog, requireToken bool, log *zap.Logger, rec *metrics.Recorder) *QuestionService {
	return &QuestionService{
		shops:        shops,
		forwarder:    forwarder,
		audit:        audit,
		requireToken: requireToken,
		log:          log,
		metrics:      rec,
		now:          time.Now,
	}
}

// Ask forwards question for storeID and returns the analytics payload.
func (s *QuestionService) Ask(ctx context.Context, storeID, question string) (json.RawMessage, error) {
	storeID = utils.NormalizeDomain(storeID)
	question = strings.TrimSpace(question)
	if storeID == "" || question == "" {
		return nil, UnprocessableError("Missing required parameters: store_id, question", nil)
	}

	token, err := s.tokenFor(ctx, storeID)
	if err != nil {
		return nil, err
	}

	s.log.Info("processing question", zap.String("store_id", storeID), zap.Bool("with_token", token != ""))

	start := s.now()
	outcome := s.forwarder.Ask(ctx, storeID, question, token)
	elapsed := s.now().Sub(start)

	s.record(ctx, storeID, question, outcome, elapsed)
	s.metrics.ObserveQuestion(outcome.Success, elapsed)

	if !outcome.Success {
		s.log.Warn("analytics service failed", zap.String("store_id", storeID), zap.String("error", outcome.Error))
		return nil, DownstreamUnavailableError("AI Service Error", outcome.Error)
	}
	return outcome.Payload, nil
}

// Logs lists recent audit rows.
func (s *QuestionService) Logs(ctx context.Context, f database.RequestLogFilter) ([]models.RequestLog, error) {
	logs, err := s.audit.Recent(ctx, f)
	if err != nil {
		return nil, PersistenceError("Failed to load request logs", err)
	}
	return logs, nil
}

func (s *QuestionService) tokenFor(ctx context.Context, storeID string) (string, error) {
	shop, err := s.shops.FindByDomain(ctx, storeID)
	switch {
	case err == nil && shop.Authorized():
		return shop.AccessToken, nil
	case err != nil && !errors.Is(err, database.ErrShopNotFound):
		if s.requireToken {
			s.log.Error("could not load shop credentials", zap.String("store_id", storeID), zap.Error(err))
			return "", PersistenceError("Failed to load shop credentials", err)
		}
		s.log.Warn("could not load shop credentials, forwarding without token", zap.String("store_id", storeID), zap.Error(err))
	}

	if s.requireToken {
		return "", AuthorizationError("Shop not authorized. Please install the app first.")
	}
	return "", nil
}

// record writes the audit row. Failures are logged and swallowed so they
// never change the response.
func (s *QuestionService) record(ctx context.Context, storeID, question string, outcome Outcome, elapsed time.Duration) {
	entry := &models.RequestLog{
		StoreID:        storeID,
		Question:       question,
		Success:        outcome.Success,
		ResponseTimeMs: elapsed.Milliseconds(),
	}
	if outcome.Success {
		entry.Response = datatypes.JSON(outcome.Payload)
	} else {
		detail := outcome.Error
		entry.ErrorMessage = &detail
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditWriteTimeout)
	defer cancel()

	if err := s.audit.Record(ctx, entry); err != nil {
		s.metrics.AuditWriteFailed()
		s.log.Error("could not write request log", zap.String("store_id", storeID), zap.Error(err))
	}
}
