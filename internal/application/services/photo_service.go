package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AtRiskMedia/skycards-go/internal/domain/cards"
	"github.com/AtRiskMedia/skycards-go/internal/domain/photos"
	"github.com/AtRiskMedia/skycards-go/internal/domain/progression"
	"github.com/AtRiskMedia/skycards-go/internal/infrastructure/classification"
	"github.com/AtRiskMedia/skycards-go/internal/infrastructure/media"
	"github.com/AtRiskMedia/skycards-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/skycards-go/internal/infrastructure/observability/performance"
)

// DuplicateCheckResult answers a duplicate pre-check.
type DuplicateCheckResult struct {
	Duplicate            bool   `json:"duplicate"`
	FingerprintAvailable bool   `json:"fingerprintAvailable"`
	Fingerprint          string `json:"fingerprint,omitempty"`
}

// RecognizeResult is a successful classification of a new photo.
type RecognizeResult struct {
	Content     string               `json:"content"`
	Analysis    progression.Analysis `json:"analysis"`
	Confidence  int                  `json:"confidence"`
	Fingerprint string               `json:"fingerprint,omitempty"`
}

// PhotoService guards classification with per-user duplicate detection.
type PhotoService struct {
	store       progression.Store
	rules       cards.Rules
	processor   *media.PhotoProcessor
	classifier  classification.Classifier
	timeout     time.Duration
	threshold   int
	clock       Clock
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewPhotoService creates a new photo application service. A nil classifier
// makes every recognition report the service as unavailable.
func NewPhotoService(store progression.Store, rules cards.Rules, processor *media.PhotoProcessor, classifier classification.Classifier, timeout time.Duration, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *PhotoService {
	return &PhotoService{
		store:       store,
		rules:       rules,
		processor:   processor,
		classifier:  classifier,
		timeout:     timeout,
		threshold:   photos.DuplicateThreshold,
		clock:       systemClock,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// WithClock replaces the time source.
func (s *PhotoService) WithClock(clock Clock) *PhotoService {
	s.clock = clock
	return s
}

// CheckDuplicate reports whether imageData is a near copy of a photo the
// user already had accepted. An image that cannot be fingerprinted is
// reported as not a duplicate with FingerprintAvailable unset.
func (s *PhotoService) CheckDuplicate(ctx context.Context, userID, imageData string) (*DuplicateCheckResult, error) {
	marker := s.perfTracker.StartOperation("photo:check", userID)
	defer marker.Complete()

	raw, _, err := s.processor.DecodeDataURI(imageData)
	if err != nil {
		marker.SetError(err)
		return nil, invalidPhoto(err)
	}

	fp, ok := s.fingerprint(userID, raw)
	if !ok {
		marker.SetSuccess(true)
		return &DuplicateCheckResult{}, nil
	}

	var duplicate bool
	err = s.store.WithUserTx(ctx, userID, func(tx progression.UserTx) error {
		if _, err := tx.EnsureInitialized(progression.SeedFromRules(s.rules, s.clock())); err != nil {
			return err
		}
		duplicate, err = s.isDuplicate(tx, fp)
		return err
	})
	if err != nil {
		s.logger.Photo().Error("Duplicate check failed", "userId", userID, "error", err.Error())
		marker.SetError(err)
		return nil, err
	}

	marker.SetSuccess(true)
	s.logger.Photo().Debug("Duplicate check completed", "userId", userID, "phash", fp.String(), "duplicate", duplicate)
	return &DuplicateCheckResult{Duplicate: duplicate, FingerprintAvailable: true, Fingerprint: fp.String()}, nil
}

// Recognize classifies a photo for userID. Duplicates are rejected before
// the classifier is called and again before the fingerprint is recorded.
// The classifier runs outside any user transaction, and recognition never
// touches points, streaks or the ledger.
func (s *PhotoService) Recognize(ctx context.Context, userID, imageData string) (*RecognizeResult, error) {
	marker := s.perfTracker.StartOperation("photo:recognize", userID)
	defer marker.Complete()

	raw, mime, err := s.processor.DecodeDataURI(imageData)
	if err != nil {
		marker.SetError(err)
		return nil, invalidPhoto(err)
	}

	fp, hasFingerprint := s.fingerprint(userID, raw)

	err = s.store.WithUserTx(ctx, userID, func(tx progression.UserTx) error {
		if _, err := tx.EnsureInitialized(progression.SeedFromRules(s.rules, s.clock())); err != nil {
			return err
		}
		if !hasFingerprint {
			return nil
		}
		duplicate, err := s.isDuplicate(tx, fp)
		if err != nil {
			return err
		}
		if duplicate {
			return progression.ErrDuplicatePhoto
		}
		return nil
	})
	if err != nil {
		s.logRejection(userID, "pre-check", err)
		marker.SetError(err)
		return nil, err
	}

	result, err := s.classify(ctx, userID, classification.Photo{Bytes: raw, MIME: mime})
	if err != nil {
		marker.SetError(err)
		return nil, err
	}
	if result.NoSubject {
		s.logger.Photo().Info("No subject detected", "userId", userID)
		marker.SetError(progression.ErrNoSubjectDetected)
		return nil, progression.ErrNoSubjectDetected
	}

	if hasFingerprint {
		err = s.store.WithUserTx(ctx, userID, func(tx progression.UserTx) error {
			if _, err := tx.EnsureInitialized(progression.SeedFromRules(s.rules, s.clock())); err != nil {
				return err
			}
			duplicate, err := s.isDuplicate(tx, fp)
			if err != nil {
				return err
			}
			if duplicate {
				return progression.ErrDuplicatePhoto
			}
			return tx.RecordFingerprint(fp, s.clock())
		})
		if err != nil {
			s.logRejection(userID, "record", err)
			marker.SetError(err)
			return nil, err
		}
	}

	out := &RecognizeResult{
		Content:    result.Content,
		Analysis:   result.Analysis,
		Confidence: result.Confidence,
	}
	if hasFingerprint {
		out.Fingerprint = fp.String()
	}

	marker.SetSuccess(true)
	s.logger.Photo().Info("Photo recognized",
		"userId", userID,
		"genus", out.Analysis.Genus,
		"confidence", out.Confidence,
		"fingerprinted", hasFingerprint,
		"duration", time.Since(marker.StartTime))
	return out, nil
}

func (s *PhotoService) classify(ctx context.Context, userID string, photo classification.Photo) (*classification.Result, error) {
	if s.classifier == nil {
		s.logger.Classifier().Error("No classifier configured", "userId", userID)
		return nil, progression.ErrClassificationUnavailable
	}

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result, err := s.classifier.Classify(callCtx, photo)
	switch {
	case err == nil:
		return result, nil
	case errors.Is(err, classification.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		s.logger.Classifier().Warn("Classification timed out", "userId", userID, "timeout", s.timeout)
		return nil, progression.ErrClassificationTimeout
	default:
		s.logger.Classifier().Error("Classification unavailable", "userId", userID, "error", err.Error())
		return nil, progression.ErrClassificationUnavailable
	}
}

// fingerprint returns false when the photo cannot be hashed; the caller then
// continues without duplicate protection.
func (s *PhotoService) fingerprint(userID string, raw []byte) (photos.Fingerprint, bool) {
	fp, err := s.processor.Fingerprint(raw)
	if err != nil {
		s.logger.Photo().Warn("Fingerprint unavailable, continuing without duplicate protection",
			"userId", userID,
			"reason", progression.ErrFingerprintUnavailable.Code,
			"error", err.Error())
		return 0, false
	}
	return fp, true
}

func (s *PhotoService) isDuplicate(tx progression.UserTx, fp photos.Fingerprint) (bool, error) {
	history, err := tx.Fingerprints()
	if err != nil {
		return false, err
	}
	return photos.IsDuplicate(history, fp, s.threshold), nil
}

func (s *PhotoService) logRejection(userID, stage string, err error) {
	if errors.Is(err, progression.ErrDuplicatePhoto) {
		s.logger.Photo().Info("Duplicate photo rejected", "userId", userID, "stage", stage)
		return
	}
	s.logger.Photo().Error("Photo transaction failed", "userId", userID, "stage", stage, "error", err.Error())
}

// invalidPhoto maps upload decoding failures onto the invalid request code
// while keeping the cause in the chain.
func invalidPhoto(err error) error {
	return fmt.Errorf("%w: %w", progression.ErrInvalidRequest, err)
}
