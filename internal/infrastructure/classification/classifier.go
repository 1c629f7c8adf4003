// Package classification adapts an external vision model into a sky
// phenomenon classifier.
package classification

import (
	"context"
	"errors"
	"fmt"

	"github.com/AtRiskMedia/skycards-go/internal/domain/progression"
)

var (
	ErrTimeout       = errors.New("classification timed out")
	ErrUnavailable   = errors.New("classification service unavailable")
	ErrNotConfigured = errors.New("classification service not configured")
)

// ServiceError carries the upstream status and message of a failed call.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("classification service returned %d: %s", e.Status, e.Message)
}

func (e *ServiceError) Unwrap() error { return ErrUnavailable }

// Photo is an uploaded image ready to send to the classifier.
type Photo struct {
	Bytes []byte
	MIME  string
}

// Result is the parsed classifier reply. When NoSubject is set the other
// fields are empty apart from Content.
type Result struct {
	NoSubject  bool                 `json:"noSubject"`
	Analysis   progression.Analysis `json:"analysis"`
	Confidence int                  `json:"confidence"`
	Content    string               `json:"content"`
}

// Classifier identifies the sky phenomenon in a photo.
type Classifier interface {
	Classify(ctx context.Context, photo Photo) (*Result, error)
}
