package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/AtRiskMedia/skycards-go/internal/domain/progression"
	"github.com/AtRiskMedia/skycards-go/internal/infrastructure/classification"
	"github.com/AtRiskMedia/skycards-go/internal/infrastructure/media"
	"github.com/disintegration/imaging"
)

type fakeClassifier struct {
	mu     sync.Mutex
	calls  int
	result *classification.Result
	err    error
	block  bool
}

func (f *fakeClassifier) Classify(ctx context.Context, photo classification.Photo) (*classification.Result, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.result, f.err
}

func (f *fakeClassifier) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func cloudResult() *classification.Result {
	return &classification.Result{
		Analysis:   progression.Analysis{Family: "Low", Genus: "Cumulus"},
		Confidence: 8,
		Content:    "**Genus**: Cumulus",
	}
}

func photoDataURI(t *testing.T, seed int64) string {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for by := 0; by < 8; by++ {
		for bx := 0; bx < 8; bx++ {
			v := uint8(40 + rng.Intn(160))
			for y := by * 8; y < by*8+8; y++ {
				for x := bx * 8; x < bx*8+8; x++ {
					img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
				}
			}
		}
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatal(err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func newPhotoService(env *testEnv, classifier classification.Classifier, timeout time.Duration) *PhotoService {
	return NewPhotoService(env.store, env.rules, media.NewPhotoProcessor(0), classifier, timeout, env.logger, env.perfTracker).WithClock(env.clock.Now)
}

func TestRecognize_RecordsFingerprintAndRejectsRepeat(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	classifier := &fakeClassifier{result: cloudResult()}
	svc := newPhotoService(env, classifier, time.Second)
	photo := photoDataURI(t, 1)

	res, err := svc.Recognize(ctx, "u1", photo)
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}
	if res.Analysis.Genus != "Cumulus" || res.Confidence != 8 || res.Fingerprint == "" {
		t.Fatalf("unexpected result: %+v", res)
	}

	check, err := svc.CheckDuplicate(ctx, "u1", photo)
	if err != nil {
		t.Fatal(err)
	}
	if !check.Duplicate || !check.FingerprintAvailable {
		t.Errorf("expected duplicate after recognition: %+v", check)
	}

	if _, err := svc.Recognize(ctx, "u1", photo); !errors.Is(err, progression.ErrDuplicatePhoto) {
		t.Fatalf("expected ErrDuplicatePhoto, got %v", err)
	}
	if classifier.Calls() != 1 {
		t.Errorf("duplicate reached the classifier: %d calls", classifier.Calls())
	}

	// Other users are unaffected.
	other, err := svc.CheckDuplicate(ctx, "u2", photo)
	if err != nil {
		t.Fatal(err)
	}
	if other.Duplicate {
		t.Error("fingerprints leaked across users")
	}

	// Recognition never scores.
	snapshot, err := env.progression.Snapshot(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if snapshot.Points != 30 || snapshot.TotalLitCount != 0 {
		t.Errorf("recognition touched progression: %+v", snapshot)
	}
}

func TestRecognize_NoSubjectRecordsNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := newPhotoService(env, &fakeClassifier{result: &classification.Result{NoSubject: true, Content: "无云"}}, time.Second)
	photo := photoDataURI(t, 2)

	if _, err := svc.Recognize(ctx, "u1", photo); !errors.Is(err, progression.ErrNoSubjectDetected) {
		t.Fatalf("expected ErrNoSubjectDetected, got %v", err)
	}
	check, err := svc.CheckDuplicate(ctx, "u1", photo)
	if err != nil {
		t.Fatal(err)
	}
	if check.Duplicate {
		t.Error("no-subject photo was recorded")
	}
}

func TestRecognize_ClassifierFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	photo := photoDataURI(t, 3)

	cases := []struct {
		name       string
		classifier classification.Classifier
		timeout    time.Duration
		want       error
	}{
		{"adapter timeout", &fakeClassifier{err: classification.ErrTimeout}, time.Second, progression.ErrClassificationTimeout},
		{"deadline", &fakeClassifier{block: true}, 20 * time.Millisecond, progression.ErrClassificationTimeout},
		{"upstream error", &fakeClassifier{err: &classification.ServiceError{Status: 500, Message: "boom"}}, time.Second, progression.ErrClassificationUnavailable},
		{"not configured", nil, time.Second, progression.ErrClassificationUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newPhotoService(env, tc.classifier, tc.timeout)
			_, err := svc.Recognize(ctx, "u1", photo)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if !progression.IsRetryable(err) {
				t.Errorf("expected retryable error")
			}
		})
	}

	// None of the failures recorded the photo.
	svc := newPhotoService(env, &fakeClassifier{result: cloudResult()}, time.Second)
	if _, err := svc.Recognize(ctx, "u1", photo); err != nil {
		t.Fatalf("expected photo to be accepted after failures: %v", err)
	}
}

func TestRecognize_UnhashablePhotoContinues(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	classifier := &fakeClassifier{result: cloudResult()}
	svc := newPhotoService(env, classifier, time.Second)
	garbage := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("not really a jpeg"))

	for i := 0; i < 2; i++ {
		res, err := svc.Recognize(ctx, "u1", garbage)
		if err != nil {
			t.Fatalf("recognize %d: %v", i, err)
		}
		if res.Fingerprint != "" {
			t.Errorf("unexpected fingerprint %q", res.Fingerprint)
		}
	}
	if classifier.Calls() != 2 {
		t.Errorf("expected both submissions to reach the classifier, got %d", classifier.Calls())
	}

	check, err := svc.CheckDuplicate(ctx, "u1", garbage)
	if err != nil {
		t.Fatal(err)
	}
	if check.Duplicate || check.FingerprintAvailable {
		t.Errorf("unexpected check result: %+v", check)
	}
}

func TestRecognize_InvalidEncoding(t *testing.T) {
	env := newTestEnv(t)
	svc := newPhotoService(env, &fakeClassifier{result: cloudResult()}, time.Second)

	_, err := svc.Recognize(context.Background(), "u1", "data:image/png;base64,@@@")
	if !errors.Is(err, progression.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	if progression.ReasonCode(err) != "INVALID_REQUEST" {
		t.Errorf("unexpected reason code %q", progression.ReasonCode(err))
	}
}
