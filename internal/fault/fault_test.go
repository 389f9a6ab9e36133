package fault

import (
	"errors"
	"fmt"
	"testing"
)

func TestFaultMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("scoring: %w", Validation("score", "job description is empty"))

	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation sentinel to match: %v", err)
	}
	if errors.Is(err, ErrProcessing) {
		t.Fatalf("did not expect processing sentinel to match")
	}
	if KindOf(err) != KindValidation {
		t.Fatalf("unexpected kind: %s", KindOf(err))
	}
}

func TestFaultUnwrapsCause(t *testing.T) {
	cause := errors.New("stemmer exploded")
	err := Processing("normalize", cause)

	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable")
	}
	if !errors.Is(err, ErrProcessing) {
		t.Fatalf("expected processing sentinel")
	}
	if got := err.Error(); got != "normalize: processing: stemmer exploded" {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestKindOfPlainError(t *testing.T) {
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Fatalf("expected unknown kind for plain errors")
	}
	if KindOf(nil) != KindUnknown {
		t.Fatalf("expected unknown kind for nil")
	}
}
