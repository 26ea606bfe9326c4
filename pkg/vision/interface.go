package vision

import (
	"context"

	"happyshaa/internal/models"
)

// Classifier decides whether a single JPEG frame shows an emergency.
type Classifier interface {
	Classify(ctx context.Context, jpeg []byte) (*Verdict, error)
}

type Verdict struct {
	Emergency   bool                 `json:"emergency"`
	Confidence  int                  `json:"confidence"`
	Type        models.DetectionType `json:"type"`
	Description string               `json:"description"`
}

// NoEmergency is the verdict used whenever a response cannot be understood.
func NoEmergency() *Verdict {
	return &Verdict{
		Emergency:  false,
		Confidence: 0,
		Type:       models.DetectionNone,
	}
}
