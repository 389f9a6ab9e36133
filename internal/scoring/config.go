package scoring

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

const weightTolerance = 1e-9

type Config struct {
	TFIDFWeight   float64 `mapstructure:"tfidf-weight" validate:"gte=0,lte=1"`
	KeywordWeight float64 `mapstructure:"keyword-weight" validate:"gte=0,lte=1"`
	// PreviewLength limits document previews in debug and error logs.
	PreviewLength int `mapstructure:"preview-length" validate:"gte=0"`
}

func DefaultConfig() Config {
	return Config{
		TFIDFWeight:   0.25,
		KeywordWeight: 0.75,
		PreviewLength: 200,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid scoring config: %w", err)
	}
	if sum := c.TFIDFWeight + c.KeywordWeight; math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("invalid scoring config: weights must sum to 1, got %.4f", sum)
	}
	return nil
}
