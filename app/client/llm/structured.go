package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kaptinlin/jsonrepair"
)

const maxStructuredAttempts = 3

var validate = validator.New(validator.WithRequiredStructEnabled())

// CompleteJSON coerces a completion into T. Malformed JSON goes through
// jsonrepair before the decode is given up on; the whole call is retried
// with backoff when the model keeps producing garbage. Validation tags on
// T are enforced after decoding.
func CompleteJSON[T any](ctx context.Context, c *Client, systemPrompt, userPrompt string) (*T, error) {
	var lastErr error

	for attempt := 1; attempt <= maxStructuredAttempts; attempt++ {
		if attempt > 1 {
			slog.Debug("Retrying structured completion",
				"attempt", attempt,
				"error", lastErr)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt-1) * 500 * time.Millisecond):
			}
		}

		raw, err := c.completeRaw(ctx, systemPrompt, userPrompt)
		if err != nil {
			lastErr = err
			continue
		}

		result, err := decodeStrict[T](raw)
		if err != nil {
			lastErr = err
			continue
		}

		return result, nil
	}

	return nil, fmt.Errorf("structured completion failed after %d attempts: %w", maxStructuredAttempts, lastErr)
}

func decodeStrict[T any](raw string) (*T, error) {
	var result T

	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(raw)
		if repairErr != nil {
			return nil, fmt.Errorf("failed to unmarshal response: %w (repair also failed: %v)", err, repairErr)
		}

		if err = json.Unmarshal([]byte(repaired), &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal repaired response: %w", err)
		}
	}

	if err := validate.Struct(&result); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			// T is not a validatable struct, nothing to check.
			return &result, nil
		}

		return nil, fmt.Errorf("response failed validation: %w", err)
	}

	return &result, nil
}
