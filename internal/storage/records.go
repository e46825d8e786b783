package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"
)

var (
	ErrNotFound      = errors.New("survey not found")
	ErrInvalidConfig = errors.New("invalid survey config")
)

// SurveyRecord is the persisted shape written by the setup wizard.
type SurveyRecord struct {
	ID        string        `json:"id" validate:"required"`
	SessionID string        `json:"sessionId"`
	Display   bool          `json:"display"`
	Events    []EventRecord `json:"events" validate:"required,dive"`
}

type EventRecord struct {
	ID                string      `json:"id" validate:"required"`
	Name              string      `json:"name"`
	Trigger           string      `json:"trigger"`
	URLs              []URLRecord `json:"urls" validate:"dive"`
	Mode              string      `json:"mode,omitempty"`
	DisplayPercentage int         `json:"displayPercentage" validate:"gte=0,lte=100"`
	DisplayDelay      int         `json:"displayDelay" validate:"gte=0"`
}

// URLRecord keeps Rule as a plain string; unknown rules are accepted here and
// fail closed at match time.
type URLRecord struct {
	URL  string `json:"url" validate:"required"`
	Rule string `json:"rule"`
}

// Store is implemented by every configuration backend.
type Store interface {
	LoadSurveys(ctx context.Context) ([]SurveyRecord, error)
	GetSurvey(ctx context.Context, id string) (SurveyRecord, error)
	SaveSurvey(ctx context.Context, rec SurveyRecord) error
	DeleteSurvey(ctx context.Context, id string) error
	Reset(ctx context.Context) (int, error)
	Close() error
}

var validate = validator.New()

// ParseSurvey decodes and validates one stored survey blob. Every failure
// wraps ErrInvalidConfig.
func ParseSurvey(data []byte) (SurveyRecord, error) {
	if !gjson.ValidBytes(data) {
		return SurveyRecord{}, fmt.Errorf("%w: not valid JSON", ErrInvalidConfig)
	}
	res := gjson.GetManyBytes(data, "id", "events")
	if !res[0].Exists() || res[0].String() == "" {
		return SurveyRecord{}, fmt.Errorf("%w: missing id", ErrInvalidConfig)
	}
	if !res[1].IsArray() {
		return SurveyRecord{}, fmt.Errorf("%w: events must be an array", ErrInvalidConfig)
	}

	var rec SurveyRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return SurveyRecord{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := Validate(rec); err != nil {
		return SurveyRecord{}, err
	}
	return rec, nil
}

// ParseSurveys decodes a JSON array of survey blobs, validating each.
func ParseSurveys(data []byte) ([]SurveyRecord, error) {
	arr := gjson.ParseBytes(data)
	if !gjson.ValidBytes(data) || !arr.IsArray() {
		return nil, fmt.Errorf("%w: expected a JSON array", ErrInvalidConfig)
	}
	var out []SurveyRecord
	for i, item := range arr.Array() {
		rec, err := ParseSurvey([]byte(item.Raw))
		if err != nil {
			return nil, fmt.Errorf("survey %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Validate runs struct validation on an already decoded record.
func Validate(rec SurveyRecord) error {
	if err := validate.Struct(rec); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
