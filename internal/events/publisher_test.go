package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-assessment-api/internal/correlation"
)

func TestSubjectNormalizesBase(t *testing.T) {
	publisher := NewNATSPublisher(nil, " gema:assessment. ", zerolog.Nop())
	require.Equal(t, "gema.assessment.assessment.submitted", publisher.Subject(AssessmentSubmitted))

	fallback := NewNATSPublisher(nil, "", zerolog.Nop())
	require.Equal(t, "gema.assessment.answer.graded", fallback.Subject(AnswerGraded))
}

func TestPublishWithoutConnectionIsNoop(t *testing.T) {
	publisher := NewNATSPublisher(nil, "gema.assessment", zerolog.Nop())
	require.NoError(t, publisher.Publish(context.Background(), AssessmentSubmitted, map[string]interface{}{"student_id": 1}))

	var missing *NATSPublisher
	require.NoError(t, missing.Publish(context.Background(), AnswerGraded, nil))
}

func TestEnvelopeCarriesCorrelationID(t *testing.T) {
	ctx := correlation.WithID(context.Background(), "req-42")
	payload, err := encodeEnvelope(ctx, AnswerGraded, map[string]interface{}{"answer_id": 7})
	require.NoError(t, err)

	var envelope struct {
		Type          string                 `json:"type"`
		CorrelationID string                 `json:"correlation_id"`
		Data          map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(payload, &envelope))
	require.Equal(t, AnswerGraded, envelope.Type)
	require.Equal(t, "req-42", envelope.CorrelationID)
	require.EqualValues(t, 7, envelope.Data["answer_id"])

	_, err = encodeEnvelope(context.Background(), AnswerGraded, make(chan int))
	require.Error(t, err)
}
