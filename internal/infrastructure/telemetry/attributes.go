package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

func dbSystem(name string) attribute.KeyValue {
	return attribute.String("db.system", name)
}

// Attribute keys attached to application spans
const (
	AttrGroupID       = attribute.Key("hazina.group_id")
	AttrApprovalID    = attribute.Key("hazina.approval_id")
	AttrTransactionID = attribute.Key("hazina.transaction_id")
	AttrOutcome       = attribute.Key("hazina.outcome")
)

// RecordError marks the span in ctx as failed. No-op without a recording span.
func RecordError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
