package history

import (
	"context"

	"github.com/smith3v/lms-reminder/pkg/delivery"
)

// ReceiptHook records delivered notifications that asked to be kept.
type ReceiptHook struct {
	log *Log
}

func NewReceiptHook(log *Log) *ReceiptHook {
	return &ReceiptHook{log: log}
}

func (h *ReceiptHook) OnDelivered(ctx context.Context, d delivery.Delivered) {
	if !d.RecordHistory {
		return
	}
	h.log.Append(ctx, d.Title, d.Body, d.Category, Correlation{
		CourseID:   d.CourseID,
		CourseName: d.CourseName,
	})
}
