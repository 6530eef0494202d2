package events

import "context"

// Event types consumed by the rendering layer (live progress widgets,
// notification toasts). Payloads are small string maps; consumers treat
// them as hints and re-read durable state.
const (
	TypeLessonCompleted     = "lesson.completed"
	TypeEnrollmentCompleted = "enrollment.completed"
	TypeCertificateIssued   = "certificate.issued"
	TypeCourseSynced        = "course.synced"
)

type Event struct {
	Type    string                 `json:"type"`
	Channel string                 `json:"channel"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// Bus is the outbound event port. Publishing is best-effort: core state
// changes never depend on a successful publish.
type Bus interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}
