package types

import "time"

type NotificationType string

const (
	NotificationCaseClaimed       NotificationType = "case_claimed"
	NotificationCaseReleased      NotificationType = "case_released"
	NotificationStatusChanged     NotificationType = "status_changed"
	NotificationDocumentRequested NotificationType = "document_requested"
	NotificationDocumentUploaded  NotificationType = "document_uploaded"
	NotificationNoteAdded         NotificationType = "note_added"
	NotificationDisbursement      NotificationType = "disbursement_recorded"
)

type Notification struct {
	ID          string           `db:"id" json:"id"`
	RecipientID string           `db:"recipient_id" json:"recipientId"`
	Type        NotificationType `db:"type" json:"type"`
	Title       string           `db:"title" json:"title"`
	Message     string           `db:"message" json:"message"`
	CaseID      string           `db:"case_id" json:"caseId"`
	Read        bool             `db:"read" json:"read"`
	CreatedAt   time.Time        `db:"created_at" json:"createdAt"`
}
