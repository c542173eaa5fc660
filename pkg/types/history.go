package types

import "time"

type HistoryAction string

const (
	HistoryActionCreated          HistoryAction = "created"
	HistoryActionSubmitted        HistoryAction = "submitted"
	HistoryActionAssigned         HistoryAction = "assigned"
	HistoryActionReleased         HistoryAction = "released"
	HistoryActionStatusChanged    HistoryAction = "status_changed"
	HistoryActionNoteAdded        HistoryAction = "note_added"
	HistoryActionDocumentUploaded HistoryAction = "document_uploaded"
	HistoryActionDocumentVerified HistoryAction = "document_verified"
	HistoryActionApproved         HistoryAction = "approved"
	HistoryActionRejected         HistoryAction = "rejected"
	HistoryActionDisbursed        HistoryAction = "disbursed"
	HistoryActionFlagged          HistoryAction = "flagged"
	HistoryActionEdited           HistoryAction = "edited"
)

// HistoryEntry is an append-only audit record for a case.
type HistoryEntry struct {
	ID               string         `db:"id" json:"id"`
	CaseID           string         `db:"case_id" json:"caseId"`
	Action           HistoryAction  `db:"action" json:"action"`
	ActorID          string         `db:"actor_id" json:"actorId"`
	ActorName        string         `db:"actor_name" json:"actorName"`
	ActorRole        Role           `db:"actor_role" json:"actorRole"`
	ActorMasjidID    *string        `db:"actor_masjid_id" json:"actorMasjidId,omitempty"`
	PreviousStatus   *CaseStatus    `db:"previous_status" json:"previousStatus,omitempty"`
	NewStatus        *CaseStatus    `db:"new_status" json:"newStatus,omitempty"`
	PreviousAssignee *string        `db:"previous_assignee" json:"previousAssignee,omitempty"`
	NewAssignee      *string        `db:"new_assignee" json:"newAssignee,omitempty"`
	Details          string         `db:"details" json:"details"`
	Metadata         map[string]any `db:"metadata" json:"metadata,omitempty"`
	CreatedAt        time.Time      `db:"created_at" json:"createdAt"`
}
