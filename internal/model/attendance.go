package model

import "time"

// Attendance 出席紀錄，第一次標記時才建立
type Attendance struct {
	ParticipationID int        `json:"participation_id" db:"participation_id"`
	IsPresent       bool       `json:"is_present" db:"is_present"`
	MarkedAt        *time.Time `json:"marked_at,omitempty" db:"marked_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// AttendanceState 稽核紀錄中的前後狀態
type AttendanceState string

const (
	AttendanceStateUnmarked AttendanceState = "unmarked"
	AttendanceStateAbsent   AttendanceState = "absent"
	AttendanceStatePresent  AttendanceState = "present"
)

func StateOf(a *Attendance) AttendanceState {
	switch {
	case a == nil:
		return AttendanceStateUnmarked
	case a.IsPresent:
		return AttendanceStatePresent
	default:
		return AttendanceStateAbsent
	}
}

type AttendanceAction string

const (
	AttendanceActionScanPresent   AttendanceAction = "scan_mark_present"
	AttendanceActionManualPresent AttendanceAction = "manual_mark_present"
	AttendanceActionManualAbsent  AttendanceAction = "manual_mark_absent"
)

const (
	ActorTypeScanner   = "scanner"
	ActorTypeOrganizer = "organizer"
)

// AttendanceAuditEntry 僅能新增的稽核紀錄，每次實際狀態變更寫一筆
type AttendanceAuditEntry struct {
	ID              int              `json:"id" db:"id"`
	ParticipationID int              `json:"participation_id" db:"participation_id"`
	ActorType       string           `json:"actor_type" db:"actor_type"`
	ActorID         *int             `json:"actor_id,omitempty" db:"actor_id"`
	Action          AttendanceAction `json:"action" db:"action"`
	Reason          *string          `json:"reason,omitempty" db:"reason"`
	PreviousState   AttendanceState  `json:"previous_state" db:"previous_state"`
	NextState       AttendanceState  `json:"next_state" db:"next_state"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
}

// ScanResult 掃描結果
type ScanResult struct {
	AlreadyMarked   bool   `json:"already_marked"`
	TicketID        string `json:"ticket_id"`
	ParticipationID int    `json:"participation_id"`
	ParticipantID   int    `json:"participant_id"`
}

// OverrideResult 主辦方手動調整結果
type OverrideResult struct {
	AlreadyInState  bool `json:"already_in_state"`
	ParticipationID int  `json:"participation_id"`
	ParticipantID   int  `json:"participant_id"`
	IsPresent       bool `json:"is_present"`
}

// AttendanceSummary 活動出席統計
type AttendanceSummary struct {
	EventID   int `json:"event_id"`
	Confirmed int `json:"confirmed"`
	Present   int `json:"present"`
}
