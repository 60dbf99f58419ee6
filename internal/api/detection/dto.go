package detection

import (
	"time"

	"PPEGuard/internal/entity"
	"PPEGuard/pkg/classifier"
)

type StartSessionRequest struct {
	SubjectID string `json:"subject_id" validate:"required,email"`
}

type StartSessionResponse struct {
	SessionID string    `json:"session_id"`
	SubjectID string    `json:"subject_id"`
	ExpiresAt time.Time `json:"expires_at"`
	MaxRounds int       `json:"max_rounds"`
	Message   string    `json:"message"`
}

// AdvanceRequest carries one round. Labels, when present, are trusted as the
// classifier output; otherwise Image is classified first.
type AdvanceRequest struct {
	Labels []string `json:"labels" validate:"omitempty,dive,required"`
	Image  string   `json:"image"`
}

func (r AdvanceRequest) Empty() bool {
	return r.Labels == nil && r.Image == ""
}

const (
	ActionStart   = "start"
	ActionAdvance = "advance"
)

// StreamFrame is one inbound websocket message.
type StreamFrame struct {
	Action    string   `json:"action"`
	SubjectID string   `json:"subject_id,omitempty"`
	SessionID string   `json:"session_id,omitempty"`
	Labels    []string `json:"labels,omitempty"`
	Image     string   `json:"image,omitempty"`
}

type StreamError struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

type AdvanceResponse struct {
	SessionID       string                 `json:"session_id"`
	Prompt          string                 `json:"prompt"`
	Status          entity.EquipmentStatus `json:"ppe_status"`
	MissingItems    []string               `json:"missing_items"`
	RoundsCompleted int                    `json:"rounds"`
	Detections      []classifier.Detection `json:"detections"`
	Finalized       bool                   `json:"finalize"`
	Reason          string                 `json:"reason,omitempty"`
	PointsAwarded   int                    `json:"points"`
	ComplianceTier  string                 `json:"compliance_tier,omitempty"`
	State           string                 `json:"state"`
	PartialWrite    bool                   `json:"partial_write,omitempty"`
}

func NewAdvanceResponse(v entity.SessionVerdict, detections []classifier.Detection) AdvanceResponse {
	missing := make([]string, 0, len(v.MissingItems))
	for _, item := range v.MissingItems {
		missing = append(missing, item.String())
	}
	if detections == nil {
		detections = []classifier.Detection{}
	}

	return AdvanceResponse{
		SessionID:       v.SessionID,
		Prompt:          v.Prompt,
		Status:          v.EquipmentStatus,
		MissingItems:    missing,
		RoundsCompleted: v.RoundsCompleted,
		Detections:      detections,
		Finalized:       v.Finalized,
		Reason:          string(v.Reason),
		PointsAwarded:   v.PointsAwarded,
		ComplianceTier:  string(v.ComplianceTier),
		State:           string(v.State),
		PartialWrite:    v.PartialWrite,
	}
}
