package server

type EventPayload struct {
	AuxID    string `json:"aux_id,omitempty"`
	AuxName  string `json:"aux_name,omitempty"`
	TargetID string `json:"target_id,omitempty"`
	Result   string `json:"result,omitempty"`
	Phase    string `json:"phase,omitempty"`
	Reason   string `json:"reason,omitempty"`
}
