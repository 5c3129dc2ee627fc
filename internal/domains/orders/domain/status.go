package domain

// Status enumerates the workshop stages a repair order moves through.
type Status string

const (
	StatusReception Status = "reception"
	StatusDiagnosis Status = "diagnosis"
	StatusApproval  Status = "approval"
	StatusRepair    Status = "repair"
	StatusQA        Status = "qa"
	StatusReady     Status = "ready"
	StatusDelivered Status = "delivered"
)

// Statuses lists every stage in board column order.
var Statuses = []Status{
	StatusReception,
	StatusDiagnosis,
	StatusApproval,
	StatusRepair,
	StatusQA,
	StatusReady,
	StatusDelivered,
}

// validNext is the complete transition graph. Anything absent is rejected.
var validNext = map[Status]map[Status]bool{
	StatusReception: {StatusDiagnosis: true},
	StatusDiagnosis: {StatusApproval: true, StatusReception: true},
	StatusApproval:  {StatusRepair: true, StatusDiagnosis: true},
	StatusRepair:    {StatusQA: true, StatusApproval: true},
	StatusQA:        {StatusReady: true, StatusRepair: true},
	StatusReady:     {StatusDelivered: true, StatusQA: true},
	StatusDelivered: {},
}

// IsValid reports whether the status is one of the known stages.
func (s Status) IsValid() bool {
	_, ok := validNext[s]
	return ok
}

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s.IsValid() && len(validNext[s]) == 0
}

// AllowedNext returns the stages reachable from s in board column order.
func (s Status) AllowedNext() []Status {
	next := validNext[s]
	out := make([]Status, 0, len(next))
	for _, candidate := range Statuses {
		if next[candidate] {
			out = append(out, candidate)
		}
	}
	return out
}

// CanTransition reports whether the graph has an edge from -> to.
func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// ParseStatus validates a raw status string.
func ParseStatus(raw string) (Status, error) {
	status := Status(raw)
	if !status.IsValid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}

// Priority expresses how urgently an order should be worked on.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}
