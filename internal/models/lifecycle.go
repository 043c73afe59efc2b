package models

// CaseGate names what authorises a case edge.
type CaseGate string

const (
	GateAnalystAssignment CaseGate = "analyst_assignment"
	GateReportSubmission  CaseGate = CaseGate(ApprovalReportSubmission)
	GateReportApproval    CaseGate = CaseGate(ApprovalReportApproval)
	GateEvidenceReturn    CaseGate = CaseGate(ApprovalEvidenceReturn)
	GateFinalClosure      CaseGate = CaseGate(ApprovalFinalClosure)
)

// CaseEdge is one permitted non-override case transition.
type CaseEdge struct {
	From CaseStatus
	To   CaseStatus
	Gate CaseGate
}

// CaseEdges is the complete transition table. Administrative override is the
// only other way a case status changes.
var CaseEdges = []CaseEdge{
	{From: CaseStatusOpen, To: CaseStatusUnderInvestigation, Gate: GateAnalystAssignment},
	{From: CaseStatusUnderInvestigation, To: CaseStatusReportApproved, Gate: GateReportSubmission},
	{From: CaseStatusPendingReview, To: CaseStatusReportApproved, Gate: GateReportSubmission},
	{From: CaseStatusAnalysisComplete, To: CaseStatusReportApproved, Gate: GateReportSubmission},
	{From: CaseStatusReportSubmitted, To: CaseStatusReportApproved, Gate: GateReportSubmission},
	{From: CaseStatusReportApproved, To: CaseStatusEvidenceReturned, Gate: GateReportApproval},
	{From: CaseStatusEvidenceReturned, To: CaseStatusClosed, Gate: GateEvidenceReturn},
	{From: CaseStatusClosed, To: CaseStatusArchived, Gate: GateFinalClosure},
}

// NextCaseStatus returns the status reached from `from` through gate.
func NextCaseStatus(from CaseStatus, gate CaseGate) (CaseStatus, bool) {
	for _, edge := range CaseEdges {
		if edge.From == from && edge.Gate == gate {
			return edge.To, true
		}
	}
	return "", false
}

// SourceStatuses lists the case statuses from which gate may fire.
func SourceStatuses(gate CaseGate) []CaseStatus {
	var out []CaseStatus
	for _, edge := range CaseEdges {
		if edge.Gate == gate {
			out = append(out, edge.From)
		}
	}
	return out
}

// TargetStatus returns the status an approved request of type t produces.
func (t ApprovalType) TargetStatus() CaseStatus {
	for _, edge := range CaseEdges {
		if edge.Gate == CaseGate(t) {
			return edge.To
		}
	}
	return ""
}

var exhibitEdges = map[ExhibitStatus][]ExhibitStatus{
	ExhibitStatusReceived:         {ExhibitStatusInAnalysis, ExhibitStatusReturned, ExhibitStatusReleased},
	ExhibitStatusInAnalysis:       {ExhibitStatusAnalysisComplete},
	ExhibitStatusAnalysisComplete: {ExhibitStatusInAnalysis, ExhibitStatusReturned, ExhibitStatusReleased},
	ExhibitStatusReturned:         {ExhibitStatusArchived, ExhibitStatusDestroyed},
	ExhibitStatusReleased:         {ExhibitStatusArchived, ExhibitStatusDestroyed},
	ExhibitStatusArchived:         nil,
	ExhibitStatusDestroyed:        nil,
}

// CanTransitionTo reports whether an exhibit may move from s to next.
func (s ExhibitStatus) CanTransitionTo(next ExhibitStatus) bool {
	for _, allowed := range exhibitEdges[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further exhibit edge leaves s.
func (s ExhibitStatus) Terminal() bool {
	return len(exhibitEdges[s]) == 0
}

// Valid reports whether s is a known analyst status.
func (s AnalystStatus) Valid() bool {
	_, ok := analystRank[s]
	return ok
}

var analystRank = map[AnalystStatus]int{
	AnalystStatusPending:    0,
	AnalystStatusInAnalysis: 1,
	AnalystStatusComplete:   2,
}

// CanAdvanceTo reports whether next is strictly later than s.
func (s AnalystStatus) CanAdvanceTo(next AnalystStatus) bool {
	from, ok := analystRank[s]
	if !ok {
		return false
	}
	to, ok := analystRank[next]
	return ok && to > from
}
