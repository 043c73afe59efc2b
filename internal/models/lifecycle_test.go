package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApprovalTargets(t *testing.T) {
	want := map[ApprovalType]CaseStatus{
		ApprovalReportSubmission: CaseStatusReportApproved,
		ApprovalReportApproval:   CaseStatusEvidenceReturned,
		ApprovalEvidenceReturn:   CaseStatusClosed,
		ApprovalFinalClosure:     CaseStatusArchived,
	}
	for _, typ := range ApprovalTypes {
		require.Equal(t, want[typ], typ.TargetStatus(), typ)
		require.NotEmpty(t, SourceStatuses(CaseGate(typ)), typ)
	}
}

func TestCaseEdgesUseKnownStatuses(t *testing.T) {
	for _, edge := range CaseEdges {
		require.True(t, edge.From.Valid(), edge.From)
		require.True(t, edge.To.Valid(), edge.To)
		require.NotEqual(t, edge.From, edge.To)
	}
	_, ok := NextCaseStatus(CaseStatusArchived, GateFinalClosure)
	require.False(t, ok)

	next, ok := NextCaseStatus(CaseStatusOpen, GateAnalystAssignment)
	require.True(t, ok)
	require.Equal(t, CaseStatusUnderInvestigation, next)

	next, ok = NextCaseStatus(CaseStatusPendingReview, GateReportSubmission)
	require.True(t, ok)
	require.Equal(t, CaseStatusReportApproved, next)
}

func TestExhibitEdgesCoverEveryStatus(t *testing.T) {
	for _, s := range []ExhibitStatus{
		ExhibitStatusReceived, ExhibitStatusInAnalysis, ExhibitStatusAnalysisComplete,
		ExhibitStatusReturned, ExhibitStatusReleased, ExhibitStatusArchived, ExhibitStatusDestroyed,
	} {
		require.True(t, s.Valid(), s)
		for _, next := range exhibitEdges[s] {
			require.True(t, next.Valid(), next)
		}
	}
	require.True(t, ExhibitStatusReceived.CanTransitionTo(ExhibitStatusInAnalysis))
	require.False(t, ExhibitStatusInAnalysis.CanTransitionTo(ExhibitStatusReturned))
	require.False(t, ExhibitStatusDestroyed.CanTransitionTo(ExhibitStatusArchived))
	require.True(t, ExhibitStatusArchived.Terminal())

	s, ok := ParseExhibitStatus("Analyzed")
	require.True(t, ok)
	require.Equal(t, ExhibitStatusAnalysisComplete, s)
}

func TestAnalystStatusIsMonotonic(t *testing.T) {
	require.True(t, AnalystStatusPending.CanAdvanceTo(AnalystStatusInAnalysis))
	require.True(t, AnalystStatusInAnalysis.CanAdvanceTo(AnalystStatusComplete))
	require.False(t, AnalystStatusComplete.CanAdvanceTo(AnalystStatusInAnalysis))
	require.False(t, AnalystStatusPending.CanAdvanceTo(AnalystStatusPending))
	require.False(t, AnalystStatusPending.CanAdvanceTo("done"))
}

func TestMissingTypeFields(t *testing.T) {
	cases := []struct {
		exhibit Exhibit
		missing bool
	}{
		{Exhibit{ExhibitType: ExhibitTypeMobileDevice, SerialNumber: "SN"}, false},
		{Exhibit{ExhibitType: ExhibitTypeMobileDevice}, true},
		{Exhibit{ExhibitType: ExhibitTypeComputer, IMEI: "1"}, true},
		{Exhibit{ExhibitType: ExhibitTypeStorageMedia, StorageCapacity: "64GB"}, false},
		{Exhibit{ExhibitType: ExhibitTypeNetworkDevice}, true},
		{Exhibit{ExhibitType: ExhibitTypeOther, Description: " "}, true},
		{Exhibit{ExhibitType: "drone"}, true},
	}
	for _, tc := range cases {
		require.Equal(t, tc.missing, len(tc.exhibit.MissingTypeFields()) > 0, tc.exhibit.ExhibitType)
	}
}
