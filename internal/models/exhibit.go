package models

import (
	"fmt"
	"strings"
	"time"
)

// ExhibitType classifies the seized item.
type ExhibitType string

const (
	ExhibitTypeMobileDevice  ExhibitType = "mobile_device"
	ExhibitTypeComputer      ExhibitType = "computer"
	ExhibitTypeStorageMedia  ExhibitType = "storage_media"
	ExhibitTypeNetworkDevice ExhibitType = "network_device"
	ExhibitTypeOther         ExhibitType = "other"
)

// Valid reports whether t is a known exhibit type.
func (t ExhibitType) Valid() bool {
	switch t {
	case ExhibitTypeMobileDevice, ExhibitTypeComputer, ExhibitTypeStorageMedia, ExhibitTypeNetworkDevice, ExhibitTypeOther:
		return true
	}
	return false
}

// ExhibitStatus is the exhibit lifecycle, independent of the case.
type ExhibitStatus string

const (
	ExhibitStatusReceived         ExhibitStatus = "received"
	ExhibitStatusInAnalysis       ExhibitStatus = "in_analysis"
	ExhibitStatusAnalysisComplete ExhibitStatus = "analysis_complete"
	ExhibitStatusReturned         ExhibitStatus = "returned"
	ExhibitStatusReleased         ExhibitStatus = "released"
	ExhibitStatusArchived         ExhibitStatus = "archived"
	ExhibitStatusDestroyed        ExhibitStatus = "destroyed"
)

// Valid reports whether s is a known exhibit status.
func (s ExhibitStatus) Valid() bool {
	_, ok := exhibitEdges[s]
	return ok
}

// ParseExhibitStatus accepts the legacy "analyzed" spelling.
func ParseExhibitStatus(raw string) (ExhibitStatus, bool) {
	s := ExhibitStatus(strings.ToLower(strings.TrimSpace(raw)))
	if s == "analyzed" {
		s = ExhibitStatusAnalysisComplete
	}
	return s, s.Valid()
}

// Exhibit is one item of evidence registered against a case.
type Exhibit struct {
	ID                string        `db:"id" json:"id"`
	CaseID            string        `db:"case_id" json:"case_id"`
	ExhibitNumber     string        `db:"exhibit_number" json:"exhibit_number"`
	ExhibitType       ExhibitType   `db:"exhibit_type" json:"exhibit_type"`
	Status            ExhibitStatus `db:"status" json:"status"`
	DeviceName        string        `db:"device_name" json:"device_name"`
	Brand             string        `db:"brand" json:"brand"`
	Model             string        `db:"model" json:"model"`
	SerialNumber      string        `db:"serial_number" json:"serial_number"`
	IMEI              string        `db:"imei" json:"imei"`
	MACAddress        string        `db:"mac_address" json:"mac_address"`
	StorageCapacity   string        `db:"storage_capacity" json:"storage_capacity"`
	Description       string        `db:"description" json:"description"`
	AssignedAnalystID *string       `db:"assigned_analyst_id" json:"assigned_analyst_id,omitempty"`
	CurrentLocation   string        `db:"current_location" json:"current_location"`
	ReceivedBy        string        `db:"received_by" json:"received_by"`
	ReceivedAt        time.Time     `db:"received_at" json:"received_at"`
	ChainOfCustody    CustodyChain  `db:"chain_of_custody" json:"chain_of_custody"`
	CreatedAt         time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time     `db:"updated_at" json:"updated_at"`
}

// MissingTypeFields lists the identifying fields required by the exhibit type
// that are blank.
func (e *Exhibit) MissingTypeFields() []string {
	blank := func(v string) bool { return strings.TrimSpace(v) == "" }
	switch e.ExhibitType {
	case ExhibitTypeMobileDevice:
		if blank(e.IMEI) && blank(e.SerialNumber) {
			return []string{"imei or serial_number"}
		}
	case ExhibitTypeComputer:
		if blank(e.SerialNumber) {
			return []string{"serial_number"}
		}
	case ExhibitTypeStorageMedia:
		if blank(e.StorageCapacity) {
			return []string{"storage_capacity"}
		}
	case ExhibitTypeNetworkDevice:
		if blank(e.MACAddress) {
			return []string{"mac_address"}
		}
	case ExhibitTypeOther:
		if blank(e.Description) {
			return []string{"description"}
		}
	default:
		return []string{fmt.Sprintf("exhibit_type (unknown %q)", e.ExhibitType)}
	}
	return nil
}

// CustodyMutation is an exhibit change that appends exactly one custody
// event. The Expected fields form the compare-and-swap guard.
type CustodyMutation struct {
	ExhibitID         string
	ExpectedStatus    ExhibitStatus
	ExpectedLength    int
	Status            ExhibitStatus
	Location          string
	AssignedAnalystID *string
	Event             CustodyEvent
	UpdatedAt         time.Time
}
