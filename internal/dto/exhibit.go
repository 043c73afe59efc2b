package dto

import "github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/models"

// CreateExhibitRequest describes an item handed in at intake.
type CreateExhibitRequest struct {
	ExhibitType     models.ExhibitType `json:"exhibit_type" validate:"required,exhibit_type"`
	DeviceName      string             `json:"device_name" validate:"max=255"`
	Brand           string             `json:"brand" validate:"max=255"`
	Model           string             `json:"model" validate:"max=255"`
	SerialNumber    string             `json:"serial_number" validate:"max=255"`
	IMEI            string             `json:"imei" validate:"max=64"`
	MACAddress      string             `json:"mac_address" validate:"omitempty,mac"`
	StorageCapacity string             `json:"storage_capacity" validate:"max=64"`
	Description     string             `json:"description"`
	Location        string             `json:"location" validate:"max=255"`
	Notes           string             `json:"notes"`
}

// AssignExhibitRequest hands an exhibit to an analyst.
type AssignExhibitRequest struct {
	AnalystID   string `json:"analyst_id" validate:"required"`
	AnalystName string `json:"analyst_name"`
	Location    string `json:"location" validate:"max=255"`
	Notes       string `json:"notes"`
}

// ChangeExhibitStatusRequest moves an exhibit along its lifecycle.
type ChangeExhibitStatusRequest struct {
	Status   string `json:"status" validate:"required,exhibit_status"`
	Location string `json:"location" validate:"max=255"`
	Notes    string `json:"notes"`
}

// TransferExhibitRequest records a physical move between locations.
type TransferExhibitRequest struct {
	ToLocation string `json:"to_location" validate:"required,max=255"`
	ReceivedBy string `json:"received_by" validate:"max=255"`
	Notes      string `json:"notes"`
}

// ReturnExhibitRequest records hand-back to the owner or investigator.
type ReturnExhibitRequest struct {
	ReturnedTo string `json:"returned_to" validate:"required,max=255"`
	Location   string `json:"location" validate:"max=255"`
	Notes      string `json:"notes"`
}

// CustodyHistory is the ordered ledger of one exhibit.
type CustodyHistory struct {
	ExhibitID     string                `json:"exhibit_id"`
	ExhibitNumber string                `json:"exhibit_number"`
	Events        []models.CustodyEvent `json:"events"`
}

// PublishCustodyRequest asks for a stored export.
type PublishCustodyRequest struct {
	Format string `json:"format" validate:"omitempty,oneof=text txt csv pdf"`
}
