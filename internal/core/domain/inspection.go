// internal/core/domain/inspection.go
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InspectionStatus represents the lifecycle state of a keuring
type InspectionStatus string

// Status constants
const (
	StatusNew        InspectionStatus = "Nieuw"
	StatusPlanned    InspectionStatus = "Ingepland"
	StatusInProgress InspectionStatus = "In uitvoering"
	StatusOnHold     InspectionStatus = "Wacht op info"
	StatusCompleted  InspectionStatus = "Afgerond"
	StatusCancelled  InspectionStatus = "Geannuleerd"
)

// AllStatuses lists the statuses in the order they are offered in forms
var AllStatuses = []InspectionStatus{
	StatusNew,
	StatusPlanned,
	StatusInProgress,
	StatusOnHold,
	StatusCompleted,
	StatusCancelled,
}

// IsValid reports whether s is one of the known statuses
func (s InspectionStatus) IsValid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// InspectionType is the kind of keuring requested
type InspectionType string

// Type constants
const (
	TypeEPC          InspectionType = "EPC"
	TypeAsbestos     InspectionType = "Asbest"
	TypeElectricity  InspectionType = "Elektriciteit"
	TypeGas          InspectionType = "Gas"
	TypeFuelTank     InspectionType = "Stookolietank"
	TypeWaterCertify InspectionType = "Keuring water"
)

// AllTypes lists the inspection types offered in forms
var AllTypes = []InspectionType{
	TypeEPC,
	TypeAsbestos,
	TypeElectricity,
	TypeGas,
	TypeFuelTank,
	TypeWaterCertify,
}

// Client is the owner or tenant the inspection is done for (klant)
type Client struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"voornaam"`
	LastName  string    `json:"familienaam"`
	Email     string    `json:"emailadres"`
	Phone     string    `json:"telefoonnummer"`
}

// FullName joins first and last name with a single space
func (c Client) FullName() string {
	return c.FirstName + " " + c.LastName
}

// Address is the property being inspected (adres)
type Address struct {
	ID           uuid.UUID `json:"id"`
	Street       string    `json:"straatnaam"`
	Number       string    `json:"nummer"`
	PostalCode   string    `json:"postcode"`
	Municipality string    `json:"gemeente"`
	Client       Client    `json:"klant"`
}

// Inspection is a single keuring joined with its address, client and the
// company of the user that created it
type Inspection struct {
	ID          uuid.UUID        `json:"id"`
	AssignedAt  time.Time        `json:"datum_toewijzing"`
	SiteVisitAt *time.Time       `json:"datum_plaatsbezoek,omitempty"`
	Status      InspectionStatus `json:"status"`
	Type        InspectionType   `json:"type"`
	Price       *decimal.Decimal `json:"prijs,omitempty"`
	Notes       string           `json:"opmerkingen,omitempty"`
	Address     Address          `json:"adres"`
	CompanyName string           `json:"onderneming"`
	CreatedBy   uuid.UUID        `json:"created_by"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// CreateInspectionInput carries the fields of the "nieuwe keuring" form
type CreateInspectionInput struct {
	AssignedAt   time.Time        `json:"datum_toewijzing"`
	SiteVisitAt  *time.Time       `json:"datum_plaatsbezoek,omitempty"`
	Status       InspectionStatus `json:"status"`
	Type         InspectionType   `json:"type"`
	Price        *decimal.Decimal `json:"prijs,omitempty"`
	Notes        string           `json:"opmerkingen,omitempty"`
	Street       string           `json:"straatnaam"`
	Number       string           `json:"nummer"`
	PostalCode   string           `json:"postcode"`
	Municipality string           `json:"gemeente"`
	FirstName    string           `json:"voornaam"`
	LastName     string           `json:"familienaam"`
	Email        string           `json:"emailadres"`
	Phone        string           `json:"telefoonnummer"`
	CreatedBy    uuid.UUID        `json:"-"`
}

// Validate checks required fields and fills defaults
func (in *CreateInspectionInput) Validate() error {
	in.Street = strings.TrimSpace(in.Street)
	in.Number = strings.TrimSpace(in.Number)
	in.PostalCode = strings.TrimSpace(in.PostalCode)
	in.Municipality = strings.TrimSpace(in.Municipality)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)

	if in.Status == "" {
		in.Status = StatusNew
	}
	if in.AssignedAt.IsZero() {
		in.AssignedAt = time.Now()
	}

	switch {
	case in.Street == "":
		return fmt.Errorf("%w: straatnaam is required", ErrInvalidInput)
	case in.Number == "":
		return fmt.Errorf("%w: nummer is required", ErrInvalidInput)
	case in.PostalCode == "":
		return fmt.Errorf("%w: postcode is required", ErrInvalidInput)
	case in.Municipality == "":
		return fmt.Errorf("%w: gemeente is required", ErrInvalidInput)
	case in.FirstName == "" && in.LastName == "":
		return fmt.Errorf("%w: client name is required", ErrInvalidInput)
	case in.Type == "":
		return fmt.Errorf("%w: type is required", ErrInvalidInput)
	case !in.Status.IsValid():
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, in.Status)
	}

	if in.Email != "" && !strings.Contains(in.Email, "@") {
		return fmt.Errorf("%w: emailadres is not valid", ErrInvalidInput)
	}
	if in.Price != nil && in.Price.IsNegative() {
		return fmt.Errorf("%w: prijs cannot be negative", ErrInvalidInput)
	}
	if in.Status == StatusPlanned && in.SiteVisitAt == nil {
		return fmt.Errorf("%w: a planned inspection needs a site visit date", ErrInvalidInput)
	}

	return nil
}
