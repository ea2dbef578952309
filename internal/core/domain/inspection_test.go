package domain_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/keuringen-be/internal/core/domain"
)

func validInput() domain.CreateInspectionInput {
	return domain.CreateInspectionInput{
		Type:         domain.TypeEPC,
		Street:       "Kerkstraat",
		Number:       "12",
		PostalCode:   "9000",
		Municipality: "Gent",
		FirstName:    "Jan",
		LastName:     "Peeters",
		Email:        "jan@example.be",
	}
}

func TestCreateInspectionInput_Validate(t *testing.T) {
	visit := time.Now().Add(48 * time.Hour)
	negative := decimal.NewFromInt(-5)

	tests := []struct {
		name     string
		mutate   func(in *domain.CreateInspectionInput)
		errorMsg string
	}{
		{name: "valid_input", mutate: func(in *domain.CreateInspectionInput) {}},
		{
			name:     "missing_street",
			mutate:   func(in *domain.CreateInspectionInput) { in.Street = "   " },
			errorMsg: "straatnaam is required",
		},
		{
			name:     "missing_number",
			mutate:   func(in *domain.CreateInspectionInput) { in.Number = "" },
			errorMsg: "nummer is required",
		},
		{
			name:     "missing_postal_code",
			mutate:   func(in *domain.CreateInspectionInput) { in.PostalCode = "" },
			errorMsg: "postcode is required",
		},
		{
			name:     "missing_municipality",
			mutate:   func(in *domain.CreateInspectionInput) { in.Municipality = "" },
			errorMsg: "gemeente is required",
		},
		{
			name: "missing_client_name",
			mutate: func(in *domain.CreateInspectionInput) {
				in.FirstName = ""
				in.LastName = ""
			},
			errorMsg: "client name is required",
		},
		{
			name:     "missing_type",
			mutate:   func(in *domain.CreateInspectionInput) { in.Type = "" },
			errorMsg: "type is required",
		},
		{
			name:     "unknown_status",
			mutate:   func(in *domain.CreateInspectionInput) { in.Status = "Verloren" },
			errorMsg: "unknown status",
		},
		{
			name:     "bad_email",
			mutate:   func(in *domain.CreateInspectionInput) { in.Email = "jan.example.be" },
			errorMsg: "emailadres is not valid",
		},
		{
			name:     "negative_price",
			mutate:   func(in *domain.CreateInspectionInput) { in.Price = &negative },
			errorMsg: "prijs cannot be negative",
		},
		{
			name:     "planned_without_visit",
			mutate:   func(in *domain.CreateInspectionInput) { in.Status = domain.StatusPlanned },
			errorMsg: "needs a site visit date",
		},
		{
			name: "planned_with_visit",
			mutate: func(in *domain.CreateInspectionInput) {
				in.Status = domain.StatusPlanned
				in.SiteVisitAt = &visit
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			err := in.Validate()
			if tt.errorMsg == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestCreateInspectionInput_ValidateDefaults(t *testing.T) {
	in := validInput()
	in.Street = "  Kerkstraat "
	require.NoError(t, in.Validate())

	assert.Equal(t, domain.StatusNew, in.Status)
	assert.False(t, in.AssignedAt.IsZero())
	assert.Equal(t, "Kerkstraat", in.Street)
}

func TestClient_FullName(t *testing.T) {
	assert.Equal(t, "Jan Peeters", domain.Client{FirstName: "Jan", LastName: "Peeters"}.FullName())
	assert.Equal(t, " Peeters", domain.Client{LastName: "Peeters"}.FullName())
}

func TestSession_Expired(t *testing.T) {
	now := time.Now()
	s := &domain.Session{ExpiresAt: now.Add(time.Minute)}
	assert.False(t, s.Expired(now))
	assert.True(t, s.Expired(now.Add(time.Minute)))
}
