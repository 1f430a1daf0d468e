package intern

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intern-hub/progress-ledger/internal/domain/shared"
)

func TestNewIntern(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	in, err := NewIntern(NewInternParams{
		Code:       "dmrc001",
		Name:       " Asel Nurlanovna ",
		Email:      "Asel@Example.com",
		Department: "Platform",
		StartDate:  now,
	}, now)
	require.NoError(t, err)
	assert.Equal(t, shared.InternCode("DMRC001"), in.Code)
	assert.Equal(t, "asel@example.com", in.Email)
	assert.Equal(t, "Asel Nurlanovna", in.Name)
	assert.True(t, in.IsActive)
	assert.True(t, shared.IsValidID(in.ID))
}

func TestNewIntern_Validation(t *testing.T) {
	now := time.Now()
	end := now.AddDate(0, 0, -1)
	base := NewInternParams{Code: "DMRC001", Name: "A", Email: "a@example.com", Department: "Eng", StartDate: now}

	tests := []struct {
		name   string
		mutate func(p *NewInternParams)
	}{
		{"bad code", func(p *NewInternParams) { p.Code = "a b" }},
		{"code wider than column", func(p *NewInternParams) { p.Code = "DMRC0000000000000001" + "X" }},
		{"bad email", func(p *NewInternParams) { p.Email = "not-an-email" }},
		{"missing name", func(p *NewInternParams) { p.Name = " " }},
		{"missing department", func(p *NewInternParams) { p.Department = "" }},
		{"missing start", func(p *NewInternParams) { p.StartDate = time.Time{} }},
		{"end before start", func(p *NewInternParams) { p.EndDate = &end }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			tt.mutate(&p)
			_, err := NewIntern(p, now)
			assert.ErrorIs(t, err, shared.ErrInvalidInput)
		})
	}
}

func TestNewIntern_CodeLengthBoundary(t *testing.T) {
	now := time.Now()
	p := NewInternParams{Code: "DMRC0000000000000001", Name: "A", Email: "a@example.com", Department: "Eng", StartDate: now}

	in, err := NewIntern(p, now)
	require.NoError(t, err)
	assert.Len(t, in.Code.String(), 20)
}
