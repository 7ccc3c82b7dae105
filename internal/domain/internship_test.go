package domain

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestInternshipTransitions(t *testing.T) {
	all := []InternshipStatus{InternshipActive, InternshipFull, InternshipArchived, InternshipClosed}
	allowed := map[[2]InternshipStatus]bool{
		{InternshipActive, InternshipFull}:     true,
		{InternshipActive, InternshipClosed}:   true,
		{InternshipActive, InternshipArchived}: true,
		{InternshipFull, InternshipActive}:     true,
		{InternshipFull, InternshipClosed}:     true,
		{InternshipFull, InternshipArchived}:   true,
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]InternshipStatus{from, to}]
			if got := from.CanTransition(to); got != want {
				t.Errorf("%s -> %s = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestRecomputeCapacityStatus(t *testing.T) {
	tests := []struct {
		name        string
		status      InternshipStatus
		filled      int
		total       int
		wantStatus  InternshipStatus
		wantChanged bool
	}{
		{"active with room", InternshipActive, 1, 2, InternshipActive, false},
		{"active reaches capacity", InternshipActive, 2, 2, InternshipFull, true},
		{"full with freed room", InternshipFull, 1, 3, InternshipActive, true},
		{"full stays full", InternshipFull, 3, 3, InternshipFull, false},
		{"closed is untouched", InternshipClosed, 3, 3, InternshipClosed, false},
		{"archived is untouched", InternshipArchived, 0, 3, InternshipArchived, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := &Internship{Status: tt.status, FilledPlaces: tt.filled, TotalPlaces: tt.total}
			changed := in.RecomputeCapacityStatus()
			if in.Status != tt.wantStatus || changed != tt.wantChanged {
				t.Errorf("got (%s, %v), want (%s, %v)", in.Status, changed, tt.wantStatus, tt.wantChanged)
			}
		})
	}
}

func TestInternshipValidate(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	valid := func() *Internship {
		return &Internship{
			Title:           "Cardiology",
			TotalPlaces:     2,
			StartDate:       start,
			EndDate:         start.AddDate(0, 2, 0),
			DepartmentID:    uuid.New(),
			EstablishmentID: uuid.New(),
		}
	}

	tests := []struct {
		name   string
		mutate func(*Internship)
		ok     bool
	}{
		{"valid", func(*Internship) {}, true},
		{"blank title", func(i *Internship) { i.Title = "  " }, false},
		{"zero places", func(i *Internship) { i.TotalPlaces = 0 }, false},
		{"negative places", func(i *Internship) { i.TotalPlaces = -1 }, false},
		{"inverted dates", func(i *Internship) { i.EndDate = start.AddDate(0, 0, -1) }, false},
		{"equal dates", func(i *Internship) { i.EndDate = start }, false},
		{"missing department", func(i *Internship) { i.DepartmentID = uuid.Nil }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(in)
			err := in.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() error = %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrValidation) {
				t.Errorf("Validate() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestCleanRequirements(t *testing.T) {
	got := CleanRequirements([]string{" ", "  BLS certificate ", "", "\t"})
	want := []string{"BLS certificate"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CleanRequirements() = %q, want %q", got, want)
	}
}

func TestParseRequirements(t *testing.T) {
	got := ParseRequirements(" BLS certificate, ,vaccination record,  ")
	want := []string{"BLS certificate", "vaccination record"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseRequirements() = %q, want %q", got, want)
	}
}
