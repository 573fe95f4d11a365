package entities

import (
	"testing"
	"time"
)

func TestMaterialOrder_Validation(t *testing.T) {
	placed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	order, err := NewMaterialOrder(4, MaterialsFromFloat(12.5, 0), placed)
	if err != nil {
		t.Fatalf("Expected valid order creation to succeed: %v", err)
	}
	if order.ID == "" {
		t.Error("Expected order to get an ID")
	}

	testCases := []struct {
		name        string
		period      Period
		quantities  Materials
		expectError string
	}{
		{"negative period", -1, MaterialsFromFloat(1, 1), "period cannot be negative, got -1"},
		{"zero order", 1, MaterialsFromFloat(0, 0), "order quantities cannot both be zero"},
		{"negative cotton", 1, MaterialsFromFloat(-1, 1), "cotton cannot be negative, got -1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewMaterialOrder(tc.period, tc.quantities, placed)
			if err == nil {
				t.Fatalf("Expected error for %s, but got none", tc.name)
			}
			if err.Error() != tc.expectError {
				t.Errorf("Expected error '%s', got '%s'", tc.expectError, err.Error())
			}
		})
	}
}
