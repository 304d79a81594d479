package models

import "testing"

func TestTransactionStatusTransitions(t *testing.T) {
	statuses := []TransactionStatus{
		TransactionStatusConfirmed,
		TransactionStatusReturnRequested,
		TransactionStatusCompleted,
		TransactionStatusCancelled,
	}

	allowed := map[TransactionStatus]map[TransactionStatus]bool{
		TransactionStatusConfirmed: {
			TransactionStatusReturnRequested: true,
			TransactionStatusCancelled:       true,
		},
		TransactionStatusReturnRequested: {
			TransactionStatusCompleted: true,
		},
	}

	for _, from := range statuses {
		for _, to := range statuses {
			want := allowed[from][to]
			if got := from.CanTransitionTo(to); got != want {
				t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestTransactionStatusIsTerminal(t *testing.T) {
	if TransactionStatusConfirmed.IsTerminal() {
		t.Error("confirmed should not be terminal")
	}
	if TransactionStatusReturnRequested.IsTerminal() {
		t.Error("return_requested should not be terminal")
	}
	if !TransactionStatusCompleted.IsTerminal() {
		t.Error("completed should be terminal")
	}
	if !TransactionStatusCancelled.IsTerminal() {
		t.Error("cancelled should be terminal")
	}
}

func TestNoTransitionOutOfTerminalStates(t *testing.T) {
	for _, from := range []TransactionStatus{TransactionStatusCompleted, TransactionStatusCancelled} {
		for _, to := range []TransactionStatus{
			TransactionStatusConfirmed,
			TransactionStatusReturnRequested,
			TransactionStatusCompleted,
			TransactionStatusCancelled,
		} {
			if from.CanTransitionTo(to) {
				t.Errorf("terminal state %s must not transition to %s", from, to)
			}
		}
	}
}

func TestIsValidBikeType(t *testing.T) {
	for _, bt := range BikeTypes {
		if !IsValidBikeType(bt) {
			t.Errorf("%s should be a valid bike type", bt)
		}
	}
	if IsValidBikeType("unicycle") {
		t.Error("unicycle should not be a valid bike type")
	}
}

func TestStationValidCounts(t *testing.T) {
	station := Station{TotalBikes: 10, AvailableBikes: 5}
	if !station.ValidCounts() {
		t.Error("5 of 10 should be valid")
	}

	station.AvailableBikes = 11
	if station.ValidCounts() {
		t.Error("available above total should be invalid")
	}

	station.AvailableBikes = -1
	if station.ValidCounts() {
		t.Error("negative available should be invalid")
	}
}
