package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"capmatch/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestCheckedIncrementRejectsAtCapacity(t *testing.T) {
	supervisor := &models.Supervisor{ID: 1, CurrentCapacity: 5, MaxCapacity: 5}
	err := checkedIncrement(supervisor)
	assertAppErrCode(t, err, models.CodeCapacityExceeded)
	if supervisor.CurrentCapacity != 5 {
		t.Fatalf("capacity mutated on rejection: %d", supervisor.CurrentCapacity)
	}
}

func TestCheckedIncrementMessageCarriesLoad(t *testing.T) {
	supervisor := &models.Supervisor{ID: 1, CurrentCapacity: 3, MaxCapacity: 3}
	err := checkedIncrement(supervisor)
	if err == nil || !strings.Contains(err.Error(), "(3/3)") {
		t.Fatalf("expected current/max in message, got %v", err)
	}
}

func TestCheckedIncrement(t *testing.T) {
	supervisor := &models.Supervisor{ID: 1, CurrentCapacity: 2, MaxCapacity: 5}
	if err := checkedIncrement(supervisor); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if supervisor.CurrentCapacity != 3 {
		t.Fatalf("capacity = %d, want 3", supervisor.CurrentCapacity)
	}
}

func TestCheckedDecrementFloorsAtZero(t *testing.T) {
	supervisor := &models.Supervisor{ID: 1, CurrentCapacity: 0, MaxCapacity: 5}
	checkedDecrement(supervisor)
	if supervisor.CurrentCapacity != 0 {
		t.Fatalf("capacity = %d, want 0", supervisor.CurrentCapacity)
	}

	supervisor.CurrentCapacity = 2
	checkedDecrement(supervisor)
	if supervisor.CurrentCapacity != 1 {
		t.Fatalf("capacity = %d, want 1", supervisor.CurrentCapacity)
	}
}

func TestIsRetryableTxError(t *testing.T) {
	cases := []struct {
		err       error
		retryable bool
	}{
		{&pgconn.PgError{Code: "40001"}, true},
		{&pgconn.PgError{Code: "40P01"}, true},
		{&pgconn.PgError{Code: "23505"}, false},
		{fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "40001"}), true},
		{errors.New("plain failure"), false},
		{models.NewAlreadyProcessedError(), false},
	}
	for _, tc := range cases {
		if got := isRetryableTxError(tc.err); got != tc.retryable {
			t.Errorf("isRetryableTxError(%v) = %v, want %v", tc.err, got, tc.retryable)
		}
	}
}
