package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoanStatus_IsTerminal(t *testing.T) {
	assert.False(t, LoanStatusPending.IsTerminal())
	assert.False(t, LoanStatusActive.IsTerminal())
	assert.True(t, LoanStatusClosed.IsTerminal())
	assert.True(t, LoanStatusCancelled.IsTerminal())
}

func TestNextUnpaid(t *testing.T) {
	tests := []struct {
		name     string
		statuses []ScheduleStatus
		expected int
	}{
		{"empty", nil, -1},
		{"first upcoming", []ScheduleStatus{ScheduleStatusUpcoming, ScheduleStatusUpcoming}, 0},
		{"skips paid", []ScheduleStatus{ScheduleStatusPaid, ScheduleStatusUpcoming}, 1},
		{"overdue counts as unpaid", []ScheduleStatus{ScheduleStatusPaid, ScheduleStatusOverdue, ScheduleStatusUpcoming}, 1},
		{"all paid", []ScheduleStatus{ScheduleStatusPaid, ScheduleStatusPaid}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loan := Loan{}
			for i, s := range tt.statuses {
				loan.Schedule = append(loan.Schedule, ScheduleItem{Number: i + 1, Status: s})
			}
			assert.Equal(t, tt.expected, NextUnpaid(loan.Schedule))
			assert.Equal(t, tt.expected, loan.NextDue())
		})
	}
}
