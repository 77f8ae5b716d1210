package hold

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/cage-booking-backend/internal/pkg/apperror"
)

func TestDue(t *testing.T) {
	for price := int64(0); price <= 300; price += 25 {
		for advance := int64(-10); advance <= price+50; advance += 5 {
			due := Due(price, advance)
			assert.GreaterOrEqual(t, due, int64(0), "price=%d advance=%d", price, advance)
			if advance > 0 && advance <= price {
				assert.Equal(t, price-advance, due, "price=%d advance=%d", price, advance)
			}
		}
	}
}

func TestHold_SetAdvance(t *testing.T) {
	h := &Hold{Price: 200}

	h.SetAdvance(50)
	assert.Equal(t, int64(150), h.DuePayment)

	h.SetAdvance(250)
	assert.Equal(t, int64(0), h.DuePayment)
	assert.Equal(t, MsgAdvanceTooLarge, h.AdvanceProblem())

	h.SetAdvance(200)
	assert.Equal(t, int64(0), h.DuePayment)
	assert.NoError(t, h.ValidateAdvance())
}

func fieldMessage(t *testing.T, err error) string {
	t.Helper()
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, http.StatusUnprocessableEntity, appErr.Code)
	fields, ok := appErr.Details["fields"].(map[string]string)
	require.True(t, ok)
	return fields["advance_payment"]
}

func TestHold_ValidateAdvance(t *testing.T) {
	tests := []struct {
		name    string
		advance int64
		want    string
	}{
		{name: "Zero", advance: 0, want: MsgAdvancePositive},
		{name: "Negative", advance: -5, want: MsgAdvancePositive},
		{name: "Above price", advance: 201, want: MsgAdvanceTooLarge},
		{name: "Minimum", advance: 1},
		{name: "Exactly price", advance: 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &Hold{Price: 200, State: StateActive}
			h.SetAdvance(tt.advance)
			err := h.ValidateAdvance()
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidAdvance)
			assert.Equal(t, tt.want, fieldMessage(t, err))
			assert.Equal(t, StateActive, h.State)
		})
	}
}

func TestParseAdvance(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    int64
		wantMsg string
	}{
		{name: "Number", in: float64(50), want: 50},
		{name: "Numeric string", in: " 75 ", want: 75},
		{name: "Missing", in: nil, wantMsg: MsgAdvanceRequired},
		{name: "Blank string", in: "  ", wantMsg: MsgAdvanceRequired},
		{name: "Word", in: "fifty", wantMsg: MsgAdvanceNumeric},
		{name: "Fraction", in: 12.5, wantMsg: MsgAdvanceNumeric},
		{name: "Bool", in: true, wantMsg: MsgAdvanceNumeric},
		{name: "Negative parses, range is checked later", in: "-3", want: -3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAdvance(tt.in)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, fieldMessage(t, err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHold_ContextProblems(t *testing.T) {
	complete := Hold{SlotID: "s1", AreaID: "a1", Date: "2026-10-16", Price: 200}
	assert.Empty(t, complete.ContextProblems())

	empty := Hold{}
	assert.Equal(t, []string{
		"slot_id is required",
		"area_id is required",
		"date is required",
		"price must be greater than 0",
	}, empty.ContextProblems())

	badDate := complete
	badDate.Date = "16/10/2026"
	assert.Equal(t, []string{"date must be formatted as YYYY-MM-DD"}, badDate.ContextProblems())
}

func TestHold_Remaining(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	h := &Hold{State: StateActive, ExpiresAt: now.Add(45 * time.Second)}

	assert.Equal(t, 45*time.Second, h.Remaining(now))
	assert.True(t, h.IsActive(now))
	assert.Equal(t, time.Duration(0), h.Remaining(now.Add(time.Minute)))
	assert.False(t, h.IsActive(now.Add(45*time.Second)))

	h.State = StateExpired
	assert.Equal(t, time.Duration(0), h.Remaining(now))
}
