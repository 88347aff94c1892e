package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in   string
		want Money
	}{
		{"3000", 300000},
		{"1000.5", 100050},
		{"0.01", 1},
		{".75", 75},
		{"-12.25", -1225},
		{" +7 ", 700},
		{"10.", 1000},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseMoney_Rejects(t *testing.T) {
	for _, in := range []string{"", "-", ".", "1.234", "1e3", "12a", "1,000", "99999999999999999999"} {
		_, err := ParseMoney(in)
		assert.Error(t, err, in)
	}
}

func TestMoneyString(t *testing.T) {
	assert.Equal(t, "2000.00", Whole(2000).String())
	assert.Equal(t, "0.05", Money(5).String())
	assert.Equal(t, "-1.50", Money(-150).String())
	assert.Equal(t, "0.00", Money(0).String())
}

func TestMoneyValid(t *testing.T) {
	assert.True(t, Money(1).Valid())
	assert.True(t, MaxAmount.Valid())
	assert.False(t, Money(0).Valid())
	assert.False(t, Money(-1).Valid())
	assert.False(t, (MaxAmount + 1).Valid())
}

func TestMoneyJSON(t *testing.T) {
	var body struct {
		Amount Money `json:"amount"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"amount": 1000.5}`), &body))
	assert.Equal(t, Money(100050), body.Amount)

	require.NoError(t, json.Unmarshal([]byte(`{"amount": "250"}`), &body))
	assert.Equal(t, Whole(250), body.Amount)

	assert.Error(t, json.Unmarshal([]byte(`{"amount": 1.005}`), &body))

	out, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount": 250.00}`, string(out))
}

func TestNewStatement(t *testing.T) {
	st := NewStatement(7,
		[]RentCharge{{Amount: Whole(3000)}, {Amount: Whole(500)}},
		[]Payment{{Amount: Whole(1000)}},
	)
	assert.Equal(t, Whole(3500), st.TotalCharged)
	assert.Equal(t, Whole(1000), st.TotalPaid)
	assert.Equal(t, Whole(2500), st.Balance)

	empty := NewStatement(7, nil, nil)
	assert.NotNil(t, empty.Charges)
	assert.NotNil(t, empty.Payments)
	assert.Equal(t, Money(0), empty.Balance)
}

func TestCallerCanActFor(t *testing.T) {
	admin := Caller{UserID: 1, Role: RoleAdmin}
	student := Caller{UserID: 5, Role: RoleStudent}

	assert.True(t, admin.CanActFor(5))
	assert.True(t, student.CanActFor(5))
	assert.False(t, student.CanActFor(6))
	assert.False(t, Caller{UserID: 5}.CanActFor(5))
}
