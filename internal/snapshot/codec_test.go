package snapshot

import (
	"testing"

	"carrental/internal/domain"
	"carrental/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() *models.Snapshot {
	loginMs := int64(1_700_000_000_000)
	penalty := 25.5
	comment := "scratch on door"
	place := "hq"

	s := models.NewSnapshot()
	s.Accounts = []models.Account{
		{ID: "0", Name: "alice", Email: "a@x.com", Password: "pw", LoginMs: &loginMs},
		{ID: "1", Name: "bob", Email: "b@x.com", Password: "pw2"},
	}
	current := s.Accounts[0]
	s.CurrentAccount = &current
	s.CarQty = map[string]int{"00": 2, "01": 0}
	s.Bookings = []models.Booking{
		{ID: 0, CarID: 0, UserID: "0", DateTimeFrom: "2025-01-01T10:00", DateTo: "2025-01-03", Last4CC: "4242", Total: 261.6, Status: models.StatusReserved, CheckedOutAt: 1_700_000_000_000, PlaceID: &place},
		{ID: 1, CarID: 1, UserID: "1", DateTimeFrom: "2025-02-01T09:00", DateTo: "2025-02-02", Last4CC: "1111", Total: 100, Penalty: &penalty, Comment: &comment, Status: models.StatusInspected, CheckedOutAt: 1_700_000_100_000},
	}
	return s
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	first, err := Encode(sampleSnapshot())
	require.NoError(t, err)

	decoded, err := Decode(first)
	require.NoError(t, err)
	require.NotNil(t, decoded)

	second, err := Encode(decoded)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))

	assert.Equal(t, models.SchemaVersion, decoded.Version)
	assert.Len(t, decoded.Bookings, 2)
	assert.Equal(t, "0", decoded.CurrentAccount.ID)
	assert.Equal(t, 25.5, *decoded.Bookings[1].Penalty)
}

func TestDecode_Empty(t *testing.T) {
	s, err := Decode(nil)
	assert.NoError(t, err)
	assert.Nil(t, s)

	s, err = Decode([]byte("   "))
	assert.NoError(t, err)
	assert.Nil(t, s)
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"NotJSON", `{accounts:`},
		{"Null", `null`},
		{"Array", `[]`},
		{"FutureVersion", `{"version": 99}`},
		{"BadVersion", `{"version": "one"}`},
		{"UnknownStatus", `{"version":1,"accounts":[],"carQty":{},"bookings":[{"id":0,"carId":0,"userId":"0","dateTimeFrom":"2025-01-01","dateTo":"2025-01-02","total":1,"status":"lost","checkedOutAt":0}]}`},
		{"NegativeQty", `{"version":1,"accounts":[],"carQty":{"00":-1},"bookings":[]}`},
		{"WrongType", `{"version":1,"accounts":"nope","carQty":{},"bookings":[]}`},
		{"DuplicateAccount", `{"version":1,"accounts":[{"id":"0","name":"a"},{"id":"0","name":"b"}],"carQty":{},"bookings":[]}`},
		{"MissingDate", `{"version":1,"accounts":[],"carQty":{},"bookings":[{"id":0,"carId":0,"userId":"0","dateTo":"2025-01-02","total":1,"status":"reserved","checkedOutAt":0}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Decode([]byte(tt.data))
			assert.Nil(t, s)
			assert.ErrorIs(t, err, domain.ErrMalformedSnapshot)
		})
	}
}

func TestDecode_MigratesLegacyDocument(t *testing.T) {
	legacy := `{
		"accounts": [{"name": "alice", "email": "a@x.com", "password": "pw", "loginMs": 1000}],
		"currentAccount": {"name": "alice", "email": "a@x.com", "password": "pw", "loginMs": 1000},
		"carQty": {"00": 3},
		"bookings": [
			{"id": 0, "carId": 0, "userId": "0", "datetimeform": "2025-01-01T10:00", "dateTo": "2025-01-03", "last4cc": "4242", "total": 261.6, "checkedOutAt": 5, "photos": []}
		]
	}`

	s, err := Decode([]byte(legacy))
	require.NoError(t, err)
	require.NotNil(t, s)

	assert.Equal(t, models.SchemaVersion, s.Version)
	require.Len(t, s.Accounts, 1)
	assert.Equal(t, "0", s.Accounts[0].ID)
	require.NotNil(t, s.CurrentAccount)
	assert.Equal(t, "0", s.CurrentAccount.ID)

	require.Len(t, s.Bookings, 1)
	assert.Equal(t, "2025-01-01T10:00", s.Bookings[0].DateTimeFrom)
	assert.Equal(t, models.StatusReserved, s.Bookings[0].Status)
	require.NotNil(t, s.Bookings[0].Penalty)
	assert.Equal(t, 0.0, *s.Bookings[0].Penalty)
	assert.Equal(t, 3, s.CarQty["00"])
}

func TestDecode_LegacyNegativeCarQtyClamped(t *testing.T) {
	legacy := `{
		"accounts": [{"name": "alice", "email": "a@x.com", "password": "pw"}],
		"carQty": {"00": -1, "01": 2},
		"bookings": [
			{"id": 0, "carId": 0, "userId": "0", "dateTimeFrom": "2025-01-01", "dateTo": "2025-01-03", "last4cc": "4242", "total": 261.6, "checkedOutAt": 5}
		]
	}`

	s, err := Decode([]byte(legacy))
	require.NoError(t, err)
	assert.Equal(t, 0, s.CarQty["00"])
	assert.Equal(t, 2, s.CarQty["01"])
	assert.Len(t, s.Accounts, 1)
	assert.Len(t, s.Bookings, 1)
}

func TestDecode_CurrentVersionNegativeCarQtyRejected(t *testing.T) {
	_, err := Decode([]byte(`{"version": 1, "accounts": [], "carQty": {"00": -1}, "bookings": []}`))
	assert.ErrorIs(t, err, domain.ErrMalformedSnapshot)
}

func TestDecode_LegacyWithoutCollections(t *testing.T) {
	s, err := Decode([]byte(`{"accounts": [], "currentAccount": null}`))
	require.NoError(t, err)
	assert.Empty(t, s.Bookings)
	assert.NotNil(t, s.CarQty)
	assert.Nil(t, s.CurrentAccount)
}

func TestDecode_LegacyOrphanSessionDropped(t *testing.T) {
	s, err := Decode([]byte(`{"accounts": [{"name": "alice"}], "currentAccount": {"name": "ghost"}}`))
	require.NoError(t, err)
	assert.Nil(t, s.CurrentAccount)
}

func TestEncode_Nil(t *testing.T) {
	_, err := Encode(nil)
	assert.Error(t, err)
}

func TestEncode_NormalizesNilCollections(t *testing.T) {
	data, err := Encode(&models.Snapshot{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"accounts":[],"currentAccount":null,"carQty":{},"bookings":[]}`, string(data))
}
