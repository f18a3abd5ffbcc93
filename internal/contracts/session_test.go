package contracts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionTable_Validate(t *testing.T) {
	tests := []struct {
		name    string
		table   SessionTable
		wantErr bool
	}{
		{name: "defaults", table: DefaultSessions(), wantErr: false},
		{name: "empty table", table: SessionTable{}, wantErr: false},
		{
			name: "gap between windows",
			table: SessionTable{
				{Name: "London", StartHour: 8, EndHour: 12},
				{Name: "NewYork", StartHour: 13, EndHour: 21},
			},
			wantErr: false,
		},
		{
			name: "overlap",
			table: SessionTable{
				{Name: "London", StartHour: 8, EndHour: 16},
				{Name: "NewYork", StartHour: 13, EndHour: 21},
			},
			wantErr: true,
		},
		{
			name:    "inverted window",
			table:   SessionTable{{Name: "Bad", StartHour: 10, EndHour: 9}},
			wantErr: true,
		},
		{
			name:    "hour out of range",
			table:   SessionTable{{Name: "Bad", StartHour: 20, EndHour: 25}},
			wantErr: true,
		},
		{
			name: "duplicate name",
			table: SessionTable{
				{Name: "A", StartHour: 0, EndHour: 4},
				{Name: "A", StartHour: 4, EndHour: 8},
			},
			wantErr: true,
		},
		{
			name:    "reserved name",
			table:   SessionTable{{Name: OffSession, StartHour: 0, EndHour: 4}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.table.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSessionTable_Classify(t *testing.T) {
	table := SessionTable{
		{Name: "London", StartHour: 8, EndHour: 12},
		{Name: "NewYork", StartHour: 13, EndHour: 21},
	}

	assert.Equal(t, "London", table.Classify(8))
	assert.Equal(t, "London", table.Classify(11))
	assert.Equal(t, OffSession, table.Classify(12))
	assert.Equal(t, "NewYork", table.Classify(20))
	assert.Equal(t, OffSession, table.Classify(21))
	assert.Equal(t, OffSession, table.Classify(3))

	assert.Equal(t, []string{"London", "NewYork", OffSession}, table.Names())
}
