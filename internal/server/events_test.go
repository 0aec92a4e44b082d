package server

import "testing"

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{"within limit", Request{TileSet: "plain", Rows: 10, Columns: 10}, false},
		{"empty grid", Request{TileSet: "plain"}, false},
		{"one row too many", Request{TileSet: "plain", Rows: 11, Columns: 10}, true},
		{"product wraps to zero", Request{TileSet: "plain", Rows: 1 << 32, Columns: 1 << 32}, true},
		{"zero columns, huge rows", Request{TileSet: "plain", Rows: 1 << 40}, true},
		{"zero rows, huge columns", Request{TileSet: "plain", Columns: 1 << 40}, true},
		{"no tile set", Request{Rows: 1, Columns: 1}, true},
		{"negative delay", Request{TileSet: "plain", DelayMS: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.validate(100)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	unlimited := Request{TileSet: "plain", Rows: 1000, Columns: 1000}
	if err := unlimited.validate(0); err != nil {
		t.Errorf("validate(0) error = %v, want nil", err)
	}
}
