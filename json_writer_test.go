package books

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestJsonObjectWriter(t *testing.T) {
	testCases := []struct {
		name    string
		write   func(w *jsonObjectWriter)
		want    string
		wantErr bool
	}{
		{
			name:  "empty object",
			write: func(w *jsonObjectWriter) {},
			want:  `{}`,
		},
		{
			name: "keeps field order",
			write: func(w *jsonObjectWriter) {
				w.Append("version", 3)
				w.Append("exportedAt", "2025-01-02T03:04:05Z")
			},
			want: `{"version":3,"exportedAt":"2025-01-02T03:04:05Z"}`,
		},
		{
			name: "decimals are numbers",
			write: func(w *jsonObjectWriter) {
				w.Append("amount", decimal.RequireFromString("12.50"))
			},
			want: `{"amount":12.5}`,
		},
		{
			name: "optional fields",
			write: func(w *jsonObjectWriter) {
				w.Append("paid", 0)
				w.Optional("referenceId", "")
				w.Optional("partyId", "p1")
			},
			want: `{"paid":0,"partyId":"p1"}`,
		},
		{
			name: "sticky error",
			write: func(w *jsonObjectWriter) {
				w.Append("f", func() {})
				w.Append("a", 1)
			},
			wantErr: true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var w jsonObjectWriter
			tc.write(&w)
			got, err := w.MarshalJSON()
			if tc.wantErr {
				if err == nil {
					t.Errorf("MarshalJSON() = %s, want an error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tc.want {
				t.Errorf("got %s, want %s", got, tc.want)
			}
		})
	}
}
