package books

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/etnz/books/store"
)

// rows returns the records of a snapshot as strings.
func rows(s Snapshot) map[string][]string {
	res := make(map[string][]string)
	for _, name := range store.Collections {
		for _, r := range s.Data[name] {
			res[name] = append(res[name], string(r))
		}
	}
	return res
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := reportFixture(t)
	exported, err := f.e.ExportSnapshot(ctx)
	if err != nil {
		t.Fatalf("ExportSnapshot() failed: %v", err)
	}
	if exported.Version != SchemaVersion {
		t.Errorf("Version = %d, want %d", exported.Version, SchemaVersion)
	}

	// through the file format
	data, err := exported.MarshalIndent()
	if err != nil {
		t.Fatalf("MarshalIndent() failed: %v", err)
	}
	parsed, err := ParseSnapshot(data)
	if err != nil {
		t.Fatalf("ParseSnapshot() failed: %v", err)
	}

	other := newTestEngine(t, nil)
	if err := other.ImportSnapshot(ctx, parsed); err != nil {
		t.Fatalf("ImportSnapshot() failed: %v", err)
	}
	imported, err := other.ExportSnapshot(ctx)
	if err != nil {
		t.Fatalf("ExportSnapshot() failed: %v", err)
	}
	if got, want := rows(imported), rows(exported); !reflect.DeepEqual(got, want) {
		t.Errorf("round trip changed the records:\ngot  %v\nwant %v", got, want)
	}
	if got, want := other.Books().Settings(), f.e.Books().Settings(); got != want {
		t.Errorf("Settings() = %v, want %v", got, want)
	}
	if got, want := NewProfitAndLoss(other.Books()), NewProfitAndLoss(f.e.Books()); !got.NetIncome.Equal(want.NetIncome) {
		t.Errorf("NetIncome = %s, want %s", got.NetIncome, want.NetIncome)
	}
}

func TestImportReplacesEverything(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.sell(t, "1", "10", "0", "")

	empty := Snapshot{Version: SchemaVersion}
	if err := f.e.ImportSnapshot(ctx, empty); err != nil {
		t.Fatalf("ImportSnapshot() failed: %v", err)
	}
	b := f.e.Books()
	if len(b.Items())+len(b.Sales())+len(b.Entries())+len(b.Parties())+len(b.Banks()) != 0 {
		t.Errorf("records survived a full replace import")
	}
}

func TestImportRejectsUnreadableRecords(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	before := f.e.Books()

	testCases := []struct {
		name string
		raw  string
	}{
		{"record without id", `{"data":{"items":[{"sku":"A"}]}}`},
		{"wrong field type", `{"version":3,"data":{"items":[{"id":"a","cost":"lots"}]}}`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := ParseSnapshot([]byte(tc.raw))
			if err != nil {
				t.Fatalf("ParseSnapshot() failed: %v", err)
			}
			if err := f.e.ImportSnapshot(ctx, s); !errors.Is(err, ErrValidation) {
				t.Errorf("ImportSnapshot() error = %v, want ErrValidation", err)
			}
			if f.e.Books() != before {
				t.Errorf("a rejected import changed the books")
			}
		})
	}
}

func TestParseSnapshot(t *testing.T) {
	bare, err := ParseSnapshot([]byte(`{"items":[{"id":"a"}],"sales":[]}`))
	if err != nil {
		t.Fatalf("ParseSnapshot(bare) failed: %v", err)
	}
	if bare.Version != legacySchemaVersion || len(bare.Data["items"]) != 1 {
		t.Errorf("ParseSnapshot(bare) = %+v", bare)
	}

	if _, err := ParseSnapshot([]byte(`[1,2]`)); !errors.Is(err, ErrValidation) {
		t.Errorf("ParseSnapshot(array) error = %v, want ErrValidation", err)
	}
}

func TestQuery(t *testing.T) {
	f := reportFixture(t)
	s, err := f.e.ExportSnapshot(context.Background())
	if err != nil {
		t.Fatalf("ExportSnapshot() failed: %v", err)
	}
	got, err := Query(s, "$.data.sales[*].total")
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	totals, ok := got.([]any)
	if !ok || len(totals) != 2 {
		t.Fatalf("Query() = %#v, want two totals", got)
	}
	if totals[0] != 100.0 || totals[1] != 60.0 {
		t.Errorf("Query() = %v, want [100 60]", totals)
	}

	if _, err := Query(s, "$.data[?("); !errors.Is(err, ErrValidation) {
		t.Errorf("Query(bad path) error = %v, want ErrValidation", err)
	}
}
