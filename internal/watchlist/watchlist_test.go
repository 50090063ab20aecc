package watchlist

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"StockSentinel/internal/recorder"
)

func TestParseCSV(t *testing.T) {
	input := "\uFEFFRank,Symbol,Name\n1,wmt,Walmart\n2, ,Blank\n3,AMZN,\"Amazon.com, Inc.\"\n4,aapl\n"
	items, err := ParseCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %+v", items)
	}
	if items[0].Symbol != "WMT" || items[0].CompanyName != "Walmart" {
		t.Errorf("unexpected first item %+v", items[0])
	}
	if items[1].CompanyName != "Amazon.com, Inc." {
		t.Errorf("quoted name lost: %+v", items[1])
	}
	if items[2].Symbol != "AAPL" || items[2].CompanyName != "" {
		t.Errorf("short row mishandled: %+v", items[2])
	}
}

func TestParseCSV_NoSymbolColumn(t *testing.T) {
	for _, input := range []string{"", "Ticker,Name\nA,B\n"} {
		if _, err := ParseCSV(strings.NewReader(input)); !errors.Is(err, ErrNoSymbolColumn) {
			t.Errorf("%q: expected ErrNoSymbolColumn, got %v", input, err)
		}
	}
}

func TestCSVSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.csv")
	os.WriteFile(path, []byte("Symbol,Company\nMSFT,Microsoft\n"), 0644)

	items, err := (&CSVSource{Path: path}).Load(context.Background())
	if err != nil || len(items) != 1 || items[0].CompanyName != "Microsoft" {
		t.Errorf("got %+v, %v", items, err)
	}
	if _, err := (&CSVSource{Path: path + ".missing"}).Load(context.Background()); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestImportAndStoreSource(t *testing.T) {
	ctx := context.Background()
	store := recorder.NewMemoryStore()
	items, _ := ParseCSV(strings.NewReader("Symbol,Name\nMSFT,Microsoft\nAAPL,Apple\nMSFT,Microsoft Corp\n"))

	n, err := Import(ctx, store, items)
	if err != nil || n != 3 {
		t.Fatalf("import: n=%d err=%v", n, err)
	}
	got, err := (&StoreSource{Store: store}).Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 || got[0].Symbol != "MSFT" || got[0].CompanyName != "Microsoft Corp" || got[1].Symbol != "AAPL" {
		t.Errorf("unexpected stored list %+v", got)
	}
}
