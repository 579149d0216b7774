package segment

import (
	"strings"
	"testing"
)

func TestHeader_StopsAtColumnHeaderLine(t *testing.T) {
	page := "Name: Jane Doe\nAcc No: 12345\nDate Particulars Amount\n01/01/24 UPI/1234 500.00"
	got := Header([]string{page})
	want := "Name: Jane Doe\nAcc No: 12345\n"
	if got != want {
		t.Errorf("expected header %q, got %q", want, got)
	}
}

func TestHeader_EarliestMatchWinsAcrossPatterns(t *testing.T) {
	// The date-row pattern appears later in the page than the literal marker;
	// the literal marker's earlier offset must win regardless of list order.
	page := "Account Holder: A B\nTransaction Details:\n01/02/24 something"
	got := Header([]string{page})
	want := "Account Holder: A B\n"
	if got != want {
		t.Errorf("expected header %q, got %q", want, got)
	}
}

func TestHeader_MultiPageScanStopsAtFirstBoundaryPage(t *testing.T) {
	pages := []string{
		"Statement of Account\nCustomer: Jane Doe",
		"Branch: Main Road\nDate Particulars Instruments\nrows...",
		"should never be reached\nBalance brought forward",
	}
	got := Header(pages)
	want := "Statement of Account\nCustomer: Jane Doe\nBranch: Main Road\n"
	if got != want {
		t.Errorf("expected header %q, got %q", want, got)
	}
}

func TestHeader_NoMarkerReturnsFullConcatenation(t *testing.T) {
	pages := []string{"Customer: Jane Doe", "Branch: Main Road"}
	got := Header(pages)
	want := Clean(pages[0]) + "\n" + Clean(pages[1])
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestHeader_ZeroPages(t *testing.T) {
	if got := Header(nil); got != "" {
		t.Errorf("expected empty header for zero pages, got %q", got)
	}
}

func TestHeader_BoundaryAtOffsetZero(t *testing.T) {
	// A page that opens with a transaction row yields an empty header.
	if got := Header([]string{"01/01/24 UPI/1234 500.00"}); got != "" {
		t.Errorf("expected empty header, got %q", got)
	}
}

func TestHeader_Idempotent(t *testing.T) {
	pages := []string{
		"Name: Jane Doe\nAcc No: 12345",
		"Opening Balance 100.00 Closing Balance 200.00",
	}
	first := Header(pages)
	second := Header(pages)
	if first != second {
		t.Errorf("segmentation not idempotent: %q vs %q", first, second)
	}
}

func TestBoundary_OffsetWithinPage(t *testing.T) {
	pages := []string{
		"Name: Jane Doe\nDate Particulars Amount",
		"no marker here",
		"",
	}
	for _, page := range pages {
		cleaned := Clean(page)
		off, ok := Boundary(cleaned)
		if off < 0 || off > len(cleaned) {
			t.Errorf("boundary offset %d out of range for page %q", off, page)
		}
		if !ok && off != 0 {
			t.Errorf("expected zero offset when no pattern matches, got %d", off)
		}
	}
}

func TestClean_StripsNonPrintableKeepsNewlineAndColon(t *testing.T) {
	in := "Name:\tJane Doe\r\nAcc No: 12345\n\n\nBranch"
	got := Clean(in)
	if strings.Contains(got, "\t") || strings.Contains(got, "\r") {
		t.Errorf("control characters survived cleaning: %q", got)
	}
	if !strings.Contains(got, ":") {
		t.Errorf("colon should survive cleaning: %q", got)
	}
	if strings.Contains(got, "\n\n") {
		t.Errorf("blank-line runs should collapse: %q", got)
	}
}

func TestClean_CollapsesSpaceRuns(t *testing.T) {
	got := Clean("Jane     Doe")
	if got != "Jane Doe" {
		t.Errorf("expected %q, got %q", "Jane Doe", got)
	}
}
