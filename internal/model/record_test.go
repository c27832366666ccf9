package model

import "testing"

func TestNewTabLink(t *testing.T) {
	t.Parallel()

	rec := NewTabLink("Kult", "Arahja", "https://example.com/kult/arahja")

	if rec.Artist != "Kult" || rec.Title != "Arahja" {
		t.Errorf("got %q/%q, want Kult/Arahja", rec.Artist, rec.Title)
	}
	if rec.Version != 1 {
		t.Errorf("got version %d, want 1", rec.Version)
	}
	if rec.Rating != nil || rec.Votes != nil || rec.Difficulty != nil || rec.Tonality != nil || rec.Views != nil {
		t.Error("expected all optional fields absent")
	}
}

func TestPtrNormalizers(t *testing.T) {
	t.Parallel()

	t.Run("falsy values become absent", func(t *testing.T) {
		t.Parallel()

		if Float64Ptr(0) != nil {
			t.Error("Float64Ptr(0) should be nil")
		}
		if IntPtr(0) != nil {
			t.Error("IntPtr(0) should be nil")
		}
		if StringPtr("") != nil {
			t.Error("StringPtr(\"\") should be nil")
		}
	})

	t.Run("real values survive", func(t *testing.T) {
		t.Parallel()

		if got := Float64Ptr(4.5); got == nil || *got != 4.5 {
			t.Errorf("Float64Ptr(4.5) = %v", got)
		}
		if got := IntPtr(7); got == nil || *got != 7 {
			t.Errorf("IntPtr(7) = %v", got)
		}
		if got := StringPtr("Am"); got == nil || *got != "Am" {
			t.Errorf("StringPtr(\"Am\") = %v", got)
		}
	})
}

func TestCrawlReportArtistCounts(t *testing.T) {
	t.Parallel()

	rep := NewCrawlReport("wywrota")
	rep.Records = []TabLink{
		NewTabLink("Kult", "Arahja", "u1"),
		NewTabLink("Kult", "Polska", "u2"),
		NewTabLink("Kombi", "Słodkiego miłego życia", "u3"),
	}

	counts := rep.ArtistCounts()
	if counts["Kult"] != 2 || counts["Kombi"] != 1 {
		t.Errorf("got %v, want Kult:2 Kombi:1", counts)
	}
	if rep.Partial() {
		t.Error("report without error should not be partial")
	}
}
