package drafting_test

import (
	"strings"
	"testing"

	"urs-backend/internal/drafting"
)

func TestUserPromptPicksTemplate(t *testing.T) {
	data := drafting.PromptData{
		Title:        "Kick-off",
		RequestTitle: "Clinic booking portal",
		Description:  "Online queue",
		Agency:       "Dinas Kesehatan",
		StartDate:    "4 Maret 2024",
	}

	fresh, err := drafting.UserPrompt(data)
	if err != nil {
		t.Fatalf("UserPrompt: %v", err)
	}
	if !strings.Contains(fresh, `judul: "Kick-off"`) || !strings.Contains(fresh, "Tanggal Mulai: 4 Maret 2024") {
		t.Fatalf("unexpected new-note prompt:\n%s", fresh)
	}
	if strings.Contains(fresh, "Informasi Tambahan") || strings.Contains(fresh, "Catatan yang sudah ada") {
		t.Fatalf("new-note prompt carries empty sections:\n%s", fresh)
	}

	data.ExistingNote = "Scope agreed"
	data.Context = "Bring the vendor"
	rewrite, err := drafting.UserPrompt(data)
	if err != nil {
		t.Fatalf("UserPrompt: %v", err)
	}
	for _, want := range []string{"Catatan yang sudah ada", "Scope agreed", "Informasi Tambahan:\nBring the vendor"} {
		if !strings.Contains(rewrite, want) {
			t.Fatalf("rewrite prompt missing %q:\n%s", want, rewrite)
		}
	}
}
