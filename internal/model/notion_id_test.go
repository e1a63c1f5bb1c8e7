package model

import (
	"errors"
	"testing"
)

func TestNewNotionID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		id      string
		wantErr error
	}{
		{name: "dashed uuid", id: "1f2e3d4c-5b6a-7980-a1b2-c3d4e5f60718"},
		{name: "compact hex", id: "1f2e3d4c5b6a7980a1b2c3d4e5f60718"},
		{name: "uppercase hex", id: "1F2E3D4C5B6A7980A1B2C3D4E5F60718"},
		{name: "surrounding whitespace", id: "  1f2e3d4c5b6a7980a1b2c3d4e5f60718\n"},
		{name: "empty", id: "", wantErr: ErrEmptyNotionID},
		{name: "placeholder", id: "YOUR_PAGE_ID", wantErr: ErrPlaceholderNotionID},
		{name: "lowercase placeholder", id: "your_template_id", wantErr: ErrPlaceholderNotionID},
		{name: "too short", id: "1f2e3d4c", wantErr: ErrInvalidNotionID},
		{name: "not hex", id: "zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz", wantErr: ErrInvalidNotionID},
		{name: "misplaced dashes", id: "1f2e3d4c5b6a-7980-a1b2-c3d4e5f60718", wantErr: ErrInvalidNotionID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			id, err := NewNotionID(tt.id)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewNotionID(%q) error = %v, want %v", tt.id, err, tt.wantErr)
			}
			if tt.wantErr == nil && id.IsZero() {
				t.Error("expected non-zero id")
			}
		})
	}
}

func TestNotionIDCompact(t *testing.T) {
	t.Parallel()

	id, err := NewNotionID("1F2E3D4C-5B6A-7980-A1B2-C3D4E5F60718")
	if err != nil {
		t.Fatalf("NewNotionID() error = %v", err)
	}
	if got, want := id.Compact(), "1f2e3d4c5b6a7980a1b2c3d4e5f60718"; got != want {
		t.Errorf("Compact() = %q, want %q", got, want)
	}
	if !SameID("1f2e3d4c-5b6a-7980-a1b2-c3d4e5f60718", "1F2E3D4C5B6A7980A1B2C3D4E5F60718") {
		t.Error("SameID should ignore dashes and case")
	}
}

func TestMaskID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id   string
		want string
	}{
		{id: "", want: "********"},
		{id: "12345678", want: "********"},
		{id: "123456789", want: "****5****"},
		{id: "1f2e3d4c5b6a7980a1b2c3d4e5f60718", want: "****3d4c5b6a7980a1b2c3d4e5f6****"},
	}
	for _, tt := range tests {
		if got := MaskID(tt.id); got != tt.want {
			t.Errorf("MaskID(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}
