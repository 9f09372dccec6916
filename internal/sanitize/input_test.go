package sanitize

import (
	"errors"
	"strings"
	"testing"
)

func TestInput_SizeLimit(t *testing.T) {
	limit := DefaultMaxInputSize

	tests := []struct {
		name      string
		inputSize int
		wantErr   bool
	}{
		{"Under Limit", limit - 1, false},
		{"Exact Limit", limit, false},
		{"Over Limit", limit + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := strings.Repeat("a", tt.inputSize)
			_, err := Input(input, 0)
			if tt.wantErr {
				if !errors.Is(err, ErrInputTooLarge) {
					t.Errorf("Input() expected ErrInputTooLarge for size %d, got %v", tt.inputSize, err)
				}
			} else {
				if err != nil {
					t.Errorf("Input() unexpected error: %v", err)
				}
			}
		})
	}
}

func TestInput_CustomLimit(t *testing.T) {
	if _, err := Input("12345678901", 10); err == nil {
		t.Error("Expected error for input > 10")
	}
	if _, err := Input("12345", 10); err != nil {
		t.Errorf("Unexpected error for valid input: %v", err)
	}
}

func TestInput_ControlChars(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Normal Text", "make pasta for $20", "make pasta for $20"},
		{"Safe Controls", "milk\nbread\teggs", "milk\nbread\teggs"},
		{"ANSI Code", "\x1b[31mmilk\x1b[0m", "[31mmilk[0m"}, // ESC removed
		{"Null Byte", "mi\x00lk", "milk"},                   // NULL removed
		{"Surrounding Space", "  eggs \n", "eggs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Input(tt.input, 0)
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestInput_InvalidUTF8(t *testing.T) {
	input := "\xbd\xb2\x3d\xbc\x20\xe2\x8c\x98"
	_, err := Input(input, 0)
	if err != ErrInvalidUTF8 {
		t.Errorf("Expected ErrInvalidUTF8, got %v", err)
	}
}

func TestInput_Blank(t *testing.T) {
	_, err := Input(" \x07\t ", 0)
	if err != ErrEmptyInput {
		t.Errorf("Expected ErrEmptyInput, got %v", err)
	}
}
