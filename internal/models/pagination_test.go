package models

import "testing"

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name                     string
		page, limit, total, want int
	}{
		{"exact fit", 1, 10, 20, 2},
		{"partial last page", 1, 8, 17, 3},
		{"empty", 1, 20, 0, 0},
		{"single item", 1, 20, 1, 1},
		{"unpaginated", 1, 0, 5, 1},
		{"unpaginated empty", 1, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination(tt.page, tt.limit, tt.total)
			if p.TotalPages != tt.want {
				t.Errorf("TotalPages = %d, want %d", p.TotalPages, tt.want)
			}
			if p.TotalCount != tt.total {
				t.Errorf("TotalCount = %d, want %d", p.TotalCount, tt.total)
			}
		})
	}
}

func TestOffset(t *testing.T) {
	if got := Offset(3, 20); got != 40 {
		t.Errorf("Offset(3, 20) = %d", got)
	}
	if got := Offset(0, 20); got != 0 {
		t.Errorf("Offset(0, 20) = %d", got)
	}
}
