package mathutil

import "testing"

func TestNewMat(t *testing.T) {
	m := NewMat(3, 4)
	if len(m) != 3 {
		t.Fatalf("rows = %d, want 3", len(m))
	}
	for i, row := range m {
		if len(row) != 4 {
			t.Fatalf("row %d length = %d, want 4", i, len(row))
		}
		for j, v := range row {
			if v != 0 {
				t.Errorf("m[%d][%d] = %v, want 0", i, j, v)
			}
		}
	}
}

func TestNewMatFill(t *testing.T) {
	m := NewMatFill(2, 2, -7.5)
	for i := range m {
		for j := range m[i] {
			if m[i][j] != -7.5 {
				t.Errorf("m[%d][%d] = %v, want -7.5", i, j, m[i][j])
			}
		}
	}
}
