package pagination

import "testing"

func TestDefaults(t *testing.T) {
	tests := []struct {
		name     string
		in       PageRequest
		wantPage int
		wantSize int
	}{
		{"empty", PageRequest{}, 1, 20},
		{"kept", PageRequest{Page: 3, PageSize: 5}, 3, 5},
		{"capped", PageRequest{Page: 1, PageSize: 500}, 1, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.in
			req.Defaults()
			if req.Page != tt.wantPage || req.PageSize != tt.wantSize {
				t.Errorf("got page=%d size=%d, want page=%d size=%d", req.Page, req.PageSize, tt.wantPage, tt.wantSize)
			}
		})
	}
}

func TestNewPageResponse(t *testing.T) {
	req := PageRequest{Page: 2, PageSize: 10}
	resp := NewPageResponse[string](nil, req, 21)

	if resp.Data == nil {
		t.Error("data should be an empty slice, not nil")
	}
	if resp.TotalPages != 3 {
		t.Errorf("expected 3 pages, got %d", resp.TotalPages)
	}
	if req.Offset() != 10 {
		t.Errorf("expected offset 10, got %d", req.Offset())
	}
}
