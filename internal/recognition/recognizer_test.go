package recognition

import (
	"testing"
)

func TestMergePrefill(t *testing.T) {
	tests := []struct {
		name       string
		draft      Result
		recognized Result
		want       Result
	}{
		{
			name:       "fills both empty fields",
			draft:      Result{},
			recognized: Result{Brand: "CeraVe", Name: "Foaming Cleanser"},
			want:       Result{Brand: "CeraVe", Name: "Foaming Cleanser"},
		},
		{
			name:       "empty recognition value leaves existing brand untouched",
			draft:      Result{Brand: "La Roche-Posay"},
			recognized: Result{Brand: "", Name: "Serum"},
			want:       Result{Brand: "La Roche-Posay", Name: "Serum"},
		},
		{
			name:       "user-entered text is never overwritten",
			draft:      Result{Brand: "My Brand", Name: "My Name"},
			recognized: Result{Brand: "Other", Name: "Other"},
			want:       Result{Brand: "My Brand", Name: "My Name"},
		},
		{
			name:       "whitespace-only draft counts as empty",
			draft:      Result{Brand: "   "},
			recognized: Result{Brand: "CeraVe"},
			want:       Result{Brand: "CeraVe"},
		},
		{
			name:       "whitespace-only recognition counts as empty",
			draft:      Result{Brand: "CeraVe"},
			recognized: Result{Brand: "  ", Name: "  "},
			want:       Result{Brand: "CeraVe"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergePrefill(tt.draft, tt.recognized)
			if got != tt.want {
				t.Errorf("MergePrefill(%+v, %+v) = %+v, want %+v",
					tt.draft, tt.recognized, got, tt.want)
			}
		})
	}
}

func TestValidateImage(t *testing.T) {
	jpeg := []byte{0xff, 0xd8, 0xff}

	if err := ValidateImage(jpeg, "image/jpeg"); err != nil {
		t.Errorf("valid jpeg rejected: %v", err)
	}
	if err := ValidateImage(nil, "image/jpeg"); err != ErrEmptyImage {
		t.Errorf("empty payload = %v, want ErrEmptyImage", err)
	}
	if err := ValidateImage(jpeg, "application/pdf"); err != ErrUnsupportedImage {
		t.Errorf("pdf payload = %v, want ErrUnsupportedImage", err)
	}
}

func TestParseResult(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    Result
		wantErr bool
	}{
		{
			name: "plain json",
			text: `{"brand": "CeraVe", "name": "SA Cleanser"}`,
			want: Result{Brand: "CeraVe", Name: "SA Cleanser"},
		},
		{
			name: "fenced json",
			text: "```json\n{\"brand\": \"CeraVe\", \"name\": \"SA Cleanser\"}\n```",
			want: Result{Brand: "CeraVe", Name: "SA Cleanser"},
		},
		{
			name: "values are trimmed",
			text: `{"brand": " CeraVe ", "name": ""}`,
			want: Result{Brand: "CeraVe"},
		},
		{
			name:    "prose is an error",
			text:    "I think it is CeraVe",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseResult(tt.text)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseResult(%q) = %+v, want error", tt.text, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseResult(%q) returned error: %v", tt.text, err)
			}
			if got != tt.want {
				t.Errorf("parseResult(%q) = %+v, want %+v", tt.text, got, tt.want)
			}
		})
	}
}
