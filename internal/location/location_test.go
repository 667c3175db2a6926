package location

import (
	"testing"
)

func TestExtract(t *testing.T) {
	t.Parallel()
	e := NewExtractor()

	tests := []struct {
		name   string
		text   string
		sender string
		want   string
		wantOK bool
	}{
		{
			name:   "signature city wins over body country",
			text:   "We ship to Chile and Peru.\n\nSaludos,\nJuan Pérez\nAv. Reforma 100, Monterrey",
			sender: "juan@example.com",
			want:   "Monterrey, Mexico",
			wantOK: true,
		},
		{
			name:   "accented country in body",
			text:   "Somos una planta en Perú y necesitamos bombas.",
			sender: "compras@example.com",
			want:   "Peru",
			wantOK: true,
		},
		{
			name:   "earliest match in body",
			text:   "Our plant in Spain will be supplied from our office in Germany.",
			want:   "Spain",
			wantOK: true,
		},
		{
			name:   "multi word city beats its country",
			text:   "Oficina central: Buenos Aires, Argentina",
			want:   "Buenos Aires, Argentina",
			wantOK: true,
		},
		{
			name:   "whole word only",
			text:   "Please quote chiles and indiana jones posters.",
			sender: "x@example.com",
			wantOK: false,
		},
		{
			name:   "spanish verb usa is not a country",
			text:   "La planta usa bombas centrífugas.",
			sender: "compras@example.com",
			wantOK: false,
		},
		{
			name:   "capitalised USA names the country",
			text:   "Planta de tratamiento en Texas, USA.",
			sender: "compras@example.com",
			want:   "United States",
			wantOK: true,
		},
		{
			name:   "sender country code fallback",
			text:   "Please send a quotation for 2 blowers.",
			sender: "Compras <compras@aguas.com.mx>",
			want:   "Mexico",
			wantOK: true,
		},
		{
			name:   "nothing found",
			text:   "Hello",
			sender: "someone@example.com",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := e.Extract(tt.text, tt.sender)
			if ok != tt.wantOK || got != tt.want {
				t.Fatalf("Extract() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestExtractDeterministic(t *testing.T) {
	t.Parallel()
	e := NewExtractor()
	text := "Regards\nMaria\nLisbon office, Portugal; sister plant in Madrid"
	first, _ := e.Extract(text, "maria@example.pt")
	for i := 0; i < 20; i++ {
		if got, _ := e.Extract(text, "maria@example.pt"); got != first {
			t.Fatalf("run %d: got %q, first run %q", i, got, first)
		}
	}
	if first != "Lisboa, Portugal" {
		t.Fatalf("got %q", first)
	}
}
