package lang

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/inmind-gr/office-radar/internal/model"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		text string
		want model.Language
	}{
		{
			name: "plain english",
			text: "PwC announced a new office in Athens, Greece",
			want: model.LanguageEnglish,
		},
		{
			name: "plain greek",
			text: "Η εταιρεία ανακοίνωσε μετεγκατάσταση γραφείων στην Αθήνα",
			want: model.LanguageGreek,
		},
		{
			name: "empty",
			text: "",
			want: model.LanguageEnglish,
		},
		{
			name: "numbers and punctuation",
			text: "1200 -- 45/3, (2026)",
			want: model.LanguageEnglish,
		},
		{
			name: "mostly english with a greek name",
			text: "The developer behind the project in Μαρούσι said the new office campus will open in two thousand twenty seven",
			want: model.LanguageEnglish,
		},
		{
			name: "greek with latin brand names",
			text: "Η Lamda ανακοίνωσε νέα γραφεία στη Θεσσαλονίκη κοντά στο κέντρο",
			want: model.LanguageGreek,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.text))
		})
	}
}

func TestDetect_OnlyFirstHundredRunesCount(t *testing.T) {
	// English prefix long enough to fill the sample window, Greek after it.
	text := strings.Repeat("office space leasing market news ", 4) +
		"γραφεία γραφεία γραφεία γραφεία γραφεία γραφεία γραφεία γραφεία"
	assert.Equal(t, model.LanguageEnglish, Detect(text))
}

func TestDetect_CaseInsensitive(t *testing.T) {
	assert.Equal(t, model.LanguageGreek, Detect("ΝΕΑ ΓΡΑΦΕΙΑ ΣΤΗΝ ΑΘΗΝΑ ΓΙΑ ΤΗΝ ΕΤΑΙΡΕΙΑ"))
}
