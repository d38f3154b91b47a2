package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRenderOrdersColumnsByHeader(t *testing.T) {
	data := Dataset{
		Headers: []string{"Student", "Company"},
		Rows: []map[string]string{
			{"Company": "Acme Corp", "Student": "Juana Dela Cruz"},
		},
	}

	out, err := NewCSVExporter().Render(data)
	require.NoError(t, err)
	assert.Equal(t, "Student,Company\nJuana Dela Cruz,Acme Corp\n", string(out))
}

func TestCSVRenderRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFRenderTable(t *testing.T) {
	data := Dataset{
		Headers: []string{"Student", "Hours"},
		Rows: []map[string]string{
			{"Student": "Juana Dela Cruz", "Hours": "486.00"},
		},
	}

	out, err := NewPDFExporter().Render(data, "Masterlist")
	require.NoError(t, err)
	assert.True(t, len(out) > 4)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestPDFRenderLetter(t *testing.T) {
	letter := Letter{
		Heading:    "On-the-Job Training Endorsement",
		Date:       "February 10, 2026",
		Recipient:  []string{"The Training Supervisor", "Acme Corp"},
		Salutation: "Dear Sir/Madam:",
		Paragraphs: []string{"We are pleased to endorse our student."},
		Closing:    "Respectfully yours,",
		SignName:   "Adviser Name",
		SignTitle:  "OJT Adviser",
	}

	out, err := NewPDFExporter().RenderLetter(letter)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestPDFRenderLetterRequiresBody(t *testing.T) {
	_, err := NewPDFExporter().RenderLetter(Letter{Heading: "Empty"})
	assert.Error(t, err)
}
