package pdf

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCertificate(t *testing.T) {
	r, err := New().GenerateCertificate(context.Background(), CertificateData{
		BatchID:     "1790000000000000000",
		Species:     "Withania somnifera (Ashwagandha)",
		Status:      "PACKAGED",
		QrCode:      "AYU-01J00000000000000000000000",
		TraceURL:    "http://localhost:8080/public/trace/AYU-01J00000000000000000000000",
		GeneratedAt: "2026-10-18T00:00:00Z",
		Tests: []CertificateRow{
			{Date: "2026-10-01", Columns: [3]string{"MOISTURE_CONTENT", "PASSED", "Nagpur Lab"}},
		},
	})
	require.NoError(t, err)

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.True(t, len(data) > 4)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestGenerateCertificateRequiresCode(t *testing.T) {
	_, err := New().GenerateCertificate(context.Background(), CertificateData{BatchID: "1"})
	assert.ErrorIs(t, err, errMissingCode)
}
