package pdf

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlyerText(t *testing.T) {
	t.Parallel()

	text := "LIDL HETI AJÁNLAT\n" +
		"Trappista sajt 2 490 Ft 1 990 Ft/kg\n" +
		"Friss kifli\t39 Ft/db\n" +
		"Pilsner sör 0,5 l\n" +
		"459 Ft 329 Ft\n" +
		"Érvényes: 03.10-03.16\n" +
		"Trappista sajt 2 490 Ft 1 990 Ft/kg\n" +
		"Mosópor 4.999,- 3.499,-\n" +
		"1 299 Ft\n"

	lines := ParseFlyerText(text)

	require.Len(t, lines, 4)

	assert.Equal(t, "Trappista sajt", lines[0].Name)
	assert.Equal(t, "1990", lines[0].SalePrice.String())
	assert.Equal(t, "2490", lines[0].OriginalPrice.String())
	assert.Equal(t, "kg", lines[0].Unit)

	assert.Equal(t, "Friss kifli", lines[1].Name)
	assert.Equal(t, "39", lines[1].SalePrice.String())
	assert.True(t, lines[1].OriginalPrice.IsZero())
	assert.Equal(t, "db", lines[1].Unit)

	assert.Equal(t, "Pilsner sör 0,5 l", lines[2].Name)
	assert.Equal(t, "329", lines[2].SalePrice.String())
	assert.Equal(t, "459", lines[2].OriginalPrice.String())

	assert.Equal(t, "Mosópor", lines[3].Name)
	assert.Equal(t, "3499", lines[3].SalePrice.String())
	assert.Equal(t, "4999", lines[3].OriginalPrice.String())
}

func TestParseFlyerText_Empty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, ParseFlyerText(""))
	assert.Empty(t, ParseFlyerText("Nincs akció ezen a héten"))
}

func TestDownloadPDF(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.pdf" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4 fake"))
	}))
	defer server.Close()

	path, err := DownloadPDF(context.Background(), server.Client(), server.URL+"/flyer.pdf")
	require.NoError(t, err)
	defer func() { _ = os.Remove(path) }()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 fake", string(data))

	_, err = DownloadPDF(context.Background(), server.Client(), server.URL+"/missing.pdf")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestExtractText_InvalidFile(t *testing.T) {
	t.Parallel()

	path := t.TempDir() + "/broken.pdf"
	require.NoError(t, os.WriteFile(path, []byte("not a pdf"), 0o600))

	_, err := ExtractText(path)
	assert.Error(t, err)
}
