package resume

import (
	"bytes"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func init() {
	// keep pdfcpu from creating a config directory under $HOME
	api.DisableConfigDir()
}

// PDFCompressor rewrites PDFs with pdfcpu's optimizer, which drops
// duplicate objects and unused resources.
type PDFCompressor struct{}

// Compress implements Compressor.
func (PDFCompressor) Compress(data []byte) ([]byte, error) {
	var out bytes.Buffer
	conf := model.NewDefaultConfiguration()
	if err := api.Optimize(bytes.NewReader(data), &out, conf); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
