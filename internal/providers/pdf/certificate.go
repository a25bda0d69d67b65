package pdf

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// CertificateData is the printable provenance summary of one batch.
type CertificateData struct {
	BatchID      string
	Species      string
	Status       string
	QrCode       string
	TraceURL     string
	Recalled     bool
	RecallReason string
	GeneratedAt  string

	Events   []CertificateRow
	Steps    []CertificateRow
	Tests    []CertificateRow
	Products []CertificateRow
}

// CertificateRow is one line of a certificate table: a date column and up
// to three detail columns.
type CertificateRow struct {
	Date    string
	Columns [3]string
}

var errMissingCode = errors.New("certificate requires a qr code")

func (p *PDFProvider) GenerateCertificate(ctx context.Context, data CertificateData) (io.Reader, error) {
	if data.QrCode == "" {
		return nil, errMissingCode
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	target := data.TraceURL
	if target == "" {
		target = data.QrCode
	}
	m.AddRow(40,
		col.New(8).Add(
			text.New("Certificate of Provenance", props.Text{Size: 18, Style: fontstyle.Bold, Align: align.Left}),
			text.New(data.Species, props.Text{Top: 10, Size: 12}),
			text.New("Batch "+data.BatchID, props.Text{Top: 17}),
			text.New("Status: "+data.Status, props.Text{Top: 22}),
			text.New("Issued: "+data.GeneratedAt, props.Text{Top: 27}),
		),
		code.NewQrCol(4, target, props.Rect{Center: true, Percent: 90}),
	)
	m.AddRow(8,
		col.New(8),
		text.NewCol(4, data.QrCode, props.Text{Size: 8, Align: align.Center}),
	)

	if data.Recalled {
		m.AddRow(14,
			text.NewCol(12, "RECALLED: "+data.RecallReason, props.Text{
				Size:  12,
				Style: fontstyle.Bold,
				Top:   4,
				Color: &props.Color{Red: 200},
			}),
		)
	}

	addSection(m, "Harvest", [3]string{"Collector", "Cooperative", "Method"}, data.Events)
	addSection(m, "Processing", [3]string{"Step", "Facility", "Notes"}, data.Steps)
	addSection(m, "Quality tests", [3]string{"Test", "Result", "Laboratory"}, data.Tests)
	addSection(m, "Products", [3]string{"Name", "Status", "Retail location"}, data.Products)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}

func addSection(m core.Maroto, title string, headers [3]string, rows []CertificateRow) {
	m.AddRow(14,
		text.NewCol(12, title, props.Text{Size: 13, Style: fontstyle.Bold, Top: 6}),
	)
	m.AddRow(8,
		text.NewCol(3, "Date", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, headers[0], props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, headers[1], props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, headers[2], props.Text{Style: fontstyle.Bold, Size: 9}),
	)
	if len(rows) == 0 {
		m.AddRow(8, text.NewCol(12, "None recorded", props.Text{Size: 9}))
		return
	}
	for _, row := range rows {
		m.AddRow(8,
			text.NewCol(3, row.Date, props.Text{Size: 9}),
			text.NewCol(3, row.Columns[0], props.Text{Size: 9}),
			text.NewCol(3, row.Columns[1], props.Text{Size: 9}),
			text.NewCol(3, row.Columns[2], props.Text{Size: 9}),
		)
	}
}
