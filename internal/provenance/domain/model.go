package domain

import (
	"time"

	batchdomain "github.com/ayurtrace/ayurtrace/internal/batch/domain"
	collectiondomain "github.com/ayurtrace/ayurtrace/internal/collection/domain"
	productdomain "github.com/ayurtrace/ayurtrace/internal/product/domain"
	qrdomain "github.com/ayurtrace/ayurtrace/internal/qrcode/domain"
	qualitydomain "github.com/ayurtrace/ayurtrace/internal/quality/domain"
	registrydomain "github.com/ayurtrace/ayurtrace/internal/registry/domain"
)

// Provenance is the full lineage of one batch with every reference resolved.
// Lookups for records that no longer exist leave the map entry missing.
type Provenance struct {
	Batch        batchdomain.Batch
	Species      *registrydomain.Species
	QrCode       *qrdomain.QrCode
	Events       []collectiondomain.CollectionEvent
	Steps        []batchdomain.ProcessingStep
	Tests        []qualitydomain.QualityTest
	Products     []productdomain.Product
	Collectors   map[int64]*registrydomain.Collector
	Cooperatives map[int64]*registrydomain.Cooperative
	Facilities   map[int64]*registrydomain.ProcessingFacility
	Labs         map[int64]*registrydomain.QualityLab
	AssembledAt  time.Time
}

// ScanMeta describes the consumer device behind a QR lookup.
type ScanMeta struct {
	Location  *string
	IPAddress *string
	UserAgent *string
	AccountID *int64
}

type PublishResult struct {
	BatchID        string `json:"batch_id"`
	BundleURL      string `json:"bundle_url"`
	CertificateURL string `json:"certificate_url"`
}
