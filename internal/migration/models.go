package migration

import (
	auditdomain "github.com/ayurtrace/ayurtrace/internal/audit/domain"
	batchdomain "github.com/ayurtrace/ayurtrace/internal/batch/domain"
	collectiondomain "github.com/ayurtrace/ayurtrace/internal/collection/domain"
	custodydomain "github.com/ayurtrace/ayurtrace/internal/custody/domain"
	identitydomain "github.com/ayurtrace/ayurtrace/internal/identity/domain"
	productdomain "github.com/ayurtrace/ayurtrace/internal/product/domain"
	qrdomain "github.com/ayurtrace/ayurtrace/internal/qrcode/domain"
	qualitydomain "github.com/ayurtrace/ayurtrace/internal/quality/domain"
	registrydomain "github.com/ayurtrace/ayurtrace/internal/registry/domain"
)

// Models lists every persisted type, parents first. Dialects without SQL
// migrations are migrated from these.
func Models() []any {
	return []any{
		&registrydomain.Species{},
		&registrydomain.Cooperative{},
		&registrydomain.Collector{},
		&registrydomain.ProcessingFacility{},
		&registrydomain.QualityLab{},
		&batchdomain.Batch{},
		&collectiondomain.CollectionEvent{},
		&collectiondomain.SustainabilityCompliance{},
		&batchdomain.ProcessingStep{},
		&qualitydomain.QualityTest{},
		&productdomain.Product{},
		&qrdomain.QrCode{},
		&qrdomain.ConsumerScan{},
		&custodydomain.ChainOfCustody{},
		&identitydomain.Account{},
		&identitydomain.OTPChallenge{},
		&auditdomain.AuditLog{},
	}
}
