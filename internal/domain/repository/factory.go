package repository

// Factory describes access to different domain repositories.
type Factory interface {
	Orders() OrderRepository
	Shipments() ShipmentUnitOfWork
	Audit() AuditRepository
	PendingSyncs() PendingSyncRepository
}
