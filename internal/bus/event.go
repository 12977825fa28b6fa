package bus

import "time"

// Event kinds published by the daemon. Subscribers filter by prefix, so the
// part before the first dot acts as the namespace.
const (
	KindOnline  = "net.online"
	KindOffline = "net.offline"

	KindEnqueued = "queue.enqueued"
	KindCleared  = "queue.cleared"

	KindSyncStatus    = "sync.status_changed"
	KindSyncCompleted = "sync.completed"
	KindActionSynced  = "sync.action_synced"
	KindActionFailed  = "sync.action_failed"
	KindActionDropped = "sync.action_dropped"

	KindSnapshotSaved   = "snapshot.saved"
	KindSnapshotCleared = "snapshot.cleared"

	KindWorkerPhase     = "worker.phase_changed"
	KindWorkerInstalled = "worker.installed"
	KindWorkerActivated = "worker.activated"
	KindCacheDeleted    = "worker.cache_deleted"
	KindManifestRefresh = "worker.manifest_refreshed"

	KindNotifyShow     = "notify.show"
	KindNotifyNavigate = "notify.navigate"
)

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}
