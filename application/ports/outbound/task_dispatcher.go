package outbound

// TaskDispatcher submits work to a bounded worker pool. *ants.Pool satisfies
// it directly.
type TaskDispatcher interface {
	Submit(task func()) error
}
