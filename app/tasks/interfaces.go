package tasks

// TaskSchedulerInterface defines the interface for task scheduling
// operations. The main application uses it to manage background task
// processing; the API uses it to enqueue on-demand work.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
