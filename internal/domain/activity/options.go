package activity

// ListOptions provides filtering options for listing activity.
type ListOptions struct {
	User      string
	SlideID   *string
	QueueName *string
	Type      *Type
	Limit     int
	Offset    int
}
