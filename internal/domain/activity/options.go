package activity

// ListActivityOptions provides filtering options for listing activity.
type ListActivityOptions struct {
	ActivityType *ActivityType
	BadgeCode    string
	SubjectID    string
	Limit        int
	Offset       int
}
