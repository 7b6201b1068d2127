package cartview

// NoticeLevel classifies a user-visible notice.
type NoticeLevel string

const (
	NoticeInfo  NoticeLevel = "info"
	NoticeWarn  NoticeLevel = "warn"
	NoticeError NoticeLevel = "error"
)

// Notice is a non-fatal message the rendering layer should surface. Notices
// accumulate on the view until drained.
type Notice struct {
	Level   NoticeLevel
	Message string
}
