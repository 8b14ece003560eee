package taskname

const (
	// Achievement tasks
	AchievementCheck = "achievement:check"

	// Recognition tasks
	RecognitionScan   = "recognition:scan"
	RecognitionNotify = "recognition:notify"

	// Weekly report tasks
	ReportWeeklySend    = "report:weekly:send"
	ReportWeeklySendAll = "report:weekly:send-all"

	// Engagement report tasks
	EngagementGenerate    = "engagement:generate"
	EngagementGenerateAll = "engagement:generate-all"
)
