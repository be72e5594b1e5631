package domain

// RecognitionState is the lifecycle of a continuous recognition session.
type RecognitionState string

const (
	RecognitionIdle      RecognitionState = "idle"
	RecognitionStarting  RecognitionState = "starting"
	RecognitionListening RecognitionState = "listening"
)

// RecognitionResult is one recognized fragment. Final fragments are never revised.
type RecognitionResult struct {
	Text  string `json:"text"`
	Final bool   `json:"final"`
}

// RecognitionBatch mirrors a platform result event: the full result list of the
// session plus the index of the first entry that changed.
type RecognitionBatch struct {
	ResultIndex int                 `json:"result_index"`
	Results     []RecognitionResult `json:"results"`
}

// NotifyLevel classifies user-facing notifications.
type NotifyLevel string

const (
	NotifySuccess NotifyLevel = "success"
	NotifyInfo    NotifyLevel = "info"
	NotifyError   NotifyLevel = "error"
)
