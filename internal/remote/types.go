package remote

// submitRequest is the wire shape of a generation submission.
type submitRequest struct {
	Model     string `json:"model"`
	Prompt    string `json:"prompt"`
	ImageSize string `json:"image_size"`
}

// submitResponse carries the remote-assigned job identifier.
type submitResponse struct {
	RequestID string `json:"requestId"`
}

// statusRequest queries one job by identifier.
type statusRequest struct {
	RequestID string `json:"requestId"`
}

// Video is one generated artifact reference.
type Video struct {
	URL string `json:"url"`
}

// Results groups the artifacts a finished job produced.
type Results struct {
	Videos []Video `json:"videos"`
}

// StatusResponse is the normalized result of a status query. Status carries
// the remote's raw status string; transport and decode failures surface as
// Status "Error" with Reason populated, never as a Go error.
type StatusResponse struct {
	Status  string  `json:"status"`
	Results Results `json:"results"`
	Reason  string  `json:"error"`
}

// VideoURL returns the first artifact URL, or empty when none was reported.
func (r StatusResponse) VideoURL() string {
	if len(r.Results.Videos) == 0 {
		return ""
	}
	return r.Results.Videos[0].URL
}
