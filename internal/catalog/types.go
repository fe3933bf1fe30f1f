package catalog

// Wire types for the platform's material API. The `error` member is set
// instead of the payload when the platform rejects a request.

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type categoryRef struct {
	Title string `json:"title"`
}

type courseResponse struct {
	Error    *errorBody  `json:"error"`
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	Category categoryRef `json:"category"`
	Chapters []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"chapters"`
}

type chapterResponse struct {
	Error  *errorBody `json:"error"`
	ID     string     `json:"id"`
	Title  string     `json:"title"`
	Course struct {
		ID       string      `json:"id"`
		Title    string      `json:"title"`
		Category categoryRef `json:"category"`
	} `json:"course"`
	Sections []struct {
		ID           string  `json:"id"`
		Title        string  `json:"title"`
		ResourceType string  `json:"resource_type"`
		Duration     float64 `json:"duration"`
	} `json:"sections"`
}

type movieResponse struct {
	Error    *errorBody `json:"error"`
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Duration float64    `json:"duration"`
	Media    struct {
		ManifestURL string `json:"manifest_url"`
	} `json:"media"`
}
