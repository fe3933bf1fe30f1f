package models

// ResourceTypeMovie marks a section as a playable video. Chapters also carry
// text and exam sections, which the downloader ignores.
const ResourceTypeMovie = "movie"

// Course is a top-level catalog entry. Title already follows the platform's
// display rule (category title preferred over the raw title).
type Course struct {
	ID       string           `json:"id"`
	Title    string           `json:"title"`
	Chapters []ChapterSummary `json:"chapters"`
}

type ChapterSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Chapter is one unit of a course, holding the ordered sections the platform
// returns for it.
type Chapter struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	CourseID    string    `json:"course_id"`
	CourseTitle string    `json:"course_title"`
	Sections    []Section `json:"sections"`
}

type Section struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	ResourceType string  `json:"resource_type"`
	Duration     float64 `json:"duration"` // seconds
}

// Movies returns the chapter's sections that are playable videos, in the
// order the platform lists them.
func (c *Chapter) Movies() []Section {
	var movies []Section
	for _, s := range c.Sections {
		if s.ResourceType == ResourceTypeMovie {
			movies = append(movies, s)
		}
	}
	return movies
}

// MovieInfo is the per-movie detail needed to download it. ManifestURL is
// empty when the platform exposes no playable source for the movie.
type MovieInfo struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Duration    float64 `json:"duration"`
	ManifestURL string  `json:"manifest_url"`
}

// HasSource reports whether the movie can actually be downloaded.
func (m *MovieInfo) HasSource() bool {
	return m.ManifestURL != ""
}
