package catalog

import (
	"fmt"
	"net/url"
	"strings"
)

// ContentRef identifies a piece of course material by the IDs embedded in
// its page URL. CourseID is always set; ChapterID and MovieID narrow the
// reference down.
type ContentRef struct {
	CourseID  string
	ChapterID string
	MovieID   string
}

// ParseContentURL extracts a content reference from a course, chapter or
// movie page URL, e.g. https://www.nnn.ed.nico/courses/123/chapters/456.
func ParseContentURL(raw string) (ContentRef, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return ContentRef{}, fmt.Errorf("invalid content URL %q: %w", raw, err)
	}

	var ref ContentRef
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+1 < len(segments); i += 2 {
		switch segments[i] {
		case "courses":
			ref.CourseID = segments[i+1]
		case "chapters":
			ref.ChapterID = segments[i+1]
		case "movies":
			ref.MovieID = segments[i+1]
		}
	}

	if ref.CourseID == "" {
		return ContentRef{}, fmt.Errorf("%q is not a course, chapter or movie URL", raw)
	}
	if ref.MovieID != "" && ref.ChapterID == "" {
		return ContentRef{}, fmt.Errorf("%q names a movie without its chapter", raw)
	}
	return ref, nil
}
