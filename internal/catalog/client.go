// Package catalog reads course, chapter and movie metadata from the
// platform's material API. Requests ride through an authenticated browser
// session rather than a plain HTTP client, since the API trusts the
// session cookies held by the browser.
package catalog

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/yoshiori/zen-downloader/internal/models"
)

const (
	defaultBaseURL = "https://api.nnn.ed.nico"
	fetchTimeout   = 15 * time.Second
)

// Session is the slice of the session manager the catalog depends on.
type Session interface {
	EnsureAuthenticated(ctx context.Context) error
	FetchJSON(ctx context.Context, url string, out interface{}) error
}

// APIError is an error reported by the platform inside an otherwise
// well-formed response body.
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("platform api error %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("platform api error: %s", e.Message)
}

type Client struct {
	session Session
	baseURL string
	timeout time.Duration
}

func New(sess Session) *Client {
	return &Client{
		session: sess,
		baseURL: defaultBaseURL,
		timeout: fetchTimeout,
	}
}

// NewWithBaseURL is used by tests to point the client at a fake API.
func NewWithBaseURL(sess Session, baseURL string) *Client {
	c := New(sess)
	c.baseURL = baseURL
	return c
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	if err := c.session.EnsureAuthenticated(ctx); err != nil {
		return fmt.Errorf("catalog request needs a valid session: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.session.FetchJSON(ctx, c.baseURL+path, out)
}

// FetchCourse returns a course with its chapter listing.
func (c *Client) FetchCourse(ctx context.Context, courseID string) (*models.Course, error) {
	var resp courseResponse
	path := fmt.Sprintf("/v2/material/courses/%s", url.PathEscape(courseID))
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch course %s: %w", courseID, err)
	}
	if resp.Error != nil {
		return nil, &APIError{Code: resp.Error.Code, Message: resp.Error.Message}
	}

	course := &models.Course{
		ID:    resp.ID,
		Title: displayTitle(resp.Category.Title, resp.Title),
	}
	for _, ch := range resp.Chapters {
		course.Chapters = append(course.Chapters, models.ChapterSummary{
			ID:    ch.ID,
			Title: ch.Title,
		})
	}
	return course, nil
}

// FetchChapter returns a chapter with its section listing. Sections carry
// their resource type so callers can pick out the playable movies.
func (c *Client) FetchChapter(ctx context.Context, courseID, chapterID string) (*models.Chapter, error) {
	var resp chapterResponse
	path := fmt.Sprintf("/v2/material/courses/%s/chapters/%s",
		url.PathEscape(courseID), url.PathEscape(chapterID))
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch chapter %s: %w", chapterID, err)
	}
	if resp.Error != nil {
		return nil, &APIError{Code: resp.Error.Code, Message: resp.Error.Message}
	}

	chapter := &models.Chapter{
		ID:          resp.ID,
		Title:       resp.Title,
		CourseID:    resp.Course.ID,
		CourseTitle: displayTitle(resp.Course.Category.Title, resp.Course.Title),
	}
	for _, s := range resp.Sections {
		chapter.Sections = append(chapter.Sections, models.Section{
			ID:           s.ID,
			Title:        s.Title,
			ResourceType: s.ResourceType,
			Duration:     s.Duration,
		})
	}
	return chapter, nil
}

// FetchMovieInfo returns playback metadata for a single movie. A movie
// without a manifest URL is valid; it simply has no downloadable source.
func (c *Client) FetchMovieInfo(ctx context.Context, courseID, chapterID, movieID string) (*models.MovieInfo, error) {
	var resp movieResponse
	path := fmt.Sprintf("/v2/material/courses/%s/chapters/%s/movies/%s",
		url.PathEscape(courseID), url.PathEscape(chapterID), url.PathEscape(movieID))
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch movie %s: %w", movieID, err)
	}
	if resp.Error != nil {
		return nil, &APIError{Code: resp.Error.Code, Message: resp.Error.Message}
	}

	return &models.MovieInfo{
		ID:          resp.ID,
		Title:       resp.Title,
		Duration:    resp.Duration,
		ManifestURL: resp.Media.ManifestURL,
	}, nil
}

// MoviesForRef expands a content reference into the ordered list of movies
// it covers: one movie, one chapter's movies, or every movie of a course
// chapter by chapter.
func (c *Client) MoviesForRef(ctx context.Context, ref ContentRef) ([]*models.MovieInfo, error) {
	if ref.MovieID != "" {
		movie, err := c.FetchMovieInfo(ctx, ref.CourseID, ref.ChapterID, ref.MovieID)
		if err != nil {
			return nil, err
		}
		return []*models.MovieInfo{movie}, nil
	}

	chapterIDs := []string{ref.ChapterID}
	if ref.ChapterID == "" {
		course, err := c.FetchCourse(ctx, ref.CourseID)
		if err != nil {
			return nil, err
		}
		chapterIDs = chapterIDs[:0]
		for _, ch := range course.Chapters {
			chapterIDs = append(chapterIDs, ch.ID)
		}
	}

	var movies []*models.MovieInfo
	for _, chapterID := range chapterIDs {
		chapter, err := c.FetchChapter(ctx, ref.CourseID, chapterID)
		if err != nil {
			return nil, err
		}
		for _, section := range chapter.Movies() {
			movie, err := c.FetchMovieInfo(ctx, ref.CourseID, chapterID, section.ID)
			if err != nil {
				return nil, err
			}
			movies = append(movies, movie)
		}
	}
	return movies, nil
}

// displayTitle prefers the category title the platform shows in its own
// UI over the raw material title.
func displayTitle(category, raw string) string {
	if category != "" {
		return category
	}
	return raw
}
