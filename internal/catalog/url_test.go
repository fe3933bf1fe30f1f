package catalog_test

import (
	"testing"

	"github.com/yoshiori/zen-downloader/internal/catalog"
)

func TestParseContentURL(t *testing.T) {
	testCases := []struct {
		name    string
		url     string
		want    catalog.ContentRef
		wantErr bool
	}{
		{
			name: "course page",
			url:  "https://www.nnn.ed.nico/courses/123",
			want: catalog.ContentRef{CourseID: "123"},
		},
		{
			name: "chapter page",
			url:  "https://www.nnn.ed.nico/courses/123/chapters/456",
			want: catalog.ContentRef{CourseID: "123", ChapterID: "456"},
		},
		{
			name: "movie page",
			url:  "https://www.nnn.ed.nico/courses/123/chapters/456/movies/789",
			want: catalog.ContentRef{CourseID: "123", ChapterID: "456", MovieID: "789"},
		},
		{
			name: "trailing slash",
			url:  "https://www.nnn.ed.nico/courses/123/chapters/456/",
			want: catalog.ContentRef{CourseID: "123", ChapterID: "456"},
		},
		{
			name: "query and fragment ignored",
			url:  "https://www.nnn.ed.nico/courses/123?tab=info#top",
			want: catalog.ContentRef{CourseID: "123"},
		},
		{
			name:    "not course material",
			url:     "https://www.nnn.ed.nico/mypage",
			wantErr: true,
		},
		{
			name:    "empty",
			url:     "",
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ref, err := catalog.ParseContentURL(tc.url)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ParseContentURL(%q) succeeded, want error", tc.url)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseContentURL(%q) error = %v", tc.url, err)
			}
			if ref != tc.want {
				t.Errorf("ParseContentURL(%q) = %+v, want %+v", tc.url, ref, tc.want)
			}
		})
	}
}
