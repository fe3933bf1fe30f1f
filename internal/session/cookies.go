package session

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"

	"github.com/yoshiori/zen-downloader/internal/models"
)

// CookieFileName is the fixed per-user cookie file inside the session dir.
const CookieFileName = "cookies.json"

// LoadCookies reads a cookie file permissively: individually malformed
// records are skipped and a missing or unparseable file yields no cookies.
// Only real I/O failures are returned as errors.
func LoadCookies(path string) ([]models.Cookie, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Printf("cookie file %s is not a JSON array, starting fresh: %v", path, err)
		return nil, nil
	}

	var cookies []models.Cookie
	for _, rec := range raw {
		var c models.Cookie
		if err := json.Unmarshal(rec, &c); err != nil {
			continue
		}
		if c.Name == "" {
			continue
		}
		cookies = append(cookies, c)
	}
	return cookies, nil
}

// SaveCookies replaces the cookie file with the given cookies, writing a
// temp file first and renaming it so readers never see a partial file.
func SaveCookies(path string, cookies []models.Cookie) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if cookies == nil {
		cookies = []models.Cookie{}
	}
	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
