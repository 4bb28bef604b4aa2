package cookies

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Cookie is one browser cookie as exported by devtools extensions
// ("Export cookies as JSON" style dumps).
type Cookie struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Domain   string `json:"domain"`
	Path     string `json:"path"`
	Expires  int64  `json:"expires,omitempty"`
	HTTPOnly bool   `json:"httpOnly"`
	Secure   bool   `json:"secure"`
	SameSite string `json:"sameSite,omitempty"`
}

// Cookier manages the session cookie file handed to the extraction toolchain
// for restricted sources.
type Cookier interface {
	LoadCookies() ([]byte, error)
	SaveCookies(data []byte) error
	DeleteCookies() error
}

type localCookie struct {
	path string
}

// NewLoadCookie returns a Cookier backed by the file at path.
func NewLoadCookie(path string) Cookier {
	if path == "" {
		panic("path is required")
	}

	return &localCookie{
		path: path,
	}
}

// LoadCookies reads the cookie file.
func (c *localCookie) LoadCookies() ([]byte, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read cookies file")
	}

	return data, nil
}

// SaveCookies writes the cookie file.
func (c *localCookie) SaveCookies(data []byte) error {
	return os.WriteFile(c.path, data, 0644)
}

// DeleteCookies removes the cookie file. A missing file counts as already
// deleted.
func (c *localCookie) DeleteCookies() error {
	if _, err := os.Stat(c.path); os.IsNotExist(err) {
		return nil
	}
	return os.Remove(c.path)
}

// ParseBrowserExport decodes a JSON array of browser cookies. Dumps that wrap
// the array in a {"cookies": [...]} envelope are accepted too.
func ParseBrowserExport(data []byte) ([]Cookie, error) {
	var list []Cookie
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var wrapped struct {
		Cookies []Cookie `json:"cookies"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, errors.Wrap(err, "failed to parse browser cookie export")
	}
	if wrapped.Cookies == nil {
		return nil, errors.New("no cookies found in export")
	}
	return wrapped.Cookies, nil
}

// WriteNetscape writes cookies in the Netscape cookies.txt format that
// yt-dlp's --cookies flag expects. Domains not starting with a dot get
// includeSubdomains=FALSE per the original format rules.
func WriteNetscape(w io.Writer, cookies []Cookie) error {
	if _, err := fmt.Fprintln(w, "# Netscape HTTP Cookie File"); err != nil {
		return errors.Wrap(err, "failed to write cookies header")
	}

	for _, c := range cookies {
		if c.Name == "" || c.Domain == "" {
			continue
		}

		includeSub := "FALSE"
		if strings.HasPrefix(c.Domain, ".") {
			includeSub = "TRUE"
		}
		secure := "FALSE"
		if c.Secure {
			secure = "TRUE"
		}
		path := c.Path
		if path == "" {
			path = "/"
		}
		expires := c.Expires
		if expires < 0 {
			expires = 0
		}

		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			c.Domain, includeSub, path, secure, expires, c.Name, c.Value); err != nil {
			return errors.Wrap(err, "failed to write cookie line")
		}
	}
	return nil
}

// GetCookiesFilePath resolves the cookie file location from the environment,
// falling back to cookies.txt in the working directory.
func GetCookiesFilePath() string {
	path := os.Getenv("COOKIES_PATH")
	if path == "" {
		path = "cookies.txt"
	}
	return path
}
