// Command exportcookies converts a browser cookie export (JSON, as produced
// by devtools cookie extensions) into the Netscape cookies.txt file that
// yt-dlp consumes for restricted sources.
//
// Usage:
//
//	exportcookies -in export.json [-domain example.com] [-out cookies.txt]
//
// When -out is omitted the COOKIES_PATH environment variable is used, then
// cookies.txt in the working directory.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vidpress/crawler/cookies"
)

func main() {
	inPath := flag.String("in", "", "browser cookie export (JSON); - for stdin")
	outPath := flag.String("out", "", "output cookies.txt path (default: COOKIES_PATH or ./cookies.txt)")
	domain := flag.String("domain", "", "keep only cookies for this domain and its subdomains")
	flag.Parse()

	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "exportcookies: -in is required")
		flag.Usage()
		os.Exit(2)
	}

	data, err := readInput(*inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "exportcookies: %v\n", err)
		os.Exit(1)
	}

	list, err := cookies.ParseBrowserExport(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "exportcookies: %v\n", err)
		os.Exit(1)
	}

	if *domain != "" {
		list = filterByDomain(list, *domain)
	}
	if len(list) == 0 {
		fmt.Fprintln(os.Stderr, "exportcookies: no cookies matched")
		os.Exit(1)
	}

	var buf bytes.Buffer
	if err := cookies.WriteNetscape(&buf, list); err != nil {
		fmt.Fprintf(os.Stderr, "exportcookies: %v\n", err)
		os.Exit(1)
	}

	dest := *outPath
	if dest == "" {
		dest = cookies.GetCookiesFilePath()
	}
	if err := cookies.NewLoadCookie(dest).SaveCookies(buf.Bytes()); err != nil {
		fmt.Fprintf(os.Stderr, "exportcookies: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("wrote %d cookies to %s\n", len(list), dest)
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func filterByDomain(list []cookies.Cookie, domain string) []cookies.Cookie {
	domain = strings.TrimPrefix(strings.ToLower(domain), ".")

	var kept []cookies.Cookie
	for _, c := range list {
		host := strings.TrimPrefix(strings.ToLower(c.Domain), ".")
		if host == domain || strings.HasSuffix(host, "."+domain) {
			kept = append(kept, c)
		}
	}
	return kept
}
