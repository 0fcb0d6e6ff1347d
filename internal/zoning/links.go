// Package zoning builds research links for a municipality's zoning code.
// Nothing here touches the network.
package zoning

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

const (
	searchPrefix = "https://www.google.com/search?q="
	searchSuffix = "+zoning+map+solar+energy+ecode360"
	libraryURL   = "https://www.generalcode.com/library/"

	summaryLimit = 800
)

// Links maps link names to URLs.
type Links map[string]string

// GuessLinks returns a web search for the municipality's solar zoning rules
// and the eCode360 library index.
func GuessLinks(municipality string) Links {
	name := url.QueryEscape(strings.TrimSpace(municipality))
	return Links{
		"general_search":   searchPrefix + name + searchSuffix,
		"ecode360_library": libraryURL,
	}
}

// SummarizeCodeText truncates zoning code text to a short excerpt.
func SummarizeCodeText(text string) string {
	if utf8.RuneCountInString(text) <= summaryLimit {
		return text
	}
	runes := []rune(text)
	return string(runes[:summaryLimit]) + "..."
}
