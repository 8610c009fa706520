// Package relevance screens discovered URLs and snippets before they enter
// the extraction pipeline, dropping auth pages, binary assets, commerce
// flows and content whose vocabulary signals a different topic entirely.
package relevance

import (
	"net/url"
	"strings"
)

// blockedDomains hosts nothing worth extracting: link shorteners, app
// stores and ad redirectors.
var blockedDomains = []string{
	"bit.ly",
	"t.co",
	"tinyurl.com",
	"goo.gl",
	"play.google.com",
	"apps.apple.com",
	"doubleclick.net",
	"googleadservices.com",
}

// blockedPathFragments mark URLs that never carry article content.
var blockedPathFragments = []string{
	"/login", "/signin", "/sign-in", "/register", "/cadastro", "/auth",
	"/account", "/profile", "/settings", "/admin", "/api/",
	".pdf", ".jpg", ".jpeg", ".png", ".gif", ".mp4", ".zip",
	"/download", "/cart", "/checkout", "/payment",
}

// offTopicTerms is Brazilian-Portuguese vocabulary that signals the page
// is about something other than the campaign topic. Two or more hits in
// the combined title+snippet mark the result irrelevant.
var offTopicTerms = []string{
	"vaga de emprego", "currículo", "concurso público",
	"receita de", "horóscopo", "previsão do tempo",
	"resultado do jogo", "tabela do campeonato",
	"classificados", "aluguel de", "venda de imóvel",
}

// Filter decides which raw results survive into extraction.
type Filter struct {
	extraBlockedDomains []string
}

// NewFilter builds a Filter. Additional blocked domains extend the
// built-in list.
func NewFilter(extraBlockedDomains ...string) *Filter {
	return &Filter{extraBlockedDomains: extraBlockedDomains}
}

// AllowURL reports whether the URL is plausible and not blocked.
func (f *Filter) AllowURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if u.Host == "" {
		return false
	}

	host := strings.ToLower(u.Hostname())
	for _, d := range blockedDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return false
		}
	}
	for _, d := range f.extraBlockedDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return false
		}
	}

	lower := strings.ToLower(u.Path)
	if u.RawQuery != "" {
		lower += "?" + strings.ToLower(u.RawQuery)
	}
	for _, frag := range blockedPathFragments {
		if strings.Contains(lower, frag) {
			return false
		}
	}
	return true
}

// AllowText reports whether the result's title+snippet is on topic. It is
// lenient: only two or more off-topic vocabulary hits reject it.
func (f *Filter) AllowText(title, snippet string) bool {
	combined := strings.ToLower(title + " " + snippet)
	hits := 0
	for _, term := range offTopicTerms {
		if strings.Contains(combined, term) {
			hits++
			if hits >= 2 {
				return false
			}
		}
	}
	return true
}
