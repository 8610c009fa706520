package relevance

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllowURL(t *testing.T) {
	t.Parallel()

	f := NewFilter()

	allowed := []string{
		"https://example.com/blog/marketing-digital",
		"https://www.instagram.com/p/abc123/",
		"http://noticias.com.br/artigo/2024",
	}
	for _, u := range allowed {
		require.True(t, f.AllowURL(u), u)
	}

	blocked := []string{
		"ftp://example.com/file",
		"not a url at all://",
		"https://bit.ly/3xyz",
		"https://sub.t.co/abc",
		"https://example.com/login?next=/home",
		"https://example.com/cadastro",
		"https://example.com/docs/manual.pdf",
		"https://example.com/cart/checkout",
		"https://example.com/api/v1/items",
	}
	for _, u := range blocked {
		require.False(t, f.AllowURL(u), u)
	}
}

func TestAllowURLExtraDomains(t *testing.T) {
	t.Parallel()

	f := NewFilter("spam.example")
	require.False(t, f.AllowURL("https://spam.example/post"))
	require.False(t, f.AllowURL("https://www.spam.example/post"))
	require.True(t, f.AllowURL("https://notspam.example/post"))
}

func TestAllowText(t *testing.T) {
	t.Parallel()

	f := NewFilter()

	// One off-topic hit is tolerated.
	require.True(t, f.AllowText("Curso de marketing", "veja a receita de sucesso do mercado"))

	// Two hits reject.
	require.False(t, f.AllowText("Vaga de emprego em marketing", "envie seu currículo hoje"))

	require.True(t, f.AllowText("Marketing digital para iniciantes", "estratégias de conteúdo"))
}
