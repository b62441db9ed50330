package feliratok

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/language"

	"github.com/baoueb/subserver/internal/config"
	"github.com/baoueb/subserver/internal/subliminal"
)

// languageNames maps the site's Hungarian language labels to ISO codes.
// Unknown labels are tried as ISO codes directly before the row is dropped.
var languageNames = map[string]string{
	"magyar":  "hu",
	"angol":   "en",
	"német":   "de",
	"francia": "fr",
	"spanyol": "es",
	"olasz":   "it",
	"japán":   "ja",
}

// parseResults extracts subtitle rows from a search result page. The site
// serves Latin-2 pages, so the body goes through charset detection before
// goquery sees it. Rows that do not look like subtitle entries are skipped
// rather than failing the page.
func parseResults(body io.Reader) ([]*subliminal.Subtitle, error) {
	logger := config.GetLogger()

	utf8Body, err := charset.NewReader(body, "")
	if err != nil {
		return nil, fmt.Errorf("failed to detect page charset: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(utf8Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search page: %w", err)
	}

	var subtitles []*subliminal.Subtitle

	// Result rows carry a download link of the form
	// index.php?action=letolt&felirat=<id> plus language and name cells.
	doc.Find("tr").Each(func(i int, row *goquery.Selection) {
		link := row.Find(`a[href*="action=letolt"]`).First()
		if link.Length() == 0 {
			return // not a subtitle row
		}

		href, ok := link.Attr("href")
		if !ok {
			return
		}
		id := downloadID(href)
		if id == "" {
			logger.Debug().Str("href", href).Msg("Skipping row with unparseable download link")
			return
		}

		langLabel := strings.TrimSpace(row.Find("td.lang, small").First().Text())
		tag, err := parseLanguageLabel(langLabel)
		if err != nil {
			logger.Debug().Str("label", langLabel).Msg("Skipping row with unknown language")
			return
		}

		name := strings.TrimSpace(row.Find("div.magyar, td.name, a").First().Text())
		filename := strings.TrimSpace(link.AttrOr("title", ""))

		subtitles = append(subtitles, &subliminal.Subtitle{
			ProviderName: ProviderName,
			ID:           id,
			Language:     tag,
			ReleaseInfo:  name,
			Filename:     filename,
			DownloadRef:  "/index.php?action=letolt&felirat=" + url.QueryEscape(id),
		})
	})

	return subtitles, nil
}

// downloadID pulls the felirat parameter out of a download href.
func downloadID(href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return parsed.Query().Get("felirat")
}

func parseLanguageLabel(label string) (language.Tag, error) {
	code := strings.ToLower(strings.TrimSpace(label))
	if mapped, ok := languageNames[code]; ok {
		code = mapped
	}
	return subliminal.ParseLanguage(code)
}
