package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/danbauman77/reginfo-monitor/internal/types"
)

// pubIDExpr matches agenda data file links like REGINFO_RIN_DATA_202410.xml.
var pubIDExpr = regexp.MustCompile(`REGINFO_RIN_DATA_(\d{6})\.xml`)

const earliestAgendaYear = 2020

// candidatePublications returns the publication IDs to try, newest
// first, discovering them on first use and caching the list for the run.
// Once a fetch has confirmed a publication, only that one is returned.
func (c *Client) candidatePublications(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pubID != "" {
		return []string{c.pubID}, nil
	}
	if c.pubIDs != nil || c.pubErr != nil {
		return c.pubIDs, c.pubErr
	}

	pubIDs, err := c.discoverPublications(ctx)
	if err != nil {
		c.logger.Warn("Agenda discovery failed, using generated candidates",
			zap.Error(err))
		pubIDs = fallbackPublications(time.Now())
	}

	if len(pubIDs) == 0 {
		c.pubErr = types.ErrNoAgenda
		return nil, c.pubErr
	}

	c.pubIDs = pubIDs
	return pubIDs, nil
}

// confirmPublication pins the publication all later fetches in this run
// will use.
func (c *Client) confirmPublication(pubID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pubID == "" {
		c.pubID = pubID
		c.logger.Info("Using agenda publication", zap.String("publication", pubID))
	}
}

// discoverPublications scrapes the agenda report page for publication IDs,
// newest first.
func (c *Client) discoverPublications(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, c.cfg.BaseURL+"/public/do/eAgendaXmlReport")
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse agenda page: %w", err)
	}

	seen := map[string]struct{}{}
	doc.Find("a.pageSubNav").Each(func(_ int, link *goquery.Selection) {
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		m := pubIDExpr.FindStringSubmatch(href)
		if m == nil {
			return
		}
		if validPublicationID(m[1]) {
			seen[m[1]] = struct{}{}
		}
	})

	if len(seen) == 0 {
		return nil, fmt.Errorf("no publication links on agenda page")
	}

	pubIDs := make([]string, 0, len(seen))
	for id := range seen {
		pubIDs = append(pubIDs, id)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(pubIDs)))
	return pubIDs, nil
}

// validPublicationID accepts YYYYMM where MM is a spring (04) or fall (10)
// agenda edition and the year is plausible.
func validPublicationID(id string) bool {
	if len(id) != 6 {
		return false
	}
	month := id[4:]
	if month != "04" && month != "10" {
		return false
	}
	year, err := strconv.Atoi(id[:4])
	if err != nil {
		return false
	}
	return year >= earliestAgendaYear && year <= time.Now().Year()+1
}

// fallbackPublications generates candidate publication IDs when the agenda
// page cannot be scraped: both editions per year from the newest edition
// that can exist at now down to the earliest plausible agenda year.
func fallbackPublications(now time.Time) []string {
	var pubIDs []string
	for year := now.Year(); year >= earliestAgendaYear; year-- {
		if year < now.Year() || now.Month() >= time.October {
			pubIDs = append(pubIDs, fmt.Sprintf("%d10", year))
		}
		if year < now.Year() || now.Month() >= time.April {
			pubIDs = append(pubIDs, fmt.Sprintf("%d04", year))
		}
	}
	return pubIDs
}
