package scraper

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/jonathan/career-copilot/internal/fetch"
	"github.com/jonathan/career-copilot/internal/types"
)

const (
	// LinkedInSource is stored as the source of every LinkedIn posting.
	LinkedInSource = "LinkedIn"
	// StartIndexPlaceholder is replaced with the card offset of each search page.
	StartIndexPlaceholder = "{start_index}"
	// DefaultDelay is the pause between detail requests.
	DefaultDelay = 1 * time.Second
	// MaxPagesLimit is the hard maximum number of search pages per run.
	MaxPagesLimit = 40

	linkedInJobURL = "https://www.linkedin.com/jobs/view/%s"
)

// RenderFunc returns the rendered HTML of a page.
type RenderFunc func(ctx context.Context, url string) (string, error)

// LinkedInOptions configures the LinkedIn guest search scraper.
type LinkedInOptions struct {
	// SearchURL must contain {start_index}.
	SearchURL string
	// MaxPages bounds the number of search pages read. Zero means 1.
	MaxPages int
	Delay    time.Duration
	Fetch    *fetch.Options
	// Render is used for detail pages whose description is missing from the static HTML.
	// Nil disables the fallback.
	Render RenderFunc
	Logger *zap.Logger
	// now is stubbed in tests
	now func() time.Time
}

// LinkedIn scrapes the public LinkedIn job search.
type LinkedIn struct {
	opts   LinkedInOptions
	logger *zap.Logger
}

// NewLinkedIn validates opts and returns a scraper.
func NewLinkedIn(opts LinkedInOptions) (*LinkedIn, error) {
	if !strings.Contains(opts.SearchURL, StartIndexPlaceholder) {
		return nil, fmt.Errorf("search URL must contain %s", StartIndexPlaceholder)
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 1
	}
	if opts.MaxPages > MaxPagesLimit {
		opts.MaxPages = MaxPagesLimit
	}
	if opts.Delay < 0 {
		opts.Delay = 0
	}
	if opts.Fetch == nil {
		opts.Fetch = fetch.DefaultOptions()
	}
	if opts.now == nil {
		opts.now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LinkedIn{opts: opts, logger: logger.With(zap.String("source", LinkedInSource))}, nil
}

// BrowserRenderer adapts fetch.WithBrowser to a RenderFunc.
func BrowserRenderer(timeout time.Duration, logger *zap.Logger) RenderFunc {
	return func(ctx context.Context, url string) (string, error) {
		return fetch.WithBrowser(ctx, url, timeout, logger)
	}
}

// Name returns the job board name.
func (l *LinkedIn) Name() string {
	return LinkedInSource
}

type jobCard struct {
	href  string
	jobID string
}

// ScrapeJobs pages through the search results and reads the detail page of
// every posting that skip does not report as known. Postings whose detail page
// cannot be read are logged and skipped. A failed search page or skip lookup
// ends the run with the jobs collected so far and an error.
func (l *LinkedIn) ScrapeJobs(ctx context.Context, skip SkipFunc) ([]types.RawJob, error) {
	var jobs []types.RawJob
	seen := make(map[string]bool)
	start := 0

	for page := 0; page < l.opts.MaxPages; page++ {
		if err := ctx.Err(); err != nil {
			return jobs, err
		}

		pageURL := strings.ReplaceAll(l.opts.SearchURL, StartIndexPlaceholder, strconv.Itoa(start))
		cards, err := l.searchPage(ctx, pageURL)
		if err != nil {
			return jobs, err
		}
		if len(cards) == 0 {
			break
		}
		start += len(cards)
		l.logger.Debug("read search page", zap.Int("page", page), zap.Int("cards", len(cards)))

		for _, card := range cards {
			if card.href == "" || card.jobID == "" {
				l.logger.Warn("skipping job card without link or id", zap.String("href", card.href))
				continue
			}
			if seen[card.jobID] {
				continue
			}
			seen[card.jobID] = true
			if skip != nil {
				known, err := skip(ctx, card.jobID)
				if err != nil {
					return jobs, fmt.Errorf("failed to check job %s: %w", card.jobID, err)
				}
				if known {
					l.logger.Debug("job already stored", zap.String("job_id", card.jobID))
					continue
				}
			}

			job, err := l.detail(ctx, card)
			if err != nil {
				if ctx.Err() != nil {
					return jobs, ctx.Err()
				}
				l.logger.Warn("failed to scrape job",
					zap.String("job_id", card.jobID),
					zap.String("url", card.href),
					zap.Error(err),
				)
			} else {
				jobs = append(jobs, job)
				l.logger.Info("scraped job", zap.String("job_id", job.JobID), zap.String("title", job.Title))
			}

			if err := l.pause(ctx); err != nil {
				return jobs, err
			}
		}
	}

	return jobs, nil
}

func (l *LinkedIn) searchPage(ctx context.Context, pageURL string) ([]jobCard, error) {
	doc, err := fetch.Document(ctx, pageURL, l.opts.Fetch)
	if err != nil {
		return nil, &Error{Source: LinkedInSource, URL: pageURL, Message: "failed to fetch search page", Cause: err}
	}

	var cards []jobCard
	doc.Find(".base-card").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Find(".base-card__full-link").First().Attr("href")
		urn, _ := s.Attr("data-entity-urn")
		cards = append(cards, jobCard{href: strings.TrimSpace(href), jobID: jobIDFromURN(urn)})
	})
	return cards, nil
}

func (l *LinkedIn) detail(ctx context.Context, card jobCard) (types.RawJob, error) {
	doc, err := fetch.Document(ctx, card.href, l.opts.Fetch)
	if err != nil {
		return types.RawJob{}, err
	}

	description := fetch.TextWithBreaks(doc.Find(".show-more-less-html__markup").First())
	if description == "" && l.opts.Render != nil {
		l.logger.Debug("description missing, rendering page", zap.String("job_id", card.jobID))
		html, err := l.opts.Render(ctx, card.href)
		if err != nil {
			return types.RawJob{}, err
		}
		if doc, err = goquery.NewDocumentFromReader(strings.NewReader(html)); err != nil {
			return types.RawJob{}, fmt.Errorf("failed to parse rendered page: %w", err)
		}
		// Rendered pages do not always keep the guest markup.
		if description, err = fetch.ExtractMainText(html, fetch.JobPostingSelectors()); err != nil {
			return types.RawJob{}, fmt.Errorf("failed to parse rendered page: %w", err)
		}
	}

	job := types.RawJob{
		JobID:       card.jobID,
		Title:       firstText(doc, ".top-card-layout__title"),
		Company:     firstText(doc, ".topcard__org-name-link"),
		Location:    firstText(doc, ".aside-job-card__location"),
		Description: description,
		URL:         fmt.Sprintf(linkedInJobURL, card.jobID),
		Source:      LinkedInSource,
		ScrapedAt:   l.opts.now(),
	}
	if err := job.Validate(); err != nil {
		return types.RawJob{}, fmt.Errorf("incomplete posting: %s", types.DescribeValidation(err))
	}
	return job, nil
}

func (l *LinkedIn) pause(ctx context.Context) error {
	if l.opts.Delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(l.opts.Delay):
		return nil
	}
}

func firstText(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().Text())
}

// jobIDFromURN returns the last ":" segment of an entity URN such as
// "urn:li:jobPosting:4012345678".
func jobIDFromURN(urn string) string {
	urn = strings.TrimSpace(urn)
	if i := strings.LastIndex(urn, ":"); i >= 0 {
		return urn[i+1:]
	}
	return urn
}
