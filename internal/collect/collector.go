// Package collect gathers recent news texts about a company from RSS feeds.
package collect

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/impactlens/esg-cli/internal/config"
	"github.com/impactlens/esg-cli/internal/model"
	"github.com/impactlens/esg-cli/internal/resilience"
)

const (
	defaultMaxArticles = 20
	mentionTermLimit   = 3
	mentionsPerTerm    = 5

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// esgTerms are appended to company searches when collecting ESG-specific
// mentions. Only the first mentionTermLimit are queried per run.
var esgTerms = []string{
	"sustainability", "ESG", "environmental impact", "social responsibility",
	"corporate governance", "carbon emissions", "diversity", "ethics",
}

// Cache is the subset of the store used to cache collected texts.
type Cache interface {
	GetCachedTexts(ctx context.Context, key string) ([]string, error)
	SetCachedTexts(ctx context.Context, key string, texts []string, ttl time.Duration) error
	DeleteExpiredTexts(ctx context.Context) (int, error)
}

// Article is one collected news item before conversion to an analysis text.
type Article struct {
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	URL       string `json:"url"`
	Published string `json:"published"`
	Source    string `json:"source"`
	ESGTerm   string `json:"esg_term,omitempty"`
}

// Result is the outcome of one collection run.
type Result struct {
	Texts     []string
	Articles  int
	Mentions  int
	Sources   []string
	FromCache bool
}

// Collector fetches configured news feeds plus Google News search feeds and
// turns matching items into analysis texts. Individual feed failures are
// logged and skipped; an empty result is valid.
type Collector struct {
	cfg      config.CollectorConfig
	parser   *gofeed.Parser
	limiter  *rate.Limiter
	breakers *resilience.ServiceBreakers
	cache    Cache

	// searchBase is the Google News search feed root; tests point it at a
	// local server.
	searchBase string
}

// Option configures a Collector.
type Option func(*Collector)

// WithBreakerConfig overrides the per-host circuit breaker policy.
func WithBreakerConfig(cfg resilience.CircuitBreakerConfig) Option {
	return func(c *Collector) { c.breakers = resilience.NewServiceBreakers(cfg) }
}

// New creates a Collector. cache may be nil to disable caching.
func New(cfg config.CollectorConfig, cache Cache, opts ...Option) *Collector {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}
	parser.UserAgent = userAgent

	perSecond := cfg.RatePerSecond
	if perSecond <= 0 {
		perSecond = 2.0
	}

	c := &Collector{
		cfg:        cfg,
		parser:     parser,
		limiter:    rate.NewLimiter(rate.Limit(perSecond), 1),
		breakers:   resilience.NewServiceBreakers(resilience.DefaultCircuitBreakerConfig()),
		cache:      cache,
		searchBase: "https://news.google.com/rss/search",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect gathers texts about company. maxArticles caps the general news
// portion; zero or negative falls back to the configured default.
func (c *Collector) Collect(ctx context.Context, company string, maxArticles int) (*Result, error) {
	if maxArticles <= 0 {
		maxArticles = c.cfg.MaxArticles
	}
	if maxArticles <= 0 {
		maxArticles = defaultMaxArticles
	}

	key := cacheKey(company, maxArticles)
	if c.cache != nil {
		cached, err := c.cache.GetCachedTexts(ctx, key)
		if err != nil {
			zap.L().Debug("collect: cache lookup failed", zap.String("company", company), zap.Error(err))
		}
		if cached != nil {
			zap.L().Info("collect: cache hit",
				zap.String("company", company),
				zap.Int("texts", len(cached)),
			)
			return &Result{
				Texts:     cached,
				Articles:  len(cached),
				Sources:   []string{"cache"},
				FromCache: true,
			}, nil
		}

		// A miss is the cheap moment to sweep expired rows; failures only
		// delay the cleanup to the next run.
		if pruned, err := c.cache.DeleteExpiredTexts(ctx); err != nil {
			zap.L().Debug("collect: cache prune failed", zap.Error(err))
		} else if pruned > 0 {
			zap.L().Debug("collect: pruned expired cache entries", zap.Int("pruned", pruned))
		}
	}

	articles := c.collectNews(ctx, company, maxArticles)
	mentions := c.collectMentions(ctx, company)

	seen := make(map[string]bool)
	sources := make(map[string]bool)
	var texts []string
	for _, a := range append(articles, mentions...) {
		text := joinText(a.Title, a.Summary)
		if text == "" {
			continue
		}
		sources[a.Source] = true
		if seen[text] {
			continue
		}
		seen[text] = true
		texts = append(texts, text)
	}

	res := &Result{
		Texts:    texts,
		Articles: len(articles),
		Mentions: len(mentions),
		Sources:  sortedKeys(sources),
	}

	if c.cache != nil && len(texts) > 0 {
		ttl := time.Duration(c.cfg.CacheTTLMins) * time.Minute
		if ttl <= 0 {
			ttl = time.Hour
		}
		if err := c.cache.SetCachedTexts(ctx, key, texts, ttl); err != nil {
			zap.L().Warn("collect: cache write failed", zap.String("company", company), zap.Error(err))
		}
	}

	zap.L().Info("collect: done",
		zap.String("company", company),
		zap.Int("articles", res.Articles),
		zap.Int("esg_mentions", res.Mentions),
		zap.Int("texts", len(res.Texts)),
	)
	return res, nil
}

// Stats converts a Result into collection stats for a report.
func (r *Result) Stats() model.CollectionStats {
	return model.CollectionStats{
		ArticlesCollected:  r.Articles,
		ESGMentions:        r.Mentions,
		Sources:            r.Sources,
		TotalTextsAnalyzed: len(r.Texts),
	}
}

// collectNews fetches the configured general feeds, keeping items that
// mention the company, then tops up from a Google News search.
func (c *Collector) collectNews(ctx context.Context, company string, maxArticles int) []Article {
	needle := strings.ToLower(company)
	perFeed := c.cfg.MaxPerFeed
	if perFeed <= 0 {
		perFeed = defaultMaxArticles
	}

	var articles []Article
	for _, feedURL := range c.cfg.Feeds {
		if len(articles) >= maxArticles {
			break
		}

		items, err := c.fetchFeed(ctx, feedURL)
		if err != nil {
			zap.L().Warn("collect: feed failed", zap.String("feed", feedURL), zap.Error(err))
			continue
		}

		taken := 0
		for _, item := range items {
			if taken >= perFeed || len(articles) >= maxArticles {
				break
			}
			a := toArticle(item, feedURL)
			if a == nil {
				continue
			}
			if !strings.Contains(strings.ToLower(a.Title), needle) &&
				!strings.Contains(strings.ToLower(a.Summary), needle) {
				continue
			}
			articles = append(articles, *a)
			taken++
		}
	}

	if len(articles) < maxArticles {
		remaining := maxArticles - len(articles)
		searchURL := c.searchURL(company + " ESG sustainability")
		items, err := c.fetchFeed(ctx, searchURL)
		if err != nil {
			zap.L().Warn("collect: news search failed", zap.String("company", company), zap.Error(err))
			return articles
		}
		for _, item := range items {
			if remaining <= 0 {
				break
			}
			a := toArticle(item, "Google News")
			if a == nil {
				continue
			}
			articles = append(articles, *a)
			remaining--
		}
	}

	return articles
}

// collectMentions runs ESG-term searches for the company. Only the first few
// terms are queried to bound feed traffic.
func (c *Collector) collectMentions(ctx context.Context, company string) []Article {
	var mentions []Article
	for _, term := range esgTerms[:mentionTermLimit] {
		items, err := c.fetchFeed(ctx, c.searchURL(company+" "+term))
		if err != nil {
			zap.L().Warn("collect: mention search failed",
				zap.String("company", company),
				zap.String("term", term),
				zap.Error(err),
			)
			continue
		}
		taken := 0
		for _, item := range items {
			if taken >= mentionsPerTerm {
				break
			}
			a := toArticle(item, "Google News ESG")
			if a == nil {
				continue
			}
			a.ESGTerm = term
			mentions = append(mentions, *a)
			taken++
		}
	}
	return mentions
}

// fetchFeed parses one feed URL behind the rate limiter and a per-host
// circuit breaker.
func (c *Collector) fetchFeed(ctx context.Context, feedURL string) ([]*gofeed.Item, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	cb := c.breakers.Get(feedHost(feedURL))
	return resilience.ExecuteVal(ctx, cb, func(ctx context.Context) ([]*gofeed.Item, error) {
		feed, err := c.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			return nil, err
		}
		return feed.Items, nil
	})
}

func (c *Collector) searchURL(query string) string {
	return c.searchBase + "?q=" + url.QueryEscape(query) + "&hl=en-US&gl=US&ceid=US:en"
}

func toArticle(item *gofeed.Item, source string) *Article {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		return nil
	}

	itemURL := item.Link
	if itemURL == "" {
		itemURL = item.GUID
	}

	var published string
	if item.PublishedParsed != nil {
		published = item.PublishedParsed.Format("2006-01-02")
	} else if item.UpdatedParsed != nil {
		published = item.UpdatedParsed.Format("2006-01-02")
	}

	return &Article{
		Title:     stripHTML(title),
		Summary:   stripHTML(item.Description),
		URL:       itemURL,
		Published: published,
		Source:    source,
	}
}

// joinText builds the analysis text for an article as "title. summary".
func joinText(title, summary string) string {
	title = strings.TrimSpace(title)
	summary = strings.TrimSpace(summary)
	switch {
	case title == "":
		return summary
	case summary == "":
		return title
	default:
		return title + ". " + summary
	}
}

func cacheKey(company string, maxArticles int) string {
	return fmt.Sprintf("%s_%d", strings.ToLower(strings.TrimSpace(company)), maxArticles)
}

func feedHost(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil || u.Hostname() == "" {
		return feedURL
	}
	return u.Hostname()
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// stripHTML removes tags and decodes common entities from feed content.
func stripHTML(text string) string {
	var b strings.Builder
	inTag := false
	for _, r := range text {
		if r == '<' {
			inTag = true
			b.WriteRune(' ')
			continue
		}
		if r == '>' {
			inTag = false
			continue
		}
		if !inTag {
			b.WriteRune(r)
		}
	}

	s := b.String()
	for entity, repl := range map[string]string{
		"&nbsp;": " ",
		"&amp;":  "&",
		"&lt;":   "<",
		"&gt;":   ">",
		"&quot;": `"`,
		"&#39;":  "'",
	} {
		s = strings.ReplaceAll(s, entity, repl)
	}

	return strings.Join(strings.Fields(s), " ")
}
