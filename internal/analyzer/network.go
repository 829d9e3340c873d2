package analyzer

import (
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mfascan/mfascan/internal/config"
	"github.com/mfascan/mfascan/internal/model"
)

// adRequestPatterns match request URLs belonging to ad servers,
// exchanges, SSPs, verification vendors, and pop/push networks. The set
// is keyed on hostnames and well-known path fragments rather than full
// URLs so CDN sharding does not defeat it.
var adRequestPatterns = []*regexp.Regexp{
	regexp.MustCompile(`googlesyndication\.com`),
	regexp.MustCompile(`googleadservices\.com`),
	regexp.MustCompile(`doubleclick\.net`),
	regexp.MustCompile(`googleads\.g\.doubleclick\.net`),
	regexp.MustCompile(`pagead2\.googlesyndication\.com`),
	regexp.MustCompile(`adservice\.google\.`),
	regexp.MustCompile(`googletag`),
	regexp.MustCompile(`securepubads`),
	regexp.MustCompile(`pubmatic\.com`),
	regexp.MustCompile(`rubiconproject\.com`),
	regexp.MustCompile(`openx\.net`),
	regexp.MustCompile(`criteo\.`),
	regexp.MustCompile(`amazon-adsystem`),
	regexp.MustCompile(`adsystem\.`),
	regexp.MustCompile(`bidswitch\.net`),
	regexp.MustCompile(`casalemedia\.com`),
	regexp.MustCompile(`adnxs\.com`),
	regexp.MustCompile(`appnexus\.com`),
	regexp.MustCompile(`indexexchange\.com`),
	regexp.MustCompile(`triplelift\.com`),
	regexp.MustCompile(`sharethrough\.com`),
	regexp.MustCompile(`teads\.tv`),
	regexp.MustCompile(`33across\.com`),
	regexp.MustCompile(`smartadserver\.com`),
	regexp.MustCompile(`taboola\.com`),
	regexp.MustCompile(`outbrain\.com`),
	regexp.MustCompile(`mgid\.com`),
	regexp.MustCompile(`revcontent\.com`),
	regexp.MustCompile(`content\.ad`),
	regexp.MustCompile(`zergnet\.com`),
	regexp.MustCompile(`nativo\.com`),
	regexp.MustCompile(`moatads\.com`),
	regexp.MustCompile(`adsafeprotected\.com`),
	regexp.MustCompile(`iasds01\.com`),
	regexp.MustCompile(`doubleverify\.com`),
	regexp.MustCompile(`spotxchange\.com`),
	regexp.MustCompile(`springserve\.com`),
	regexp.MustCompile(`jwpltx\.com`),
	regexp.MustCompile(`facebook\.net.*pixel`),
	regexp.MustCompile(`facebook\.com/tr`),
	regexp.MustCompile(`propellerads\.com`),
	regexp.MustCompile(`popads\.net`),
	regexp.MustCompile(`exoclick\.com`),
	regexp.MustCompile(`adcash\.com`),
	regexp.MustCompile(`popcash\.net`),
	regexp.MustCompile(`adsterra\.com`),
	regexp.MustCompile(`admaven\.com`),
	regexp.MustCompile(`monetag\.com`),
}

// prebidPatterns match header bidding library loads and auction calls.
var prebidPatterns = []*regexp.Regexp{
	regexp.MustCompile(`prebid`),
	regexp.MustCompile(`pbjs`),
	regexp.MustCompile(`/hb/`),
	regexp.MustCompile(`header-bidding`),
	regexp.MustCompile(`hb_bidder`),
	regexp.MustCompile(`hb_pb`),
	regexp.MustCompile(`hb_adid`),
}

// vastPatterns match video ad serving traffic.
var vastPatterns = []*regexp.Regexp{
	regexp.MustCompile(`vast`),
	regexp.MustCompile(`/ad/`),
	regexp.MustCompile(`vpaid`),
	regexp.MustCompile(`video/ad`),
	regexp.MustCompile(`ima3\.js`),
	regexp.MustCompile(`imasdk`),
	regexp.MustCompile(`googlevideo\.com/videoad`),
}

// arbitrageSources map traffic acquisition fingerprints to the paid
// channel they represent. Two or more distinct channels on one page is
// the classic arbitrage signature.
var arbitrageSources = map[string]string{
	"taboola":              "Taboola",
	"outbrain":             "Outbrain",
	"revcontent":           "RevContent",
	"mgid":                 "MGID",
	"content.ad":           "Content.ad",
	"zergnet":              "ZergNet",
	"postquare":            "PostQuare",
	"facebook.com/tr":      "Facebook Paid",
	"facebook.net/tr":      "Facebook Paid",
	"tiktok.com":           "TikTok Paid",
	"analytics.tiktok.com": "TikTok Paid",
	"onesignal":            "Push Notifications",
	"pushcrew":             "Push Notifications",
	"pushengage":           "Push Notifications",
}

// adNetworkNames map hostname fragments to the commercial name of the
// ad network behind them.
var adNetworkNames = map[string]string{
	"googlesyndication": "Google AdSense",
	"doubleclick":       "Google DFP/AdX",
	"googleadservices":  "Google Ads",
	"amazon-adsystem":   "Amazon",
	"adnxs":             "AppNexus/Xandr",
	"appnexus":          "AppNexus/Xandr",
	"criteo":            "Criteo",
	"pubmatic":          "PubMatic",
	"rubiconproject":    "Magnite",
	"openx":             "OpenX",
	"indexexchange":     "Index Exchange",
	"taboola":           "Taboola",
	"outbrain":          "Outbrain",
	"mgid":              "MGID",
	"revcontent":        "RevContent",
	"teads":             "Teads",
	"smartadserver":     "Smart AdServer",
	"triplelift":        "TripleLift",
	"sharethrough":      "Sharethrough",
	"33across":          "33Across",
	"casalemedia":       "Index Exchange",
	"bidswitch":         "BidSwitch",
	"moatads":           "Moat",
	"doubleverify":      "DoubleVerify",
	"adsafeprotected":   "IAS",
	"propellerads":      "PropellerAds",
	"exoclick":          "ExoClick",
	"adsterra":          "Adsterra",
}

// titleCaser renders unrecognized hostname labels as display names.
var titleCaser = cases.Title(language.English)

// NetworkTrafficClassifier buckets captured requests into ad, header
// bidding, video, and traffic acquisition categories, then derives
// refresh and arbitrage findings from the request timeline.
type NetworkTrafficClassifier struct {
	thresholds config.Thresholds
	logger     *slog.Logger
}

// NetworkOption configures a NetworkTrafficClassifier.
type NetworkOption func(*NetworkTrafficClassifier)

// WithNetworkLogger sets a custom logger for the classifier.
func WithNetworkLogger(logger *slog.Logger) NetworkOption {
	return func(c *NetworkTrafficClassifier) {
		c.logger = logger
	}
}

// NewNetworkTrafficClassifier creates a NetworkTrafficClassifier with the given thresholds.
func NewNetworkTrafficClassifier(thresholds config.Thresholds, opts ...NetworkOption) *NetworkTrafficClassifier {
	c := &NetworkTrafficClassifier{thresholds: thresholds}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Classify runs the traffic analysis over a signal bundle.
//
// A request may fall into several categories at once: a Taboola VAST
// call is simultaneously an ad request, video traffic, and an arbitrage
// source, and each detector should see it.
func (c *NetworkTrafficClassifier) Classify(signals *model.PageSignals) *model.NetworkAnalysis {
	result := &model.NetworkAnalysis{
		TotalRequests: len(signals.NetworkRequests),
	}

	networkCounts := make(map[string]int)
	arbitrageHits := make(map[string]bool)
	var adRequests []model.NetworkRequest

	for _, req := range signals.NetworkRequests {
		lower := strings.ToLower(req.URL)

		if matchesAny(lower, adRequestPatterns) {
			result.AdRequestCount++
			adRequests = append(adRequests, req)
			networkCounts[networkNameForURL(lower)]++
		}
		if matchesAny(lower, prebidPatterns) {
			result.PrebidCount++
		}
		if matchesAny(lower, vastPatterns) {
			result.VASTCount++
		}
		for fragment, source := range arbitrageSources {
			if strings.Contains(lower, fragment) {
				arbitrageHits[source] = true
			}
		}
	}

	result.Networks = topNetworks(networkCounts, 15)
	result.UniqueNetworkCount = len(networkCounts)
	result.Refresh = c.detectRefresh(adRequests)
	result.Arbitrage = buildArbitrage(arbitrageHits)

	result.Patterns = c.collectPatterns(signals, result)
	result.RiskScorePct = c.riskScore(signals, result)
	result.Level = model.RiskLevelForPercent(result.RiskScorePct)

	c.logger.Debug("network classification complete",
		"site", signals.Site,
		"total", result.TotalRequests,
		"ad_requests", result.AdRequestCount,
		"networks", result.UniqueNetworkCount,
		"risk_pct", result.RiskScorePct,
	)

	return result
}

// matchesAny reports whether any pattern matches the URL.
func matchesAny(url string, patterns []*regexp.Regexp) bool {
	for _, re := range patterns {
		if re.MatchString(url) {
			return true
		}
	}
	return false
}

// networkNameForURL resolves the commercial name of the ad network a
// request belongs to. Unrecognized hosts fall back to the second-to-last
// hostname label rendered in title case, so "ads.example.com" reports as
// "Example" rather than vanishing into an aggregate bucket.
func networkNameForURL(rawURL string) string {
	for fragment, name := range adNetworkNames {
		if strings.Contains(rawURL, fragment) {
			return name
		}
	}

	host := hostOf(rawURL)
	labels := strings.Split(host, ".")
	if len(labels) >= 2 {
		return titleCaser.String(labels[len(labels)-2])
	}
	return "Unknown"
}

// hostOf extracts the hostname from a URL, tolerating scheme-less input.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err == nil && u.Host != "" {
		return u.Hostname()
	}
	// Scheme-less capture like "cdn.adnetwork.com/path".
	trimmed := rawURL
	if i := strings.Index(trimmed, "//"); i >= 0 {
		trimmed = trimmed[i+2:]
	}
	if i := strings.IndexAny(trimmed, "/?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	if i := strings.Index(trimmed, ":"); i >= 0 {
		trimmed = trimmed[:i]
	}
	return trimmed
}

// topNetworks returns the busiest ad networks, largest first, capped at n.
func topNetworks(counts map[string]int, n int) []model.AdNetworkStat {
	stats := make([]model.AdNetworkStat, 0, len(counts))
	for name, count := range counts {
		stats = append(stats, model.AdNetworkStat{Name: name, Count: count})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Name < stats[j].Name
	})
	if len(stats) > n {
		stats = stats[:n]
	}
	return stats
}

// detectRefresh groups ad requests by registrable domain and inspects
// the intervals between consecutive calls to the same domain. Repeat
// calls well under a minute apart indicate auto-refreshing slots.
//
// Design decision: Grouping uses the registrable domain, not the full
// hostname, because ad servers rotate subdomains between refreshes of
// the same slot. Hosts the public suffix list cannot resolve (IPs,
// intranet names) group by raw host instead of being dropped.
func (c *NetworkTrafficClassifier) detectRefresh(adRequests []model.NetworkRequest) model.RefreshAnalysis {
	byDomain := make(map[string][]float64)
	for _, req := range adRequests {
		if req.TimestampMS < 0 {
			continue
		}
		host := hostOf(strings.ToLower(req.URL))
		domain, err := publicsuffix.EffectiveTLDPlusOne(host)
		if err != nil {
			domain = host
		}
		if domain == "" {
			continue
		}
		byDomain[domain] = append(byDomain[domain], req.TimestampMS)
	}

	domains := make([]string, 0, len(byDomain))
	for domain := range byDomain {
		domains = append(domains, domain)
	}
	sort.Strings(domains)

	var analysis model.RefreshAnalysis
	for _, domain := range domains {
		timestamps := byDomain[domain]
		if len(timestamps) < 2 {
			continue
		}
		sort.Float64s(timestamps)

		minInterval := timestamps[1] - timestamps[0]
		var sum float64
		for i := 1; i < len(timestamps); i++ {
			interval := timestamps[i] - timestamps[i-1]
			sum += interval
			if interval < minInterval {
				minInterval = interval
			}
		}
		avgInterval := sum / float64(len(timestamps)-1)

		if minInterval >= c.thresholds.RefreshMinIntervalMS && avgInterval >= c.thresholds.RefreshAvgIntervalMS {
			continue
		}

		severity := model.SeverityMedium
		if minInterval < c.thresholds.RefreshHighIntervalMS {
			severity = model.SeverityHigh
		}

		analysis.Detected = true
		if len(analysis.Patterns) < 5 {
			analysis.Patterns = append(analysis.Patterns, model.RefreshPattern{
				Domain:        domain,
				RequestCount:  len(timestamps),
				MinIntervalMS: minInterval,
				AvgIntervalMS: avgInterval,
				Severity:      severity,
			})
		}
	}
	return analysis
}

// buildArbitrage assembles the arbitrage verdict from the matched
// acquisition channels. A single channel is ordinary marketing; two or
// more running simultaneously is buying traffic to resell attention.
func buildArbitrage(hits map[string]bool) model.ArbitrageAnalysis {
	sources := make([]string, 0, len(hits))
	for source := range hits {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	return model.ArbitrageAnalysis{
		Detected: len(sources) >= 2,
		Sources:  sources,
	}
}

// collectPatterns flags traffic-level abuse patterns.
func (c *NetworkTrafficClassifier) collectPatterns(signals *model.PageSignals, result *model.NetworkAnalysis) []model.SuspiciousPattern {
	var patterns []model.SuspiciousPattern

	// The collector's own ad request count can exceed what the regex set
	// recognizes; trust whichever saw more.
	adRequests := result.AdRequestCount
	if signals.AdRequestCount > adRequests {
		adRequests = signals.AdRequestCount
	}

	switch {
	case adRequests > c.thresholds.ExcessiveAdRequests:
		patterns = append(patterns, model.SuspiciousPattern{
			Type:     "excessive_ad_calls",
			Severity: model.GetSeverity("excessive_ad_calls"),
			Detail:   fmt.Sprintf("%d ad requests during page load", adRequests),
			Count:    adRequests,
		})
	case adRequests > c.thresholds.HighAdRequests:
		patterns = append(patterns, model.SuspiciousPattern{
			Type:     "high_ad_calls",
			Severity: model.GetSeverity("high_ad_calls"),
			Detail:   fmt.Sprintf("%d ad requests during page load", adRequests),
			Count:    adRequests,
		})
	}

	if result.PrebidCount > 10 {
		patterns = append(patterns, model.SuspiciousPattern{
			Type:     "multiple_prebid_auctions",
			Severity: model.GetSeverity("multiple_prebid_auctions"),
			Detail:   fmt.Sprintf("%d header bidding calls", result.PrebidCount),
			Count:    result.PrebidCount,
		})
	}

	if result.Refresh.Detected {
		severity := model.SeverityMedium
		for _, p := range result.Refresh.Patterns {
			if p.Severity == model.SeverityHigh {
				severity = model.SeverityHigh
				break
			}
		}
		patterns = append(patterns, model.SuspiciousPattern{
			Type:     "auto_refresh_ads",
			Severity: severity,
			Detail:   fmt.Sprintf("%d domains refresh ad calls on a timer", len(result.Refresh.Patterns)),
			Count:    len(result.Refresh.Patterns),
		})
	}

	if result.UniqueNetworkCount > c.thresholds.FragmentedNetworkCount {
		patterns = append(patterns, model.SuspiciousPattern{
			Type:     "fragmented_ad_stack",
			Severity: model.GetSeverity("fragmented_ad_stack"),
			Detail:   fmt.Sprintf("%d distinct ad networks", result.UniqueNetworkCount),
			Count:    result.UniqueNetworkCount,
		})
	}

	if result.VASTCount > 5 {
		patterns = append(patterns, model.SuspiciousPattern{
			Type:     "excessive_video_ads",
			Severity: model.GetSeverity("excessive_video_ads"),
			Detail:   fmt.Sprintf("%d video ad calls", result.VASTCount),
			Count:    result.VASTCount,
		})
	}

	return patterns
}

// riskScore derives a 0-100 traffic risk from volume and patterns.
func (c *NetworkTrafficClassifier) riskScore(signals *model.PageSignals, result *model.NetworkAnalysis) float64 {
	adRequests := result.AdRequestCount
	if signals.AdRequestCount > adRequests {
		adRequests = signals.AdRequestCount
	}

	var score float64
	switch {
	case adRequests > c.thresholds.ExcessiveAdRequests:
		score += 70
	case adRequests > c.thresholds.HighAdRequests:
		score += 40
	case adRequests > 25:
		score += 15
	}

	for _, p := range result.Patterns {
		switch p.Type {
		case "auto_refresh_ads":
			if p.Severity == model.SeverityHigh {
				score += 40
			} else {
				score += 25
			}
		case "excessive_ad_calls":
			score += 30
		case "high_ad_calls":
			score += 15
		case "multiple_prebid_auctions":
			score += 10
		case "excessive_video_ads":
			score += 15
		case "fragmented_ad_stack":
			score += 5
		}
	}

	if score > 100 {
		score = 100
	}
	return score
}
