package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"assetsync-service/internal/domain"
	infraconfig "assetsync-service/internal/infrastructure/config"

	"gopkg.in/yaml.v3"
)

// Pipeline is the YAML pipeline file: role limits, upstream endpoint paths and tier thresholds.
type Pipeline struct {
	Roles      map[string]int    `yaml:"roles"`
	Endpoints  map[string]string `yaml:"endpoints"`
	Thresholds Thresholds        `yaml:"thresholds"`
}

type Thresholds struct {
	Fresh           time.Duration `yaml:"fresh"`
	Degraded        time.Duration `yaml:"degraded"`
	UpstreamTimeout time.Duration `yaml:"upstream_timeout"`
}

var defaultEndpointPaths = map[domain.Endpoint]string{
	domain.EndpointProfile:              "/stable/profile",
	domain.EndpointKeyMetricsTTM:        "/stable/key-metrics-ttm",
	domain.EndpointQuote:                "/stable/quote",
	domain.EndpointHistoricalPrices:     "/stable/historical-price-eod/full",
	domain.EndpointPriceTarget:          "/stable/price-target-summary",
	domain.EndpointDCF:                  "/stable/discounted-cash-flow",
	domain.EndpointLeveredDCF:           "/stable/levered-discounted-cash-flow",
	domain.EndpointRating:               "/stable/ratings-snapshot",
	domain.EndpointGeographicRevenue:    "/stable/revenue-geographic-segmentation",
	domain.EndpointProductRevenue:       "/stable/revenue-product-segmentation",
	domain.EndpointPriceTargetConsensus: "/stable/price-target-consensus",
	domain.EndpointGradesConsensus:      "/stable/grades-consensus",
	domain.EndpointAnalystEstimates:     "/stable/analyst-estimates?period=annual",
	domain.EndpointRatios:               "/stable/ratios",
	domain.EndpointKeyMetricsAnnual:     "/stable/key-metrics",
	domain.EndpointStockPriceChange:     "/stable/stock-price-change",
	domain.EndpointGradesHistorical:     "/stable/grades-historical",
}

func DefaultPipeline() Pipeline {
	p := Pipeline{
		Roles:     map[string]int{},
		Endpoints: map[string]string{},
		Thresholds: Thresholds{
			Fresh:           infraconfig.DefaultFreshTTL,
			Degraded:        infraconfig.DefaultDegradedTTL,
			UpstreamTimeout: infraconfig.DefaultUpstreamTimeout,
		},
	}
	for role, limit := range domain.DefaultRoleLimits() {
		p.Roles[string(role)] = limit
	}
	for ep, path := range defaultEndpointPaths {
		p.Endpoints[string(ep)] = path
	}
	return p
}

// LoadPipeline reads the pipeline file at path on top of the defaults. An empty path yields
// the defaults. Non-zero TTLs in cfg override the file, and the result is validated.
func LoadPipeline(path string, cfg Config) (Pipeline, error) {
	p := DefaultPipeline()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Pipeline{}, fmt.Errorf("read pipeline %s: %w", path, err)
		}
		var file Pipeline
		if err := yaml.Unmarshal(b, &file); err != nil {
			return Pipeline{}, fmt.Errorf("parse pipeline %s: %w", path, err)
		}
		p.merge(file)
	}
	if cfg.FreshTTL > 0 {
		p.Thresholds.Fresh = cfg.FreshTTL
	}
	if cfg.DegradedTTL > 0 {
		p.Thresholds.Degraded = cfg.DegradedTTL
	}
	if cfg.UpstreamTimeout > 0 {
		p.Thresholds.UpstreamTimeout = cfg.UpstreamTimeout
	}
	if err := p.Validate(); err != nil {
		return Pipeline{}, err
	}
	return p, nil
}

func (p *Pipeline) merge(file Pipeline) {
	for role, limit := range file.Roles {
		p.Roles[strings.ToLower(strings.TrimSpace(role))] = limit
	}
	for ep, path := range file.Endpoints {
		p.Endpoints[ep] = path
	}
	if file.Thresholds.Fresh != 0 {
		p.Thresholds.Fresh = file.Thresholds.Fresh
	}
	if file.Thresholds.Degraded != 0 {
		p.Thresholds.Degraded = file.Thresholds.Degraded
	}
	if file.Thresholds.UpstreamTimeout != 0 {
		p.Thresholds.UpstreamTimeout = file.Thresholds.UpstreamTimeout
	}
}

func (p Pipeline) Validate() error {
	var errs []error
	if len(p.Roles) == 0 {
		errs = append(errs, errors.New("roles: at least one role required"))
	}
	for role, limit := range p.Roles {
		if strings.TrimSpace(role) == "" {
			errs = append(errs, errors.New("roles: empty role name"))
		}
		if limit < domain.Unlimited {
			errs = append(errs, fmt.Errorf("roles.%s: limit %d below -1", role, limit))
		}
	}
	for ep := range defaultEndpointPaths {
		path := p.Endpoints[string(ep)]
		if !strings.HasPrefix(path, "/") {
			errs = append(errs, fmt.Errorf("endpoints.%s: path %q must start with /", ep, path))
		}
	}
	t := p.Thresholds
	if t.Fresh <= 0 || t.Degraded <= t.Fresh {
		errs = append(errs, fmt.Errorf("thresholds: need 0 < fresh (%s) < degraded (%s)", t.Fresh, t.Degraded))
	}
	if t.UpstreamTimeout <= 0 {
		errs = append(errs, fmt.Errorf("thresholds: upstream_timeout must be positive"))
	}
	return errors.Join(errs...)
}

func (p Pipeline) RoleLimits() domain.RoleLimitTable {
	out := make(domain.RoleLimitTable, len(p.Roles))
	for role, limit := range p.Roles {
		out[domain.Role(role)] = limit
	}
	return out
}

func (p Pipeline) EndpointPaths() map[domain.Endpoint]string {
	out := make(map[domain.Endpoint]string, len(p.Endpoints))
	for ep, path := range p.Endpoints {
		out[domain.Endpoint(ep)] = path
	}
	return out
}
