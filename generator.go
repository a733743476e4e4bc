package mailsync

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dBildungsplattform/mailsync/config"
	"github.com/dBildungsplattform/mailsync/internal/request"
)

// AddressGenerator produces candidate mail addresses and decides when two
// addresses are the same ignoring a numeric disambiguation suffix.
type AddressGenerator interface {
	GenerateAvailableAddress(ctx context.Context, firstName, lastName, domain string) (string, error)
	IsEqualIgnoreCount(a, b string) bool
}

// httpAddressGenerator asks the configured HTTP service for an available
// candidate address, the same way account numbers are fetched from an
// external generation service.
type httpAddressGenerator struct {
	service     config.GenerationHttpService
	countSuffix *regexp.Regexp
}

// NewAddressGenerator builds the default generator from configuration. The
// suffix-comparison rule is a configurable expression because the exact
// disambiguation policy belongs to the generator service, not to this engine.
func NewAddressGenerator(cnf *config.Configuration) AddressGenerator {
	expr := cnf.AddressGeneration.CountSuffixExpr
	if expr == "" {
		expr = config.DEFAULT_COUNT_SUFFIX_EXPR
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		logrus.WithField("expr", expr).WithError(err).Warn("invalid count suffix expression, using default")
		re = regexp.MustCompile(config.DEFAULT_COUNT_SUFFIX_EXPR)
	}
	return &httpAddressGenerator{
		service:     cnf.AddressGeneration.HttpService,
		countSuffix: re,
	}
}

func (g *httpAddressGenerator) GenerateAvailableAddress(ctx context.Context, firstName, lastName, domain string) (string, error) {
	type generationRequest struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Domain    string `json:"domain"`
	}

	payload, err := request.ToJsonReq(&generationRequest{FirstName: firstName, LastName: lastName, Domain: domain})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.service.Url, payload)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", g.service.Headers.Authorization)

	var response struct {
		Address string `json:"address"`
	}
	resp, err := request.Call(req, &response, time.Duration(g.service.Timeout)*time.Second)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("address generation service returned status %d", resp.StatusCode)
	}
	if response.Address == "" {
		return "", errors.New("address generation service returned no address")
	}
	return response.Address, nil
}

// IsEqualIgnoreCount reports whether two addresses are equal once the numeric
// disambiguation suffix is stripped from their local parts.
func (g *httpAddressGenerator) IsEqualIgnoreCount(a, b string) bool {
	return g.normalize(a) == g.normalize(b)
}

func (g *httpAddressGenerator) normalize(address string) string {
	lower := strings.ToLower(strings.TrimSpace(address))
	local, domain, found := strings.Cut(lower, "@")
	if !found {
		return lower
	}
	if m := g.countSuffix.FindStringSubmatch(local); len(m) > 1 && m[1] != "" {
		local = m[1]
	}
	return local + "@" + domain
}
