package osv

import (
	"context"
	"fmt"

	"github.com/example/secure-scanner/internal/finding"
	"github.com/example/secure-scanner/internal/manifest"
)

// Resolve returns one vulnerable_dependency finding per advisory affecting
// deps, located at line 1 of manifestFile. Lookup failures are logged and
// yield no findings; they never abort the analysis.
func (c *Client) Resolve(ctx context.Context, manifestFile string, deps []manifest.Dependency) []finding.Finding {
	if len(deps) == 0 {
		c.logger().Info("no pinned dependencies to check", "manifest", manifestFile)
		return nil
	}

	results, err := c.QueryBatch(ctx, deps)
	if err != nil {
		c.logger().Warn("dependency lookup failed",
			"type", "dependency_lookup_failure",
			"manifest", manifestFile,
			"dependencies", len(deps),
			"error", err,
		)
		if c.OnFailure != nil {
			c.OnFailure(err)
		}
		return nil
	}

	var findings []finding.Finding
	for i, res := range results {
		dep := deps[i]
		for _, v := range res.Vulns {
			if v.ID == "" {
				continue
			}
			f := finding.New(
				finding.CategoryVulnerableDependency,
				finding.SeverityHigh,
				1,
				fmt.Sprintf("%s has known vulnerability: %s", dep, v.ID),
			).WithFile(manifestFile)
			f.AdvisoryID = v.ID
			f.AdvisoryURL = c.advisoryURL(v.ID)
			findings = append(findings, f)
		}
	}
	return findings
}

func (c *Client) advisoryURL(id string) string {
	base := c.AdvisoryURLBase
	if base == "" {
		base = DefaultAdvisoryURLBase
	}
	return base + id
}
