package inject

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/HARDIK-TSH1392/Sandbox/internal/models"
)

// The dependency bootstrap is best-effort: a short allowlist of libraries
// the reference snippets commonly pull in. Anything else is the user's
// problem.
var (
	pythonDeps = []string{"requests", "numpy", "pandas"}
	nodeDeps   = []string{"axios", "lodash"}

	pythonImport = regexp.MustCompile(`(?m)^\s*(?:import|from)\s+([A-Za-z_][A-Za-z0-9_]*)`)
	nodeRequire  = regexp.MustCompile(`require\(\s*["']([^"']+)["']\s*\)`)
)

// renderBootstrap prepends an install step for each known external library
// the source references. Returns "" when nothing known is referenced.
func renderBootstrap(code string, lang models.Language) string {
	if lang == models.Python {
		found := referenced(code, pythonImport, pythonDeps)
		if len(found) == 0 {
			return ""
		}
		return strings.Join([]string{
			"import subprocess as __sandbox_subprocess",
			"import sys as __sandbox_pysys",
			fmt.Sprintf(
				`__sandbox_subprocess.run([__sandbox_pysys.executable, "-m", "pip", "install", "--quiet", %s], check=False)`,
				quoteAll(found, `"%s"`),
			),
		}, "\n")
	}

	found := referenced(code, nodeRequire, nodeDeps)
	if len(found) == 0 {
		return ""
	}
	return fmt.Sprintf(
		`require("child_process").execSync("npm install --no-save %s", { stdio: "ignore" });`,
		strings.Join(found, " "),
	)
}

// referenced returns the known dependencies the source mentions, in
// allowlist order, each at most once.
func referenced(code string, pattern *regexp.Regexp, known []string) []string {
	seen := map[string]bool{}
	for _, m := range pattern.FindAllStringSubmatch(code, -1) {
		seen[m[1]] = true
	}
	var found []string
	for _, dep := range known {
		if seen[dep] {
			found = append(found, dep)
		}
	}
	return found
}

func quoteAll(items []string, format string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = fmt.Sprintf(format, item)
	}
	return strings.Join(quoted, ", ")
}
