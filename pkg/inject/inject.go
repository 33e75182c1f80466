// Package inject rewrites user source to add the synthetic fault behavior a
// scenario asks for. The rewrite is assembled from an ordered list of named
// fragments with one renderer per target language; with an empty scenario
// the input comes back byte-identical.
package inject

import (
	"fmt"
	"strings"

	"github.com/HARDIK-TSH1392/Sandbox/internal/models"
	customErrors "github.com/HARDIK-TSH1392/Sandbox/internal/models/errors"
)

// leakElementCount is the fixed number of elements the memory-leak fragment
// allocates, sized to pressure the 128 MiB container ceiling.
const leakElementCount = 10_000_000

// fragment is one named piece of scenario behavior. Pre fragments run ahead
// of the user code, post fragments after it; each renderer emits source in
// the target language's own syntax, or "" when its flag is not set.
type fragment struct {
	name   string
	post   bool
	render func(sc models.Scenario, lang models.Language) string
}

// Assembly follows the declaration order of the scenario fields: crash is
// the only post fragment, the rest are concatenated ahead of the user code.
var fragments = []fragment{
	{name: "crash", post: true, render: renderCrash},
	{name: "highCpu", render: renderHighCPU},
	{name: "memoryLeak", render: renderMemoryLeak},
	{name: "delay", render: renderDelay},
}

// Inject returns the augmented source for the given scenario. It trusts the
// scenario as operator-controlled input; it is not a security boundary.
func Inject(code string, sc models.Scenario, lang models.Language) (string, error) {
	if lang != models.Python && lang != models.JavaScript {
		return "", customErrors.ErrUnsupportedLanguage
	}
	if sc.IsEmpty() {
		return code, nil
	}

	var pre, post []string
	if boot := renderBootstrap(code, lang); boot != "" {
		pre = append(pre, boot)
	}
	for _, f := range fragments {
		snippet := f.render(sc, lang)
		if snippet == "" {
			continue
		}
		if f.post {
			post = append(post, snippet)
		} else {
			pre = append(pre, snippet)
		}
	}
	if len(pre) == 0 && len(post) == 0 {
		return code, nil
	}

	parts := make([]string, 0, len(pre)+1+len(post))
	parts = append(parts, pre...)
	parts = append(parts, code)
	parts = append(parts, post...)
	return strings.Join(parts, "\n"), nil
}

func renderDelay(sc models.Scenario, lang models.Language) string {
	if sc.ArtificialDelayMs <= 0 {
		return ""
	}
	if lang == models.Python {
		return fmt.Sprintf("import time as __sandbox_time\n__sandbox_time.sleep(%d / 1000.0)", sc.ArtificialDelayMs)
	}
	return fmt.Sprintf("const __sandboxUntil = Date.now() + %d;\nwhile (Date.now() < __sandboxUntil) {}", sc.ArtificialDelayMs)
}

func renderCrash(sc models.Scenario, lang models.Language) string {
	if !sc.SimulateCrash {
		return ""
	}
	if lang == models.Python {
		return "import sys as __sandbox_sys\n__sandbox_sys.exit(1)"
	}
	return "process.exit(1);"
}

// renderHighCPU starts a busy loop off the primary execution path so the
// user code still runs while one core share is saturated.
func renderHighCPU(sc models.Scenario, lang models.Language) string {
	if !sc.SimulateHighCPU {
		return ""
	}
	if lang == models.Python {
		return strings.Join([]string{
			"import threading as __sandbox_threading",
			"def __sandbox_burn():",
			"    while True:",
			"        pass",
			"__sandbox_threading.Thread(target=__sandbox_burn, daemon=True).start()",
		}, "\n")
	}
	return strings.Join([]string{
		`const { Worker: __SandboxWorker } = require("worker_threads");`,
		`new __SandboxWorker("while (true) {}", { eval: true });`,
	}, "\n")
}

func renderMemoryLeak(sc models.Scenario, lang models.Language) string {
	if !sc.SimulateMemoryLeak {
		return ""
	}
	if lang == models.Python {
		return strings.Join([]string{
			"__sandbox_leak = []",
			fmt.Sprintf("for __sandbox_i in range(%d):", leakElementCount),
			"    __sandbox_leak.append({'n': __sandbox_i})",
		}, "\n")
	}
	return strings.Join([]string{
		"const __sandboxLeak = [];",
		fmt.Sprintf("for (let __sandboxI = 0; __sandboxI < %d; __sandboxI++) {", leakElementCount),
		"    __sandboxLeak.push({ n: __sandboxI });",
		"}",
	}, "\n")
}
