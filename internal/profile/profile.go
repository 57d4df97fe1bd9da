// Package profile defines the fixed named detector-name expansions (§4.3)
// shared by the registry (C3) and configuration loading (C4). It is kept
// separate from both so that config can expand a --profile selection
// without importing the registry, which itself depends on config.ScanConfig.
package profile

import (
	"fmt"
	"sort"

	"github.com/d-oit/code-guardian/internal/cgerrors"
	"github.com/d-oit/code-guardian/internal/detector"
)

// Names maps a profile name to the fixed list of built-in detector names it
// expands to.
var Names = map[string][]string{
	"security": {
		"Debugger", "PythonBreakpoint", "HardcodedCredentials", "HardcodedAPIKey",
		"HardcodedAWSKey", "SQLInjection", "InsecurePRNG", "PythonInsecurePRNG",
		"XSSInnerHTML", "PathTraversal", "WeakCryptoMD5", "WeakCryptoSHA1",
		"RustUnsafeBlock",
	},
	"quality": {
		"TODO", "FIXME", "HACK", "XXX", "ConsoleLog", "PythonPrint",
		"EmptyCatch", "PythonBareExcept", "DeeplyNestedLoops", "NPlusOneQuery",
		"OverEngineeredFactory", "TSAnyType", "RustUnwrapInProd",
	},
	"llm-security": {
		"LLMSQLInjection", "HardcodedCredentials", "HardcodedAPIKey",
		"HallucinatedLodashDeepClone", "HallucinatedReactUseAsync", "HallucinatedPandasToDictDeep",
	},
	"llm-quality": {
		"AsyncAwaitNonCall", "MixedContinuationStyle", "OverEngineeredFactory",
		"HallucinatedLodashDeepClone", "HallucinatedReactUseAsync", "HallucinatedPandasToDictDeep",
	},
	"comprehensive": nil, // expanded below, in init, to every built-in name
	"production-ready": {
		"Debugger", "PythonBreakpoint", "AlertPrompt", "ConsoleLog", "PythonPrint",
		"DebugFlag", "ExperimentalMarker", "DevStagingMarker", "DeadCodeMarker",
		"TODO", "FIXME", "HACK",
	},
	"production-ready-llm": {
		"Debugger", "HallucinatedLodashDeepClone", "HallucinatedReactUseAsync",
		"HallucinatedPandasToDictDeep", "LLMSQLInjection", "OverEngineeredFactory",
	},
}

func init() {
	all, err := detector.Builtins()
	if err != nil {
		panic(fmt.Sprintf("profile: builtin detector catalog failed to compile: %v", err))
	}
	names := make([]string, 0, len(all))
	for _, d := range all {
		names = append(names, d.Descriptor().Name)
	}
	sort.Strings(names)
	Names["comprehensive"] = names
}

// Expand returns the fixed detector-name list a profile expands to.
func Expand(name string) ([]string, error) {
	names, ok := Names[name]
	if !ok {
		return nil, cgerrors.ProfileNotFound(name)
	}
	out := make([]string, len(names))
	copy(out, names)
	return out, nil
}

// All returns the sorted list of known profile names, used by the CLI
// shell's help text and by `custom-detectors list`.
func All() []string {
	names := make([]string, 0, len(Names))
	for name := range Names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
