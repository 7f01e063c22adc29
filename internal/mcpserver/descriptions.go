package mcpserver

// Tool descriptions with interpretation guidance for LLMs.

func describeComplexity() string {
	return `Computes McCabe cyclomatic complexity for Python modules, functions, classes and methods.

USE WHEN:
- Finding functions that are hard to test or maintain
- Reviewing a module before refactoring
- Comparing the spread of complexity across a package

INTERPRETING RESULTS:
- Complexity is decisions - exits + 2 per function; several returns lower it
- Values may be zero or negative for functions with many early returns
- A module's X record counts its top-level code only
- A class's C record counts its body, not its methods
- "critical" lists functions and methods above the threshold (default 7)
- "failed" lists modules skipped because they could not be parsed

METRICS RETURNED:
- critical: records above the threshold
- complexity: every record in module order (X, F, then C followed by its M)
- summary: count and complexity sum per kind
- modules: count, sum, min, floor average and max of each module's functions
- distribution: percentiles and standard deviation of function complexity`
}

func describeCritical() string {
	return `Lists only the Python functions and methods whose McCabe complexity exceeds a threshold.

USE WHEN:
- Gating a change on complexity
- Picking refactoring targets quickly

INTERPRETING RESULTS:
- An empty list means every function is at or below the threshold
- The threshold is exclusive: a function at exactly the threshold is not critical
- Names are qualified as module.function or module.Class.method

METRICS RETURNED:
- critical: kind, qualified name and complexity of each critical function
- threshold: the threshold that was applied`
}
