package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const shopSource = `class Shop:
    """Sells things."""

    def buy(self, item: str) -> None:
        return None

def helper(a, b, c):
    x = a
    return x
    print("dead")
`

func pythonTree(t *testing.T) string {
	t.Helper()
	return writeTree(t, map[string]string{
		"shop.py":   shopSource,
		"broken.py": "def (:\n",
		"imp.py":    "import sys\nimport os\nimport sys\n",
	})
}

func TestPythonFunctionReports(t *testing.T) {
	root := pythonTree(t)

	assert.Equal(t, "# Long Function Scanner\n\nThreshold: 3 lines\n\n- shop.py::helper — 4 lines\n",
		runReport(t, root, "long-func-scan", Params{"min-lines": 3}))
	assert.Equal(t, "# Many Parameters Scanner (Python)\n\nThreshold: 3\n\n- shop.py::helper — 3 params\n",
		runReport(t, root, "many-params-scan", Params{"max-params": 3}))
	assert.Contains(t, runReport(t, root, "many-params-scan", nil), "No functions over threshold.\n")
	assert.Equal(t, "# Typing Missing Scanner (Python)\n\n- shop.py:7::helper\n",
		runReport(t, root, "typing-missing-scan", nil))
	assert.Equal(t, "# Unreachable Code Scanner (Python)\n\n- shop.py:9\n",
		runReport(t, root, "unreachable-code-scan-py", nil))
	assert.Equal(t, "# Python Function Metrics\n\n## shop.py\n\n- helper: 4 lines, 3 params\n- buy: 2 lines, 2 params\n",
		runReport(t, root, "function-metrics-py", nil))
}

func TestPythonDefinitionReports(t *testing.T) {
	root := pythonTree(t)

	missing := runReport(t, root, "miss-docstring-scan", nil)
	assert.Contains(t, missing, "- shop.py: FunctionDef helper missing docstring\n")
	assert.Contains(t, missing, "- shop.py: FunctionDef buy missing docstring\n")
	assert.NotContains(t, missing, "Shop missing")

	assert.Equal(t, "# Python Class Metrics\n\n## shop.py\n\n- Shop: 1 methods, 5 lines\n",
		runReport(t, root, "class-metrics-py", nil))
	assert.Equal(t, "# Python Docstring Summary\n\n## shop.py\n\n- Shop: Sells things.\n",
		runReport(t, root, "docstring-summary-py", nil))
	assert.Equal(t, "# Python Import List\n\n## imp.py\n\n- os\n- sys\n",
		runReport(t, root, "import-list-py", nil))
}

func TestPythonSyntaxAndOutline(t *testing.T) {
	root := pythonTree(t)

	syntax := runReport(t, root, "syntax-scan-py", nil)
	assert.Contains(t, syntax, "- broken.py:")
	assert.NotContains(t, syntax, "shop.py")

	outlineBody := runReport(t, root, "code-outline-py", nil)
	assert.Contains(t, outlineBody, "## broken.py\n\n```\n\n```\n\n")
	assert.Contains(t, outlineBody, "## shop.py\n\n```\nclass Shop (line 1)\ndef buy (line 4)\ndef helper (line 7)\n```\n\n")
}
